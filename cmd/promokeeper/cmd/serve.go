package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/solatis/promokeeper/internal/core/api"
	"github.com/solatis/promokeeper/internal/core/auth"
	"github.com/solatis/promokeeper/internal/core/config"
	"github.com/solatis/promokeeper/internal/core/db"
	"github.com/solatis/promokeeper/internal/core/metrics"
	"github.com/solatis/promokeeper/internal/core/retention"
	"github.com/solatis/promokeeper/internal/core/server"
	"github.com/solatis/promokeeper/internal/rules"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start gRPC promotion API service",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50061, "gRPC server port")
	serveCmd.Flags().String("data-dir", "./data", "directory for evaluation logs")
	serveCmd.Flags().Float64("default-shipping", 15, "shipping cost assumed when a coupon request omits it")
	serveCmd.Flags().String("metrics-addr", "127.0.0.1:9461", "Prometheus metrics listen address (empty disables)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	database, queries, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RequireMigrated(database); err != nil {
		return err
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set PK_HMAC_SECRET environment variable)")
	}

	authenticator := auth.NewAuthenticator(secrets, queries, logger)
	engine := rules.NewEngine(logger)
	m := metrics.New()

	service, err := api.NewPromoAPIService(queries, engine, cfg, logger, api.WithRecorder(m))
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(cfg, service, authenticator, logger, m.UnaryInterceptor())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := grpcServer.Listen(); err != nil {
		return err
	}

	pruner := retention.NewPruner(filepath.Join(cfg.DataDir, "evaluations"), cfg.EvaluationLogRetentionDays, logger)
	scheduler, err := retention.NewScheduler(pruner, cfg.PruneSchedule)
	if err != nil {
		return err
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = m.NewServer(cfg.MetricsAddr)
	}

	logger.Info("starting PromoKeeper API", "version", Version, "addr", grpcServer.Addr().String(), "metrics_addr", cfg.MetricsAddr)

	g, gctx := errgroup.WithContext(ctx)

	if err := scheduler.Start(gctx); err != nil {
		return err
	}

	g.Go(func() error {
		return grpcServer.Start(gctx)
	})

	if metricsServer != nil {
		g.Go(func() error {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	// Signal or first failure stops everything
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down gracefully")
		scheduler.Stop()
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", "error", err)
			}
		}
		return grpcServer.Shutdown(context.Background())
	})

	return g.Wait()
}
