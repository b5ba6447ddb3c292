package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/solatis/promokeeper/internal/core/db"
	"github.com/solatis/promokeeper/internal/rules"
	"github.com/solatis/promokeeper/internal/types"
)

var couponFlags struct {
	storefront  string
	code        string
	rule        string
	description string
	limit       int
	file        string
}

var couponCmd = &cobra.Command{
	Use:   "coupon",
	Short: "Manage the coupon catalog",
}

var couponAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a coupon with its rule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := rules.NewEngine(logger).Compile(couponFlags.rule); err != nil {
			return fmt.Errorf("rule does not compile: %w", err)
		}

		database, queries, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()
		if err := db.RequireMigrated(database); err != nil {
			return err
		}

		c := &types.Coupon{
			StorefrontID: types.StorefrontID(couponFlags.storefront),
			Code:         couponFlags.code,
			RuleSource:   couponFlags.rule,
			Description:  couponFlags.description,
		}
		if err := queries.InsertCoupon(cmd.Context(), c); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c.CouponID, c.Code)
		return nil
	},
}

var couponListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a storefront's coupons",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, queries, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		coupons, err := queries.ListCoupons(cmd.Context(), types.StorefrontID(couponFlags.storefront), couponFlags.limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tSTATE\tRULE\tDESCRIPTION")
		for _, c := range coupons {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Code, c.State, c.RuleSource, c.Description)
		}
		return w.Flush()
	},
}

// couponFile is the YAML document accepted by "coupon import".
type couponFile struct {
	Coupons []struct {
		Code        string `yaml:"code"`
		Rule        string `yaml:"rule"`
		Description string `yaml:"description"`
	} `yaml:"coupons"`
}

// loadCouponFile decodes a coupon file and compiles every rule so that a
// bad entry rejects the whole file before anything is written.
func loadCouponFile(r io.Reader, engine *rules.Engine) (*couponFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f couponFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode coupon file: %w", err)
	}
	seen := make(map[string]bool, len(f.Coupons))
	for i, c := range f.Coupons {
		if c.Code == "" {
			return nil, fmt.Errorf("coupon %d: code is required", i+1)
		}
		if seen[c.Code] {
			return nil, fmt.Errorf("coupon %s: duplicate code", c.Code)
		}
		seen[c.Code] = true
		if _, err := engine.Compile(c.Rule); err != nil {
			return nil, fmt.Errorf("coupon %s: rule does not compile: %w", c.Code, err)
		}
	}
	return &f, nil
}

var couponImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import coupons from a YAML file",
	Long: `Import coupons from a YAML file of the form:

  coupons:
    - code: BIG
      rule: PERCENT 10 IF TOTAL > 200
      description: big spender

Codes that already exist for the storefront are skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := os.Open(couponFlags.file)
		if err != nil {
			return err
		}
		defer in.Close()

		f, err := loadCouponFile(in, rules.NewEngine(logger))
		if err != nil {
			return err
		}

		database, queries, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()
		if err := db.RequireMigrated(database); err != nil {
			return err
		}

		imported, skipped := 0, 0
		for _, entry := range f.Coupons {
			c := &types.Coupon{
				StorefrontID: types.StorefrontID(couponFlags.storefront),
				Code:         entry.Code,
				RuleSource:   entry.Rule,
				Description:  entry.Description,
			}
			if err := queries.InsertCoupon(cmd.Context(), c); err != nil {
				if errors.Is(err, types.ErrCouponExists) {
					logger.Warn("coupon already exists, skipping", "code", entry.Code)
					skipped++
					continue
				}
				return err
			}
			imported++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d\n", imported, skipped)
		return nil
	},
}

var couponDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable a coupon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCouponState(cmd.Context(), types.CouponDisabled)
	},
}

var couponEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Re-enable a disabled coupon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCouponState(cmd.Context(), types.CouponActive)
	},
}

func setCouponState(ctx context.Context, state types.CouponState) error {
	database, queries, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	if err := queries.SetCouponState(ctx, types.StorefrontID(couponFlags.storefront), couponFlags.code, state); err != nil {
		return err
	}
	logger.Info("coupon state changed", "storefront_id", couponFlags.storefront, "code", couponFlags.code, "state", state)
	return nil
}

func init() {
	rootCmd.AddCommand(couponCmd)
	couponCmd.AddCommand(couponAddCmd, couponListCmd, couponImportCmd, couponDisableCmd, couponEnableCmd)

	couponCmd.PersistentFlags().StringVar(&couponFlags.storefront, "storefront", "", "storefront ID")
	_ = couponCmd.MarkPersistentFlagRequired("storefront")

	for _, c := range []*cobra.Command{couponAddCmd, couponDisableCmd, couponEnableCmd} {
		c.Flags().StringVar(&couponFlags.code, "code", "", "coupon code")
		_ = c.MarkFlagRequired("code")
	}

	couponAddCmd.Flags().StringVar(&couponFlags.rule, "rule", "", `rule string, e.g. "PERCENT 10 IF TOTAL > 200"`)
	couponAddCmd.Flags().StringVar(&couponFlags.description, "description", "", "free-form description")
	_ = couponAddCmd.MarkFlagRequired("rule")

	couponImportCmd.Flags().StringVar(&couponFlags.file, "file", "", "YAML coupon file")
	_ = couponImportCmd.MarkFlagRequired("file")

	couponListCmd.Flags().IntVar(&couponFlags.limit, "limit", 1000, "maximum coupons to list")
}
