// Package retention prunes daily evaluation JSONL files on a cron schedule.
//
// Only the best-effort JSONL copies are pruned; the evaluations table is the
// audit record and is never touched here.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// Pruner deletes JSONL files older than a retention window.
type Pruner struct {
	dir           string
	retentionDays int
	logger        *slog.Logger
	now           func() time.Time
}

// NewPruner creates a pruner for dir. retentionDays <= 0 keeps files forever.
func NewPruner(dir string, retentionDays int, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pruner{
		dir:           dir,
		retentionDays: retentionDays,
		logger:        logger.With("component", "retention"),
		now:           time.Now,
	}
}

// Prune deletes YYYY-MM-DD.jsonl files whose day is older than the window
// and returns how many were removed. Files with other names are ignored.
func (p *Pruner) Prune(ctx context.Context) (int, error) {
	if p.retentionDays <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read %s: %w", p.dir, err)
	}

	today := p.now().UTC().Truncate(24 * time.Hour)
	cutoff := today.AddDate(0, 0, -p.retentionDays)

	deleted := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		day, err := time.Parse(dayLayout, strings.TrimSuffix(name, ".jsonl"))
		if err != nil || !day.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(p.dir, name)); err != nil {
			p.logger.WarnContext(ctx, "failed to remove evaluation log", "file", name, "error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}
