package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotx/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) requireCache() error {
	if r.cache == nil {
		return fmt.Errorf("%w: search cache is disabled", shared.ErrInvalidConfig)
	}
	return nil
}

// CacheClear removes every cached search result.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCache(); err != nil {
		return err
	}

	removed, err := r.cache.Clear(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("search cache cleared", "rows", removed)
	return r.writePlain("✓ Removed %d cached entries\n", removed)
}

// CachePrune removes cached searches older than the configured TTL.
func (r *Runner) CachePrune(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCache(); err != nil {
		return err
	}

	removed, err := r.cache.Prune(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Pruned %d stale entries\n", removed)
}

// CacheStats prints how many tracks and misses are cached.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCache(); err != nil {
		return err
	}

	stats, err := r.cache.Stats(ctx)
	if err != nil {
		return err
	}

	r.writePlain("Cached tracks: %d\n", stats.Tracks)
	return r.writePlain("Cached misses: %d\n", stats.Misses)
}
