package usecase

import (
	"context"
	"log/slog"
	"time"
)

const DefaultCleanupInterval = time.Minute

type roomCleaner interface {
	Cleanup(ctx context.Context) int
}

// Sweeper periodically removes rooms left without players.
type Sweeper struct {
	logger   *slog.Logger
	cleaner  roomCleaner
	interval time.Duration
}

func NewSweeper(logger *slog.Logger, cleaner roomCleaner, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}

	return &Sweeper{
		logger:   logger.With("component", "sweeper"),
		cleaner:  cleaner,
		interval: interval,
	}
}

// Run sweeps on every tick until ctx is cancelled.
func (that *Sweeper) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	ticker := time.NewTicker(that.interval)
	defer ticker.Stop()

	log.Info("sweeper started", "interval", that.interval)

	for {
		select {
		case <-ticker.C:
			if deleted := that.cleaner.Cleanup(ctx); deleted > 0 {
				log.Debug("sweep finished", "deleted", deleted)
			}
		case <-ctx.Done():
			log.Info("sweeper stopped")
			return nil
		}
	}
}
