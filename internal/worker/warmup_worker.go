package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Warmer generates and caches the boards of consecutive days.
type Warmer interface {
	Warmup(ctx context.Context, providerID int64, from time.Time, days int) (int, error)
	Location() *time.Location
}

// WarmupWorker keeps the boards of the next days cached for a fixed set of
// providers, so the first read of a day does not pay for generation.
type WarmupWorker struct {
	boards    Warmer
	providers []int64
	days      int
	interval  time.Duration
	retry     RetryPolicy
	now       func() time.Time
	logger    *zerolog.Logger
}

func NewWarmupWorker(boards Warmer, providers []int64, days int, interval time.Duration, retry RetryPolicy, logger *zerolog.Logger) *WarmupWorker {
	if days <= 0 {
		days = 1
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &WarmupWorker{
		boards:    boards,
		providers: providers,
		days:      days,
		interval:  interval,
		retry:     retry,
		now:       time.Now,
		logger:    logger,
	}
}

// Start runs a warmup pass immediately and then once per interval until ctx
// is done.
func (w *WarmupWorker) Start(ctx context.Context) {
	if len(w.providers) == 0 {
		w.logger.Info().Msg("warmup_worker: no providers configured")
		return
	}

	w.logger.Info().Dur("interval", w.interval).Int("days", w.days).Msg("warmup_worker: started")
	defer w.logger.Info().Msg("warmup_worker: stopped")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce warms every provider and returns how many boards were prepared.
// A provider that keeps failing is logged and skipped.
func (w *WarmupWorker) RunOnce(ctx context.Context) int {
	today := w.now().In(w.boards.Location())

	total := 0
	for _, providerID := range w.providers {
		var n int
		err := w.retry.Do(ctx, func(ctx context.Context) error {
			var err error
			n, err = w.boards.Warmup(ctx, providerID, today, w.days)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return total
			}
			w.logger.Warn().Err(err).Int64("provider_id", providerID).Msg("warmup_worker: provider failed")
			continue
		}
		total += n
		w.logger.Debug().Int64("provider_id", providerID).Int("boards", n).Msg("warmup_worker: provider warmed")
	}
	return total
}
