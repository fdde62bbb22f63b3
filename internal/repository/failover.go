package repository

import (
	"context"
	"sync/atomic"
	"time"

	"slotdesk/internal/domain"
	"slotdesk/internal/models"

	"github.com/rs/zerolog"
)

const primaryRetryInterval = time.Minute

// FailoverBoardRepository serves boards from primary and switches to
// fallback when primary fails. The primary is retried once the retry
// interval has passed since the last failure.
type FailoverBoardRepository struct {
	primary   domain.BoardRepository
	fallback  domain.BoardRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverBoardRepository(primary, fallback domain.BoardRepository, logger *zerolog.Logger) *FailoverBoardRepository {
	return &FailoverBoardRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverBoardRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	// Try to recover after 1 minute
	return time.Since(time.Unix(0, r.lastCheck.Load())) > primaryRetryInterval
}

func (r *FailoverBoardRepository) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary board repository failed, falling back to memory")
	}
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverBoardRepository) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary board repository recovered")
	}
}

func (r *FailoverBoardRepository) GetBoard(ctx context.Context, providerID int64, date string) (*models.Board, error) {
	if r.usePrimary() {
		board, err := r.primary.GetBoard(ctx, providerID, date)
		if err == nil {
			r.markUp()
			return board, nil
		}
		r.markDown(err)
	}

	return r.fallback.GetBoard(ctx, providerID, date)
}

func (r *FailoverBoardRepository) SaveBoard(ctx context.Context, board *models.Board) error {
	if r.usePrimary() {
		err := r.primary.SaveBoard(ctx, board)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SaveBoard(ctx, board)
}

// DeleteBoard always clears the fallback as well.
func (r *FailoverBoardRepository) DeleteBoard(ctx context.Context, providerID int64, date string) error {
	if r.usePrimary() {
		if err := r.primary.DeleteBoard(ctx, providerID, date); err != nil {
			r.markDown(err)
		} else {
			r.markUp()
		}
	}

	return r.fallback.DeleteBoard(ctx, providerID, date)
}

// IsDown reports whether requests are currently served by the fallback.
func (r *FailoverBoardRepository) IsDown() bool {
	return r.isDown.Load()
}
