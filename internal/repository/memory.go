package repository

import (
	"context"
	"sync"
	"time"

	"slotdesk/internal/models"
)

type memoryEntry struct {
	board     *models.Board
	expiresAt time.Time
}

// MemoryBoardRepository keeps boards in process. Entries expire after ttl;
// a zero ttl keeps them forever.
type MemoryBoardRepository struct {
	boards sync.Map
	ttl    time.Duration
	now    func() time.Time
}

func NewMemoryBoardRepository(ttl time.Duration) *MemoryBoardRepository {
	return &MemoryBoardRepository{
		ttl: ttl,
		now: time.Now,
	}
}

func (r *MemoryBoardRepository) GetBoard(_ context.Context, providerID int64, date string) (*models.Board, error) {
	key := boardKey(providerID, date)
	val, ok := r.boards.Load(key)
	if !ok {
		return nil, nil
	}
	entry := val.(memoryEntry)
	if !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt) {
		r.boards.Delete(key)
		return nil, nil
	}
	return entry.board.Clone(), nil
}

func (r *MemoryBoardRepository) SaveBoard(_ context.Context, board *models.Board) error {
	entry := memoryEntry{board: board.Clone()}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.boards.Store(boardKey(board.ProviderID, board.Date), entry)
	return nil
}

func (r *MemoryBoardRepository) DeleteBoard(_ context.Context, providerID int64, date string) error {
	r.boards.Delete(boardKey(providerID, date))
	return nil
}
