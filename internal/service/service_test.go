package service

import (
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"slotdesk/internal/database"
	"slotdesk/internal/events"
	"slotdesk/internal/models"
	"slotdesk/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// 2024-05-06 is a Monday.
var (
	monday    = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	mondayNow = time.Date(2024, 5, 6, 10, 30, 0, 0, time.UTC)
)

type recorder struct {
	mu     sync.Mutex
	events []*events.Event
}

func (r *recorder) handle(e *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func (r *recorder) last(t *testing.T, eventType string, payload interface{}) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == eventType {
			require.NoError(t, json.Unmarshal(r.events[i].Payload, payload))
			return
		}
	}
	t.Fatalf("no %s event published", eventType)
}

type fixture struct {
	db       *database.DB
	boards   *repository.MemoryBoardRepository
	schedule *ScheduleService
	board    *BoardService
	events   *recorder
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.New(io.Discard)

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bus := events.NewEventBus()
	rec := &recorder{}
	for _, et := range events.AllEventTypes {
		bus.Subscribe(et, rec.handle)
	}

	f := &fixture{
		db:     db,
		boards: repository.NewMemoryBoardRepository(time.Hour),
		events: rec,
		now:    mondayNow,
	}
	f.schedule = NewScheduleService(db, bus, models.DefaultSlotSettings(), &logger)
	f.board = NewBoardService(f.schedule, db, f.boards, bus, time.UTC, &logger)
	f.board.SetClock(func() time.Time { return f.now })
	return f
}
