package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"slotdesk/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetBoard(ctx context.Context, providerID int64, date string) (*models.Board, error) {
	args := m.Called(ctx, providerID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Board), args.Error(1)
}

func (m *mockRepo) SaveBoard(ctx context.Context, board *models.Board) error {
	args := m.Called(ctx, board)
	return args.Error(0)
}

func (m *mockRepo) DeleteBoard(ctx context.Context, providerID int64, date string) error {
	args := m.Called(ctx, providerID, date)
	return args.Error(0)
}

func TestFailoverBoardRepository(t *testing.T) {
	primary := new(mockRepo)
	fallback := new(mockRepo)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverBoardRepository(primary, fallback, &logger)
	ctx := context.Background()
	const date = "2024-05-06"

	t.Run("PrimarySuccess", func(t *testing.T) {
		board := sampleBoard(1, date)
		primary.On("GetBoard", ctx, int64(1), date).Return(board, nil).Once()

		got, err := repo.GetBoard(ctx, 1, date)
		assert.NoError(t, err)
		assert.Equal(t, board, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		board := sampleBoard(2, date)
		primary.On("GetBoard", ctx, int64(2), date).Return(nil, errors.New("fail")).Once()
		fallback.On("GetBoard", ctx, int64(2), date).Return(board, nil).Once()

		got, err := repo.GetBoard(ctx, 2, date)
		assert.NoError(t, err)
		assert.Equal(t, board, got)
		assert.True(t, repo.IsDown())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("StaysOnFallbackWhileDown", func(t *testing.T) {
		board := sampleBoard(22, date)
		fallback.On("SaveBoard", ctx, board).Return(nil).Once()

		assert.NoError(t, repo.SaveBoard(ctx, board))
		primary.AssertNotCalled(t, "SaveBoard", ctx, board)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck.Store(time.Now().Add(-2 * time.Minute).UnixNano())

		board := sampleBoard(3, date)
		primary.On("GetBoard", ctx, int64(3), date).Return(board, nil).Once()

		got, err := repo.GetBoard(ctx, 3, date)
		assert.NoError(t, err)
		assert.Equal(t, board, got)
		assert.False(t, repo.IsDown())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck.Store(time.Now().Add(-2 * time.Minute).UnixNano())

		primary.On("GetBoard", ctx, int64(33), date).Return(nil, errors.New("still fail")).Once()
		fallback.On("GetBoard", ctx, int64(33), date).Return(nil, nil).Once()

		got, err := repo.GetBoard(ctx, 33, date)
		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.True(t, repo.IsDown())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SaveFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		board := sampleBoard(4, date)
		primary.On("SaveBoard", ctx, board).Return(errors.New("fail")).Once()
		fallback.On("SaveBoard", ctx, board).Return(nil).Once()

		assert.NoError(t, repo.SaveBoard(ctx, board))
		assert.True(t, repo.IsDown())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("DeleteClearsBoth", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("DeleteBoard", ctx, int64(5), date).Return(nil).Once()
		fallback.On("DeleteBoard", ctx, int64(5), date).Return(nil).Once()

		assert.NoError(t, repo.DeleteBoard(ctx, 5, date))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}

func TestFailoverBoardRepository_WithMemory(t *testing.T) {
	primary := new(mockRepo)
	fallback := NewMemoryBoardRepository(0)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverBoardRepository(primary, fallback, &logger)
	ctx := context.Background()

	board := sampleBoard(1, "2024-05-06")
	primary.On("SaveBoard", ctx, board).Return(errors.New("connection refused")).Once()

	assert.NoError(t, repo.SaveBoard(ctx, board))

	got, err := repo.GetBoard(ctx, 1, "2024-05-06")
	assert.NoError(t, err)
	assert.Equal(t, board, got)
	primary.AssertExpectations(t)
}
