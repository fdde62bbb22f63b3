package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"slotdesk/internal/config"
	"slotdesk/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisBoardRepository stores boards as JSON under slot_board:<provider>:<date>.
type RedisBoardRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisBoardRepository(client *redis.Client, ttl time.Duration) *RedisBoardRepository {
	return &RedisBoardRepository{
		client: client,
		ttl:    ttl,
	}
}

func boardKey(providerID int64, date string) string {
	return fmt.Sprintf("slot_board:%d:%s", providerID, date)
}

func (r *RedisBoardRepository) GetBoard(ctx context.Context, providerID int64, date string) (*models.Board, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, boardKey(providerID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get board from redis: %w", err)
	}

	var board models.Board
	if err := json.Unmarshal(val, &board); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}

	return &board, nil
}

func (r *RedisBoardRepository) SaveBoard(ctx context.Context, board *models.Board) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}

	if err := r.client.Set(ctx, boardKey(board.ProviderID, board.Date), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set board in redis: %w", err)
	}

	return nil
}

func (r *RedisBoardRepository) DeleteBoard(ctx context.Context, providerID int64, date string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, boardKey(providerID, date)).Err(); err != nil {
		return fmt.Errorf("failed to delete board from redis: %w", err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
