package history

import (
	"context"
	"encoding/json"
	"fmt"

	"AIAvatar/internal/config"
	"AIAvatar/internal/models"
	"AIAvatar/pkg/logger"

	"github.com/go-redis/redis/v8"
)

const historyKey = "avatar:history"

// RedisHistory shares the rolling history across service instances through a
// capped Redis list.
type RedisHistory struct {
	log    *logger.Logger
	client *redis.Client
}

// NewRedisHistory connects to Redis and verifies the connection.
func NewRedisHistory(ctx context.Context, cfg *config.RedisConfig, log *logger.Logger) (*RedisHistory, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.WithPayload(map[string]any{"address": cfg.Address}).Info("Connected to Redis history")
	return &RedisHistory{log: log, client: client}, nil
}

// Add pushes the entry to the head of the list and trims to MaxEntries.
func (h *RedisHistory) Add(ctx context.Context, entry models.HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	pipe := h.client.TxPipeline()
	pipe.LPush(ctx, historyKey, data)
	pipe.LTrim(ctx, historyKey, 0, MaxEntries-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record history entry: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first. Entries that no longer parse
// are skipped.
func (h *RedisHistory) Recent(ctx context.Context, n int) ([]models.HistoryEntry, error) {
	if n <= 0 || n > MaxEntries {
		n = MaxEntries
	}
	raws, err := h.client.LRange(ctx, historyKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	entries := make([]models.HistoryEntry, 0, len(raws))
	for _, raw := range raws {
		var e models.HistoryEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			h.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Skipping unparseable history entry")
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Close releases the Redis connection.
func (h *RedisHistory) Close() error {
	return h.client.Close()
}

var _ History = (*RedisHistory)(nil)
