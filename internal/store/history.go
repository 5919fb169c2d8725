package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/roomflow-ai/booking-platform/internal/model"
)

// HistoryStore archives discarded conversations. Append is idempotent on
// content: a session whose ordered message ids were already archived is
// skipped.
type HistoryStore interface {
	// Append archives a session. Returns false when the content was
	// already present.
	Append(ctx context.Context, session model.ChatSession) (bool, error)
	// List returns the archived sessions, oldest first.
	List(ctx context.Context) ([]model.ChatSession, error)
}

// MemoryHistory is the in-memory history archive.
type MemoryHistory struct {
	mu       sync.Mutex
	sessions []model.ChatSession
	keys     map[string]bool
}

// NewMemoryHistory creates an empty in-memory archive.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{keys: make(map[string]bool)}
}

// Append archives a session unless its content is already present.
func (h *MemoryHistory) Append(ctx context.Context, session model.ChatSession) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := session.DedupKey()
	if h.keys[key] {
		return false, nil
	}
	h.keys[key] = true
	h.sessions = append(h.sessions, session)
	return true, nil
}

// List returns the archived sessions, oldest first.
func (h *MemoryHistory) List(ctx context.Context) ([]model.ChatSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]model.ChatSession, len(h.sessions))
	copy(out, h.sessions)
	return out, nil
}

const (
	historyListKey = "roombook:history"
	historyKeysKey = "roombook:history:keys"
)

// RedisHistory archives sessions in a Redis list with a companion set for
// content dedup. Best effort convenience, not a durability guarantee.
type RedisHistory struct {
	client *redis.Client
}

// NewRedisHistory creates a Redis-backed archive.
func NewRedisHistory(client *redis.Client) *RedisHistory {
	return &RedisHistory{client: client}
}

// Append archives a session unless its content is already present.
func (h *RedisHistory) Append(ctx context.Context, session model.ChatSession) (bool, error) {
	added, err := h.client.SAdd(ctx, historyKeysKey, session.DedupKey()).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record history key: %w", err)
	}
	if added == 0 {
		return false, nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		return false, fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := h.client.RPush(ctx, historyListKey, data).Err(); err != nil {
		return false, fmt.Errorf("failed to append session: %w", err)
	}
	return true, nil
}

// List returns the archived sessions, oldest first.
func (h *RedisHistory) List(ctx context.Context) ([]model.ChatSession, error) {
	raw, err := h.client.LRange(ctx, historyListKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	sessions := make([]model.ChatSession, 0, len(raw))
	for _, item := range raw {
		var s model.ChatSession
		if err := json.Unmarshal([]byte(item), &s); err != nil {
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
