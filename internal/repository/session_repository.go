package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"portfolio-go/internal/model"
)

// SessionRepository 保存管理员会话。
type SessionRepository interface {
	Create(ctx context.Context, s model.AdminSession) error
	// Get 返回会话；不存在或已过期时返回 ErrNotFound。
	Get(ctx context.Context, id string) (*model.AdminSession, error)
	Delete(ctx context.Context, id string) error
}

type memorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]model.AdminSession
	now      func() time.Time
}

// NewMemorySessionRepository 创建一个进程内的会话存储，重启后会话失效。
func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepository{sessions: make(map[string]model.AdminSession), now: time.Now}
}

func (r *memorySessionRepository) Create(_ context.Context, s model.AdminSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// 顺便清理过期会话
	now := r.now()
	for id, old := range r.sessions {
		if old.Expired(now) {
			delete(r.sessions, id)
		}
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *memorySessionRepository) Get(_ context.Context, id string) (*model.AdminSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	if s.Expired(r.now()) {
		delete(r.sessions, id)
		return nil, model.ErrNotFound
	}
	return &s, nil
}

func (r *memorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

type redisSessionRepository struct {
	redisClient *redis.Client
}

// NewRedisSessionRepository 创建一个基于 Redis 的会话存储，过期由 key 的 TTL 控制。
func NewRedisSessionRepository(redisClient *redis.Client) SessionRepository {
	return &redisSessionRepository{redisClient: redisClient}
}

func adminSessionKey(id string) string { return fmt.Sprintf("admin:session:%s", id) }

func (r *redisSessionRepository) Create(ctx context.Context, s model.AdminSession) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	jsonData, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.redisClient.Set(ctx, adminSessionKey(s.ID), jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (r *redisSessionRepository) Get(ctx context.Context, id string) (*model.AdminSession, error) {
	jsonData, err := r.redisClient.Get(ctx, adminSessionKey(id)).Result()
	if err == redis.Nil {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	var s model.AdminSession
	if err := json.Unmarshal([]byte(jsonData), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if s.Expired(time.Now()) {
		return nil, model.ErrNotFound
	}
	return &s, nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.redisClient.Del(ctx, adminSessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
