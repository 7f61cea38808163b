package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"portfolio-go/internal/model"
)

// maxTranscript 每个会话最多保留的消息条数。
const maxTranscript = 200

// ChatSessionRepository 保存访客的对话状态。
type ChatSessionRepository interface {
	// Load 返回会话状态；会话不存在时返回 (nil, nil)。
	Load(ctx context.Context, sessionID string) (*model.ChatState, error)
	Save(ctx context.Context, sessionID string, state *model.ChatState) error
}

func trimTranscript(state *model.ChatState) {
	if n := len(state.Transcript); n > maxTranscript {
		state.Transcript = state.Transcript[n-maxTranscript:]
	}
}

type memoryChatSessionRepository struct {
	mu     sync.Mutex
	states map[string][]byte
	seen   map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryChatSessionRepository 创建进程内的对话状态存储，空闲超过 ttl 的会话会被丢弃。
func NewMemoryChatSessionRepository(ttl time.Duration) ChatSessionRepository {
	return &memoryChatSessionRepository{
		states: make(map[string][]byte),
		seen:   make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Load 返回状态的一份独立拷贝。
func (r *memoryChatSessionRepository) Load(_ context.Context, sessionID string) (*model.ChatState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.states[sessionID]
	if !ok {
		return nil, nil
	}
	if r.ttl > 0 && r.now().Sub(r.seen[sessionID]) > r.ttl {
		delete(r.states, sessionID)
		delete(r.seen, sessionID)
		return nil, nil
	}
	var state model.ChatState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat state: %w", err)
	}
	return &state, nil
}

func (r *memoryChatSessionRepository) Save(_ context.Context, sessionID string, state *model.ChatState) error {
	trimTranscript(state)
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal chat state: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if r.ttl > 0 {
		for id, at := range r.seen {
			if now.Sub(at) > r.ttl {
				delete(r.states, id)
				delete(r.seen, id)
			}
		}
	}
	r.states[sessionID] = data
	r.seen[sessionID] = now
	return nil
}

type redisChatSessionRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewRedisChatSessionRepository 创建一个基于 Redis 的对话状态存储。
func NewRedisChatSessionRepository(redisClient *redis.Client, ttl time.Duration) ChatSessionRepository {
	return &redisChatSessionRepository{redisClient: redisClient, ttl: ttl}
}

func chatSessionKey(id string) string { return fmt.Sprintf("chat:session:%s", id) }

func (r *redisChatSessionRepository) Load(ctx context.Context, sessionID string) (*model.ChatState, error) {
	jsonData, err := r.redisClient.Get(ctx, chatSessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat state: %w", err)
	}
	var state model.ChatState
	if err := json.Unmarshal([]byte(jsonData), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat state: %w", err)
	}
	return &state, nil
}

func (r *redisChatSessionRepository) Save(ctx context.Context, sessionID string, state *model.ChatState) error {
	trimTranscript(state)
	jsonData, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal chat state: %w", err)
	}
	if err := r.redisClient.Set(ctx, chatSessionKey(sessionID), jsonData, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set chat state: %w", err)
	}
	return nil
}
