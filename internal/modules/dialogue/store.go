// README: Conversation state stores keyed by session id (Redis JSON with TTL, or in-process cache).
package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "tabi:session:%s:state"

// StateStore is the session key-value interface the dialogue reads and writes through.
// Expiry is the store's concern; a missing key is reported as found == false.
type StateStore interface {
	Get(ctx context.Context, sessionID string) (st ConversationState, found bool, err error)
	Put(ctx context.Context, sessionID string, st ConversationState) error
	Delete(ctx context.Context, sessionID string) error
}

type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisStore(redis *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: redis, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (ConversationState, bool, error) {
	raw, err := s.redis.Get(ctx, stateKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ConversationState{}, false, nil
	}
	if err != nil {
		return ConversationState{}, false, fmt.Errorf("load session state: %w", err)
	}
	var st ConversationState
	if err := json.Unmarshal(raw, &st); err != nil {
		return ConversationState{}, false, fmt.Errorf("decode session state: %w", err)
	}
	return st, true, nil
}

// Put stores the state and refreshes the session TTL.
func (s *RedisStore) Put(ctx context.Context, sessionID string, st ConversationState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	if err := s.redis.Set(ctx, stateKey(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.redis.Del(ctx, stateKey(sessionID)).Err()
}

func stateKey(sessionID string) string {
	return fmt.Sprintf(stateKeyPrefix, sessionID)
}

// MemoryStore keeps state in process; used when no Redis address is configured.
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.New(ttl, 2*ttl)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (ConversationState, bool, error) {
	v, ok := s.cache.Get(sessionID)
	if !ok {
		return ConversationState{}, false, nil
	}
	// Hand out a copy so callers cannot mutate the cached transcript.
	return v.(ConversationState).Clone(), true, nil
}

func (s *MemoryStore) Put(_ context.Context, sessionID string, st ConversationState) error {
	s.cache.Set(sessionID, st.Clone(), cache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}
