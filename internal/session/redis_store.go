package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// RedisStore persists session state in Redis with a TTL, so widget
// sessions survive an engine restart and expire on their own.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if rdb == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{
		rdb:    rdb,
		ttl:    ttl,
		tracer: otel.Tracer("leadpilot.internal.session"),
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func voiceKey(id string) string {
	return fmt.Sprintf("voice:%s", id)
}

// Create allocates a new session and persists its empty context.
func (s *RedisStore) Create(ctx context.Context) (*ConversationContext, error) {
	c := NewContext()
	if err := s.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get loads the context for a session.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*ConversationContext, error) {
	ctx, span := s.tracer.Start(ctx, "session.get")
	defer span.End()

	data, err := s.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load context: %w", err)
	}

	var c ConversationContext
	if err := json.Unmarshal(data, &c); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to decode context: %w", err)
	}
	return &c, nil
}

// Save persists the context and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, c *ConversationContext) error {
	ctx, span := s.tracer.Start(ctx, "session.save")
	defer span.End()

	if c == nil || c.SessionID == "" {
		return ErrSessionNotFound
	}
	data, err := json.Marshal(c)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal context: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(c.SessionID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist context: %w", err)
	}
	return nil
}

// Delete removes conversation and voice state for a session.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	ctx, span := s.tracer.Start(ctx, "session.delete")
	defer span.End()

	if err := s.rdb.Del(ctx, sessionKey(sessionID), voiceKey(sessionID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to delete: %w", err)
	}
	return nil
}

// GetVoice loads the voice state for a session, or nil when absent.
func (s *RedisStore) GetVoice(ctx context.Context, sessionID string) (*VoiceState, error) {
	ctx, span := s.tracer.Start(ctx, "session.get_voice")
	defer span.End()

	data, err := s.rdb.Get(ctx, voiceKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load voice state: %w", err)
	}

	var v VoiceState
	if err := json.Unmarshal(data, &v); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to decode voice state: %w", err)
	}
	return &v, nil
}

// SaveVoice persists the voice state and refreshes its TTL.
func (s *RedisStore) SaveVoice(ctx context.Context, v *VoiceState) error {
	ctx, span := s.tracer.Start(ctx, "session.save_voice")
	defer span.End()

	if v == nil || v.SessionID == "" {
		return ErrSessionNotFound
	}
	data, err := json.Marshal(v)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal voice state: %w", err)
	}
	if err := s.rdb.Set(ctx, voiceKey(v.SessionID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist voice state: %w", err)
	}
	return nil
}
