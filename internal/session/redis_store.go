package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/physio-booking/internal/booking"
	"github.com/wolfman30/physio-booking/pkg/logging"
)

// releaseLock deletes the lock only if it still holds our token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps flow state as JSON under flow:state:<id>.
type RedisStore struct {
	client *redis.Client
	logger *logging.Logger
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, logger *logging.Logger) *RedisStore {
	if client == nil {
		panic("session: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisStore{client: client, logger: logger}
}

func stateKey(id string) string { return "flow:state:" + id }
func lockKey(id string) string  { return "flow:lock:" + id }

func (s *RedisStore) Load(ctx context.Context, id string) (booking.State, error) {
	data, err := s.client.Get(ctx, stateKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return booking.State{}, ErrNotFound
	}
	if err != nil {
		return booking.State{}, fmt.Errorf("session: load %s: %w", id, err)
	}
	var state booking.State
	if err := json.Unmarshal(data, &state); err != nil {
		return booking.State{}, fmt.Errorf("session: decode %s: %w", id, err)
	}
	return state, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, state booking.State, ttl time.Duration) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", id, err)
	}
	if err := s.client.Set(ctx, stateKey(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("session: save %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, stateKey(id)).Err(); err != nil {
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Lock(ctx context.Context, id string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, lockKey(id), token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("session: lock %s: %w", id, err)
	}
	if !ok {
		return nil, ErrBusy
	}
	return func() {
		// The caller's context may already be cancelled.
		if err := releaseLock.Run(context.WithoutCancel(ctx), s.client, []string{lockKey(id)}, token).Err(); err != nil {
			s.logger.Warn("failed to release session lock", "session_id", id, "error", err)
		}
	}, nil
}
