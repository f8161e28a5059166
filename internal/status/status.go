// Package status is the ephemeral job status cache. Each job is a Redis hash
// with a bounded lifetime; progress updates are merged atomically so the
// stored value never decreases.
package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/smart-ocr/internal/state"
)

// ErrUnavailable indicates the cache could not be reached.
var ErrUnavailable = errors.New("status cache unavailable")

// mergeScript applies field/value pairs to an existing hash. Progress is
// replaced only when the incoming value is larger. Returns 0 when the key
// is absent.
var mergeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
for i = 2, #ARGV, 2 do
  local field = ARGV[i]
  local value = ARGV[i + 1]
  if field == 'progress' then
    local current = tonumber(redis.call('HGET', KEYS[1], 'progress') or '0') or 0
    local incoming = tonumber(value) or 0
    if incoming < current then
      value = tostring(current)
    end
  end
  redis.call('HSET', KEYS[1], field, value)
end
redis.call('HSET', KEYS[1], 'updated_at', ARGV[1])
return 1
`)

// Store reads and writes job snapshots.
type Store interface {
	Create(ctx context.Context, filename string) (state.Snapshot, error)
	Update(ctx context.Context, jobID string, u state.Update) error
	Get(ctx context.Context, jobID string) (state.Snapshot, bool, error)
	Delete(ctx context.Context, jobID string) error
}

// Config controls key layout and expiry.
type Config struct {
	KeyPrefix string
	TTL       time.Duration
}

type store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// New returns a Store backed by client.
func New(client redis.UniversalClient, cfg Config, logger *slog.Logger) Store {
	return newStore(client, cfg, logger, time.Now)
}

func newStore(client redis.UniversalClient, cfg Config, logger *slog.Logger, now func() time.Time) *store {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "job:"
	}
	return &store{
		client: client,
		prefix: prefix,
		ttl:    cfg.TTL,
		now:    now,
		logger: logger.With("system", "status"),
	}
}

// Create assigns a fresh job id and writes its RECEIVED snapshot with an
// expiry in one transaction.
func (s *store) Create(ctx context.Context, filename string) (state.Snapshot, error) {
	now := s.now().UTC()
	snap := state.Enter(state.Received).Apply(state.Snapshot{
		JobID:     uuid.NewString(),
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
	})

	k := key(s.prefix, snap.JobID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, flatten(snap))
		if s.ttl > 0 {
			pipe.Expire(ctx, k, s.ttl)
		}
		return nil
	})
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("%w: create %s: %w", ErrUnavailable, snap.JobID, err)
	}
	return snap, nil
}

// Update merges u into an existing snapshot. A missing snapshot is logged
// and left absent.
func (s *store) Update(ctx context.Context, jobID string, u state.Update) error {
	if u.IsZero() {
		return nil
	}

	args := append([]any{formatTime(s.now())}, updateArgs(u)...)
	applied, err := mergeScript.Run(ctx, s.client, []string{key(s.prefix, jobID)}, args...).Int()
	if err != nil {
		return fmt.Errorf("%w: update %s: %w", ErrUnavailable, jobID, err)
	}

	if applied == 0 {
		s.logger.Warn("status update for missing job", "job_id", jobID, "status", u.Status)
	}
	return nil
}

// Get returns the snapshot for jobID. found is false when the key is absent
// or expired.
func (s *store) Get(ctx context.Context, jobID string) (state.Snapshot, bool, error) {
	fields, err := s.client.HGetAll(ctx, key(s.prefix, jobID)).Result()
	if err != nil {
		return state.Snapshot{}, false, fmt.Errorf("%w: get %s: %w", ErrUnavailable, jobID, err)
	}
	if len(fields) == 0 {
		return state.Snapshot{}, false, nil
	}

	snap, err := unflatten(fields)
	if err != nil {
		return state.Snapshot{}, false, fmt.Errorf("decode %s: %w", jobID, err)
	}
	return snap, true, nil
}

// Delete removes the snapshot for jobID. Missing keys are not an error.
func (s *store) Delete(ctx context.Context, jobID string) error {
	if err := s.client.Del(ctx, key(s.prefix, jobID)).Err(); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrUnavailable, jobID, err)
	}
	return nil
}
