// Package queue is a reliable task queue on Redis lists. Each consumer moves
// a message from the pending list to its own processing list while it works
// on it and removes it once handled. A consumer keeps a heartbeat key alive
// while running; the processing lists of consumers whose heartbeat has
// expired are returned to pending. Delivery is at-least-once.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/smart-ocr/pkg/lifecycle"
)

// ErrInvalidTask is returned by Enqueue for tasks without a job id.
var ErrInvalidTask = errors.New("invalid task")

// Task asks a worker to run the pipeline for one job.
type Task struct {
	JobID     string `json:"job_id"`
	SourceURI string `json:"source_uri"`
	Filename  string `json:"filename"`
	Attempts  int    `json:"attempts,omitempty"`
}

// Handler processes one task. A returned error counts as a failed delivery.
type Handler func(ctx context.Context, task Task) error

// Config controls list names and consumer behavior. ConsumerID defaults to
// a random id; HeartbeatTTL is how long a consumer may go silent before its
// in-flight tasks are considered orphaned.
type Config struct {
	Name           string
	ConsumerID     string
	Workers        int
	MaxAttempts    int
	BlockTimeout   time.Duration
	ProcessTimeout time.Duration
	RetryBackoff   time.Duration
	HeartbeatTTL   time.Duration
}

// Queue produces and consumes tasks.
type Queue struct {
	client     redis.UniversalClient
	cfg        Config
	pending    string
	processing string
	dead       string
	consumers  string
	alive      string
	logger     *slog.Logger
}

// New returns a Queue using lists derived from cfg.Name.
func New(client redis.UniversalClient, cfg Config, logger *slog.Logger) *Queue {
	if cfg.Name == "" {
		cfg.Name = "ocr"
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = 5 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	if cfg.HeartbeatTTL <= 0 {
		cfg.HeartbeatTTL = 30 * time.Second
	}
	if cfg.ConsumerID == "" {
		cfg.ConsumerID = uuid.NewString()
	}

	prefix := "queue:" + cfg.Name
	return &Queue{
		client:     client,
		cfg:        cfg,
		pending:    prefix + ":pending",
		processing: processingKey(prefix, cfg.ConsumerID),
		dead:       prefix + ":dead",
		consumers:  prefix + ":consumers",
		alive:      aliveKey(prefix, cfg.ConsumerID),
		logger: logger.With(
			"system", "queue",
			"queue", cfg.Name,
			"consumer", cfg.ConsumerID,
		),
	}
}

func processingKey(prefix, consumer string) string {
	return prefix + ":processing:" + consumer
}

func aliveKey(prefix, consumer string) string {
	return prefix + ":consumer:" + consumer
}

func (q *Queue) prefix() string {
	return "queue:" + q.cfg.Name
}

// Enqueue appends task to the pending list.
func (q *Queue) Enqueue(ctx context.Context, task Task) error {
	if task.JobID == "" {
		return fmt.Errorf("%w: missing job id", ErrInvalidTask)
	}

	raw, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}

	if err := q.client.LPush(ctx, q.pending, raw).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", task.JobID, err)
	}
	q.logger.Debug("task enqueued", "job_id", task.JobID)
	return nil
}

// Stats reports the length of the pending and dead-letter lists and the
// combined length of every registered consumer's processing list.
type Stats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Dead       int64 `json:"dead"`
}

// Stats returns the current list lengths.
func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	members, err := q.client.SMembers(ctx, q.consumers).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}

	var pending, dead *redis.IntCmd
	processing := make([]*redis.IntCmd, 0, len(members))
	_, err = q.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pending = pipe.LLen(ctx, q.pending)
		dead = pipe.LLen(ctx, q.dead)
		for _, m := range members {
			processing = append(processing, pipe.LLen(ctx, processingKey(q.prefix(), m)))
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}

	stats := Stats{Pending: pending.Val(), Dead: dead.Val()}
	for _, c := range processing {
		stats.Processing += c.Val()
	}
	return stats, nil
}

// Consume registers the consumer, recovers orphaned messages and then runs
// cfg.Workers loops until ctx is cancelled. Tasks already in flight run to
// completion under cfg.ProcessTimeout, and the heartbeat outlives them.
func (q *Queue) Consume(ctx context.Context, handler Handler) error {
	if err := q.register(ctx); err != nil {
		return err
	}

	// A restarted consumer with a fixed id may find its own list populated.
	own, err := q.drain(ctx, q.processing)
	if err != nil {
		return err
	}
	n, err := q.RequeueOrphans(ctx)
	if err != nil {
		return err
	}
	if n += own; n > 0 {
		q.logger.Warn("requeued orphaned tasks", "count", n)
	}

	hctx, stop := context.WithCancel(context.WithoutCancel(ctx))
	beating := make(chan struct{})
	go func() {
		defer close(beating)
		q.heartbeat(hctx)
	}()

	q.logger.Info("consumer started", "workers", q.cfg.Workers)

	g, gctx := errgroup.WithContext(ctx)
	for id := range q.cfg.Workers {
		g.Go(func() error {
			q.work(gctx, id, handler)
			return nil
		})
	}

	err = g.Wait()
	stop()
	<-beating
	q.deregister(context.WithoutCancel(ctx))

	q.logger.Info("consumer stopped")
	return err
}

func (q *Queue) register(ctx context.Context) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, q.consumers, q.cfg.ConsumerID)
		pipe.Set(ctx, q.alive, time.Now().UTC().Format(time.RFC3339), q.cfg.HeartbeatTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}
	return nil
}

// heartbeat refreshes the liveness key and sweeps dead consumers until ctx
// is cancelled.
func (q *Queue) heartbeat(ctx context.Context) {
	t := time.NewTicker(max(q.cfg.HeartbeatTTL/3, time.Millisecond))
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		if err := q.client.Set(ctx, q.alive, time.Now().UTC().Format(time.RFC3339), q.cfg.HeartbeatTTL).Err(); err != nil {
			if ctx.Err() == nil {
				q.logger.Error("heartbeat failed", "error", err)
			}
			continue
		}

		n, err := q.RequeueOrphans(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			q.logger.Error("orphan sweep failed", "error", err)
		case n > 0:
			q.logger.Warn("requeued orphaned tasks", "count", n)
		}
	}
}

// deregister drops the liveness key. The consumer leaves the registry only
// when its processing list is empty; anything left behind is recovered by
// the next sweep.
func (q *Queue) deregister(ctx context.Context) {
	if err := q.client.Del(ctx, q.alive).Err(); err != nil {
		q.logger.Error("deregister consumer", "error", err)
		return
	}

	left, err := q.client.LLen(ctx, q.processing).Result()
	if err != nil || left > 0 {
		return
	}
	if err := q.client.SRem(ctx, q.consumers, q.cfg.ConsumerID).Err(); err != nil {
		q.logger.Error("deregister consumer", "error", err)
	}
}

// Start runs Consume in the background and waits for it to drain on
// shutdown.
func (q *Queue) Start(lc *lifecycle.Coordinator, handler Handler) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := q.Consume(lc.Context(), handler); err != nil {
			q.logger.Error("consumer error", "error", err)
		}
	}()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		<-done
	})
}

// RequeueOrphans moves the processing lists of registered consumers whose
// heartbeat has expired back to the pending list and drops them from the
// registry. Live consumers are left alone.
func (q *Queue) RequeueOrphans(ctx context.Context) (int, error) {
	members, err := q.client.SMembers(ctx, q.consumers).Result()
	if err != nil {
		return 0, fmt.Errorf("requeue orphans: %w", err)
	}

	moved := 0
	for _, m := range members {
		if m == q.cfg.ConsumerID {
			continue
		}

		live, err := q.client.Exists(ctx, aliveKey(q.prefix(), m)).Result()
		if err != nil {
			return moved, fmt.Errorf("requeue orphans: %w", err)
		}
		if live > 0 {
			continue
		}

		n, err := q.drain(ctx, processingKey(q.prefix(), m))
		moved += n
		if err != nil {
			return moved, err
		}
		if err := q.client.SRem(ctx, q.consumers, m).Err(); err != nil {
			return moved, fmt.Errorf("requeue orphans: %w", err)
		}
		q.logger.Info("recovered dead consumer", "dead_consumer", m, "count", n)
	}
	return moved, nil
}

// drain moves every message in list back to pending, keeping delivery order.
func (q *Queue) drain(ctx context.Context, list string) (int, error) {
	moved := 0
	for {
		err := q.client.LMove(ctx, list, q.pending, "LEFT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("requeue orphans: %w", err)
		}
		moved++
	}
}

func (q *Queue) work(ctx context.Context, id int, handler Handler) {
	logger := q.logger.With("worker", id)

	for {
		raw, err := q.client.BLMove(ctx, q.pending, q.processing, "RIGHT", "LEFT", q.cfg.BlockTimeout).Result()
		switch {
		case ctx.Err() != nil:
			return
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			logger.Error("dequeue failed", "error", err)
			if !sleep(ctx, q.cfg.RetryBackoff) {
				return
			}
			continue
		}

		q.deliver(ctx, logger, raw, handler)
	}
}

func (q *Queue) deliver(ctx context.Context, logger *slog.Logger, raw string, handler Handler) {
	// In-flight work outlives consumer cancellation so shutdown drains it.
	base := context.WithoutCancel(ctx)

	var task Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		logger.Error("malformed task, dead-lettering", "error", err)
		q.settle(base, logger, raw, q.dead, raw)
		return
	}

	pctx, cancel := base, context.CancelFunc(func() {})
	if q.cfg.ProcessTimeout > 0 {
		pctx, cancel = context.WithTimeout(base, q.cfg.ProcessTimeout)
	}
	err := handler(pctx, task)
	cancel()

	if err == nil {
		if err := q.client.LRem(base, q.processing, 1, raw).Err(); err != nil {
			logger.Error("ack failed", "job_id", task.JobID, "error", err)
		}
		return
	}

	task.Attempts++
	retry, encErr := json.Marshal(task)
	if encErr != nil {
		logger.Error("encode retry", "job_id", task.JobID, "error", encErr)
		return
	}

	if task.Attempts >= q.cfg.MaxAttempts {
		logger.Error("task failed, dead-lettering",
			"job_id", task.JobID,
			"attempts", task.Attempts,
			"error", err,
		)
		q.settle(base, logger, raw, q.dead, string(retry))
		return
	}

	logger.Warn("task failed, retrying",
		"job_id", task.JobID,
		"attempts", task.Attempts,
		"error", err,
	)
	q.settle(base, logger, raw, q.pending, string(retry))
}

// settle atomically removes raw from processing and pushes next onto dest.
func (q *Queue) settle(ctx context.Context, logger *slog.Logger, raw, dest, next string) {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.processing, 1, raw)
		pipe.LPush(ctx, dest, next)
		return nil
	})
	if err != nil {
		logger.Error("settle failed", "dest", dest, "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
