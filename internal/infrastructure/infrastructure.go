// Package infrastructure assembles the systems shared by the gateway and the
// worker: lifecycle, logging, Postgres, Redis, blob storage and the pipeline
// orchestrator built on top of them.
package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/smart-ocr/internal/config"
	"github.com/JaimeStill/smart-ocr/internal/jobs"
	"github.com/JaimeStill/smart-ocr/internal/pipeline"
	"github.com/JaimeStill/smart-ocr/internal/queue"
	"github.com/JaimeStill/smart-ocr/internal/status"
	"github.com/JaimeStill/smart-ocr/internal/storage"
	"github.com/JaimeStill/smart-ocr/migrations"
	"github.com/JaimeStill/smart-ocr/pkg/database"
	"github.com/JaimeStill/smart-ocr/pkg/lifecycle"
	"github.com/JaimeStill/smart-ocr/pkg/logging"
	"github.com/JaimeStill/smart-ocr/pkg/memorydb"
)

// Infrastructure holds the connected systems. Constructing it opens no
// network connections; Start does.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	MemoryDB  memorydb.System
	Storage   storage.System
	Status    status.Store
	Jobs      jobs.System
	Queue     *queue.Queue

	closeLog func() error
}

func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger, closeLog := logging.New(&cfg.Logging)

	db, err := database.New(&cfg.Database, migrations.FS, logger)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(lc.Context(), &cfg.Storage, logger)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	mem := memorydb.New(&cfg.Redis.Config, logger)

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		MemoryDB:  mem,
		Storage:   store,
		Status:    status.New(mem.Client(), cfg.Redis.Status(), logger),
		Jobs:      jobs.New(db.Connection(), logger, cfg.Pagination),
		Queue:     queue.New(mem.Client(), cfg.Queue.Queue(), logger),
		closeLog:  closeLog,
	}, nil
}

// Orchestrator wires the pipeline over the shared stores. The gateway
// passes a nil extractor since it never processes tasks.
func (i *Infrastructure) Orchestrator(extractor pipeline.Extractor) *pipeline.Orchestrator {
	return pipeline.New(pipeline.Deps{
		Durable:   i.Jobs,
		Status:    i.Status,
		Blobs:     i.Storage,
		Queue:     i.Queue,
		Extractor: extractor,
	}, i.Logger)
}

// Start connects every system and registers its shutdown hook.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.MemoryDB.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("redis start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}

// Health pings the database and Redis. The returned map is keyed by
// dependency name with "ok" or the error text, plus the queue list lengths
// when Redis answers.
func (i *Infrastructure) Health(ctx context.Context) (map[string]string, error) {
	checks := map[string]func(context.Context) error{
		"database": i.Database.Ping,
		"redis":    i.MemoryDB.Ping,
	}

	report := make(map[string]string, len(checks))
	var errs []error
	for name, ping := range checks {
		if err := ping(ctx); err != nil {
			report[name] = err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		report[name] = "ok"
	}

	if stats, err := i.Queue.Stats(ctx); err == nil {
		report["queue"] = fmt.Sprintf("pending=%d processing=%d dead=%d", stats.Pending, stats.Processing, stats.Dead)
	}
	return report, errors.Join(errs...)
}

// Close releases the log file once shutdown has completed.
func (i *Infrastructure) Close() error {
	return i.closeLog()
}
