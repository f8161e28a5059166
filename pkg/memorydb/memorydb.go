// Package memorydb manages the Redis client shared by the status cache and
// the task queue.
package memorydb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/smart-ocr/pkg/lifecycle"
	"github.com/redis/go-redis/v9"
)

// System owns a Redis client. UniversalClient serves both standalone and
// cluster deployments depending on the number of addresses.
type System interface {
	Client() redis.UniversalClient
	Ping(ctx context.Context) error
	Start(lc *lifecycle.Coordinator) error
}

type memoryDB struct {
	client redis.UniversalClient
	addrs  []string
	logger *slog.Logger
}

// New builds the client without contacting the server.
func New(cfg *Config, logger *slog.Logger) System {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeoutDuration(),
		ReadTimeout:  cfg.ReadTimeoutDuration(),
		WriteTimeout: cfg.WriteTimeoutDuration(),
	})

	return &memoryDB{
		client: client,
		addrs:  cfg.Addrs,
		logger: logger.With("system", "memorydb"),
	}
}

func (m *memoryDB) Client() redis.UniversalClient {
	return m.client
}

func (m *memoryDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

// Start pings the server and closes the client once shutdown begins.
func (m *memoryDB) Start(lc *lifecycle.Coordinator) error {
	if err := m.client.Ping(lc.Context()).Err(); err != nil {
		m.client.Close()
		return fmt.Errorf("ping redis: %w", err)
	}
	m.logger.Info("redis connected", "addrs", m.addrs)

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		m.logger.Info("closing redis client")
		if err := m.client.Close(); err != nil {
			m.logger.Error("redis close error", "error", err)
		}
	})
	return nil
}
