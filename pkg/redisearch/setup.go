package redisearch

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Logger defines the interface for logging operations within the redisearch package.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Adapter drives Redis with the search module through go-redis. It satisfies
// vectordb.Adapter: construction is passive, Connect dials and pings, and a
// collection maps onto one search index over hash keys sharing its prefix.
//
// Safe for concurrent use once connected.
type Adapter struct {
	cfg Config
	log Logger

	mu  sync.RWMutex
	api *redis.Client
}

// New returns an unconnected adapter. Call Connect before any operation.
func New(cfg Config, log Logger) *Adapter {
	return &Adapter{cfg: cfg, log: log}
}

// Name identifies this backend in results and metrics.
func (a *Adapter) Name() string {
	return "redisearch"
}

// Connect dials the server and verifies liveness with a ping. The client is
// only installed after the ping passes.
func (a *Adapter) Connect(ctx context.Context) error {
	cctx, cancel := a.opContext(ctx)
	defer cancel()

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.Port),
		Password: a.cfg.Password,
		DB:       a.cfg.DB,
	})

	if err := client.Ping(cctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redisearch: ping %s:%d: %w", a.cfg.Host, a.cfg.Port, err)
	}

	a.mu.Lock()
	a.api = client
	a.mu.Unlock()

	a.log.Info("connected to redis", nil, map[string]interface{}{
		"host": a.cfg.Host,
		"port": a.cfg.Port,
	})
	return nil
}

// Health probes liveness with a ping. Reports an error when the adapter
// never connected.
func (a *Adapter) Health(ctx context.Context) error {
	client, err := a.client()
	if err != nil {
		return err
	}

	hctx, cancel := a.opContext(ctx)
	defer cancel()

	if err := client.Ping(hctx).Err(); err != nil {
		return fmt.Errorf("redisearch: health check: %w", err)
	}
	return nil
}

// Disconnect closes the client. Safe to call when never connected.
func (a *Adapter) Disconnect(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.api == nil {
		return nil
	}
	err := a.api.Close()
	a.api = nil
	if err != nil {
		return fmt.Errorf("redisearch: close: %w", err)
	}
	a.log.Debug("disconnected from redis", nil)
	return nil
}

// client returns the connected client or an error when Connect has not
// succeeded yet.
func (a *Adapter) client() (*redis.Client, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.api == nil {
		return nil, fmt.Errorf("redisearch: not connected")
	}
	return a.api, nil
}

// opContext derives the per-call deadline from the configured timeout.
func (a *Adapter) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.cfg.Timeout)
}
