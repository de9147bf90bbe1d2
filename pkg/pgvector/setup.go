package pgvector

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Logger defines the interface for logging operations within the pgvector package.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Adapter drives Postgres with the pgvector extension. It satisfies
// vectordb.Adapter: construction is passive, Connect opens the pool and
// pings, and operations run plain SQL against one table per collection.
//
// Safe for concurrent use once connected.
type Adapter struct {
	cfg Config
	log Logger

	mu   sync.RWMutex
	pool *pgxpool.Pool
}

// New returns an unconnected adapter. Call Connect before any operation.
func New(cfg Config, log Logger) *Adapter {
	return &Adapter{cfg: cfg, log: log}
}

// Name identifies this backend in results and metrics.
func (a *Adapter) Name() string {
	return "pgvector"
}

// Connect opens a connection pool and verifies liveness with a ping. The
// pool is only installed after the ping passes.
func (a *Adapter) Connect(ctx context.Context) error {
	cctx, cancel := a.opContext(ctx)
	defer cancel()

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		a.cfg.Host, a.cfg.Port, a.cfg.User, a.cfg.Password, a.cfg.Database, a.cfg.SSLMode)

	pool, err := pgxpool.New(cctx, dsn)
	if err != nil {
		return fmt.Errorf("pgvector: open pool: %w", err)
	}

	if err := pool.Ping(cctx); err != nil {
		pool.Close()
		return fmt.Errorf("pgvector: ping %s:%d: %w", a.cfg.Host, a.cfg.Port, err)
	}

	a.mu.Lock()
	a.pool = pool
	a.mu.Unlock()

	a.log.Info("connected to postgres", nil, map[string]interface{}{
		"host":     a.cfg.Host,
		"port":     a.cfg.Port,
		"database": a.cfg.Database,
	})
	return nil
}

// Health probes liveness with a ping. Reports an error when the adapter
// never connected.
func (a *Adapter) Health(ctx context.Context) error {
	pool, err := a.client()
	if err != nil {
		return err
	}

	hctx, cancel := a.opContext(ctx)
	defer cancel()

	if err := pool.Ping(hctx); err != nil {
		return fmt.Errorf("pgvector: health check: %w", err)
	}
	return nil
}

// Disconnect closes the pool. Safe to call when never connected.
func (a *Adapter) Disconnect(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pool == nil {
		return nil
	}
	a.pool.Close()
	a.pool = nil
	a.log.Debug("disconnected from postgres", nil)
	return nil
}

// client returns the connected pool or an error when Connect has not
// succeeded yet.
func (a *Adapter) client() (*pgxpool.Pool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.pool == nil {
		return nil, fmt.Errorf("pgvector: not connected")
	}
	return a.pool, nil
}

// opContext derives the per-call deadline from the configured timeout.
func (a *Adapter) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.cfg.Timeout)
}
