package qdrant

import (
	"context"
	"fmt"
	"sync"

	qdrant "github.com/qdrant/go-client/qdrant"
)

// Logger defines the interface for logging operations within the qdrant package.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Adapter drives a Qdrant backend through its gRPC API. It satisfies
// vectordb.Adapter: construction is passive, Connect dials and health-checks,
// and every operation returns the backend's answer in Qdrant's own shape.
//
// Safe for concurrent use once connected.
type Adapter struct {
	cfg Config
	log Logger

	mu  sync.RWMutex
	api *qdrant.Client
}

// New returns an unconnected adapter. Call Connect before any operation.
func New(cfg Config, log Logger) *Adapter {
	return &Adapter{cfg: cfg, log: log}
}

// Name identifies this backend in results and metrics.
func (a *Adapter) Name() string {
	return "qdrant"
}

// Connect initializes the gRPC client and verifies liveness with a health
// check. The client is only installed after the health check passes.
func (a *Adapter) Connect(ctx context.Context) error {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   a.cfg.Endpoint,
		Port:                   a.cfg.Port,
		APIKey:                 a.cfg.APIKey,
		SkipCompatibilityCheck: !a.cfg.CheckCompatibility,
	})
	if err != nil {
		return fmt.Errorf("qdrant: initialize client: %w", err)
	}

	hctx, cancel := a.opContext(ctx)
	defer cancel()

	reply, err := client.HealthCheck(hctx)
	if err != nil {
		_ = client.Close()
		return fmt.Errorf("qdrant: health check: %w", err)
	}

	a.mu.Lock()
	a.api = client
	a.mu.Unlock()

	a.log.Info("connected to qdrant", nil, map[string]interface{}{
		"endpoint": a.cfg.Endpoint,
		"port":     a.cfg.Port,
		"version":  reply.GetVersion(),
	})
	return nil
}

// Health probes liveness with the same check Connect uses. Reports an error
// when the adapter never connected.
func (a *Adapter) Health(ctx context.Context) error {
	client, err := a.client()
	if err != nil {
		return err
	}

	hctx, cancel := a.opContext(ctx)
	defer cancel()

	if _, err := client.HealthCheck(hctx); err != nil {
		return fmt.Errorf("qdrant: health check: %w", err)
	}
	return nil
}

// Disconnect closes the gRPC channel. Safe to call when never connected.
func (a *Adapter) Disconnect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.api == nil {
		return nil
	}
	err := a.api.Close()
	a.api = nil
	if err != nil {
		return fmt.Errorf("qdrant: close: %w", err)
	}
	a.log.Debug("disconnected from qdrant", nil)
	return nil
}

// client returns the connected API handle or an error when Connect has not
// succeeded yet.
func (a *Adapter) client() (*qdrant.Client, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.api == nil {
		return nil, fmt.Errorf("qdrant: not connected")
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
