package milvus

import (
	"context"
	"fmt"
	"sync"

	"github.com/milvus-io/milvus/client/v2/milvusclient"
)

// Logger defines the interface for logging operations within the milvus package.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Adapter drives a Milvus backend through the official v2 client. It
// satisfies vectordb.Adapter: construction is passive, Connect dials and
// probes, and every operation returns the backend's answer in Milvus' own
// shape.
//
// Safe for concurrent use once connected.
type Adapter struct {
	cfg Config
	log Logger

	mu  sync.RWMutex
	api *milvusclient.Client
}

// New returns an unconnected adapter. Call Connect before any operation.
func New(cfg Config, log Logger) *Adapter {
	return &Adapter{cfg: cfg, log: log}
}

// Name identifies this backend in results and metrics.
func (a *Adapter) Name() string {
	return "milvus"
}

// Connect dials the gRPC endpoint and verifies liveness by listing
// collections. The client is only installed after the probe passes.
func (a *Adapter) Connect(ctx context.Context) error {
	cctx, cancel := a.opContext(ctx)
	defer cancel()

	client, err := milvusclient.New(cctx, &milvusclient.ClientConfig{
		Address:  a.cfg.Address,
		Username: a.cfg.Username,
		Password: a.cfg.Password,
		DBName:   a.cfg.Database,
	})
	if err != nil {
		return fmt.Errorf("milvus: connect to %s: %w", a.cfg.Address, err)
	}

	if _, err := client.ListCollections(cctx, milvusclient.NewListCollectionOption()); err != nil {
		_ = client.Close(ctx)
		return fmt.Errorf("milvus: liveness probe: %w", err)
	}

	a.mu.Lock()
	a.api = client
	a.mu.Unlock()

	a.log.Info("connected to milvus", nil, map[string]interface{}{
		"address": a.cfg.Address,
	})
	return nil
}

// Health probes liveness with the same collection listing Connect uses.
// Reports an error when the adapter never connected.
func (a *Adapter) Health(ctx context.Context) error {
	client, err := a.client()
	if err != nil {
		return err
	}

	hctx, cancel := a.opContext(ctx)
	defer cancel()

	if _, err := client.ListCollections(hctx, milvusclient.NewListCollectionOption()); err != nil {
		return fmt.Errorf("milvus: health check: %w", err)
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
	err := a.api.Close(ctx)
	a.api = nil
	if err != nil {
		return fmt.Errorf("milvus: close: %w", err)
	}
	a.log.Debug("disconnected from milvus", nil)
	return nil
}

// client returns the connected API handle or an error when Connect has not
// succeeded yet.
func (a *Adapter) client() (*milvusclient.Client, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.api == nil {
		return nil, fmt.Errorf("milvus: not connected")
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
