package redisearch

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/logger"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

// RedisContainer represents a Redis Stack container for testing
type RedisContainer struct {
	testcontainers.Container
	Host string
	Port string
}

// setupRedisContainer sets up a Redis Stack container for testing
func setupRedisContainer(ctx context.Context) (*RedisContainer, error) {
	// Get a random free port
	port, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free port: %w", err)
	}

	portStr := fmt.Sprintf("%d", port)
	portBindings := nat.PortMap{
		"6379/tcp": []nat.PortBinding{{HostPort: portStr}},
	}

	req := testcontainers.ContainerRequest{
		Image:        "redis/redis-stack-server:7.2.0-v13",
		ExposedPorts: []string{"6379/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
		},
		WaitingFor: wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}

	containerInstance, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start redis container: %w", err)
	}

	host, err := containerInstance.Host(ctx)
	if err != nil {
		_ = containerInstance.Terminate(ctx)
		return nil, fmt.Errorf("failed to get host: %w", err)
	}

	mappedPort, err := containerInstance.MappedPort(ctx, "6379")
	if err != nil {
		_ = containerInstance.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	portStr = mappedPort.Port()

	// Wait for Redis to be fully ready
	if err := waitForRedisReady(host, portStr, 30*time.Second); err != nil {
		_ = containerInstance.Terminate(ctx)
		return nil, fmt.Errorf("redis container not ready: %w", err)
	}

	return &RedisContainer{
		Container: containerInstance,
		Host:      host,
		Port:      portStr,
	}, nil
}

// getFreePort gets a free port from the OS
func getFreePort() (int, error) {
	addr, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer func(addr net.Listener) {
		err := addr.Close()
		if err != nil {
			fmt.Printf("Failed to close listener: %v", err)
		}
	}(addr)

	return addr.Addr().(*net.TCPAddr).Port, nil
}

// waitForRedisReady attempts to connect to Redis until it's ready or times out
func waitForRedisReady(host, port string, timeout time.Duration) error {
	startTime := time.Now()
	for {
		if time.Since(startTime) > timeout {
			return fmt.Errorf("timed out waiting for Redis to be ready after %s", timeout)
		}

		conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), 2*time.Second)
		if err == nil {
			_ = conn.Close()
			// Additional wait so the search module finishes loading
			time.Sleep(1 * time.Second)
			return nil
		}

		time.Sleep(500 * time.Millisecond)
	}
}

// TestMain sets up the testing environment
func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

func testConfig(c *RedisContainer, t *testing.T) Config {
	portNum, err := strconv.Atoi(c.Port)
	require.NoError(t, err)

	return DefaultConfig().
		WithEndpoint(c.Host, portNum).
		WithCollection("test_collection").
		WithTimeout(10 * time.Second)
}

// TestRedisearchAdapterLifecycle runs the full adapter contract against a
// real Redis Stack instance: connect, provision, insert, search, delete,
// describe, cleanup, disconnect.
func TestRedisearchAdapterLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	containerInstance, err := setupRedisContainer(ctx)
	require.NoError(t, err)
	defer func() {
		if err := containerInstance.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	t.Logf("Using Redis on %s:%s", containerInstance.Host, containerInstance.Port)

	log := logger.NewLoggerClient(logger.Config{Level: logger.Error})
	adapter := New(testConfig(containerInstance, t), log)
	require.Equal(t, "redisearch", adapter.Name())

	require.NoError(t, adapter.Connect(ctx))
	defer func() {
		require.NoError(t, adapter.Disconnect(ctx))
	}()
	require.NoError(t, adapter.Health(ctx))

	// Provisioning must be idempotent
	require.NoError(t, adapter.SetupCollection(ctx))
	require.NoError(t, adapter.SetupCollection(ctx))

	t.Run("InsertSearchDelete", func(t *testing.T) {
		vectors := [][]float32{
			generateTestVector(128),
			generateTestVector(128),
			generateTestVector(128),
		}
		ids := []string{"1", "2", "id_42"}
		metadata := []map[string]any{
			{"title": "first", "index": 0},
			{"title": "second", "tags": []int{1, 2, 3}},
			nil,
		}

		payload, err := adapter.Insert(ctx, "test_collection", vectors, ids, metadata)
		require.NoError(t, err)

		insert, ok := payload.(map[string]any)
		require.True(t, ok, "insert payload should be a map, got %T", payload)
		stored, ok := insert["ids"].([]string)
		require.True(t, ok)
		require.Len(t, stored, 3)
		// Numeric external ids pass through unchanged
		assert.Equal(t, "1", stored[0])
		assert.Equal(t, "2", stored[1])

		time.Sleep(1 * time.Second) // Allow time for indexing

		payload, err = adapter.Search(ctx, "test_collection", vectors[0], 5, vectordb.MetricL2)
		require.NoError(t, err)
		search, ok := payload.(map[string]any)
		require.True(t, ok)
		hitIDs, ok := search["ids"].([]any)
		require.True(t, ok)
		assert.Greater(t, len(hitIDs), 0)
		assert.LessOrEqual(t, len(hitIDs), 5)
		assert.Contains(t, hitIDs, "1")

		payload, err = adapter.Delete(ctx, "test_collection", ids)
		require.NoError(t, err)
		deleted, ok := payload.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, deleted["success"])
		assert.EqualValues(t, 3, deleted["deleted"])
	})

	t.Run("DeleteUnknownIDs", func(t *testing.T) {
		payload, err := adapter.Delete(ctx, "test_collection", []string{"nonexistent_id"})
		require.NoError(t, err)
		deleted, ok := payload.(map[string]any)
		require.True(t, ok)
		assert.EqualValues(t, 0, deleted["deleted"])
	})

	t.Run("DescribeCollection", func(t *testing.T) {
		payload, err := adapter.DescribeCollection(ctx, "test_collection")
		require.NoError(t, err)

		info, ok := payload.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "test_collection", info["index_name"])
		assert.Contains(t, info, "num_docs")
	})

	t.Run("MissingCollection", func(t *testing.T) {
		_, err := adapter.Search(ctx, "nonexistent_collection", generateTestVector(128), 5, vectordb.MetricL2)
		assert.Error(t, err)

		_, err = adapter.DescribeCollection(ctx, "nonexistent_collection")
		assert.Error(t, err)

		// Hash writes need no index, so inserts into unknown collections pass
		payload, err := adapter.Insert(ctx, "nonexistent_collection", [][]float32{generateTestVector(128)}, []string{"1"}, nil)
		assert.NoError(t, err)
		assert.NotNil(t, payload)

		_, err = adapter.Delete(ctx, "nonexistent_collection", []string{"1"})
		assert.NoError(t, err)
	})

	t.Run("Cleanup", func(t *testing.T) {
		require.NoError(t, adapter.Cleanup(ctx))

		// The index is gone afterwards
		_, err := adapter.DescribeCollection(ctx, "test_collection")
		assert.Error(t, err)
	})
}

// TestRedisearchAdapterErrors covers failure modes that must not require a
// live backend call to surface.
func TestRedisearchAdapterErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	log := logger.NewLoggerClient(logger.Config{Level: logger.Error})

	t.Run("NotConnected", func(t *testing.T) {
		adapter := New(DefaultConfig(), log)
		_, err := adapter.Search(context.Background(), "test_collection", generateTestVector(128), 5, vectordb.MetricL2)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not connected")
		assert.Error(t, adapter.Health(context.Background()))

		// Disconnect before Connect is a no-op
		assert.NoError(t, adapter.Disconnect(context.Background()))
	})

	t.Run("UnreachableEndpoint", func(t *testing.T) {
		cfg := DefaultConfig().
			WithEndpoint("localhost", 1).
			WithTimeout(2 * time.Second)
		adapter := New(cfg, log)
		assert.Error(t, adapter.Connect(context.Background()))
	})
}

// Helper function to generate deterministic vectors for testing
func generateTestVector(size int) []float32 {
	vector := make([]float32, size)
	for i := range vector {
		vector[i] = float32(i%100) / 100.0
	}
	return vector
}
