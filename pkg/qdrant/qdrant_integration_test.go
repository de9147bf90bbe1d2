package qdrant

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

// QdrantContainer represents a Qdrant container for testing
type QdrantContainer struct {
	testcontainers.Container
	Host string
	Port string
}

// setupQdrantContainer sets up a Qdrant container for testing
func setupQdrantContainer(ctx context.Context) (*QdrantContainer, error) {
	// Get a random free port
	port, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free port: %w", err)
	}

	portStr := fmt.Sprintf("%d", port)
	portBindings := nat.PortMap{
		"6334/tcp": []nat.PortBinding{{HostPort: portStr}},
	}

	req := testcontainers.ContainerRequest{
		Image: "qdrant/qdrant:v1.11.0",
		Env: map[string]string{
			"QDRANT__SERVICE__GRPC_PORT": "6334",
		},
		ExposedPorts: []string{"6334/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
		},
		WaitingFor: wait.ForListeningPort("6334/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start qdrant container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get host: %w", err)
	}

	mappedPort, err := container.MappedPort(ctx, "6334")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	portStr = mappedPort.Port()

	// Wait for Qdrant to be fully ready
	if err := waitForQdrantReady(host, portStr, 30*time.Second); err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("qdrant container not ready: %w", err)
	}

	return &QdrantContainer{
		Container: container,
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

// waitForQdrantReady attempts to connect to Qdrant until it's ready or times out
func waitForQdrantReady(host, port string, timeout time.Duration) error {
	startTime := time.Now()
	for {
		if time.Since(startTime) > timeout {
			return fmt.Errorf("timed out waiting for Qdrant to be ready after %s", timeout)
		}

		conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), 2*time.Second)
		if err == nil {
			_ = conn.Close()
			// Additional wait to ensure the service is fully ready
			time.Sleep(2 * time.Second)
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

func testConfig(c *QdrantContainer, t *testing.T) Config {
	portNum, err := strconv.Atoi(c.Port)
	require.NoError(t, err)

	return DefaultConfig().
		WithEndpoint(c.Host, portNum).
		WithCollection("test_collection").
		WithTimeout(10 * time.Second)
}

// TestQdrantAdapterLifecycle runs the full adapter contract against a real
// Qdrant instance: connect, provision, insert, search, delete, describe,
// cleanup, disconnect.
func TestQdrantAdapterLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	containerInstance, err := setupQdrantContainer(ctx)
	require.NoError(t, err)
	defer func() {
		if err := containerInstance.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	t.Logf("Using Qdrant on %s:%s", containerInstance.Host, containerInstance.Port)

	log := logger.NewLoggerClient(logger.Config{Level: logger.Error})
	adapter := New(testConfig(containerInstance, t), log)
	require.Equal(t, "qdrant", adapter.Name())

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
		assert.Contains(t, insert, "status")
		insertIDs, ok := insert["insert_ids"].([]string)
		require.True(t, ok)
		assert.Len(t, insertIDs, 3)
		// Numeric external ids pass through unchanged
		assert.Equal(t, "1", insertIDs[0])
		assert.Equal(t, "2", insertIDs[1])

		time.Sleep(1 * time.Second) // Allow time for indexing

		payload, err = adapter.Search(ctx, "test_collection", vectors[0], 5, vectordb.MetricCosine)
		require.NoError(t, err)
		search, ok := payload.(map[string]any)
		require.True(t, ok)
		points, ok := search["points"].([]any)
		require.True(t, ok)
		assert.Greater(t, len(points), 0)
		assert.LessOrEqual(t, len(points), 5)

		first, ok := points[0].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, first, "id")
		assert.Contains(t, first, "score")

		payload, err = adapter.Delete(ctx, "test_collection", ids)
		require.NoError(t, err)
		deleted, ok := payload.(map[string]any)
		require.True(t, ok)
		assert.Contains(t, deleted, "status")
	})

	t.Run("DeleteUnknownIDs", func(t *testing.T) {
		payload, err := adapter.Delete(ctx, "test_collection", []string{"nonexistent_id", ""})
		assert.NoError(t, err)
		assert.NotNil(t, payload)
	})

	t.Run("DescribeCollection", func(t *testing.T) {
		payload, err := adapter.DescribeCollection(ctx, "test_collection")
		require.NoError(t, err)

		info, ok := payload.(map[string]any)
		require.True(t, ok)
		assert.Contains(t, info, "status")
		assert.Equal(t, 128, info["vector_size"])
	})

	t.Run("OperationsOnMissingCollection", func(t *testing.T) {
		_, err := adapter.Search(ctx, "nonexistent_collection", generateTestVector(128), 5, vectordb.MetricL2)
		assert.Error(t, err)

		_, err = adapter.Insert(ctx, "nonexistent_collection", [][]float32{generateTestVector(128)}, []string{"1"}, nil)
		assert.Error(t, err)
	})

	t.Run("Cleanup", func(t *testing.T) {
		require.NoError(t, adapter.Cleanup(ctx))

		// The collection is gone afterwards
		_, err := adapter.DescribeCollection(ctx, "test_collection")
		assert.Error(t, err)
	})
}

// TestQdrantAdapterErrors covers failure modes that must not require a live
// backend call to surface.
func TestQdrantAdapterErrors(t *testing.T) {
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
