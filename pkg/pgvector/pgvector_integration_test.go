package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/logger"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

// PostgresContainer represents a Postgres container with pgvector for testing
type PostgresContainer struct {
	testcontainers.Container
	Host string
	Port string
}

// setupPostgresContainer sets up a pgvector-enabled Postgres container for testing
func setupPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	// Get a random free port
	port, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free port: %w", err)
	}

	portStr := fmt.Sprintf("%d", port)
	portBindings := nat.PortMap{
		"5432/tcp": []nat.PortBinding{{HostPort: portStr}},
	}

	req := testcontainers.ContainerRequest{
		Image: "pgvector/pgvector:pg16",
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		ExposedPorts: []string{"5432/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(30 * time.Second),
	}

	containerInstance, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := containerInstance.Host(ctx)
	if err != nil {
		_ = containerInstance.Terminate(ctx)
		return nil, fmt.Errorf("failed to get host: %w", err)
	}

	mappedPort, err := containerInstance.MappedPort(ctx, "5432")
	if err != nil {
		_ = containerInstance.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	portStr = mappedPort.Port()

	// Wait for PostgreSQL to be fully ready for connections
	if err := waitForPostgresReady(host, portStr, "testuser", "testpass", "testdb", 30*time.Second); err != nil {
		_ = containerInstance.Terminate(ctx)
		return nil, fmt.Errorf("postgres container not ready: %w", err)
	}

	return &PostgresContainer{
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

// waitForPostgresReady attempts to connect to PostgreSQL until it's ready or times out
func waitForPostgresReady(host, port, user, password, dbname string, timeout time.Duration) error {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	startTime := time.Now()
	for {
		if time.Since(startTime) > timeout {
			return fmt.Errorf("timed out waiting for PostgreSQL to be ready after %s", timeout)
		}

		db, err := sql.Open("postgres", connStr)
		if err != nil {
			time.Sleep(500 * time.Millisecond)
			continue
		}

		err = db.Ping()
		_ = db.Close()
		if err == nil {
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

func testConfig(c *PostgresContainer, t *testing.T) Config {
	portNum, err := strconv.Atoi(c.Port)
	require.NoError(t, err)

	return DefaultConfig().
		WithEndpoint(c.Host, portNum).
		WithCredentials("testuser", "testpass").
		WithDatabase("testdb").
		WithCollection("test_collection").
		WithTimeout(10 * time.Second)
}

// TestPgvectorAdapterLifecycle runs the full adapter contract against a real
// Postgres instance with pgvector: connect, provision, insert, search,
// delete, describe, cleanup, disconnect.
func TestPgvectorAdapterLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	containerInstance, err := setupPostgresContainer(ctx)
	require.NoError(t, err)
	defer func() {
		if err := containerInstance.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	t.Logf("Using Postgres on %s:%s", containerInstance.Host, containerInstance.Port)

	log := logger.NewLoggerClient(logger.Config{Level: logger.Error})
	adapter := New(testConfig(containerInstance, t), log)
	require.Equal(t, "pgvector", adapter.Name())

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
		// Distinct rows so the exact-order assertion below cannot tie
		vectors[1][0] = 9.9
		vectors[2][0] = -9.9
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

		payload, err = adapter.Search(ctx, "test_collection", vectors[0], 5, vectordb.MetricL2)
		require.NoError(t, err)
		hits, ok := payload.([]any)
		require.True(t, ok, "search payload should be a bare list, got %T", payload)
		require.Greater(t, len(hits), 0)
		assert.LessOrEqual(t, len(hits), 5)

		first, ok := hits[0].(map[string]any)
		require.True(t, ok)
		// Exact search puts the query vector's own row first
		assert.Equal(t, "1", first["id"])
		assert.InDelta(t, 0.0, first["distance"], 1e-6)

		// Cosine and inner product run per query against the same rows
		payload, err = adapter.Search(ctx, "test_collection", vectors[0], 5, vectordb.MetricCosine)
		require.NoError(t, err)
		require.NotEmpty(t, payload)

		payload, err = adapter.Delete(ctx, "test_collection", ids)
		require.NoError(t, err)
		deleted, ok := payload.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, deleted["success"])
		assert.EqualValues(t, 3, deleted["deleted"])
	})

	t.Run("DeleteUnknownIDs", func(t *testing.T) {
		payload, err := adapter.Delete(ctx, "test_collection", []string{"nonexistent_id", ""})
		require.NoError(t, err)
		deleted, ok := payload.(map[string]any)
		require.True(t, ok)
		assert.EqualValues(t, 0, deleted["deleted"])
	})

	t.Run("DimensionMismatchRejected", func(t *testing.T) {
		_, err := adapter.Insert(ctx, "test_collection", [][]float32{generateTestVector(3)}, []string{"1"}, nil)
		assert.Error(t, err)
	})

	t.Run("DescribeCollection", func(t *testing.T) {
		payload, err := adapter.DescribeCollection(ctx, "test_collection")
		require.NoError(t, err)

		info, ok := payload.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "test_collection", info["table_name"])
		assert.Equal(t, 128, info["dimension"])
	})

	t.Run("OperationsOnMissingCollection", func(t *testing.T) {
		_, err := adapter.Search(ctx, "nonexistent_collection", generateTestVector(128), 5, vectordb.MetricL2)
		assert.Error(t, err)

		_, err = adapter.Insert(ctx, "nonexistent_collection", [][]float32{generateTestVector(128)}, []string{"1"}, nil)
		assert.Error(t, err)
	})

	t.Run("Cleanup", func(t *testing.T) {
		require.NoError(t, adapter.Cleanup(ctx))

		// The table is gone afterwards
		_, err := adapter.DescribeCollection(ctx, "test_collection")
		assert.Error(t, err)
	})
}

// TestPgvectorAdapterErrors covers failure modes that must not require a live
// backend call to surface.
func TestPgvectorAdapterErrors(t *testing.T) {
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
