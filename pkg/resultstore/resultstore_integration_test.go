package resultstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
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
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/difftest"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

// PostgresContainer represents a Postgres container for testing
type PostgresContainer struct {
	testcontainers.Container
	Host string
	Port string
}

// setupPostgresContainer sets up a Postgres container for testing
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
		Image: "postgres:15",
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

func testLogger(t *testing.T) *MockLogger {
	ctrl := gomock.NewController(t)
	log := NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Debug(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	return log
}

func testConfig(c *PostgresContainer, t *testing.T) Config {
	portNum, err := strconv.Atoi(c.Port)
	require.NoError(t, err)

	return DefaultConfig().
		WithEnabled(true).
		WithEndpoint(c.Host, portNum).
		WithCredentials("testuser", "testpass").
		WithDatabase("testdb")
}

// TestStoreArchivesResults persists results against a real Postgres and reads
// the rows back through the migrated schema.
func TestStoreArchivesResults(t *testing.T) {
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

	store, err := NewStore(testConfig(containerInstance, t), "run-integration-1", testLogger(t))
	require.NoError(t, err)
	defer func() {
		require.NoError(t, store.Close())
	}()

	inconsistent := &difftest.TestResult{
		TestID:    "test_0001",
		Operation: difftest.OpSearch,
		Input: difftest.TestInput{
			CollectionName: "test_collection",
			QueryVector:    []float32{1, 2, float32(math.NaN())},
			Limit:          10,
			MetricType:     vectordb.MetricL2,
		},
		Results: map[string]vectordb.Payload{
			"qdrant": map[string]any{"points": []any{map[string]any{"id": "1", "score": 0.1}}},
			"milvus": nil,
		},
		Inconsistencies: []string{"some adapters succeeded while others failed: success=[qdrant] failed=[milvus]"},
		Durations: map[string]time.Duration{
			"qdrant": 120 * time.Millisecond,
			"milvus": 120 * time.Millisecond,
		},
	}
	require.NoError(t, store.Persist(ctx, inconsistent))

	consistent := &difftest.TestResult{
		TestID:    "test_0002",
		Operation: difftest.OpInsert,
		Input: difftest.TestInput{
			CollectionName: "test_collection",
			Vectors:        [][]float32{{0.1, 0.2}},
			IDs:            []string{"1"},
		},
		Results: map[string]vectordb.Payload{
			"qdrant": map[string]any{"status": "ok"},
			"milvus": map[string]any{"insert_count": int64(1)},
		},
		Durations: map[string]time.Duration{
			"qdrant": 80 * time.Millisecond,
			"milvus": 80 * time.Millisecond,
		},
	}
	require.NoError(t, store.Persist(ctx, consistent))

	var records []TestRecord
	require.NoError(t, store.db.Order("test_id").Find(&records, "run_id = ?", "run-integration-1").Error)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "test_0001", first.TestID)
	assert.Equal(t, "search", first.Operation)
	assert.False(t, first.Consistent)
	assert.Equal(t, 1, first.InconsistencyCount)
	assert.False(t, first.CreatedAt.IsZero())

	// Non-finite floats survive as their string spelling
	assert.Contains(t, first.Input, `"NaN"`)

	var storedResults map[string]any
	require.NoError(t, json.Unmarshal([]byte(first.Results), &storedResults))
	assert.Contains(t, storedResults, "qdrant")
	failed, ok := storedResults["milvus"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "operation failed", failed["error"])

	var durations map[string]float64
	require.NoError(t, json.Unmarshal([]byte(first.Durations), &durations))
	assert.InDelta(t, 0.12, durations["qdrant"], 1e-9)

	second := records[1]
	assert.Equal(t, "test_0002", second.TestID)
	assert.True(t, second.Consistent)
	assert.Equal(t, 0, second.InconsistencyCount)
	assert.Equal(t, "[]", second.Inconsistencies)

	// Consistency flag is queryable without parsing jsonb
	var inconsistentCount int64
	require.NoError(t, store.db.Model(&TestRecord{}).
		Where("run_id = ? AND consistent = false", "run-integration-1").
		Count(&inconsistentCount).Error)
	assert.EqualValues(t, 1, inconsistentCount)
}

// TestStoreUnreachableDatabase verifies the eager dial surfaces as an error.
func TestStoreUnreachableDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg := DefaultConfig().WithEnabled(true).WithEndpoint("localhost", 1)
	_, err := NewStore(cfg, "run-unreachable", testLogger(t))
	assert.Error(t, err)
}
