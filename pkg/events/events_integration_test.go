package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/mock/gomock"
)

// RabbitContainer represents a RabbitMQ container for testing
type RabbitContainer struct {
	testcontainers.Container
	Host string
	Port uint
}

// setupRabbitContainer sets up a RabbitMQ container for testing
func setupRabbitContainer(ctx context.Context) (*RabbitContainer, error) {
	// Get a random free port
	port, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free port: %w", err)
	}

	portStr := fmt.Sprintf("%d", port)
	portBindings := nat.PortMap{
		"5672/tcp": []nat.PortBinding{{HostPort: portStr}},
	}

	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:4-management",
		ExposedPorts: []string{"5672/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5672/tcp").WithStartupTimeout(60*time.Second),
			wait.ForExec([]string{"rabbitmq-diagnostics", "status"}).WithExitCodeMatcher(func(exitCode int) bool {
				return exitCode == 0
			}).WithStartupTimeout(60*time.Second),
		),
	}

	containerInstance, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start rabbitmq container: %w", err)
	}

	host, err := containerInstance.Host(ctx)
	if err != nil {
		_ = containerInstance.Terminate(ctx)
		return nil, fmt.Errorf("failed to get host: %w", err)
	}

	mappedPort, err := containerInstance.MappedPort(ctx, "5672")
	if err != nil {
		_ = containerInstance.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	return &RabbitContainer{
		Container: containerInstance,
		Host:      host,
		Port:      uint(mappedPort.Int()),
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

// TestMain sets up the testing environment
func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

// TestRabbitSinkPublishesEvents verifies that events published through the
// rabbit sink arrive on a queue bound to the configured exchange.
func TestRabbitSinkPublishesEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	containerInstance, err := setupRabbitContainer(ctx)
	require.NoError(t, err)
	defer func() {
		if err := containerInstance.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	t.Logf("Using RabbitMQ on %s:%d", containerInstance.Host, containerInstance.Port)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockLog := NewMockLogger(ctrl)
	mockLog.EXPECT().Info(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	cfg := DefaultConfig().Rabbit
	cfg.Host = containerInstance.Host
	cfg.Port = containerInstance.Port

	sink, err := NewRabbitSink(cfg, "run-integration", mockLog)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, sink.Close())
	}()

	// Bind a throwaway queue to the exchange the sink declared
	hostURL := fmt.Sprintf("amqp://%v:%v@%v:%v", cfg.User, cfg.Password, cfg.Host, cfg.Port)
	conn, err := amqp.Dial(hostURL)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	channel, err := conn.Channel()
	require.NoError(t, err)
	defer func() { _ = channel.Close() }()

	queue, err := channel.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, channel.QueueBind(queue.Name, cfg.RoutingKey, cfg.Exchange, false, nil))

	deliveries, err := channel.Consume(queue.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	require.NoError(t, sink.Persist(ctx, inconsistentResult()))

	select {
	case delivery := <-deliveries:
		assert.Equal(t, "application/json", delivery.ContentType)

		var event Event
		require.NoError(t, json.Unmarshal(delivery.Body, &event))
		assert.Equal(t, "run-integration", event.RunID)
		assert.Equal(t, "test_0007", event.TestID)
		assert.Equal(t, "search", event.Operation)
		assert.False(t, event.Consistent)
		assert.Equal(t, []string{"milvus", "pgvector"}, event.FailedAdapters)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for event delivery")
	}
}

// TestRabbitSinkUnreachableBroker verifies that construction fails fast when
// no broker answers.
func TestRabbitSinkUnreachableBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockLog := NewMockLogger(ctrl)

	cfg := DefaultConfig().Rabbit
	cfg.Host = "localhost"
	cfg.Port = 1

	_, err := NewRabbitSink(cfg, "run-1", mockLog)
	assert.Error(t, err)
}
