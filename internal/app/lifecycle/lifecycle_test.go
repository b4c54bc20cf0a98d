package lifecycle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/corray333/fasttech/internal/dal/rabbitmq"
	"github.com/corray333/fasttech/internal/service/models/event"
	"github.com/corray333/fasttech/internal/transport/consumer"
	httptransport "github.com/corray333/fasttech/internal/transport/http"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lostBroker hands out a delivery channel that is already closed, as after a connection loss.
type lostBroker struct{}

func (lostBroker) DeclareTopicExchange(string) error { return nil }

func (lostBroker) DeclareQueue(cfg rabbitmq.DeclareQueueConfig) (amqp.Queue, error) {
	return amqp.Queue{Name: cfg.Name}, nil
}

func (lostBroker) BindQueue(string, string, ...string) error { return nil }

func (lostBroker) Qos(int) error { return nil }

func (lostBroker) Consume(rabbitmq.ConsumeConfig) (<-chan amqp.Delivery, error) {
	deliveries := make(chan amqp.Delivery)
	close(deliveries)

	return deliveries, nil
}

func (lostBroker) Cancel(string) error { return errors.New("channel/connection is not open") }

// testServer serves the real router until stop is called.
type testServer struct {
	srv      *httptest.Server
	stopOnce sync.Once
	stopped  chan struct{}
	runErr   error
}

func newTestServer() *testServer {
	return &testServer{
		srv:     httptest.NewServer(httptransport.NewHTTPTransport().Handler()),
		stopped: make(chan struct{}),
	}
}

func (s *testServer) Run() error {
	<-s.stopped
	if s.runErr != nil {
		return s.runErr
	}

	return http.ErrServerClosed
}

func (s *testServer) stop() {
	s.stopOnce.Do(func() {
		s.srv.Close()
		close(s.stopped)
	})
}

// observedWorker reports when the wrapped worker returns.
type observedWorker struct {
	Worker
	err  error
	done chan struct{}
}

func (w *observedWorker) Run(ctx context.Context) error {
	defer close(w.done)
	w.err = w.Worker.Run(ctx)

	return w.err
}

func TestServeKeepsServingAfterConsumerLosesBroker(t *testing.T) {
	c := consumer.NewConsumer(lostBroker{}, consumer.Config{Queue: "kitchen_queue", ShutdownTimeout: time.Second},
		map[event.Type]consumer.Handler{
			event.OrderCreated: func(context.Context, event.Envelope) error { return nil },
		})
	worker := &observedWorker{Worker: c, done: make(chan struct{})}
	server := newTestServer()

	shutdowns := 0
	shutdown := func() {
		shutdowns++
		assert.NoError(t, c.Shutdown())
		server.stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() { served <- Serve(ctx, server, shutdown, worker) }()

	select {
	case <-worker.done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	require.ErrorIs(t, worker.err, consumer.ErrDeliveriesClosed)

	assert.Never(t, func() bool { return len(served) > 0 }, 100*time.Millisecond, 10*time.Millisecond)

	resp, err := http.Get(server.srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()

	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	assert.Equal(t, 1, shutdowns)
}

// blockingWorker runs until released.
type blockingWorker struct {
	release chan struct{}
}

func (w *blockingWorker) Run(context.Context) error {
	<-w.release

	return nil
}

func TestServeStopsWhenServerFails(t *testing.T) {
	server := newTestServer()
	server.runErr = errors.New("listen tcp 0.0.0.0:8080: bind: address already in use")
	worker := &blockingWorker{release: make(chan struct{})}

	shutdowns := 0
	shutdown := func() {
		shutdowns++
		close(worker.release)
	}

	// Run returns immediately with the bind error.
	server.stop()

	err := Serve(context.Background(), server, shutdown, worker)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "address already in use")
	assert.Equal(t, 1, shutdowns)
}

func TestServeTreatsServerClosedAsCleanStop(t *testing.T) {
	server := newTestServer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Serve(ctx, server, server.stop)

	assert.NoError(t, err)
}
