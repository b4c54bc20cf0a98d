package kitchenapp

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corray333/fasttech/internal/app/lifecycle"
	"github.com/corray333/fasttech/internal/dal/orderapi"
	"github.com/corray333/fasttech/internal/dal/postgres"
	"github.com/corray333/fasttech/internal/dal/rabbitmq"
	mirrorrepo "github.com/corray333/fasttech/internal/dal/repositories/mirror/postgres"
	"github.com/corray333/fasttech/internal/otel"
	"github.com/corray333/fasttech/internal/service/models/event"
	"github.com/corray333/fasttech/internal/service/services/kitchensvc"
	"github.com/corray333/fasttech/internal/transport/consumer"
	httptransport "github.com/corray333/fasttech/internal/transport/http"
	"github.com/spf13/viper"
)

const kitchenQueue = "kitchen_queue"

// App represents the fulfillment application.
type App struct {
	otel           *otel.OtelController
	postgresClient *postgres.Client
	rabbitClient   *rabbitmq.Client
	transport      *httptransport.HTTPTransport
	consumer       *consumer.Consumer
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel(viper.GetString("service.name"))

	postgresClient := postgres.MustNewClient()
	rabbitClient := rabbitmq.MustNewClient()

	kitchenSvc := kitchensvc.MustNewKitchenService(
		kitchensvc.WithMirrorRepository(mirrorrepo.NewMirrorRepository(postgresClient.Pool())),
		kitchensvc.WithOrderFetcher(orderapi.MustNewClient()),
	)

	transport := httptransport.NewHTTPTransport()
	transport.RegisterKitchenRoutes(kitchenSvc)

	orderConsumer := consumer.NewConsumer(
		rabbitClient,
		consumer.ConfigFromViper(consumer.Config{Queue: kitchenQueue, ConsumerTag: "kitchen-svc"}),
		map[event.Type]consumer.Handler{
			event.OrderCreated:   kitchenSvc.HandleOrderCreated,
			event.OrderConfirmed: kitchenSvc.HandleOrderConfirmed,
			event.OrderCancelled: kitchenSvc.HandleOrderCancelled,
		},
	)

	return &App{
		otel:           otelController,
		postgresClient: postgresClient,
		rabbitClient:   rabbitClient,
		transport:      transport,
		consumer:       orderConsumer,
	}
}

// Run starts the order event consumer and the mirror read API. A consumer that loses the broker
// is logged and the API keeps serving until an interrupt signal arrives.
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := lifecycle.Serve(ctx, a.transport, a.gracefulShutdown, a.consumer); err != nil {
		slog.Error("Application stopped with error", "error", err)
	}

	slog.Info("Application shutdown complete")
}

func (a *App) gracefulShutdown() {
	// The consumer goes first so the message in flight is acked before its connection closes.
	if err := a.consumer.Shutdown(); err != nil {
		slog.Error("Consumer shutdown error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.rabbitClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otel.Shutdown(ctx); err != nil {
		slog.Error("Tracer provider shutdown error", "error", err)
	}
}
