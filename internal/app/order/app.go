package orderapp

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corray333/fasttech/internal/app/lifecycle"
	"github.com/corray333/fasttech/internal/dal/postgres"
	"github.com/corray333/fasttech/internal/dal/rabbitmq"
	"github.com/corray333/fasttech/internal/dal/redis"
	customerrepo "github.com/corray333/fasttech/internal/dal/repositories/customer/postgres"
	eventrepo "github.com/corray333/fasttech/internal/dal/repositories/event/rabbitmq"
	orderrepo "github.com/corray333/fasttech/internal/dal/repositories/order/postgres"
	sequencerepo "github.com/corray333/fasttech/internal/dal/repositories/sequence/redis"
	"github.com/corray333/fasttech/internal/otel"
	"github.com/corray333/fasttech/internal/service/models/event"
	"github.com/corray333/fasttech/internal/service/services/customersvc"
	"github.com/corray333/fasttech/internal/service/services/ordersvc"
	"github.com/corray333/fasttech/internal/transport/consumer"
	httptransport "github.com/corray333/fasttech/internal/transport/http"
	"github.com/spf13/viper"
)

const customerQueue = "orderservice_clientes_queue"

// App represents the order-intake application.
type App struct {
	otel             *otel.OtelController
	postgresClient   *postgres.Client
	redisClient      *redis.Client
	publisherClient  *rabbitmq.Client
	consumerClient   *rabbitmq.Client
	transport        *httptransport.HTTPTransport
	customerConsumer *consumer.Consumer
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel(viper.GetString("service.name"))

	postgresClient := postgres.MustNewClient()
	redisClient := redis.MustNewClient()
	// publisher and consumer each own a connection
	publisherClient := rabbitmq.MustNewClient()
	consumerClient := rabbitmq.MustNewClient()

	customerRepo := customerrepo.NewCustomerRepository(postgresClient.Pool())

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithOrderRepository(orderrepo.NewOrderRepository(postgresClient.Pool())),
		ordersvc.WithCustomerRepository(customerRepo),
		ordersvc.WithSequenceRepository(sequencerepo.NewSequenceRepository(redisClient)),
		ordersvc.WithEventPublisher(eventrepo.MustNewEventPublisher(publisherClient)),
	)
	customerSvc := customersvc.MustNewCustomerService(
		customersvc.WithCustomerRepository(customerRepo),
	)

	transport := httptransport.NewHTTPTransport()
	transport.RegisterOrderRoutes(orderSvc)

	customerConsumer := consumer.NewConsumer(
		consumerClient,
		consumer.ConfigFromViper(consumer.Config{Queue: customerQueue, ConsumerTag: "order-svc"}),
		map[event.Type]consumer.Handler{
			event.CustomerCreated: customerSvc.SyncCustomer,
		},
	)

	return &App{
		otel:             otelController,
		postgresClient:   postgresClient,
		redisClient:      redisClient,
		publisherClient:  publisherClient,
		consumerClient:   consumerClient,
		transport:        transport,
		customerConsumer: customerConsumer,
	}
}

// Run starts the HTTP server and the customer consumer.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Losing the customer queue only pauses customer sync, the order API stays up.
	if err := lifecycle.Serve(ctx, a.transport, a.gracefulShutdown, a.customerConsumer); err != nil {
		slog.Error("Application stopped with error", "error", err)
	}

	slog.Info("Application shutdown complete")
}

func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.customerConsumer.Shutdown(); err != nil {
		slog.Error("Consumer shutdown error", "error", err)
	}

	if err := a.consumerClient.Close(); err != nil {
		slog.Error("RabbitMQ consumer connection close error", "error", err)
	}
	if err := a.publisherClient.Close(); err != nil {
		slog.Error("RabbitMQ publisher connection close error", "error", err)
	}

	if err := a.redisClient.Close(); err != nil {
		slog.Error("Redis connection close error", "error", err)
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otel.Shutdown(ctx); err != nil {
		slog.Error("Tracer provider shutdown error", "error", err)
	}
}
