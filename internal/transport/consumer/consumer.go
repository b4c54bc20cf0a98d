package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/corray333/fasttech/internal/dal/rabbitmq"
	"github.com/corray333/fasttech/internal/service/models/event"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultShutdownTimeout = 10 * time.Second

// ErrDeliveriesClosed is returned by Run when the broker closes the delivery channel outside of Shutdown.
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// Handler processes one decoded envelope. Returning an error wrapping event.ErrMalformed drops the
// message; any other error requeues it.
type Handler func(ctx context.Context, env event.Envelope) error

// broker is the part of rabbitmq.Client the consumer needs.
type broker interface {
	DeclareTopicExchange(name string) error
	DeclareQueue(cfg rabbitmq.DeclareQueueConfig) (amqp.Queue, error)
	BindQueue(queue, exchange string, routingKeys ...string) error
	Qos(prefetch int) error
	Consume(cfg rabbitmq.ConsumeConfig) (<-chan amqp.Delivery, error)
	Cancel(consumer string) error
}

// Config describes one subscription.
type Config struct {
	Exchange        string
	Queue           string
	ConsumerTag     string
	ShutdownTimeout time.Duration
}

// ConfigFromViper fills cfg from rabbitmq.consumer.*, keeping the given values as defaults.
func ConfigFromViper(cfg Config) Config {
	cfg.Exchange = rabbitmq.ExchangeName()
	if queue := viper.GetString("rabbitmq.consumer.queue"); queue != "" {
		cfg.Queue = queue
	}
	if tag := viper.GetString("rabbitmq.consumer.consumer_tag"); tag != "" {
		cfg.ConsumerTag = tag
	}
	if timeout := viper.GetInt("rabbitmq.consumer.shutdown_timeout_seconds"); timeout > 0 {
		cfg.ShutdownTimeout = time.Duration(timeout) * time.Second
	}

	return cfg
}

// Consumer represents the RabbitMQ consumer transport. Deliveries are processed one at a time.
type Consumer struct {
	client   broker
	cfg      Config
	handlers map[event.Type]Handler
	queue    amqp.Queue

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewConsumer declares the exchange and a durable queue bound to every handled event type.
func NewConsumer(client broker, cfg Config, handlers map[event.Type]Handler) *Consumer {
	if cfg.Queue == "" {
		panic("rabbitmq.consumer.queue is not set in config")
	}
	if cfg.Exchange == "" {
		cfg.Exchange = rabbitmq.DefaultExchange
	}
	// Cancel needs a known tag, so never let the broker pick one.
	if cfg.ConsumerTag == "" {
		cfg.ConsumerTag = cfg.Queue
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if len(handlers) == 0 {
		panic("consumer has no handlers")
	}

	if err := client.DeclareTopicExchange(cfg.Exchange); err != nil {
		panic(err)
	}

	queue, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:       cfg.Queue,
		Durable:    true,
		AutoDelete: false,
		Exclusive:  false,
		NoWait:     false,
	})
	if err != nil {
		panic(err)
	}

	keys := make([]string, 0, len(handlers))
	for t := range handlers {
		keys = append(keys, string(t))
	}
	if err := client.BindQueue(queue.Name, cfg.Exchange, keys...); err != nil {
		panic(err)
	}

	if err := client.Qos(1); err != nil {
		panic(err)
	}

	return &Consumer{
		client:   client,
		cfg:      cfg,
		handlers: handlers,
		queue:    queue,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run consumes until Shutdown is called or the delivery channel is closed by the broker.
func (c *Consumer) Run(ctx context.Context) error {
	defer close(c.done)

	msgs, err := c.client.Consume(rabbitmq.ConsumeConfig{
		Queue:    c.queue.Name,
		Consumer: c.cfg.ConsumerTag,
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming %s: %w", c.queue.Name, err)
	}

	slog.Info("Consumer started", "queue", c.queue.Name, "consumer_tag", c.cfg.ConsumerTag)

	for {
		select {
		case <-c.stop:
			slog.Info("Stopping consumer", "queue", c.queue.Name)

			return nil
		case msg, ok := <-msgs:
			if !ok {
				select {
				case <-c.stop:
					return nil
				default:
				}
				slog.Error("Message channel closed", "queue", c.queue.Name)

				return ErrDeliveriesClosed
			}

			c.handleDelivery(ctx, msg)
		}
	}
}

// handleDelivery runs the handler on a context that outlives shutdown, so the message in flight
// always reaches an ack or nack.
func (c *Consumer) handleDelivery(ctx context.Context, msg amqp.Delivery) {
	ctx = otel.GetTextMapPropagator().Extract(context.WithoutCancel(ctx), rabbitmq.HeaderCarrier(msg.Headers))
	ctx, span := otel.Tracer("consumer").Start(ctx, "Consumer.handleDelivery")
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.destination", c.queue.Name),
		attribute.String("messaging.rabbitmq.routing_key", msg.RoutingKey),
	)

	log := slog.With("routing_key", msg.RoutingKey, "delivery_tag", msg.DeliveryTag)

	handler, ok := c.handlers[event.Type(msg.RoutingKey)]
	if !ok {
		log.Warn("No handler for routing key, acknowledging")
		ack(log, msg)

		return
	}

	env, err := event.Decode(msg.RoutingKey, msg.Body)
	if err == nil {
		err = handler(ctx, env)
	}

	switch {
	case err == nil:
		ack(log, msg)
		log.Info("Message processed successfully", "subject_id", env.SubjectID)
	case errors.Is(err, event.ErrMalformed):
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed")
		log.Error("Dropping malformed message", "error", err)
		// Reject the message without requeuing
		if err := msg.Nack(false, false); err != nil {
			log.Error("Failed to nack message", "error", err)
		}
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "processing failed")
		log.Error("Failed to process message, requeuing", "error", err, "subject_id", env.SubjectID)
		// Requeue the message for retry
		if err := msg.Nack(false, true); err != nil {
			log.Error("Failed to nack message", "error", err)
		}
	}
}

func ack(log *slog.Logger, msg amqp.Delivery) {
	if err := msg.Ack(false); err != nil {
		log.Error("Failed to ack message", "error", err)
	}
}

// Shutdown cancels the subscription and waits, bounded, for the message in flight.
func (c *Consumer) Shutdown() error {
	slog.Info("Shutting down consumer", "queue", c.queue.Name)

	c.stopOnce.Do(func() {
		close(c.stop)
		if err := c.client.Cancel(c.cfg.ConsumerTag); err != nil {
			slog.Error("Failed to cancel consumer", "error", err, "consumer_tag", c.cfg.ConsumerTag)
		}
	})

	select {
	case <-c.done:
		slog.Info("Consumer stopped successfully")
	case <-time.After(c.cfg.ShutdownTimeout):
		slog.Warn("Consumer shutdown timeout")
	}

	return nil
}
