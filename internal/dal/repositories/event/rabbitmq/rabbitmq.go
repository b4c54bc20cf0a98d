package rabbitmqrepo

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/corray333/fasttech/internal/dal/rabbitmq"
	"github.com/corray333/fasttech/internal/service/models/event"
	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// channel is the part of rabbitmq.Client the publisher needs.
type channel interface {
	DeclareTopicExchange(name string) error
	Publish(exchange, routingKey string, msg amqp.Publishing) error
}

// EventPublisher publishes domain events to the topic exchange, one routing key per event type.
// Failures are logged and never returned: the state change that produced the event is already durable.
type EventPublisher struct {
	ch       channel
	exchange string
	now      func() time.Time

	// amqp channels are not safe for concurrent publishing
	mu sync.Mutex
}

type option func(*EventPublisher)

// MustNewEventPublisher declares the exchange and creates a new EventPublisher.
func MustNewEventPublisher(ch channel, opts ...option) *EventPublisher {
	p := &EventPublisher{
		ch:       ch,
		exchange: rabbitmq.ExchangeName(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := ch.DeclareTopicExchange(p.exchange); err != nil {
		panic(err)
	}

	return p
}

// WithExchange overrides the exchange name.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithExchange(name string) option {
	return func(p *EventPublisher) {
		p.exchange = name
	}
}

// WithClock sets the clock used for envelope timestamps.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(p *EventPublisher) {
		p.now = now
	}
}

// Publish encodes and sends one envelope.
func (p *EventPublisher) Publish(ctx context.Context, eventType event.Type, subjectID string, payload any) {
	ctx, span := otel.Tracer("publisher").Start(ctx, "EventPublisher.Publish")
	defer span.End()
	span.SetAttributes(
		attribute.String("event.type", string(eventType)),
		attribute.String("event.subject_id", subjectID),
	)

	now := p.now().UTC()
	body, err := event.Encode(event.Envelope{
		Type:      eventType,
		SubjectID: subjectID,
		Payload:   payload,
		Timestamp: now,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode failed")
		slog.Error("Failed to encode event", "error", err, "type", eventType, "subject_id", subjectID)

		return
	}

	headers := amqp.Table{}
	otel.GetTextMapPropagator().Inject(ctx, rabbitmq.HeaderCarrier(headers))

	msg := amqp.Publishing{
		Headers:      headers,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    now,
		Type:         string(eventType),
		Body:         body,
	}

	p.mu.Lock()
	err = p.ch.Publish(p.exchange, string(eventType), msg)
	p.mu.Unlock()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		slog.Error("Failed to publish event", "error", err, "type", eventType, "subject_id", subjectID)

		return
	}

	slog.Info("Event published", "type", eventType, "subject_id", subjectID, "message_id", msg.MessageId)
}
