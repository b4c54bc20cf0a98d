package rabbitmqrepo

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/corray333/fasttech/internal/service/models/event"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	declared   []string
	sent       []sent
	publishErr error
}

func (f *fakeChannel) DeclareTopicExchange(name string) error {
	f.declared = append(f.declared, name)

	return nil
}

func (f *fakeChannel) Publish(exchange, routingKey string, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.sent = append(f.sent, sent{exchange: exchange, key: routingKey, msg: msg})

	return nil
}

func fixedClock() time.Time {
	return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
}

func TestPublishRoutesByEventType(t *testing.T) {
	ch := &fakeChannel{}
	p := MustNewEventPublisher(ch, WithExchange("test_exchange"), WithClock(fixedClock))
	assert.Equal(t, []string{"test_exchange"}, ch.declared)

	p.Publish(context.Background(), event.OrderConfirmed, "o-1", event.OrderStatusChangedPayload{
		Number: "ORD-20261014-0001",
		Status: "Confirmed",
		Action: "confirmed",
	})

	require.Len(t, ch.sent, 1)
	got := ch.sent[0]
	assert.Equal(t, "test_exchange", got.exchange)
	assert.Equal(t, string(event.OrderConfirmed), got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.NotEmpty(t, got.msg.MessageId)

	var body map[string]any
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, "order.confirmed", body["Tipo"])
	assert.Equal(t, "o-1", body["PedidoId"])
	assert.Equal(t, "ORD-20261014-0001", body["NumeroPedido"])

	env, err := event.Decode(got.key, got.msg.Body)
	require.NoError(t, err)
	assert.True(t, env.Timestamp.Equal(fixedClock()))
}

func TestPublishSwallowsBrokerFailure(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	p := MustNewEventPublisher(ch, WithClock(fixedClock))

	assert.NotPanics(t, func() {
		p.Publish(context.Background(), event.OrderCancelled, "o-1", event.OrderCancelledPayload{
			Number: "ORD-20261014-0001",
			Reason: "out of stock",
		})
	})
	assert.Empty(t, ch.sent)
}
