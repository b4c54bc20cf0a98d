package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeOrderCreatedUsesWireKeys(t *testing.T) {
	ts := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	body, err := Encode(Envelope{
		Type:      OrderCreated,
		SubjectID: "o-1",
		Timestamp: ts,
		Payload: OrderCreatedPayload{
			Number:     "ORD-20261014-0001",
			CustomerID: "c-1",
			Status:     "Created",
			Total:      decimal.RequireFromString("42.50"),
		},
	})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(body, &fields))

	assert.Equal(t, "order.created", fields["Tipo"])
	assert.Equal(t, "o-1", fields["PedidoId"])
	assert.Equal(t, "c-1", fields["ClienteId"])
	assert.Equal(t, "ORD-20261014-0001", fields["NumeroPedido"])
	assert.Equal(t, "2026-10-14T12:00:00Z", fields["DataCriacao"])
	assert.Contains(t, fields, "ValorTotal")
}

func TestEncodeTimestampKeyFollowsType(t *testing.T) {
	cases := map[Type]string{
		OrderConfirmed:  "DataAtualizacao",
		OrderDelivered:  "DataAtualizacao",
		OrderCancelled:  "DataCancelamento",
		CustomerCreated: "DataCriacao",
	}
	for typ, key := range cases {
		body, err := Encode(Envelope{Type: typ, SubjectID: "x", Timestamp: time.Now()})
		require.NoError(t, err)

		var fields map[string]any
		require.NoError(t, json.Unmarshal(body, &fields))
		assert.Contains(t, fields, key, typ)
	}
}

func TestDecodeRoundTripCancelled(t *testing.T) {
	ts := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	body, err := Encode(Envelope{
		Type:      OrderCancelled,
		SubjectID: "o-7",
		Timestamp: ts,
		Payload:   OrderCancelledPayload{Number: "ORD-20261014-0007", CustomerID: "c-2", Reason: "changed my mind"},
	})
	require.NoError(t, err)

	env, err := Decode("order.cancelled", body)
	require.NoError(t, err)
	assert.Equal(t, OrderCancelled, env.Type)
	assert.Equal(t, "o-7", env.SubjectID)
	assert.True(t, ts.Equal(env.Timestamp))

	p, ok := env.Payload.(OrderCancelledPayload)
	require.True(t, ok)
	assert.Equal(t, "changed my mind", p.Reason)
}

func TestDecodeCustomerCreatedFromForeignProducer(t *testing.T) {
	body := []byte(`{
		"Tipo": "customer.created",
		"ClienteId": "c-9",
		"Nome": "Ana",
		"Email": "ana@example.com",
		"CPF": "123",
		"Telefone": "555",
		"Endereco": "Rua A, 1",
		"CEP": "01000-000",
		"Cidade": "Sao Paulo",
		"Estado": "SP",
		"DataCriacao": "2026-10-14T08:15:30.1234567"
	}`)

	env, err := Decode("customer.created", body)
	require.NoError(t, err)
	assert.Equal(t, "c-9", env.SubjectID)
	assert.Equal(t, time.UTC, env.Timestamp.Location())

	p, ok := env.Payload.(CustomerCreatedPayload)
	require.True(t, ok)
	assert.Equal(t, "Ana", p.Name)
	assert.Nil(t, p.Complement)
}

func TestDecodeRejectsSchemaMismatch(t *testing.T) {
	cases := map[string]struct {
		key  string
		body string
	}{
		"not json":         {"order.created", `nope`},
		"unknown key":      {"order.exploded", `{"Tipo":"order.exploded"}`},
		"type mismatch":    {"order.created", `{"Tipo":"order.cancelled","PedidoId":"o","DataCriacao":"2026-10-14T00:00:00Z"}`},
		"missing subject":  {"order.confirmed", `{"Tipo":"order.confirmed","NumeroPedido":"n","Status":"Confirmed","DataAtualizacao":"2026-10-14T00:00:00Z"}`},
		"bad timestamp":    {"order.confirmed", `{"Tipo":"order.confirmed","PedidoId":"o","NumeroPedido":"n","Status":"Confirmed","DataAtualizacao":"yesterday"}`},
		"missing reason":   {"order.cancelled", `{"Tipo":"order.cancelled","PedidoId":"o","NumeroPedido":"n","DataCancelamento":"2026-10-14T00:00:00Z"}`},
		"missing customer": {"order.created", `{"Tipo":"order.created","PedidoId":"o","NumeroPedido":"n","Status":"Created","DataCriacao":"2026-10-14T00:00:00Z"}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(tc.key, []byte(tc.body))
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestOrderStatusType(t *testing.T) {
	assert.Equal(t, OrderDispatched, OrderStatusType("dispatched"))
	assert.Equal(t, "created", CustomerCreated.Action())
	assert.True(t, OrderReady.IsStatusChange())
	assert.False(t, OrderCancelled.IsStatusChange())
}
