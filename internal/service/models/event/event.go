// Package event defines the envelopes exchanged between services over the broker.
package event

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Type is an event type. It doubles as the routing key on the topic exchange.
type Type string

const (
	OrderCreated    Type = "order.created"
	OrderConfirmed  Type = "order.confirmed"
	OrderPreparing  Type = "order.preparing"
	OrderReady      Type = "order.ready"
	OrderDispatched Type = "order.dispatched"
	OrderDelivered  Type = "order.delivered"
	OrderCancelled  Type = "order.cancelled"
	CustomerCreated Type = "customer.created"
)

// OrderStatusType returns the event type published for a status action such as "ready".
func OrderStatusType(action string) Type {
	return Type("order." + action)
}

// Known reports whether t is one of the fixed event types.
func (t Type) Known() bool {
	switch t {
	case OrderCreated, OrderConfirmed, OrderPreparing, OrderReady,
		OrderDispatched, OrderDelivered, OrderCancelled, CustomerCreated:
		return true
	}

	return false
}

// IsStatusChange reports whether t carries an OrderStatusChanged payload.
func (t Type) IsStatusChange() bool {
	switch t {
	case OrderConfirmed, OrderPreparing, OrderReady, OrderDispatched, OrderDelivered:
		return true
	}

	return false
}

// Action is the part of the routing key after the entity prefix.
func (t Type) Action() string {
	_, action, _ := strings.Cut(string(t), ".")

	return action
}

// Envelope is an immutable description of one state change.
// Payload holds one of the *Payload types below, matching Type.
type Envelope struct {
	Type      Type
	SubjectID string
	Payload   any
	Timestamp time.Time
}

// OrderCreatedPayload is carried by order.created.
type OrderCreatedPayload struct {
	Number     string          `json:"NumeroPedido"`
	CustomerID string          `json:"ClienteId"`
	Status     string          `json:"Status"`
	Total      decimal.Decimal `json:"ValorTotal"`
}

// OrderStatusChangedPayload is carried by the intermediate lifecycle events.
type OrderStatusChangedPayload struct {
	Number string `json:"NumeroPedido"`
	Status string `json:"Status"`
	Action string `json:"Acao,omitempty"`
}

// OrderCancelledPayload is carried by order.cancelled.
type OrderCancelledPayload struct {
	Number     string `json:"NumeroPedido"`
	CustomerID string `json:"ClienteId,omitempty"`
	Reason     string `json:"Motivo"`
}

// CustomerCreatedPayload is carried by customer.created.
type CustomerCreatedPayload struct {
	Name       string  `json:"Nome"`
	Email      string  `json:"Email"`
	TaxID      string  `json:"CPF"`
	Phone      string  `json:"Telefone"`
	Address    string  `json:"Endereco"`
	Complement *string `json:"Complemento,omitempty"`
	PostalCode string  `json:"CEP"`
	City       string  `json:"Cidade"`
	State      string  `json:"Estado"`
}
