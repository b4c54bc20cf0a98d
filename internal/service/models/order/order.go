package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the canonical order record owned by the order-intake service.
type Order struct {
	ID                 string          `json:"id"`
	Number             string          `json:"number"`
	CustomerID         string          `json:"customerId"`
	CustomerName       string          `json:"customerName"`
	CustomerPhone      string          `json:"customerPhone"`
	CustomerEmail      string          `json:"customerEmail"`
	Items              []Item          `json:"items"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	DeliveryFee        decimal.Decimal `json:"deliveryFee"`
	Discount           decimal.Decimal `json:"discount"`
	Total              decimal.Decimal `json:"total"`
	DeliveryMode       DeliveryMode    `json:"deliveryMode"`
	DeliveryAddress    string          `json:"deliveryAddress"`
	DeliveryComplement *string         `json:"deliveryComplement,omitempty"`
	PaymentMethod      *string         `json:"paymentMethod,omitempty"`
	PaymentConfirmed   bool            `json:"paymentConfirmed"`
	Notes              *string         `json:"notes,omitempty"`
	Status             Status          `json:"status"`
	CancellationReason *string         `json:"cancellationReason,omitempty"`
	HandledByID        *string         `json:"handledById,omitempty"`
	HandledByName      *string         `json:"handledByName,omitempty"`
	History            []HistoryEntry  `json:"history"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          *time.Time      `json:"updatedAt,omitempty"`
	ConfirmedAt        *time.Time      `json:"confirmedAt,omitempty"`
	PreparationAt      *time.Time      `json:"preparationAt,omitempty"`
	ReadyAt            *time.Time      `json:"readyAt,omitempty"`
	DispatchedAt       *time.Time      `json:"dispatchedAt,omitempty"`
	DeliveredAt        *time.Time      `json:"deliveredAt,omitempty"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
}

// Item is a line of an order.
type Item struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	Notes       *string         `json:"notes,omitempty"`
	Options     []string        `json:"options,omitempty"`
}

// Actor identifies the employee or customer behind a transition.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HistoryEntry is one immutable record of the status history.
type HistoryEntry struct {
	Status    Status    `json:"status"`
	At        time.Time `json:"at"`
	ActorID   *string   `json:"actorId,omitempty"`
	ActorName *string   `json:"actorName,omitempty"`
	Note      *string   `json:"note,omitempty"`
}

// NewHistoryEntry builds an entry; a nil actor marks a system-initiated change.
func NewHistoryEntry(status Status, at time.Time, actor *Actor, note *string) HistoryEntry {
	entry := HistoryEntry{
		Status: status,
		At:     at,
		Note:   note,
	}
	if actor != nil {
		entry.ActorID = &actor.ID
		entry.ActorName = &actor.Name
	}

	return entry
}

// Transition is a validated status change ready to be applied atomically.
type Transition struct {
	From               Status
	To                 Status
	At                 time.Time
	Entry              HistoryEntry
	Actor              *Actor
	CancellationReason *string
}

// NewTransition validates to against the lifecycle and the current status of o.
func NewTransition(o Order, to Status, at time.Time, actor *Actor, note *string) (Transition, error) {
	if !CanTransition(o.Status, to, o.DeliveryMode) {
		return Transition{}, &InvalidTransitionError{From: o.Status, To: to}
	}

	return Transition{
		From:  o.Status,
		To:    to,
		At:    at,
		Entry: NewHistoryEntry(to, at, actor, note),
		Actor: actor,
	}, nil
}

// Apply returns a copy of o with t applied. The caller is expected to have checked t.From.
// OrderRepository.ApplyTransition writes the same changes in SQL and must stay in step with it.
func (o Order) Apply(t Transition) Order {
	o.Status = t.To
	at := t.At
	o.UpdatedAt = &at
	o.stampMilestone(t.To, at)

	history := make([]HistoryEntry, len(o.History), len(o.History)+1)
	copy(history, o.History)
	o.History = append(history, t.Entry)

	if t.Actor != nil {
		o.HandledByID = &t.Actor.ID
		o.HandledByName = &t.Actor.Name
	}
	if t.CancellationReason != nil {
		o.CancellationReason = t.CancellationReason
	}

	return o
}

func (o *Order) stampMilestone(status Status, at time.Time) {
	switch status {
	case StatusConfirmed:
		o.ConfirmedAt = &at
	case StatusInPreparation:
		o.PreparationAt = &at
	case StatusReady:
		o.ReadyAt = &at
	case StatusOutForDelivery:
		o.DispatchedAt = &at
	case StatusDelivered:
		o.DeliveredAt = &at
	case StatusCancelled:
		o.CancelledAt = &at
	}
}

// PriceItems fills line totals and returns the subtotal.
func PriceItems(items []Item) decimal.Decimal {
	subtotal := decimal.Zero
	for i := range items {
		items[i].LineTotal = items[i].UnitPrice.Mul(decimal.NewFromInt(int64(items[i].Quantity)))
		subtotal = subtotal.Add(items[i].LineTotal)
	}

	return subtotal
}

// Total is subtotal + fee - discount.
func Total(subtotal, fee, discount decimal.Decimal) decimal.Decimal {
	return subtotal.Add(fee).Sub(discount)
}
