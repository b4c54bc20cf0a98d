package mirror

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the kitchen-side status of an order. It is coarser than the canonical one.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known mirror status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusPreparing,
		StatusReady, StatusDelivered, StatusCancelled:
		return true
	}

	return false
}

// IsTerminal reports whether s is final for the kitchen.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRejected
}

var progress = map[Status]int{
	StatusPending:   0,
	StatusAccepted:  1,
	StatusPreparing: 2,
	StatusReady:     3,
	StatusDelivered: 4,
}

// CanAdvanceTo reports whether a mirror in status s may be set to next.
// Terminal statuses never change; otherwise statuses only move forward, except
// that cancellation and rejection are always accepted.
func (s Status) CanAdvanceTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusCancelled || next == StatusRejected {
		return true
	}

	return progress[next] > progress[s]
}

// Order is the reduced projection of a canonical order kept by the kitchen.
type Order struct {
	ID                 string          `json:"id"`
	Number             string          `json:"number"`
	CreatedAt          time.Time       `json:"createdAt"`
	Items              []Item          `json:"items"`
	CustomerName       string          `json:"customerName"`
	CustomerPhone      string          `json:"customerPhone"`
	DeliveryAddress    string          `json:"deliveryAddress"`
	Total              decimal.Decimal `json:"total"`
	Notes              *string         `json:"notes,omitempty"`
	Status             Status          `json:"status"`
	CancellationReason *string         `json:"cancellationReason,omitempty"`
	AcceptedAt         *time.Time      `json:"acceptedAt,omitempty"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
	UpdatedAt          *time.Time      `json:"updatedAt,omitempty"`
	History            []StatusChange  `json:"history"`
}

// Item is a kitchen line: what to cook and how many.
type Item struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Notes     *string         `json:"notes,omitempty"`
}

// StatusChange records the mirror entering a status.
type StatusChange struct {
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
}

// StatusUpdate sets the mirror status. Applying the same update twice is a no-op.
type StatusUpdate struct {
	Status Status
	At     time.Time
	Reason *string
}

// Apply returns a copy of o with u applied. History grows only when the status changes.
// MirrorRepository.SetStatus expresses the same rules in one UPDATE and must stay in step with it.
func (o Order) Apply(u StatusUpdate) Order {
	if o.Status == u.Status {
		if u.Reason != nil && o.CancellationReason == nil {
			o.CancellationReason = u.Reason
		}

		return o
	}

	o.Status = u.Status
	at := u.At
	o.UpdatedAt = &at

	history := make([]StatusChange, len(o.History), len(o.History)+1)
	copy(history, o.History)
	o.History = append(history, StatusChange{Status: u.Status, At: at})

	switch u.Status {
	case StatusAccepted:
		if o.AcceptedAt == nil {
			o.AcceptedAt = &at
		}
	case StatusCancelled:
		if o.CancelledAt == nil {
			o.CancelledAt = &at
		}
	}
	if u.Reason != nil {
		o.CancellationReason = u.Reason
	}

	return o
}
