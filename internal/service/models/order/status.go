package order

import (
	"errors"
	"fmt"
)

// Status is the lifecycle status of a canonical order.
type Status string

const (
	StatusCreated        Status = "Created"
	StatusConfirmed      Status = "Confirmed"
	StatusInPreparation  Status = "InPreparation"
	StatusReady          Status = "Ready"
	StatusOutForDelivery Status = "OutForDelivery"
	StatusDelivered      Status = "Delivered"
	StatusCancelled      Status = "Cancelled"
)

// ErrInvalidTransition is matched by every *InvalidTransitionError.
var ErrInvalidTransition = errors.New("invalid status transition")

// InvalidTransitionError describes a rejected edge of the lifecycle.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// Is reports ErrInvalidTransition as the target.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// DeliveryMode is how the order leaves the restaurant.
type DeliveryMode string

const (
	DeliveryModeCounter      DeliveryMode = "counter"
	DeliveryModeDriveThrough DeliveryMode = "drive_through"
	DeliveryModeDelivery     DeliveryMode = "delivery"
)

// IsPickup reports whether the customer collects the order in person.
func (m DeliveryMode) IsPickup() bool {
	return m == DeliveryModeCounter || m == DeliveryModeDriveThrough
}

// Valid reports whether m is a known delivery mode.
func (m DeliveryMode) Valid() bool {
	return m.IsPickup() || m == DeliveryModeDelivery
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusConfirmed, StatusInPreparation, StatusReady,
		StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}

	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Cancellable reports whether an order in status s may still be cancelled.
func (s Status) Cancellable() bool {
	return s == StatusCreated || s == StatusConfirmed
}

// CanTransition reports whether from -> to is an edge of the lifecycle for an order
// with the given delivery mode.
func CanTransition(from, to Status, mode DeliveryMode) bool {
	switch from {
	case StatusCreated:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusInPreparation || to == StatusCancelled
	case StatusInPreparation:
		return to == StatusReady
	case StatusReady:
		if mode.IsPickup() {
			return to == StatusDelivered
		}

		return to == StatusOutForDelivery
	case StatusOutForDelivery:
		return to == StatusDelivered
	default:
		return false
	}
}

// Action is the routing suffix published for a transition into s.
func (s Status) Action() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusConfirmed:
		return "confirmed"
	case StatusInPreparation:
		return "preparing"
	case StatusReady:
		return "ready"
	case StatusOutForDelivery:
		return "dispatched"
	case StatusDelivered:
		return "delivered"
	case StatusCancelled:
		return "cancelled"
	default:
		return ""
	}
}
