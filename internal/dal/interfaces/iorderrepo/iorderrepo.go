package iorderrepo

import (
	"context"

	"github.com/corray333/fasttech/internal/service/models/order"
)

// IOrderRepository is an interface for the canonical order store.
type IOrderRepository interface {
	Insert(ctx context.Context, o order.Order) (order.Order, error)
	// GetByID returns false when no order has the id.
	GetByID(ctx context.Context, id string) (order.Order, bool, error)
	Query(ctx context.Context, filter order.QueryOrdersModel) ([]order.Order, error)
	// ApplyTransition updates the order only while its status still equals t.From.
	// It returns false when the order is missing or has moved on.
	ApplyTransition(ctx context.Context, id string, t order.Transition) (order.Order, bool, error)
	SetPaymentConfirmed(ctx context.Context, id string) (order.Order, bool, error)
}
