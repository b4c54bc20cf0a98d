package iorderfetcher

import (
	"context"

	"github.com/corray333/fasttech/internal/service/models/order"
)

// IOrderFetcher reads the canonical order from the order-intake service.
// Any error means the order is unavailable right now, not that it does not exist.
type IOrderFetcher interface {
	FetchOrder(ctx context.Context, id string) (order.Order, error)
}
