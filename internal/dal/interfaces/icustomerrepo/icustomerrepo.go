package icustomerrepo

import (
	"context"

	"github.com/corray333/fasttech/internal/service/models/customer"
)

// ICustomerRepository is an interface for the customer registry mirror.
type ICustomerRepository interface {
	// Upsert fully replaces the customer keyed by id.
	Upsert(ctx context.Context, c customer.Customer) error
	GetByID(ctx context.Context, id string) (customer.Customer, bool, error)
}
