package customersvc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corray333/fasttech/internal/dal/interfaces/icustomerrepo"
	"github.com/corray333/fasttech/internal/service/models/customer"
	"github.com/corray333/fasttech/internal/service/models/event"
	"go.opentelemetry.io/otel"
)

// CustomerService keeps the customer registry mirror in sync with the identity service.
type CustomerService struct {
	customerRepo icustomerrepo.ICustomerRepository
}

// option is a function that configures the CustomerService.
type option func(*CustomerService)

// MustNewCustomerService creates a new CustomerService.
func MustNewCustomerService(opts ...option) *CustomerService {
	s := &CustomerService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.customerRepo == nil {
		panic("customersvc: customer repository is required")
	}

	return s
}

// WithCustomerRepository sets the customer repository for the CustomerService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCustomerRepository(repo icustomerrepo.ICustomerRepository) option {
	return func(s *CustomerService) {
		s.customerRepo = repo
	}
}

// SyncCustomer replaces the mirror of the customer carried by a customer.created envelope.
func (s *CustomerService) SyncCustomer(ctx context.Context, env event.Envelope) error {
	ctx, span := otel.Tracer("service").Start(ctx, "CustomerService.SyncCustomer")
	defer span.End()

	p, ok := env.Payload.(event.CustomerCreatedPayload)
	if !ok {
		return fmt.Errorf("%w: %s carries %T", event.ErrMalformed, env.Type, env.Payload)
	}

	c := customer.Customer{
		ID:         env.SubjectID,
		Name:       p.Name,
		Email:      p.Email,
		TaxID:      p.TaxID,
		Phone:      p.Phone,
		Address:    p.Address,
		Complement: p.Complement,
		PostalCode: p.PostalCode,
		City:       p.City,
		State:      p.State,
		Active:     true,
		CreatedAt:  env.Timestamp,
	}

	if err := s.customerRepo.Upsert(ctx, c); err != nil {
		slog.Error("Failed to upsert customer", "error", err, "customer_id", c.ID)

		return fmt.Errorf("failed to upsert customer: %w", err)
	}

	slog.Info("Customer synced", "customer_id", c.ID)

	return nil
}
