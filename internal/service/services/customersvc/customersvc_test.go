package customersvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corray333/fasttech/internal/service/models/customer"
	"github.com/corray333/fasttech/internal/service/models/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCustomers struct {
	customers map[string]customer.Customer
	err       error
}

func (m *memCustomers) Upsert(_ context.Context, c customer.Customer) error {
	if m.err != nil {
		return m.err
	}
	m.customers[c.ID] = c

	return nil
}

func (m *memCustomers) GetByID(_ context.Context, id string) (customer.Customer, bool, error) {
	c, ok := m.customers[id]

	return c, ok, nil
}

func customerCreated(name string) event.Envelope {
	return event.Envelope{
		Type:      event.CustomerCreated,
		SubjectID: "c-1",
		Timestamp: time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC),
		Payload: event.CustomerCreatedPayload{
			Name:       name,
			Email:      "ana@example.com",
			TaxID:      "123",
			Phone:      "555",
			Address:    "Rua A, 1",
			PostalCode: "01000-000",
			City:       "Sao Paulo",
			State:      "SP",
		},
	}
}

func TestSyncCustomerIsIdempotent(t *testing.T) {
	repo := &memCustomers{customers: map[string]customer.Customer{}}
	svc := MustNewCustomerService(WithCustomerRepository(repo))
	ctx := context.Background()

	require.NoError(t, svc.SyncCustomer(ctx, customerCreated("Ana")))
	once := repo.customers["c-1"]

	require.NoError(t, svc.SyncCustomer(ctx, customerCreated("Ana")))
	assert.Equal(t, once, repo.customers["c-1"])
	assert.Len(t, repo.customers, 1)

	assert.True(t, once.Active)
	assert.Equal(t, "Sao Paulo", once.City)
}

func TestSyncCustomerReplacesExisting(t *testing.T) {
	repo := &memCustomers{customers: map[string]customer.Customer{
		"c-1": {ID: "c-1", Name: "Old", Active: false},
	}}
	svc := MustNewCustomerService(WithCustomerRepository(repo))

	require.NoError(t, svc.SyncCustomer(context.Background(), customerCreated("Ana")))

	got := repo.customers["c-1"]
	assert.Equal(t, "Ana", got.Name)
	assert.True(t, got.Active)
}

func TestSyncCustomerErrors(t *testing.T) {
	repo := &memCustomers{customers: map[string]customer.Customer{}, err: errors.New("db down")}
	svc := MustNewCustomerService(WithCustomerRepository(repo))

	err := svc.SyncCustomer(context.Background(), customerCreated("Ana"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, event.ErrMalformed)

	err = svc.SyncCustomer(context.Background(), event.Envelope{Type: event.CustomerCreated, SubjectID: "c-1"})
	require.ErrorIs(t, err, event.ErrMalformed)
}
