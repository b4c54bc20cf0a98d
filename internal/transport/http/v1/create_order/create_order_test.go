package createorder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/corray333/fasttech/internal/service/models/order"
	"github.com/corray333/fasttech/internal/service/services/ordersvc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	got *ordersvc.CreateOrderInput
	err error
}

func (f *fakeService) CreateOrder(_ context.Context, in ordersvc.CreateOrderInput) (order.Order, error) {
	f.got = &in
	if f.err != nil {
		return order.Order{}, f.err
	}

	return order.Order{ID: "o-1", CustomerID: in.CustomerID, Status: order.StatusCreated}, nil
}

const validBody = `{
	"customerId": "c-1",
	"deliveryMode": "delivery",
	"deliveryFee": "5.00",
	"items": [{"productId": "p-1", "productName": "X-Burger", "quantity": 2, "unitPrice": 19.9}]
}`

func serve(svc service, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	CreateOrder(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)), svc)

	return rec
}

func TestCreateOrder(t *testing.T) {
	svc := &fakeService{}
	rec := serve(svc, validBody)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.got)
	assert.Equal(t, "c-1", svc.got.CustomerID)
	assert.Equal(t, order.DeliveryModeDelivery, svc.got.DeliveryMode)
	assert.True(t, svc.got.DeliveryFee.Equal(decimal.RequireFromString("5")))
	require.Len(t, svc.got.Items, 1)
	assert.True(t, svc.got.Items[0].UnitPrice.Equal(decimal.RequireFromString("19.9")))

	var got order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "o-1", got.ID)
}

func TestCreateOrderRejectsBadRequests(t *testing.T) {
	tests := map[string]string{
		"not json":      `{`,
		"no customer":   `{"deliveryMode":"counter","items":[{"productId":"p","productName":"n","quantity":1}]}`,
		"no items":      `{"customerId":"c-1","deliveryMode":"counter","items":[]}`,
		"zero quantity": `{"customerId":"c-1","deliveryMode":"counter","items":[{"productId":"p","productName":"n","quantity":0}]}`,
		"unknown mode":  `{"customerId":"c-1","deliveryMode":"drone","items":[{"productId":"p","productName":"n","quantity":1}]}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			svc := &fakeService{}
			rec := serve(svc, body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, svc.got)
		})
	}
}

func TestCreateOrderMapsServiceErrors(t *testing.T) {
	rec := serve(&fakeService{err: ordersvc.ErrCustomerInactive}, validBody)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "customer is inactive")
}
