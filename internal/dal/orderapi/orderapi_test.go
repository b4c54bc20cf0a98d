package orderapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/corray333/fasttech/internal/service/models/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchOrderDecodesCanonicalOrder(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(order.Order{
			ID:           "o-1",
			Number:       "ORD-20261014-0001",
			CustomerName: "Ana",
			Items: []order.Item{{
				ProductName: "X-Burger",
				Quantity:    2,
				UnitPrice:   decimal.RequireFromString("19.90"),
			}},
			Total:     decimal.RequireFromString("39.80"),
			Status:    order.StatusCreated,
			CreatedAt: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC),
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/", 0)
	o, err := c.FetchOrder(context.Background(), "o-1")
	require.NoError(t, err)

	assert.Equal(t, "/api/orders/o-1", gotPath)
	assert.Equal(t, "ORD-20261014-0001", o.Number)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("39.80")))
	require.Len(t, o.Items, 1)
	assert.Equal(t, "X-Burger", o.Items[0].ProductName)
}

func TestFetchOrderNonSuccessIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "order not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0).FetchOrder(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "order not found")
}

func TestFetchOrderBadBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0).FetchOrder(context.Background(), "o-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode order")
}

func TestFetchOrderHonoursTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, 50*time.Millisecond).FetchOrder(context.Background(), "o-1")
	require.Error(t, err)
}
