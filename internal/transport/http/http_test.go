package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/corray333/fasttech/internal/service/models/mirror"
	"github.com/corray333/fasttech/internal/service/models/order"
	"github.com/corray333/fasttech/internal/service/services/kitchensvc"
	"github.com/corray333/fasttech/internal/service/services/ordersvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrders records the last call and answers from a single stored order.
type fakeOrders struct {
	calls  []string
	lastID string
	input  ordersvc.TransitionInput
	cancel ordersvc.CancelInput
	filter order.QueryOrdersModel
	err    error
}

func (f *fakeOrders) record(name, id string) (order.Order, error) {
	f.calls = append(f.calls, name)
	f.lastID = id
	if f.err != nil {
		return order.Order{}, f.err
	}

	return order.Order{ID: id, Status: order.StatusCreated}, nil
}

func (f *fakeOrders) CreateOrder(_ context.Context, in ordersvc.CreateOrderInput) (order.Order, error) {
	return f.record("CreateOrder", "new")
}

func (f *fakeOrders) GetOrder(_ context.Context, id string) (order.Order, error) {
	return f.record("GetOrder", id)
}

func (f *fakeOrders) ListOrders(_ context.Context, filter order.QueryOrdersModel) ([]order.Order, error) {
	f.calls = append(f.calls, "ListOrders")
	f.filter = filter

	return []order.Order{}, f.err
}

func (f *fakeOrders) ConfirmOrder(_ context.Context, id string, in ordersvc.TransitionInput) (order.Order, error) {
	f.input = in

	return f.record("ConfirmOrder", id)
}

func (f *fakeOrders) StartPreparation(_ context.Context, id string, in ordersvc.TransitionInput) (order.Order, error) {
	f.input = in

	return f.record("StartPreparation", id)
}

func (f *fakeOrders) MarkReady(_ context.Context, id string, in ordersvc.TransitionInput) (order.Order, error) {
	f.input = in

	return f.record("MarkReady", id)
}

func (f *fakeOrders) DispatchOrder(_ context.Context, id string, in ordersvc.TransitionInput) (order.Order, error) {
	f.input = in

	return f.record("DispatchOrder", id)
}

func (f *fakeOrders) DeliverOrder(_ context.Context, id string, in ordersvc.TransitionInput) (order.Order, error) {
	f.input = in

	return f.record("DeliverOrder", id)
}

func (f *fakeOrders) CancelOrder(_ context.Context, id string, in ordersvc.CancelInput) (order.Order, error) {
	f.cancel = in

	return f.record("CancelOrder", id)
}

func (f *fakeOrders) ConfirmPayment(_ context.Context, id string) (order.Order, error) {
	return f.record("ConfirmPayment", id)
}

type fakeKitchen struct {
	listedStatus mirror.Status
	listedLimit  int
}

func (f *fakeKitchen) GetMirror(_ context.Context, id string) (mirror.Order, error) {
	if id == "missing" {
		return mirror.Order{}, kitchensvc.ErrMirrorNotFound
	}

	return mirror.Order{ID: id, Status: mirror.StatusPending}, nil
}

func (f *fakeKitchen) ListMirrors(_ context.Context, status mirror.Status, limit int) ([]mirror.Order, error) {
	f.listedStatus, f.listedLimit = status, limit

	return []mirror.Order{}, nil
}

func newOrderTransport(svc *fakeOrders) http.Handler {
	h := NewHTTPTransport()
	h.RegisterOrderRoutes(svc)

	return h.Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestTransitionRoutes(t *testing.T) {
	tests := map[string]string{
		"confirm":  "ConfirmOrder",
		"prepare":  "StartPreparation",
		"ready":    "MarkReady",
		"dispatch": "DispatchOrder",
		"deliver":  "DeliverOrder",
		"payment":  "ConfirmPayment",
	}

	for action, method := range tests {
		t.Run(action, func(t *testing.T) {
			svc := &fakeOrders{}
			rec := do(t, newOrderTransport(svc), http.MethodPost, "/api/orders/o-1/"+action, "")

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, []string{method}, svc.calls)
			assert.Equal(t, "o-1", svc.lastID)
		})
	}
}

func TestTransitionWithActor(t *testing.T) {
	svc := &fakeOrders{}
	rec := do(t, newOrderTransport(svc), http.MethodPost, "/api/orders/o-1/confirm",
		`{"actorId":"e-7","actorName":"Bia","note":"ok"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.input.Actor)
	assert.Equal(t, "e-7", svc.input.Actor.ID)
	require.NotNil(t, svc.input.Note)
	assert.Equal(t, "ok", *svc.input.Note)
}

func TestTransitionConflict(t *testing.T) {
	svc := &fakeOrders{err: &order.InvalidTransitionError{From: order.StatusCreated, To: order.StatusReady}}
	rec := do(t, newOrderTransport(svc), http.MethodPost, "/api/orders/o-1/ready", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelRoute(t *testing.T) {
	svc := &fakeOrders{}
	h := newOrderTransport(svc)

	rec := do(t, h, http.MethodPost, "/api/orders/o-1/cancel", `{"reason":"changed my mind","customerId":"c-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "changed my mind", svc.cancel.Reason)
	assert.Equal(t, "c-1", svc.cancel.CustomerID)

	rec = do(t, h, http.MethodPost, "/api/orders/o-1/cancel", `{"reason":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAndListOrders(t *testing.T) {
	svc := &fakeOrders{}
	h := newOrderTransport(svc)

	rec := do(t, h, http.MethodGet, "/api/orders/o-9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "o-9", got.ID)

	rec = do(t, h, http.MethodGet, "/api/orders?customerIds=c-1,c-2&statuses=Created&statuses=Ready&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, []string{"c-1", "c-2"}, svc.filter.CustomerIds)
	assert.Equal(t, []order.Status{order.StatusCreated, order.StatusReady}, svc.filter.Statuses)
	assert.Equal(t, 5, svc.filter.Limit)

	rec = do(t, h, http.MethodGet, "/api/orders?statuses=Lost", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrderNotFound(t *testing.T) {
	rec := do(t, newOrderTransport(&fakeOrders{err: ordersvc.ErrOrderNotFound}), http.MethodGet, "/api/orders/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestKitchenRoutes(t *testing.T) {
	svc := &fakeKitchen{}
	h := NewHTTPTransport()
	h.RegisterKitchenRoutes(svc)

	rec := do(t, h.Handler(), http.MethodGet, "/api/kitchen/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mirror.StatusPending, svc.listedStatus)

	rec = do(t, h.Handler(), http.MethodGet, "/api/kitchen/orders?status=preparing&limit=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mirror.StatusPreparing, svc.listedStatus)
	assert.Equal(t, 3, svc.listedLimit)

	rec = do(t, h.Handler(), http.MethodGet, "/api/kitchen/orders?status=burnt", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h.Handler(), http.MethodGet, "/api/kitchen/orders/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h.Handler(), http.MethodGet, "/api/kitchen/orders/o-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthz(t *testing.T) {
	rec := do(t, NewHTTPTransport().Handler(), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
