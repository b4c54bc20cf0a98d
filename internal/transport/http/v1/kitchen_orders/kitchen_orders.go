package kitchenorders

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/corray333/fasttech/internal/service/models/mirror"
	"github.com/corray333/fasttech/internal/transport/http/v1/response"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
)

// service is an interface for the service layer.
type service interface {
	GetMirror(ctx context.Context, id string) (mirror.Order, error)
	ListMirrors(ctx context.Context, status mirror.Status, limit int) ([]mirror.Order, error)
}

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}()

type listQuery struct {
	Status string `schema:"status"`
	Limit  int    `schema:"limit"`
}

// GetKitchenOrder handles GET /kitchen/orders/{id}.
func GetKitchenOrder(w http.ResponseWriter, r *http.Request, service service) {
	m, err := service.GetMirror(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.ServiceError(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, m)
}

// ListKitchenOrders handles GET /kitchen/orders?status=. The status defaults to pending.
func ListKitchenOrders(w http.ResponseWriter, r *http.Request, service service) {
	q := listQuery{Status: string(mirror.StatusPending)}
	if err := decoder.Decode(&q, r.URL.Query()); err != nil {
		slog.Error("Error decoding query for kitchen orders", "error", err)
		response.Error(w, http.StatusBadRequest, "Invalid query parameters")

		return
	}

	status := mirror.Status(q.Status)
	if !status.Valid() {
		response.Error(w, http.StatusBadRequest, "Unknown status filter")

		return
	}

	orders, err := service.ListMirrors(r.Context(), status, q.Limit)
	if err != nil {
		response.ServiceError(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, orders)
}
