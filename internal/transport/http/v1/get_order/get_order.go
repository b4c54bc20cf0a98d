package getorder

import (
	"context"
	"net/http"

	"github.com/corray333/fasttech/internal/service/models/order"
	"github.com/corray333/fasttech/internal/transport/http/v1/response"
	"github.com/go-chi/chi/v5"
)

// service is an interface for the service layer.
type service interface {
	GetOrder(ctx context.Context, id string) (order.Order, error)
}

// GetOrder handles GET /orders/{id}. The kitchen reconciles missing mirrors through it.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	o, err := service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.ServiceError(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, o)
}
