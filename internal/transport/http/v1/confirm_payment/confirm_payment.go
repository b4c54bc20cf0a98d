package confirmpayment

import (
	"context"
	"net/http"

	"github.com/corray333/fasttech/internal/service/models/order"
	"github.com/corray333/fasttech/internal/transport/http/v1/response"
	"github.com/go-chi/chi/v5"
)

// service is an interface for the service layer.
type service interface {
	ConfirmPayment(ctx context.Context, id string) (order.Order, error)
}

// ConfirmPayment handles POST /orders/{id}/payment.
func ConfirmPayment(w http.ResponseWriter, r *http.Request, service service) {
	o, err := service.ConfirmPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.ServiceError(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, o)
}
