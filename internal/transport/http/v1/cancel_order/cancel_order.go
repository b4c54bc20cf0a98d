package cancelorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/corray333/fasttech/internal/service/models/order"
	"github.com/corray333/fasttech/internal/service/services/ordersvc"
	"github.com/corray333/fasttech/internal/transport/http/v1/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// service is an interface for the service layer.
type service interface {
	CancelOrder(ctx context.Context, id string, in ordersvc.CancelInput) (order.Order, error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

type cancelOrderRequest struct {
	Reason     string `json:"reason" validate:"required"`
	CustomerID string `json:"customerId"`
	ActorID    string `json:"actorId"`
	ActorName  string `json:"actorName" validate:"required_with=ActorID"`
}

// CancelOrder handles POST /orders/{id}/cancel. A customerId restricts the cancellation to the order owner.
func CancelOrder(w http.ResponseWriter, r *http.Request, service service) {
	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Error decoding request body for cancel order", "error", err)
		response.Error(w, http.StatusBadRequest, "Failed to decode request body")

		return
	}

	if err := validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())

		return
	}

	in := ordersvc.CancelInput{Reason: req.Reason, CustomerID: req.CustomerID}
	if req.ActorID != "" {
		in.Actor = &order.Actor{ID: req.ActorID, Name: req.ActorName}
	}

	cancelled, err := service.CancelOrder(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		response.ServiceError(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, cancelled)
}
