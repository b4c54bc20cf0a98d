package transitionorder

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/corray333/fasttech/internal/service/models/order"
	"github.com/corray333/fasttech/internal/service/services/ordersvc"
	"github.com/corray333/fasttech/internal/transport/http/v1/response"
	"github.com/go-chi/chi/v5"
)

// service is an interface for the service layer.
type service interface {
	ConfirmOrder(ctx context.Context, id string, in ordersvc.TransitionInput) (order.Order, error)
	StartPreparation(ctx context.Context, id string, in ordersvc.TransitionInput) (order.Order, error)
	MarkReady(ctx context.Context, id string, in ordersvc.TransitionInput) (order.Order, error)
	DispatchOrder(ctx context.Context, id string, in ordersvc.TransitionInput) (order.Order, error)
	DeliverOrder(ctx context.Context, id string, in ordersvc.TransitionInput) (order.Order, error)
}

// Action names the lifecycle step in the URL, /orders/{id}/{action}.
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionPrepare  Action = "prepare"
	ActionReady    Action = "ready"
	ActionDispatch Action = "dispatch"
	ActionDeliver  Action = "deliver"
)

// Actions lists every action served by Transition.
var Actions = []Action{ActionConfirm, ActionPrepare, ActionReady, ActionDispatch, ActionDeliver}

type transitionFunc func(ctx context.Context, id string, in ordersvc.TransitionInput) (order.Order, error)

func resolve(service service, action Action) transitionFunc {
	switch action {
	case ActionConfirm:
		return service.ConfirmOrder
	case ActionPrepare:
		return service.StartPreparation
	case ActionReady:
		return service.MarkReady
	case ActionDispatch:
		return service.DispatchOrder
	case ActionDeliver:
		return service.DeliverOrder
	}

	return nil
}

// transitionRequest is optional; an empty body is a system-initiated change.
type transitionRequest struct {
	ActorID   string  `json:"actorId"`
	ActorName string  `json:"actorName"`
	Note      *string `json:"note"`
}

func (req transitionRequest) toInput() ordersvc.TransitionInput {
	in := ordersvc.TransitionInput{Note: req.Note}
	if req.ActorID != "" {
		in.Actor = &order.Actor{ID: req.ActorID, Name: req.ActorName}
	}

	return in
}

// Transition handles POST /orders/{id}/{action}.
func Transition(w http.ResponseWriter, r *http.Request, service service, action Action) {
	apply := resolve(service, action)
	if apply == nil {
		response.Error(w, http.StatusNotFound, "Unknown action")

		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		slog.Error("Error decoding request body for transition", "error", err, "action", action)
		response.Error(w, http.StatusBadRequest, "Failed to decode request body")

		return
	}

	updated, err := apply(r.Context(), chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		response.ServiceError(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, updated)
}
