// Package response writes JSON bodies and maps service errors to HTTP statuses.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/corray333/fasttech/internal/service/models/order"
	"github.com/corray333/fasttech/internal/service/services/kitchensvc"
	"github.com/corray333/fasttech/internal/service/services/ordersvc"
)

type errorBody struct {
	Error string `json:"error"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error writing response", "error", err)
	}
}

// Error writes {"error": msg} with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{Error: msg})
}

// ServiceError writes err with the status its kind maps to. Unexpected errors are logged and hidden.
func ServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Internal error", "error", err, "path", r.URL.Path)
		Error(w, status, http.StatusText(status))

		return
	}

	Error(w, status, err.Error())
}

// StatusFor maps a service error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ordersvc.ErrOrderNotFound), errors.Is(err, kitchensvc.ErrMirrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ordersvc.ErrNotOrderOwner):
		return http.StatusForbidden
	case errors.Is(err, ordersvc.ErrCustomerNotFound), errors.Is(err, ordersvc.ErrCustomerInactive):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ordersvc.ErrCancellationReasonRequired),
		errors.Is(err, ordersvc.ErrEmptyOrder),
		errors.Is(err, ordersvc.ErrInvalidItem),
		errors.Is(err, ordersvc.ErrNegativeTotal),
		errors.Is(err, ordersvc.ErrNegativeAdjustment),
		errors.Is(err, ordersvc.ErrInvalidDeliveryMode),
		errors.Is(err, ordersvc.ErrDeliveryAddressRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
