package listorders

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/corray333/fasttech/internal/service/models/order"
	"github.com/corray333/fasttech/internal/transport/http/v1/response"
	"github.com/gorilla/schema"
)

const maxLimit = 100

// service is an interface for the service layer.
type service interface {
	ListOrders(ctx context.Context, filter order.QueryOrdersModel) ([]order.Order, error)
}

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}()

type listOrdersQuery struct {
	Ids         []string `schema:"ids"`
	CustomerIds []string `schema:"customerIds"`
	Statuses    []string `schema:"statuses"`
	Limit       int      `schema:"limit"`
	Offset      int      `schema:"offset"`
}

// splitValues accepts both repeated parameters and comma-separated lists.
func splitValues(values []string) []string {
	var result []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}

	return result
}

func (q listOrdersQuery) toModel() (order.QueryOrdersModel, bool) {
	model := order.QueryOrdersModel{
		Ids:         splitValues(q.Ids),
		CustomerIds: splitValues(q.CustomerIds),
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
	for _, s := range splitValues(q.Statuses) {
		status := order.Status(s)
		if !status.Valid() {
			return order.QueryOrdersModel{}, false
		}
		model.Statuses = append(model.Statuses, status)
	}
	if model.Limit <= 0 || model.Limit > maxLimit {
		model.Limit = maxLimit
	}
	if model.Offset < 0 {
		model.Offset = 0
	}

	return model, true
}

// ListOrders handles GET /orders.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	var q listOrdersQuery
	if err := decoder.Decode(&q, r.URL.Query()); err != nil {
		slog.Error("Error decoding query for list orders", "error", err)
		response.Error(w, http.StatusBadRequest, "Invalid query parameters")

		return
	}

	model, ok := q.toModel()
	if !ok {
		response.Error(w, http.StatusBadRequest, "Unknown status filter")

		return
	}

	orders, err := service.ListOrders(r.Context(), model)
	if err != nil {
		response.ServiceError(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, orders)
}
