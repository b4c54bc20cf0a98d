package createorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/corray333/fasttech/internal/service/models/order"
	"github.com/corray333/fasttech/internal/service/services/ordersvc"
	"github.com/corray333/fasttech/internal/transport/http/v1/response"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, in ordersvc.CreateOrderInput) (order.Order, error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

type itemRequest struct {
	ProductID   string          `json:"productId" validate:"required"`
	ProductName string          `json:"productName" validate:"required"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Notes       *string         `json:"notes"`
	Options     []string        `json:"options"`
}

type createOrderRequest struct {
	CustomerID         string          `json:"customerId" validate:"required"`
	Items              []itemRequest   `json:"items" validate:"required,min=1,dive"`
	DeliveryFee        decimal.Decimal `json:"deliveryFee"`
	Discount           decimal.Decimal `json:"discount"`
	DeliveryMode       string          `json:"deliveryMode" validate:"required,oneof=counter drive_through delivery"`
	DeliveryAddress    string          `json:"deliveryAddress"`
	DeliveryComplement *string         `json:"deliveryComplement"`
	PaymentMethod      *string         `json:"paymentMethod"`
	Notes              *string         `json:"notes"`
}

func (req createOrderRequest) toInput() ordersvc.CreateOrderInput {
	items := make([]order.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, order.Item{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Notes:       it.Notes,
			Options:     it.Options,
		})
	}

	return ordersvc.CreateOrderInput{
		CustomerID:         req.CustomerID,
		Items:              items,
		DeliveryFee:        req.DeliveryFee,
		Discount:           req.Discount,
		DeliveryMode:       order.DeliveryMode(req.DeliveryMode),
		DeliveryAddress:    req.DeliveryAddress,
		DeliveryComplement: req.DeliveryComplement,
		PaymentMethod:      req.PaymentMethod,
		Notes:              req.Notes,
	}
}

// CreateOrder handles POST /orders.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Error decoding request body for create order", "error", err)
		response.Error(w, http.StatusBadRequest, "Failed to decode request body")

		return
	}

	if err := validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())

		return
	}

	created, err := service.CreateOrder(r.Context(), req.toInput())
	if err != nil {
		response.ServiceError(w, r, err)

		return
	}

	response.JSON(w, http.StatusCreated, created)
}
