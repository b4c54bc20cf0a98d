package ordersvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/corray333/fasttech/internal/dal/interfaces/icustomerrepo"
	"github.com/corray333/fasttech/internal/dal/interfaces/ieventpublisher"
	"github.com/corray333/fasttech/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/fasttech/internal/dal/interfaces/isequencerepo"
	"github.com/corray333/fasttech/internal/service/models/event"
	"github.com/corray333/fasttech/internal/service/models/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
)

var (
	ErrOrderNotFound              = errors.New("order not found")
	ErrCustomerNotFound           = errors.New("customer not found")
	ErrCustomerInactive           = errors.New("customer is inactive")
	ErrCancellationReasonRequired = errors.New("cancellation reason is required")
	ErrNotOrderOwner              = errors.New("order belongs to another customer")
	ErrEmptyOrder                 = errors.New("order has no items")
	ErrInvalidItem                = errors.New("order item must have a positive quantity and a non-negative price")
	ErrNegativeTotal              = errors.New("order total is negative")
	ErrNegativeAdjustment         = errors.New("delivery fee and discount must not be negative")
	ErrInvalidDeliveryMode        = errors.New("unknown delivery mode")
	ErrDeliveryAddressRequired    = errors.New("delivery address is required")
)

// OrderService owns the canonical order lifecycle.
type OrderService struct {
	orderRepo    iorderrepo.IOrderRepository
	customerRepo icustomerrepo.ICustomerRepository
	sequenceRepo isequencerepo.ISequenceRepository
	publisher    ieventpublisher.IEventPublisher
	now          func() time.Time
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.orderRepo == nil || s.customerRepo == nil || s.sequenceRepo == nil || s.publisher == nil {
		panic("ordersvc: order, customer and sequence repositories and the event publisher are required")
	}

	return s
}

// WithOrderRepository sets the canonical order store.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderRepository(repo iorderrepo.IOrderRepository) option {
	return func(s *OrderService) {
		s.orderRepo = repo
	}
}

// WithCustomerRepository sets the customer registry used to validate new orders.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCustomerRepository(repo icustomerrepo.ICustomerRepository) option {
	return func(s *OrderService) {
		s.customerRepo = repo
	}
}

// WithSequenceRepository sets the per-day order number sequence.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithSequenceRepository(repo isequencerepo.ISequenceRepository) option {
	return func(s *OrderService) {
		s.sequenceRepo = repo
	}
}

// WithEventPublisher sets the publisher notified after every transition.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithEventPublisher(publisher ieventpublisher.IEventPublisher) option {
	return func(s *OrderService) {
		s.publisher = publisher
	}
}

// WithClock overrides time.Now.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *OrderService) {
		s.now = now
	}
}

// CreateOrderInput is what a customer submits to place an order.
type CreateOrderInput struct {
	CustomerID         string
	Items              []order.Item
	DeliveryFee        decimal.Decimal
	Discount           decimal.Decimal
	DeliveryMode       order.DeliveryMode
	DeliveryAddress    string
	DeliveryComplement *string
	PaymentMethod      *string
	Notes              *string
}

// TransitionInput carries who moved the order and why.
type TransitionInput struct {
	Actor *order.Actor
	Note  *string
}

// CancelInput describes a cancellation. CustomerID is set when the customer cancels
// their own order and must match the order owner.
type CancelInput struct {
	Reason     string
	CustomerID string
	Actor      *order.Actor
}

// CreateOrder validates the customer, prices the order, stores it and publishes order.created.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	if len(in.Items) == 0 {
		return order.Order{}, ErrEmptyOrder
	}
	if !in.DeliveryMode.Valid() {
		return order.Order{}, fmt.Errorf("%w: %q", ErrInvalidDeliveryMode, in.DeliveryMode)
	}

	cust, found, err := s.customerRepo.GetByID(ctx, in.CustomerID)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to get customer: %w", err)
	}
	if !found {
		return order.Order{}, ErrCustomerNotFound
	}
	if !cust.Active {
		return order.Order{}, ErrCustomerInactive
	}

	items := make([]order.Item, len(in.Items))
	copy(items, in.Items)
	for _, item := range items {
		if item.Quantity <= 0 || item.UnitPrice.IsNegative() {
			return order.Order{}, fmt.Errorf("%w: %s", ErrInvalidItem, item.ProductName)
		}
	}
	if in.DeliveryFee.IsNegative() || in.Discount.IsNegative() {
		return order.Order{}, ErrNegativeAdjustment
	}
	subtotal := order.PriceItems(items)
	total := order.Total(subtotal, in.DeliveryFee, in.Discount)
	if total.IsNegative() {
		return order.Order{}, ErrNegativeTotal
	}

	address, complement := in.DeliveryAddress, in.DeliveryComplement
	if in.DeliveryMode == order.DeliveryModeDelivery && address == "" {
		address, complement = cust.Address, cust.Complement
	}
	if in.DeliveryMode == order.DeliveryModeDelivery && address == "" {
		return order.Order{}, ErrDeliveryAddressRequired
	}

	now := s.now().UTC()
	seq, err := s.sequenceRepo.Next(ctx, now)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to allocate order number: %w", err)
	}

	note := "order created"
	o := order.Order{
		ID:                 uuid.NewString(),
		Number:             FormatNumber(now, seq),
		CustomerID:         cust.ID,
		CustomerName:       cust.Name,
		CustomerPhone:      cust.Phone,
		CustomerEmail:      cust.Email,
		Items:              items,
		Subtotal:           subtotal,
		DeliveryFee:        in.DeliveryFee,
		Discount:           in.Discount,
		Total:              total,
		DeliveryMode:       in.DeliveryMode,
		DeliveryAddress:    address,
		DeliveryComplement: complement,
		PaymentMethod:      in.PaymentMethod,
		Notes:              in.Notes,
		Status:             order.StatusCreated,
		History:            []order.HistoryEntry{order.NewHistoryEntry(order.StatusCreated, now, nil, &note)},
		CreatedAt:          now,
	}

	o, err = s.orderRepo.Insert(ctx, o)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	slog.Info("Order created", "order_id", o.ID, "number", o.Number, "customer_id", o.CustomerID)

	s.publisher.Publish(ctx, event.OrderCreated, o.ID, event.OrderCreatedPayload{
		Number:     o.Number,
		CustomerID: o.CustomerID,
		Status:     string(o.Status),
		Total:      o.Total,
	})

	return o, nil
}

// FormatNumber renders the human-readable order number for a day and sequence.
func FormatNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("ORD-%s-%04d", day.Format("20060102"), seq)
}

// GetOrder returns the canonical order document.
func (s *OrderService) GetOrder(ctx context.Context, id string) (order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.GetOrder")
	defer span.End()

	o, found, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to get order: %w", err)
	}
	if !found {
		return order.Order{}, ErrOrderNotFound
	}

	return o, nil
}

// ListOrders retrieves orders matching the filter, newest first.
func (s *OrderService) ListOrders(ctx context.Context, filter order.QueryOrdersModel) ([]order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.ListOrders")
	defer span.End()

	orders, err := s.orderRepo.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	if orders == nil {
		orders = []order.Order{}
	}

	return orders, nil
}

// ConfirmOrder moves a created order to Confirmed.
func (s *OrderService) ConfirmOrder(ctx context.Context, id string, in TransitionInput) (order.Order, error) {
	return s.transition(ctx, id, transitionRequest{to: order.StatusConfirmed, actor: in.Actor, note: in.Note})
}

// StartPreparation moves a confirmed order to InPreparation.
func (s *OrderService) StartPreparation(ctx context.Context, id string, in TransitionInput) (order.Order, error) {
	return s.transition(ctx, id, transitionRequest{to: order.StatusInPreparation, actor: in.Actor, note: in.Note})
}

// MarkReady moves an order in preparation to Ready.
func (s *OrderService) MarkReady(ctx context.Context, id string, in TransitionInput) (order.Order, error) {
	return s.transition(ctx, id, transitionRequest{to: order.StatusReady, actor: in.Actor, note: in.Note})
}

// DispatchOrder hands a ready delivery order to the courier.
func (s *OrderService) DispatchOrder(ctx context.Context, id string, in TransitionInput) (order.Order, error) {
	return s.transition(ctx, id, transitionRequest{to: order.StatusOutForDelivery, actor: in.Actor, note: in.Note})
}

// DeliverOrder completes an order, either from the courier or at the counter.
func (s *OrderService) DeliverOrder(ctx context.Context, id string, in TransitionInput) (order.Order, error) {
	return s.transition(ctx, id, transitionRequest{to: order.StatusDelivered, actor: in.Actor, note: in.Note})
}

// CancelOrder cancels an order that has not started preparation.
func (s *OrderService) CancelOrder(ctx context.Context, id string, in CancelInput) (order.Order, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return order.Order{}, ErrCancellationReasonRequired
	}

	note := "order cancelled: " + reason

	return s.transition(ctx, id, transitionRequest{
		to:     order.StatusCancelled,
		actor:  in.Actor,
		note:   &note,
		reason: &reason,
		guard: func(o order.Order) error {
			if in.CustomerID != "" && in.CustomerID != o.CustomerID {
				return ErrNotOrderOwner
			}

			return nil
		},
	})
}

// ConfirmPayment flags the order as paid. It does not change the status.
func (s *OrderService) ConfirmPayment(ctx context.Context, id string) (order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.ConfirmPayment")
	defer span.End()

	o, found, err := s.orderRepo.SetPaymentConfirmed(ctx, id)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to confirm payment: %w", err)
	}
	if !found {
		return order.Order{}, ErrOrderNotFound
	}

	slog.Info("Order payment confirmed", "order_id", id)

	return o, nil
}

type transitionRequest struct {
	to     order.Status
	actor  *order.Actor
	note   *string
	reason *string
	guard  func(order.Order) error
}

func (s *OrderService) transition(ctx context.Context, id string, req transitionRequest) (order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.transition")
	defer span.End()

	current, found, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to get order: %w", err)
	}
	if !found {
		return order.Order{}, ErrOrderNotFound
	}
	if req.guard != nil {
		if err := req.guard(current); err != nil {
			return order.Order{}, err
		}
	}

	at := s.now().UTC()
	if n := len(current.History); n > 0 && at.Before(current.History[n-1].At) {
		at = current.History[n-1].At
	}

	t, err := order.NewTransition(current, req.to, at, req.actor, req.note)
	if err != nil {
		return order.Order{}, err
	}
	t.CancellationReason = req.reason

	updated, applied, err := s.orderRepo.ApplyTransition(ctx, id, t)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to apply transition: %w", err)
	}
	if !applied {
		return order.Order{}, fmt.Errorf("order %s changed concurrently: %w",
			id, &order.InvalidTransitionError{From: current.Status, To: req.to})
	}

	slog.Info("Order status changed", "order_id", id, "from", t.From, "to", t.To)

	s.publishTransition(ctx, updated, t)

	return updated, nil
}

func (s *OrderService) publishTransition(ctx context.Context, o order.Order, t order.Transition) {
	if t.To == order.StatusCancelled {
		reason := ""
		if o.CancellationReason != nil {
			reason = *o.CancellationReason
		}
		s.publisher.Publish(ctx, event.OrderCancelled, o.ID, event.OrderCancelledPayload{
			Number:     o.Number,
			CustomerID: o.CustomerID,
			Reason:     reason,
		})

		return
	}

	s.publisher.Publish(ctx, event.OrderStatusType(t.To.Action()), o.ID, event.OrderStatusChangedPayload{
		Number: o.Number,
		Status: string(t.To),
		Action: t.To.Action(),
	})
}
