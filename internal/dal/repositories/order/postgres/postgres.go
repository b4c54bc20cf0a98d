package postgresrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/fasttech/internal/dal/postgres"
	"github.com/corray333/fasttech/internal/service/models/order"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
)

var orderColumns = []string{
	"id",
	"number",
	"customer_id",
	"customer_name",
	"customer_phone",
	"customer_email",
	"items",
	"subtotal",
	"delivery_fee",
	"discount",
	"total",
	"delivery_mode",
	"delivery_address",
	"delivery_complement",
	"payment_method",
	"payment_confirmed",
	"notes",
	"status",
	"cancellation_reason",
	"handled_by_id",
	"handled_by_name",
	"history",
	"created_at",
	"updated_at",
	"confirmed_at",
	"preparation_at",
	"ready_at",
	"dispatched_at",
	"delivered_at",
	"cancelled_at",
}

// milestoneColumns maps a target status to the timestamp it stamps.
var milestoneColumns = map[order.Status]string{
	order.StatusConfirmed:      "confirmed_at",
	order.StatusInPreparation:  "preparation_at",
	order.StatusReady:          "ready_at",
	order.StatusOutForDelivery: "dispatched_at",
	order.StatusDelivered:      "delivered_at",
	order.StatusCancelled:      "cancelled_at",
}

// OrderDal represents order data access layer model
type OrderDal struct {
	ID                 string          `db:"id"`
	Number             string          `db:"number"`
	CustomerID         string          `db:"customer_id"`
	CustomerName       string          `db:"customer_name"`
	CustomerPhone      string          `db:"customer_phone"`
	CustomerEmail      string          `db:"customer_email"`
	Items              []byte          `db:"items"`
	Subtotal           decimal.Decimal `db:"subtotal"`
	DeliveryFee        decimal.Decimal `db:"delivery_fee"`
	Discount           decimal.Decimal `db:"discount"`
	Total              decimal.Decimal `db:"total"`
	DeliveryMode       string          `db:"delivery_mode"`
	DeliveryAddress    string          `db:"delivery_address"`
	DeliveryComplement *string         `db:"delivery_complement"`
	PaymentMethod      *string         `db:"payment_method"`
	PaymentConfirmed   bool            `db:"payment_confirmed"`
	Notes              *string         `db:"notes"`
	Status             string          `db:"status"`
	CancellationReason *string         `db:"cancellation_reason"`
	HandledByID        *string         `db:"handled_by_id"`
	HandledByName      *string         `db:"handled_by_name"`
	History            []byte          `db:"history"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          *time.Time      `db:"updated_at"`
	ConfirmedAt        *time.Time      `db:"confirmed_at"`
	PreparationAt      *time.Time      `db:"preparation_at"`
	ReadyAt            *time.Time      `db:"ready_at"`
	DispatchedAt       *time.Time      `db:"dispatched_at"`
	DeliveredAt        *time.Time      `db:"delivered_at"`
	CancelledAt        *time.Time      `db:"cancelled_at"`
}

// ToModel converts OrderDal to service layer Order model
func (d *OrderDal) ToModel() (order.Order, error) {
	var items []order.Item
	if err := json.Unmarshal(d.Items, &items); err != nil {
		return order.Order{}, fmt.Errorf("failed to decode order items: %w", err)
	}
	var history []order.HistoryEntry
	if err := json.Unmarshal(d.History, &history); err != nil {
		return order.Order{}, fmt.Errorf("failed to decode order history: %w", err)
	}

	return order.Order{
		ID:                 d.ID,
		Number:             d.Number,
		CustomerID:         d.CustomerID,
		CustomerName:       d.CustomerName,
		CustomerPhone:      d.CustomerPhone,
		CustomerEmail:      d.CustomerEmail,
		Items:              items,
		Subtotal:           d.Subtotal,
		DeliveryFee:        d.DeliveryFee,
		Discount:           d.Discount,
		Total:              d.Total,
		DeliveryMode:       order.DeliveryMode(d.DeliveryMode),
		DeliveryAddress:    d.DeliveryAddress,
		DeliveryComplement: d.DeliveryComplement,
		PaymentMethod:      d.PaymentMethod,
		PaymentConfirmed:   d.PaymentConfirmed,
		Notes:              d.Notes,
		Status:             order.Status(d.Status),
		CancellationReason: d.CancellationReason,
		HandledByID:        d.HandledByID,
		HandledByName:      d.HandledByName,
		History:            history,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
		ConfirmedAt:        d.ConfirmedAt,
		PreparationAt:      d.PreparationAt,
		ReadyAt:            d.ReadyAt,
		DispatchedAt:       d.DispatchedAt,
		DeliveredAt:        d.DeliveredAt,
		CancelledAt:        d.CancelledAt,
	}, nil
}

// OrderRepository stores canonical orders, one row per order with items and history as JSONB.
type OrderRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(conn postgres.GenericConn) *OrderRepository {
	return &OrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert stores a new order.
func (r *OrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	ctx, span := otel.Tracer("repository").Start(ctx, "OrderRepository.Insert")
	defer span.End()

	items, err := json.Marshal(o.Items)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to encode order items: %w", err)
	}
	history, err := json.Marshal(o.History)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to encode order history: %w", err)
	}

	query, args, err := r.sb.Insert("orders").
		Columns(
			"id", "number", "customer_id", "customer_name", "customer_phone", "customer_email",
			"items", "subtotal", "delivery_fee", "discount", "total",
			"delivery_mode", "delivery_address", "delivery_complement",
			"payment_method", "payment_confirmed", "notes", "status", "history", "created_at",
		).
		Values(
			o.ID, o.Number, o.CustomerID, o.CustomerName, o.CustomerPhone, o.CustomerEmail,
			items, o.Subtotal, o.DeliveryFee, o.Discount, o.Total,
			string(o.DeliveryMode), o.DeliveryAddress, o.DeliveryComplement,
			o.PaymentMethod, o.PaymentConfirmed, o.Notes, string(o.Status), history, o.CreatedAt,
		).
		Suffix("RETURNING " + strings.Join(orderColumns, ", ")).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	inserted, _, err := r.queryOne(ctx, query, args...)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	return inserted, nil
}

// GetByID returns the order with the given id.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (order.Order, bool, error) {
	ctx, span := otel.Tracer("repository").Start(ctx, "OrderRepository.GetByID")
	defer span.End()

	query, args, err := r.sb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return order.Order{}, false, fmt.Errorf("failed to build select query: %w", err)
	}

	return r.queryOne(ctx, query, args...)
}

// Query retrieves orders based on filter criteria
func (r *OrderRepository) Query(ctx context.Context, filter order.QueryOrdersModel) ([]order.Order, error) {
	ctx, span := otel.Tracer("repository").Start(ctx, "OrderRepository.Query")
	defer span.End()

	builder := r.sb.Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC", "id")

	if len(filter.Ids) > 0 {
		builder = builder.Where(sq.Eq{"id": filter.Ids})
	}
	if len(filter.CustomerIds) > 0 {
		builder = builder.Where(sq.Eq{"customer_id": filter.CustomerIds})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		builder = builder.Where(sq.Eq{"status": statuses})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	dals, err := pgx.CollectRows(rows, pgx.RowToStructByName[OrderDal])
	if err != nil {
		return nil, fmt.Errorf("failed to scan orders: %w", err)
	}

	result := make([]order.Order, 0, len(dals))
	for i := range dals {
		o, err := dals[i].ToModel()
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}

	return result, nil
}

// ApplyTransition performs the whole transition in one UPDATE guarded by the source status.
func (r *OrderRepository) ApplyTransition(ctx context.Context, id string, t order.Transition) (order.Order, bool, error) {
	ctx, span := otel.Tracer("repository").Start(ctx, "OrderRepository.ApplyTransition")
	defer span.End()

	entry, err := json.Marshal([]order.HistoryEntry{t.Entry})
	if err != nil {
		return order.Order{}, false, fmt.Errorf("failed to encode history entry: %w", err)
	}

	builder := r.sb.Update("orders").
		Set("status", string(t.To)).
		Set("updated_at", t.At).
		Set("history", sq.Expr("history || ?::jsonb", entry)).
		Where(sq.Eq{"id": id, "status": string(t.From)}).
		Suffix("RETURNING " + strings.Join(orderColumns, ", "))

	if column, ok := milestoneColumns[t.To]; ok {
		builder = builder.Set(column, t.At)
	}
	if t.Actor != nil {
		builder = builder.Set("handled_by_id", t.Actor.ID).Set("handled_by_name", t.Actor.Name)
	}
	if t.CancellationReason != nil {
		builder = builder.Set("cancellation_reason", *t.CancellationReason)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return order.Order{}, false, fmt.Errorf("failed to build update query: %w", err)
	}

	return r.queryOne(ctx, query, args...)
}

// SetPaymentConfirmed flags the order as paid.
func (r *OrderRepository) SetPaymentConfirmed(ctx context.Context, id string) (order.Order, bool, error) {
	ctx, span := otel.Tracer("repository").Start(ctx, "OrderRepository.SetPaymentConfirmed")
	defer span.End()

	query, args, err := r.sb.Update("orders").
		Set("payment_confirmed", true).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(orderColumns, ", ")).
		ToSql()
	if err != nil {
		return order.Order{}, false, fmt.Errorf("failed to build update query: %w", err)
	}

	return r.queryOne(ctx, query, args...)
}

func (r *OrderRepository) queryOne(ctx context.Context, query string, args ...any) (order.Order, bool, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return order.Order{}, false, err
	}

	dal, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[OrderDal])
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, false, nil
	}
	if err != nil {
		return order.Order{}, false, fmt.Errorf("failed to scan order: %w", err)
	}

	o, err := dal.ToModel()
	if err != nil {
		return order.Order{}, false, err
	}

	return o, true, nil
}
