package postgresrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/fasttech/internal/dal/postgres"
	"github.com/corray333/fasttech/internal/service/models/mirror"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
)

const defaultListLimit = 50

var mirrorColumns = []string{
	"id", "number", "created_at", "items", "customer_name", "customer_phone",
	"delivery_address", "total", "notes", "status", "cancellation_reason",
	"accepted_at", "cancelled_at", "updated_at", "history",
}

// MirrorDal represents kitchen order data access layer model.
type MirrorDal struct {
	ID                 string          `db:"id"`
	Number             string          `db:"number"`
	CreatedAt          time.Time       `db:"created_at"`
	Items              []byte          `db:"items"`
	CustomerName       string          `db:"customer_name"`
	CustomerPhone      string          `db:"customer_phone"`
	DeliveryAddress    string          `db:"delivery_address"`
	Total              decimal.Decimal `db:"total"`
	Notes              *string         `db:"notes"`
	Status             string          `db:"status"`
	CancellationReason *string         `db:"cancellation_reason"`
	AcceptedAt         *time.Time      `db:"accepted_at"`
	CancelledAt        *time.Time      `db:"cancelled_at"`
	UpdatedAt          *time.Time      `db:"updated_at"`
	History            []byte          `db:"history"`
}

// ToModel converts MirrorDal to service layer mirror Order model.
func (d *MirrorDal) ToModel() (mirror.Order, error) {
	var items []mirror.Item
	if err := json.Unmarshal(d.Items, &items); err != nil {
		return mirror.Order{}, fmt.Errorf("failed to decode mirror items: %w", err)
	}
	var history []mirror.StatusChange
	if err := json.Unmarshal(d.History, &history); err != nil {
		return mirror.Order{}, fmt.Errorf("failed to decode mirror history: %w", err)
	}

	return mirror.Order{
		ID:                 d.ID,
		Number:             d.Number,
		CreatedAt:          d.CreatedAt,
		Items:              items,
		CustomerName:       d.CustomerName,
		CustomerPhone:      d.CustomerPhone,
		DeliveryAddress:    d.DeliveryAddress,
		Total:              d.Total,
		Notes:              d.Notes,
		Status:             mirror.Status(d.Status),
		CancellationReason: d.CancellationReason,
		AcceptedAt:         d.AcceptedAt,
		CancelledAt:        d.CancelledAt,
		UpdatedAt:          d.UpdatedAt,
		History:            history,
	}, nil
}

// MirrorRepository stores the kitchen's order mirrors.
type MirrorRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewMirrorRepository creates a new MirrorRepository.
func NewMirrorRepository(conn postgres.GenericConn) *MirrorRepository {
	return &MirrorRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetByID returns the mirror with the given id.
func (r *MirrorRepository) GetByID(ctx context.Context, id string) (mirror.Order, bool, error) {
	ctx, span := otel.Tracer("repository").Start(ctx, "MirrorRepository.GetByID")
	defer span.End()

	query, args, err := r.sb.Select(mirrorColumns...).
		From("kitchen_orders").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return mirror.Order{}, false, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return mirror.Order{}, false, fmt.Errorf("failed to query mirror: %w", err)
	}

	dal, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[MirrorDal])
	if errors.Is(err, pgx.ErrNoRows) {
		return mirror.Order{}, false, nil
	}
	if err != nil {
		return mirror.Order{}, false, fmt.Errorf("failed to scan mirror: %w", err)
	}

	m, err := dal.ToModel()
	if err != nil {
		return mirror.Order{}, false, err
	}

	return m, true, nil
}

// Insert creates the mirror in a single statement; an existing row is left untouched.
func (r *MirrorRepository) Insert(ctx context.Context, o mirror.Order) (bool, error) {
	ctx, span := otel.Tracer("repository").Start(ctx, "MirrorRepository.Insert")
	defer span.End()

	items, err := json.Marshal(o.Items)
	if err != nil {
		return false, fmt.Errorf("failed to encode mirror items: %w", err)
	}
	history, err := json.Marshal(o.History)
	if err != nil {
		return false, fmt.Errorf("failed to encode mirror history: %w", err)
	}

	query, args, err := r.sb.Insert("kitchen_orders").
		Columns(mirrorColumns...).
		Values(
			o.ID, o.Number, o.CreatedAt, items, o.CustomerName, o.CustomerPhone,
			o.DeliveryAddress, o.Total, o.Notes, string(o.Status), o.CancellationReason,
			o.AcceptedAt, o.CancelledAt, o.UpdatedAt, history,
		).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build insert query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to insert mirror: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// SetStatus sets the status. Re-applying the current status leaves history and timestamps as they are.
func (r *MirrorRepository) SetStatus(ctx context.Context, id string, u mirror.StatusUpdate) (bool, error) {
	ctx, span := otel.Tracer("repository").Start(ctx, "MirrorRepository.SetStatus")
	defer span.End()

	entry, err := json.Marshal([]mirror.StatusChange{{Status: u.Status, At: u.At}})
	if err != nil {
		return false, fmt.Errorf("failed to encode status change: %w", err)
	}
	status := string(u.Status)

	builder := r.sb.Update("kitchen_orders").
		Set("history", sq.Expr("CASE WHEN status = ? THEN history ELSE history || ?::jsonb END", status, entry)).
		Set("updated_at", sq.Expr("CASE WHEN status = ? THEN updated_at ELSE ?::timestamptz END", status, u.At)).
		Set("status", status).
		Where(sq.Eq{"id": id})

	switch u.Status {
	case mirror.StatusAccepted:
		builder = builder.Set("accepted_at", sq.Expr("COALESCE(accepted_at, ?::timestamptz)", u.At))
	case mirror.StatusCancelled:
		builder = builder.Set("cancelled_at", sq.Expr("COALESCE(cancelled_at, ?::timestamptz)", u.At))
	}
	if u.Reason != nil {
		builder = builder.Set("cancellation_reason",
			sq.Expr("CASE WHEN status = ? THEN COALESCE(cancellation_reason, ?) ELSE ? END", status, *u.Reason, *u.Reason))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to set mirror status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListByStatus returns mirrors in status, oldest first.
func (r *MirrorRepository) ListByStatus(ctx context.Context, status mirror.Status, limit int) ([]mirror.Order, error) {
	ctx, span := otel.Tracer("repository").Start(ctx, "MirrorRepository.ListByStatus")
	defer span.End()

	if limit <= 0 {
		limit = defaultListLimit
	}

	query, args, err := r.sb.Select(mirrorColumns...).
		From("kitchen_orders").
		Where(sq.Eq{"status": string(status)}).
		OrderBy("created_at", "id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mirrors: %w", err)
	}

	dals, err := pgx.CollectRows(rows, pgx.RowToStructByName[MirrorDal])
	if err != nil {
		return nil, fmt.Errorf("failed to scan mirrors: %w", err)
	}

	result := make([]mirror.Order, 0, len(dals))
	for i := range dals {
		m, err := dals[i].ToModel()
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}

	return result, nil
}
