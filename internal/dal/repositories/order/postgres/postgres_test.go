package postgresrepo

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/corray333/fasttech/internal/service/models/order"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCaptured = errors.New("captured")

// capturingConn records the statement and fails it, so no database is needed.
type capturingConn struct {
	sql  string
	args []any
}

func (c *capturingConn) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.sql, c.args = sql, args

	return nil, errCaptured
}

func (c *capturingConn) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not used")
}

func (c *capturingConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.sql, c.args = sql, args

	return pgconn.CommandTag{}, errCaptured
}

func TestApplyTransitionIsSingleGuardedUpdate(t *testing.T) {
	conn := &capturingConn{}
	repo := NewOrderRepository(conn)
	reason := "no show"
	tr := order.Transition{
		From:               order.StatusConfirmed,
		To:                 order.StatusCancelled,
		At:                 time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC),
		Entry:              order.HistoryEntry{Status: order.StatusCancelled},
		CancellationReason: &reason,
	}

	_, _, err := repo.ApplyTransition(context.Background(), "o-1", tr)
	require.ErrorIs(t, err, errCaptured)

	assert.Contains(t, conn.sql, "UPDATE orders SET")
	assert.Contains(t, conn.sql, "history = history || $3::jsonb")
	assert.Contains(t, conn.sql, "cancelled_at = ")
	assert.Contains(t, conn.sql, "cancellation_reason = ")
	assert.Contains(t, conn.sql, "WHERE id = $")
	assert.Contains(t, conn.sql, "AND status = $")
	assert.Contains(t, conn.sql, "RETURNING id, number")
	assert.Contains(t, conn.args, "o-1")
	assert.Contains(t, conn.args, string(order.StatusConfirmed))
	assert.Contains(t, conn.args, reason)
}

func TestApplyTransitionBindsWhatApplyProduces(t *testing.T) {
	conn := &capturingConn{}
	repo := NewOrderRepository(conn)
	current := order.Order{ID: "o-1", Status: order.StatusInPreparation, DeliveryMode: order.DeliveryModeDelivery}
	tr, err := order.NewTransition(current, order.StatusReady, time.Date(2026, 10, 14, 12, 30, 0, 0, time.UTC),
		&order.Actor{ID: "e-7", Name: "Bia"}, nil)
	require.NoError(t, err)
	want := current.Apply(tr)

	_, _, err = repo.ApplyTransition(context.Background(), "o-1", tr)
	require.ErrorIs(t, err, errCaptured)

	assert.Contains(t, conn.sql, "ready_at = $4")
	require.Len(t, conn.args, 8)
	assert.Equal(t, string(want.Status), conn.args[0])
	assert.Equal(t, *want.UpdatedAt, conn.args[1])

	var appended []order.HistoryEntry
	require.NoError(t, json.Unmarshal(conn.args[2].([]byte), &appended))
	assert.Equal(t, want.History, appended)

	assert.Equal(t, *want.ReadyAt, conn.args[3])
	assert.Equal(t, *want.HandledByID, conn.args[4])
	assert.Equal(t, *want.HandledByName, conn.args[5])
	assert.Equal(t, "o-1", conn.args[6])
	assert.Equal(t, string(current.Status), conn.args[7])
}

func TestQueryAppliesFilters(t *testing.T) {
	conn := &capturingConn{}
	repo := NewOrderRepository(conn)

	_, err := repo.Query(context.Background(), order.QueryOrdersModel{
		CustomerIds: []string{"c-1"},
		Statuses:    []order.Status{order.StatusCreated, order.StatusConfirmed},
		Limit:       10,
		Offset:      20,
	})
	require.ErrorIs(t, err, errCaptured)

	assert.Contains(t, conn.sql, "customer_id IN ($1)")
	assert.Contains(t, conn.sql, "status IN ($2,$3)")
	assert.Contains(t, conn.sql, "ORDER BY created_at DESC, id")
	assert.Contains(t, conn.sql, "LIMIT 10 OFFSET 20")
}
