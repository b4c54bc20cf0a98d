package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/fasttech/internal/dal/postgres"
	"github.com/corray333/fasttech/internal/service/models/customer"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
)

var customerColumns = []string{
	"id", "name", "email", "tax_id", "phone", "address", "complement",
	"postal_code", "city", "state", "active", "created_at",
}

// CustomerDal represents customer data access layer model.
type CustomerDal struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Email      string    `db:"email"`
	TaxID      string    `db:"tax_id"`
	Phone      string    `db:"phone"`
	Address    string    `db:"address"`
	Complement *string   `db:"complement"`
	PostalCode string    `db:"postal_code"`
	City       string    `db:"city"`
	State      string    `db:"state"`
	Active     bool      `db:"active"`
	CreatedAt  time.Time `db:"created_at"`
}

// ToModel converts CustomerDal to service layer Customer model.
func (d *CustomerDal) ToModel() customer.Customer {
	return customer.Customer(*d)
}

// CustomerRepository stores the customer registry mirror.
type CustomerRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewCustomerRepository creates a new CustomerRepository.
func NewCustomerRepository(conn postgres.GenericConn) *CustomerRepository {
	return &CustomerRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Upsert inserts the customer or overwrites every column of the existing row.
func (r *CustomerRepository) Upsert(ctx context.Context, c customer.Customer) error {
	ctx, span := otel.Tracer("repository").Start(ctx, "CustomerRepository.Upsert")
	defer span.End()

	query, args, err := r.sb.Insert("customers").
		Columns(customerColumns...).
		Values(
			c.ID, c.Name, c.Email, c.TaxID, c.Phone, c.Address, c.Complement,
			c.PostalCode, c.City, c.State, c.Active, c.CreatedAt,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			tax_id = EXCLUDED.tax_id,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			complement = EXCLUDED.complement,
			postal_code = EXCLUDED.postal_code,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			active = EXCLUDED.active,
			created_at = EXCLUDED.created_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert customer: %w", err)
	}

	return nil
}

// GetByID returns the customer with the given id.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (customer.Customer, bool, error) {
	ctx, span := otel.Tracer("repository").Start(ctx, "CustomerRepository.GetByID")
	defer span.End()

	query, args, err := r.sb.Select(customerColumns...).
		From("customers").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return customer.Customer{}, false, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return customer.Customer{}, false, fmt.Errorf("failed to query customer: %w", err)
	}

	dal, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[CustomerDal])
	if errors.Is(err, pgx.ErrNoRows) {
		return customer.Customer{}, false, nil
	}
	if err != nil {
		return customer.Customer{}, false, fmt.Errorf("failed to scan customer: %w", err)
	}

	return dal.ToModel(), true, nil
}
