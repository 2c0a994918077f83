package customers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgQuerier is the subset of pgxpool.Pool the repository needs. pgxmock
// satisfies it.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores customers in Postgres.
type PostgresRepository struct {
	db pgQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("customers: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db pgQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByPhone looks a customer up by normalized phone digits.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (*Customer, error) {
	query := `
		SELECT id, name, phone, email, created_at
		FROM customers
		WHERE phone = $1
	`
	var c Customer
	err := r.db.QueryRow(ctx, query, NormalizePhone(phone)).Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("customers: select by phone: %w", err)
	}
	return &c, nil
}

// GetByID fetches one customer by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Customer, error) {
	query := `
		SELECT id, name, phone, email, created_at
		FROM customers
		WHERE id = $1
	`
	var c Customer
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("customers: select by id: %w", err)
	}
	return &c, nil
}

// Create inserts a new customer row.
func (r *PostgresRepository) Create(ctx context.Context, params *NewCustomerParams) (*Customer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	phone := NormalizePhone(params.Phone)
	query := `
		INSERT INTO customers (id, name, phone, email)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query, id, params.Name, phone, params.Email).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("customers: insert: %w", err)
	}

	return &Customer{ID: id, Name: params.Name, Phone: phone, Email: params.Email, CreatedAt: createdAt}, nil
}

// List returns all customers, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]Customer, error) {
	query := `
		SELECT id, name, phone, email, created_at
		FROM customers
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("customers: list: %w", err)
	}
	defer rows.Close()

	out := make([]Customer, 0)
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("customers: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

var _ Repository = (*PostgresRepository)(nil)
