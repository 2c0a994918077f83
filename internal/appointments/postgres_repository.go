package appointments

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

// PostgresRepository stores appointments in Postgres.
type PostgresRepository struct {
	db pgQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db pgQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, customer_id, professional_id, service_id, service_name, price_cents, duration_mins, date, start_time, status, created_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.CustomerID, &a.ProfessionalID, &a.ServiceID, &a.ServiceName,
		&a.PriceCents, &a.DurationMins, &a.Date, &a.StartTime, &a.Status, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListForProfessionalOnDate returns non-cancelled appointments for one
// professional on one date, ordered by start time.
func (r *PostgresRepository) ListForProfessionalOnDate(ctx context.Context, professionalID, date string) ([]Appointment, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM appointments
		WHERE professional_id = $1 AND date = $2 AND status <> 'cancelled'
		ORDER BY start_time ASC
	`
	return r.list(ctx, query, professionalID, date)
}

// ListOnDate returns all appointments on one date, ordered by start time.
func (r *PostgresRepository) ListOnDate(ctx context.Context, date string) ([]Appointment, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM appointments
		WHERE date = $1
		ORDER BY start_time ASC
	`
	return r.list(ctx, query, date)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	out := make([]Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// GetByID fetches one appointment by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM appointments
		WHERE id = $1
	`
	a, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: select: %w", err)
	}
	return a, nil
}

// Create inserts a new appointment row.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	if appt.Status == "" {
		appt.Status = StatusScheduled
	}

	query := `
		INSERT INTO appointments (id, customer_id, professional_id, service_id, service_name, price_cents, duration_mins, date, start_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	var createdAt time.Time
	err := r.db.QueryRow(ctx, query,
		appt.ID, appt.CustomerID, appt.ProfessionalID, appt.ServiceID, appt.ServiceName,
		appt.PriceCents, appt.DurationMins, appt.Date, appt.StartTime, appt.Status,
	).Scan(&createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointments: insert: %w", err)
	}
	appt.CreatedAt = createdAt
	return nil
}

// UpdateStatus transitions an appointment to a new status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}

	ct, err := r.db.Exec(ctx, `UPDATE appointments SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("appointments: update status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
