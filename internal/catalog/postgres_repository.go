package catalog

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

// pgQuerier is the subset of pgxpool.Pool the repository needs. It matches
// pgxmock so tests can inject a mock pool.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores the catalog in the relational database.
type PostgresRepository struct {
	db pgQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db pgQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListActiveServices returns active services ordered by price ascending.
func (r *PostgresRepository) ListActiveServices(ctx context.Context) ([]Service, error) {
	query := `
		SELECT id, name, description, price_cents, duration_mins, active, created_at
		FROM services
		WHERE active = true
		ORDER BY price_cents ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	defer rows.Close()

	services := make([]Service, 0)
	for rows.Next() {
		var svc Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Description, &svc.PriceCents, &svc.DurationMins, &svc.Active, &svc.CreatedAt); err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

// ListBookableProfessionals returns active professionals with an eligible role.
func (r *PostgresRepository) ListBookableProfessionals(ctx context.Context) ([]Professional, error) {
	query := `
		SELECT id, name, role, specialties, active, created_at
		FROM professionals
		WHERE active = true AND role = ANY($1)
		ORDER BY name ASC
	`
	rows, err := r.db.Query(ctx, query, BookableRoles)
	if err != nil {
		return nil, fmt.Errorf("catalog: list professionals: %w", err)
	}
	defer rows.Close()

	professionals := make([]Professional, 0)
	for rows.Next() {
		var pro Professional
		if err := rows.Scan(&pro.ID, &pro.Name, &pro.Role, &pro.Specialties, &pro.Active, &pro.CreatedAt); err != nil {
			return nil, fmt.Errorf("catalog: scan professional: %w", err)
		}
		professionals = append(professionals, pro)
	}
	return professionals, rows.Err()
}

// GetService fetches one service by id.
func (r *PostgresRepository) GetService(ctx context.Context, id string) (*Service, error) {
	query := `
		SELECT id, name, description, price_cents, duration_mins, active, created_at
		FROM services
		WHERE id = $1
	`
	var svc Service
	err := r.db.QueryRow(ctx, query, id).Scan(&svc.ID, &svc.Name, &svc.Description, &svc.PriceCents, &svc.DurationMins, &svc.Active, &svc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("catalog: select service: %w", err)
	}
	return &svc, nil
}

// GetProfessional fetches one professional by id.
func (r *PostgresRepository) GetProfessional(ctx context.Context, id string) (*Professional, error) {
	query := `
		SELECT id, name, role, specialties, active, created_at
		FROM professionals
		WHERE id = $1
	`
	var pro Professional
	err := r.db.QueryRow(ctx, query, id).Scan(&pro.ID, &pro.Name, &pro.Role, &pro.Specialties, &pro.Active, &pro.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, fmt.Errorf("catalog: select professional: %w", err)
	}
	return &pro, nil
}

// CreateService inserts a new service row.
func (r *PostgresRepository) CreateService(ctx context.Context, req *CreateServiceRequest) (*Service, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	query := `
		INSERT INTO services (id, name, description, price_cents, duration_mins, active)
		VALUES ($1, $2, $3, $4, $5, true)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query, id, req.Name, req.Description, req.PriceCents, req.DurationMins).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("catalog: insert service: %w", err)
	}

	return &Service{
		ID:           id,
		Name:         req.Name,
		Description:  req.Description,
		PriceCents:   req.PriceCents,
		DurationMins: req.DurationMins,
		Active:       true,
		CreatedAt:    createdAt,
	}, nil
}

// UpdateService replaces the mutable columns of a service.
func (r *PostgresRepository) UpdateService(ctx context.Context, svc *Service) error {
	query := `
		UPDATE services
		SET name = $2, description = $3, price_cents = $4, duration_mins = $5, active = $6
		WHERE id = $1
	`
	ct, err := r.db.Exec(ctx, query, svc.ID, svc.Name, svc.Description, svc.PriceCents, svc.DurationMins, svc.Active)
	if err != nil {
		return fmt.Errorf("catalog: update service: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

// DeactivateService marks a service inactive so it stops appearing in the wizard.
func (r *PostgresRepository) DeactivateService(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `UPDATE services SET active = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog: deactivate service: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

// CreateProfessional inserts a new professional row.
func (r *PostgresRepository) CreateProfessional(ctx context.Context, req *CreateProfessionalRequest) (*Professional, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	query := `
		INSERT INTO professionals (id, name, role, specialties, active)
		VALUES ($1, $2, $3, $4, true)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query, id, req.Name, req.Role, req.Specialties).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("catalog: insert professional: %w", err)
	}

	return &Professional{
		ID:          id,
		Name:        req.Name,
		Role:        req.Role,
		Specialties: append([]string(nil), req.Specialties...),
		Active:      true,
		CreatedAt:   createdAt,
	}, nil
}

// UpdateProfessional replaces the mutable columns of a professional.
func (r *PostgresRepository) UpdateProfessional(ctx context.Context, pro *Professional) error {
	query := `
		UPDATE professionals
		SET name = $2, role = $3, specialties = $4, active = $5
		WHERE id = $1
	`
	ct, err := r.db.Exec(ctx, query, pro.ID, pro.Name, pro.Role, pro.Specialties, pro.Active)
	if err != nil {
		return fmt.Errorf("catalog: update professional: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrProfessionalNotFound
	}
	return nil
}

// DeactivateProfessional marks a professional inactive.
func (r *PostgresRepository) DeactivateProfessional(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `UPDATE professionals SET active = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog: deactivate professional: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrProfessionalNotFound
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
