package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/davidbarber/barbershop-platform/internal/appointments"
	"github.com/davidbarber/barbershop-platform/internal/customers"
	"github.com/davidbarber/barbershop-platform/internal/events"
	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

var submitTracer = otel.Tracer("barbershop.internal.booking")

// Submission is everything the submitter needs to create the booking. The
// manager resolves names and prices from the session's catalog snapshot so
// the appointment records what the visitor actually saw.
type Submission struct {
	IdempotencyKey   string
	ServiceID        string
	ServiceName      string
	PriceCents       int64
	DurationMins     int
	ProfessionalID   string
	ProfessionalName string
	Date             string
	StartTime        string
	Name             string
	Phone            string
	Email            string
}

// Confirmation reports the created records back to the wizard.
type Confirmation struct {
	AppointmentID string `json:"appointment_id"`
	CustomerID    string `json:"customer_id"`
}

// Submitter persists a finished draft as a customer plus an appointment.
type Submitter interface {
	Submit(ctx context.Context, sub *Submission) (*Confirmation, error)
}

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgSubmitter performs the whole submission in one Postgres transaction:
// burn the idempotency key, resolve or create the customer by phone, insert
// the appointment, and stage the outbox event. Either everything commits or
// nothing does.
type PgSubmitter struct {
	pool   txBeginner
	logger *logging.Logger
}

// NewPgSubmitter wires the transactional submitter. The pool may be a
// pgxpool.Pool or a pgxmock pool in tests.
func NewPgSubmitter(pool txBeginner, logger *logging.Logger) *PgSubmitter {
	if pool == nil {
		panic("booking: pgx pool required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PgSubmitter{pool: pool, logger: logger}
}

func (s *PgSubmitter) Submit(ctx context.Context, sub *Submission) (*Confirmation, error) {
	ctx, span := submitTracer.Start(ctx, "booking.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("barbershop.service", sub.ServiceName),
		attribute.String("barbershop.date", sub.Date),
	)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if sub.IdempotencyKey != "" {
		fresh, err := events.MarkProcessedTx(ctx, tx, "booking", sub.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("booking: idempotency check: %w", err)
		}
		if !fresh {
			return nil, ErrDuplicateSubmission
		}
	}

	customerID, err := s.resolveCustomer(ctx, tx, sub)
	if err != nil {
		return nil, err
	}

	appointmentID := uuid.New().String()
	insertAppt := `
		INSERT INTO appointments (id, customer_id, professional_id, service_id, service_name, price_cents, duration_mins, date, start_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if _, err := tx.Exec(ctx, insertAppt,
		appointmentID, customerID, sub.ProfessionalID, sub.ServiceID, sub.ServiceName,
		sub.PriceCents, sub.DurationMins, sub.Date, sub.StartTime, appointments.StatusScheduled,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("%w: %v", ErrAppointmentCreate, err)
	}

	evt := events.AppointmentScheduledV1{
		EventID:          uuid.New().String(),
		AppointmentID:    appointmentID,
		CustomerID:       customerID,
		CustomerName:     sub.Name,
		CustomerPhone:    customers.NormalizePhone(sub.Phone),
		CustomerEmail:    sub.Email,
		ProfessionalID:   sub.ProfessionalID,
		ProfessionalName: sub.ProfessionalName,
		ServiceID:        sub.ServiceID,
		ServiceName:      sub.ServiceName,
		PriceCents:       sub.PriceCents,
		DurationMins:     sub.DurationMins,
		Date:             sub.Date,
		StartTime:        sub.StartTime,
		ScheduledAt:      time.Now().UTC(),
	}
	if _, err := events.InsertTx(ctx, tx, events.TypeAppointmentScheduled, evt); err != nil {
		return nil, fmt.Errorf("booking: stage event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("booking: commit: %w", err)
	}

	s.logger.Info("booking confirmed",
		"appointment_id", appointmentID,
		"customer_id", customerID,
		"service", sub.ServiceName,
		"date", sub.Date,
		"time", sub.StartTime,
	)
	return &Confirmation{AppointmentID: appointmentID, CustomerID: customerID}, nil
}

// resolveCustomer looks the customer up by phone inside the transaction and
// creates one when absent. Lookup and create failures are reported as
// distinct errors so the visitor knows no appointment was attempted.
func (s *PgSubmitter) resolveCustomer(ctx context.Context, tx pgx.Tx, sub *Submission) (string, error) {
	phone := customers.NormalizePhone(sub.Phone)

	var customerID string
	err := tx.QueryRow(ctx, `SELECT id FROM customers WHERE phone = $1`, phone).Scan(&customerID)
	if err == nil {
		return customerID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: %v", ErrCustomerLookup, err)
	}

	customerID = uuid.New().String()
	insert := `
		INSERT INTO customers (id, name, phone, email)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, insert, customerID, sub.Name, phone, sub.Email); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCustomerCreate, err)
	}
	return customerID, nil
}

// MemorySubmitter mirrors the transactional flow against in-memory
// repositories for tests and local runs without Postgres. The two writes are
// sequential rather than atomic, so a failed appointment insert leaves the
// customer behind, which is fine for its use cases.
type MemorySubmitter struct {
	customers    customers.Repository
	appointments appointments.Repository
	processed    map[string]bool
	emitted      []events.AppointmentScheduledV1
	logger       *logging.Logger
}

// NewMemorySubmitter creates a new in-memory submitter
func NewMemorySubmitter(cust customers.Repository, appts appointments.Repository, logger *logging.Logger) *MemorySubmitter {
	if logger == nil {
		logger = logging.Default()
	}
	return &MemorySubmitter{
		customers:    cust,
		appointments: appts,
		processed:    make(map[string]bool),
		logger:       logger,
	}
}

// Emitted returns the events staged by successful submissions.
func (s *MemorySubmitter) Emitted() []events.AppointmentScheduledV1 {
	return s.emitted
}

func (s *MemorySubmitter) Submit(ctx context.Context, sub *Submission) (*Confirmation, error) {
	if sub.IdempotencyKey != "" && s.processed[sub.IdempotencyKey] {
		return nil, ErrDuplicateSubmission
	}

	cust, err := s.customers.FindByPhone(ctx, sub.Phone)
	if err != nil && !errors.Is(err, customers.ErrCustomerNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrCustomerLookup, err)
	}
	if cust == nil {
		cust, err = s.customers.Create(ctx, &customers.NewCustomerParams{Name: sub.Name, Phone: sub.Phone, Email: sub.Email})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCustomerCreate, err)
		}
	}

	appt := appointments.Appointment{
		CustomerID:     cust.ID,
		ProfessionalID: sub.ProfessionalID,
		ServiceID:      sub.ServiceID,
		ServiceName:    sub.ServiceName,
		PriceCents:     sub.PriceCents,
		DurationMins:   sub.DurationMins,
		Date:           sub.Date,
		StartTime:      sub.StartTime,
	}
	if err := s.appointments.Create(ctx, &appt); err != nil {
		if errors.Is(err, appointments.ErrSlotTaken) {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("%w: %v", ErrAppointmentCreate, err)
	}

	if sub.IdempotencyKey != "" {
		s.processed[sub.IdempotencyKey] = true
	}
	s.emitted = append(s.emitted, events.AppointmentScheduledV1{
		EventID:          uuid.New().String(),
		AppointmentID:    appt.ID,
		CustomerID:       cust.ID,
		CustomerName:     sub.Name,
		CustomerPhone:    customers.NormalizePhone(sub.Phone),
		ProfessionalID:   sub.ProfessionalID,
		ProfessionalName: sub.ProfessionalName,
		ServiceID:        sub.ServiceID,
		ServiceName:      sub.ServiceName,
		PriceCents:       sub.PriceCents,
		DurationMins:     sub.DurationMins,
		Date:             sub.Date,
		StartTime:        sub.StartTime,
		ScheduledAt:      time.Now().UTC(),
	})
	return &Confirmation{AppointmentID: appt.ID, CustomerID: cust.ID}, nil
}

var (
	_ Submitter = (*PgSubmitter)(nil)
	_ Submitter = (*MemorySubmitter)(nil)
)
