package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for appointment storage
type Repository interface {
	ListForProfessionalOnDate(ctx context.Context, professionalID, date string) ([]Appointment, error)
	ListOnDate(ctx context.Context, date string) ([]Appointment, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
	Create(ctx context.Context, appt *Appointment) error
	UpdateStatus(ctx context.Context, id, status string) error
}

// InMemoryRepository keeps appointments in process memory for tests and local
// development.
type InMemoryRepository struct {
	mu           sync.RWMutex
	appointments map[string]*Appointment
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{appointments: make(map[string]*Appointment)}
}

// ListForProfessionalOnDate returns non-cancelled appointments for one
// professional on one date, ordered by start time.
func (r *InMemoryRepository) ListForProfessionalOnDate(ctx context.Context, professionalID, date string) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Appointment, 0)
	for _, a := range r.appointments {
		if a.ProfessionalID == professionalID && a.Date == date && a.Status != StatusCancelled {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

// ListOnDate returns all appointments on one date, ordered by start time.
func (r *InMemoryRepository) ListOnDate(ctx context.Context, date string) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Appointment, 0)
	for _, a := range r.appointments {
		if a.Date == date {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

// GetByID retrieves an appointment by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	copy := *a
	return &copy, nil
}

// Create stores a new appointment, rejecting overlaps with existing bookings
// for the same professional.
func (r *InMemoryRepository) Create(ctx context.Context, appt *Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	if appt.Status == "" {
		appt.Status = StatusScheduled
	}
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = time.Now().UTC()
	}

	start, err := parseClock(appt.StartTime)
	if err != nil {
		return ErrInvalidTime
	}
	end := start + appt.DurationMins

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.appointments {
		if existing.ProfessionalID != appt.ProfessionalID || existing.Date != appt.Date || existing.Status == StatusCancelled {
			continue
		}
		es, err := parseClock(existing.StartTime)
		if err != nil {
			continue
		}
		if start < es+existing.DurationMins && es < end {
			return ErrSlotTaken
		}
	}

	copy := *appt
	r.appointments[appt.ID] = &copy
	return nil
}

// UpdateStatus transitions an appointment to a new status.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	a.Status = status
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
