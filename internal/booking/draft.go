package booking

import (
	"strings"
	"time"

	"github.com/davidbarber/barbershop-platform/internal/catalog"
)

// Wizard steps. Service selection auto-advances; schedule requires an
// explicit continue; confirm is the last step before submission.
const (
	StepService  = 1
	StepSchedule = 2
	StepConfirm  = 3

	TotalSteps = 3
)

// Session states.
const (
	StateCollecting   = "collecting"
	StateCatalogError = "catalog_error"
	StateSubmitting   = "submitting"
	StateSubmitted    = "submitted"
)

// Draft is the in-progress set of booking selections. It lives inside one
// wizard session and is discarded on close or successful submission.
type Draft struct {
	ServiceID      string `json:"service_id,omitempty"`
	ProfessionalID string `json:"professional_id,omitempty"`
	Date           string `json:"date,omitempty"`
	TimeSlot       string `json:"time_slot,omitempty"`
	Name           string `json:"name,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
}

// SetDate records the chosen date. Changing the date clears a previously
// chosen time: the pair is only meaningful together.
func (d *Draft) SetDate(date string) {
	if d.Date != date {
		d.TimeSlot = ""
	}
	d.Date = date
}

// SetTime records the chosen slot. A date must already be set.
func (d *Draft) SetTime(slot string) error {
	if d.Date == "" {
		return ErrDateRequired
	}
	d.TimeSlot = slot
	return nil
}

// ScheduleComplete reports whether step 2's fields are all present.
func (d *Draft) ScheduleComplete() bool {
	return d.ProfessionalID != "" && d.Date != "" && d.TimeSlot != ""
}

// ContactComplete reports whether the required confirm-step fields are filled.
func (d *Draft) ContactComplete() bool {
	return strings.TrimSpace(d.Name) != "" && strings.TrimSpace(d.Phone) != ""
}

// Session is one visitor's wizard state, persisted between HTTP calls.
type Session struct {
	VisitorID      string           `json:"visitor_id"`
	State          string           `json:"state"`
	Step           int              `json:"step"`
	Draft          Draft            `json:"draft"`
	Catalog        *catalog.Catalog `json:"catalog,omitempty"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
	AppointmentID  string           `json:"appointment_id,omitempty"`
	SubmittedAt    time.Time        `json:"submitted_at,omitzero"`
	LastError      string           `json:"last_error,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ServiceByID resolves a service from the session's catalog snapshot.
func (s *Session) ServiceByID(id string) *catalog.Service {
	if s.Catalog == nil {
		return nil
	}
	for i := range s.Catalog.Services {
		if s.Catalog.Services[i].ID == id {
			return &s.Catalog.Services[i]
		}
	}
	return nil
}

// ProfessionalByID resolves a professional from the session's catalog snapshot.
func (s *Session) ProfessionalByID(id string) *catalog.Professional {
	if s.Catalog == nil {
		return nil
	}
	for i := range s.Catalog.Professionals {
		if s.Catalog.Professionals[i].ID == id {
			return &s.Catalog.Professionals[i]
		}
	}
	return nil
}

// back moves one step toward the start, keeping every entered value so the
// visitor can adjust and re-advance. Below step 2 it is a no-op.
func (s *Session) back() bool {
	if s.Step <= StepService {
		return false
	}
	s.Step--
	return true
}
