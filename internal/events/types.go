package events

import "time"

// Outbox event type names.
const (
	TypeAppointmentScheduled = "appointment.scheduled.v1"
	TypeAppointmentCancelled = "appointment.cancelled.v1"
)

type AppointmentScheduledV1 struct {
	EventID          string    `json:"event_id"`
	AppointmentID    string    `json:"appointment_id"`
	CustomerID       string    `json:"customer_id"`
	CustomerName     string    `json:"customer_name"`
	CustomerPhone    string    `json:"customer_phone"`
	CustomerEmail    string    `json:"customer_email,omitempty"`
	ProfessionalID   string    `json:"professional_id"`
	ProfessionalName string    `json:"professional_name"`
	ServiceID        string    `json:"service_id"`
	ServiceName      string    `json:"service_name"`
	PriceCents       int64     `json:"price_cents"`
	DurationMins     int       `json:"duration_mins"`
	Date             string    `json:"date"`
	StartTime        string    `json:"start_time"`
	ScheduledAt      time.Time `json:"scheduled_at"`
}

type AppointmentCancelledV1 struct {
	EventID       string    `json:"event_id"`
	AppointmentID string    `json:"appointment_id"`
	CustomerID    string    `json:"customer_id"`
	CancelledAt   time.Time `json:"cancelled_at"`
	Reason        string    `json:"reason,omitempty"`
}
