package appointments

import (
	"fmt"
	"time"
)

// Appointment statuses. New bookings always start as scheduled.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Appointment is a confirmed booking slot. Date and StartTime are stored as
// the shop-local wall-clock values the customer picked ("2026-09-05",
// "09:30") so they survive timezone changes on the server.
type Appointment struct {
	ID             string    `json:"id"`
	CustomerID     string    `json:"customer_id"`
	ProfessionalID string    `json:"professional_id"`
	ServiceID      string    `json:"service_id"`
	ServiceName    string    `json:"service_name"`
	PriceCents     int64     `json:"price_cents"`
	DurationMins   int       `json:"duration_mins"`
	Date           string    `json:"date"`
	StartTime      string    `json:"start_time"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// EndTime returns the wall-clock end of the appointment.
func (a *Appointment) EndTime() string {
	start, err := parseClock(a.StartTime)
	if err != nil {
		return a.StartTime
	}
	return formatClock(start + a.DurationMins)
}

// ValidStatus reports whether s is a status this system recognizes.
func ValidStatus(s string) bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// parseClock converts "HH:MM" to minutes after midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("appointments: bad clock %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// formatClock converts minutes after midnight to "HH:MM".
func formatClock(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// parseDate validates a "YYYY-MM-DD" date and returns it.
func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("appointments: bad date %q: %w", s, err)
	}
	return d, nil
}
