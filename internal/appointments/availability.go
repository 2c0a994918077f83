package appointments

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/davidbarber/barbershop-platform/internal/catalog"
	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

var availabilityTracer = otel.Tracer("barbershop.internal.appointments")

// Block is a contiguous range of bookable start times, in minutes after
// midnight. End is the last allowed start, inclusive.
type Block struct {
	Start int
	End   int
}

// BusinessHours maps weekdays to their bookable blocks. A day with no blocks
// is closed.
type BusinessHours map[time.Weekday][]Block

// DefaultBusinessHours is the shop schedule: weekday mornings 09:00-11:30 and
// afternoons 14:00-17:00, Saturdays open an hour earlier, Sundays closed.
func DefaultBusinessHours() BusinessHours {
	weekday := []Block{{Start: 9 * 60, End: 11*60 + 30}, {Start: 14 * 60, End: 17 * 60}}
	return BusinessHours{
		time.Monday:    weekday,
		time.Tuesday:   weekday,
		time.Wednesday: weekday,
		time.Thursday:  weekday,
		time.Friday:    weekday,
		time.Saturday:  {{Start: 8 * 60, End: 11*60 + 30}, {Start: 14 * 60, End: 17 * 60}},
	}
}

// Slot is one offerable start time on a date.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// AvailabilityService computes free slots from the business-hours grid minus
// existing bookings.
type AvailabilityService struct {
	repo         Repository
	catalog      catalog.Repository
	hours        BusinessHours
	intervalMins int
	windowDays   int
	loc          *time.Location
	now          func() time.Time
	logger       *logging.Logger
}

// NewAvailabilityService wires the slot engine. interval and window fall back
// to 30 minutes and 30 days when zero.
func NewAvailabilityService(repo Repository, cat catalog.Repository, hours BusinessHours, intervalMins, windowDays int, logger *logging.Logger) *AvailabilityService {
	if repo == nil {
		panic("appointments: repository required")
	}
	if cat == nil {
		panic("appointments: catalog repository required")
	}
	if hours == nil {
		hours = DefaultBusinessHours()
	}
	if intervalMins <= 0 {
		intervalMins = 30
	}
	if windowDays <= 0 {
		windowDays = 30
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AvailabilityService{
		repo:         repo,
		catalog:      cat,
		hours:        hours,
		intervalMins: intervalMins,
		windowDays:   windowDays,
		loc:          time.UTC,
		now:          time.Now,
		logger:       logger,
	}
}

// WithTimezone pins the shop timezone used to decide what "today" means for
// the booking window and the past-slot cutoff. Defaults to UTC.
func (s *AvailabilityService) WithTimezone(loc *time.Location) *AvailabilityService {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// WithClock overrides the wall clock, for tests.
func (s *AvailabilityService) WithClock(now func() time.Time) *AvailabilityService {
	if now != nil {
		s.now = now
	}
	return s
}

// SlotsFor returns every grid start time for the date with its availability.
// A slot is unavailable when the professional already has a booking that
// overlaps it for the requested service's duration, or when it is in the past
// for today's date.
func (s *AvailabilityService) SlotsFor(ctx context.Context, professionalID, serviceID, date string) ([]Slot, error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.slots")
	defer span.End()

	day, err := parseDate(date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if err := s.checkWindow(day); err != nil {
		return nil, err
	}

	svc, err := s.catalog.GetService(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("appointments: resolve service: %w", err)
	}
	if _, err := s.catalog.GetProfessional(ctx, professionalID); err != nil {
		return nil, fmt.Errorf("appointments: resolve professional: %w", err)
	}

	booked, err := s.repo.ListForProfessionalOnDate(ctx, professionalID, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: list booked: %w", err)
	}

	slots := s.gridFor(day)
	cutoff := s.todayCutoff(date)
	free := 0
	for i := range slots {
		start, err := parseClock(slots[i].Time)
		if err != nil {
			continue
		}
		slots[i].Available = start >= cutoff && !overlapsAny(start, svc.DurationMins, booked)
		if slots[i].Available {
			free++
		}
	}

	span.SetAttributes(
		attribute.Int("barbershop.slots_total", len(slots)),
		attribute.Int("barbershop.slots_free", free),
	)
	return slots, nil
}

// FreeSlotsFor returns only the available start times, the shape the wizard's
// time picker consumes.
func (s *AvailabilityService) FreeSlotsFor(ctx context.Context, professionalID, serviceID, date string) ([]string, error) {
	slots, err := s.SlotsFor(ctx, professionalID, serviceID, date)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		if slot.Available {
			out = append(out, slot.Time)
		}
	}
	return out, nil
}

// IsBookable reports whether the exact start time is offerable for the
// professional, service and date. The booking wizard calls this as its final
// guard before handing the draft to the submitter.
func (s *AvailabilityService) IsBookable(ctx context.Context, professionalID, serviceID, date, startTime string) error {
	slots, err := s.SlotsFor(ctx, professionalID, serviceID, date)
	if err != nil {
		return err
	}
	for _, slot := range slots {
		if slot.Time == startTime {
			if slot.Available {
				return nil
			}
			return ErrSlotTaken
		}
	}
	return ErrInvalidTime
}

// checkWindow rejects dates in the past or beyond the booking window. "Today"
// is read on the shop clock so the boundary does not drift with the server's
// offset around midnight.
func (s *AvailabilityService) checkWindow(day time.Time) error {
	now := s.now().In(s.loc)
	todayDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(todayDate) {
		return ErrInvalidDate
	}
	if day.After(todayDate.AddDate(0, 0, s.windowDays)) {
		return ErrInvalidDate
	}
	return nil
}

// gridFor expands the day's business-hours blocks into interval-spaced slots.
func (s *AvailabilityService) gridFor(day time.Time) []Slot {
	blocks := s.hours[day.Weekday()]
	out := make([]Slot, 0, 16)
	for _, b := range blocks {
		for m := b.Start; m <= b.End; m += s.intervalMins {
			out = append(out, Slot{Time: formatClock(m)})
		}
	}
	return out
}

// todayCutoff returns the minute-of-day before which slots are gone, or 0 for
// future dates.
func (s *AvailabilityService) todayCutoff(date string) int {
	now := s.now().In(s.loc)
	if date != now.Format("2006-01-02") {
		return 0
	}
	return now.Hour()*60 + now.Minute()
}

// overlapsAny reports whether a candidate [start, start+duration) window hits
// any booked appointment.
func overlapsAny(start, durationMins int, booked []Appointment) bool {
	end := start + durationMins
	for _, a := range booked {
		bs, err := parseClock(a.StartTime)
		if err != nil {
			continue
		}
		if start < bs+a.DurationMins && bs < end {
			return true
		}
	}
	return false
}
