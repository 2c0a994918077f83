package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidbarber/barbershop-platform/internal/catalog"
	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

type fixture struct {
	svc       *AvailabilityService
	repo      *InMemoryRepository
	corte     *catalog.Service // 30 min
	combo     *catalog.Service // 50 min
	carlos    *catalog.Professional
	ana       *catalog.Professional
	catalogDB *catalog.InMemoryRepository
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	ctx := context.Background()
	cat := catalog.NewInMemoryRepository()

	corte, err := cat.CreateService(ctx, &catalog.CreateServiceRequest{Name: "Corte Clássico", PriceCents: 4500, DurationMins: 30})
	require.NoError(t, err)
	combo, err := cat.CreateService(ctx, &catalog.CreateServiceRequest{Name: "Corte + Barba", PriceCents: 8500, DurationMins: 50})
	require.NoError(t, err)
	carlos, err := cat.CreateProfessional(ctx, &catalog.CreateProfessionalRequest{Name: "Carlos Silva", Role: "barber"})
	require.NoError(t, err)
	ana, err := cat.CreateProfessional(ctx, &catalog.CreateProfessionalRequest{Name: "Ana Costa", Role: "barber"})
	require.NoError(t, err)

	repo := NewInMemoryRepository()
	svc := NewAvailabilityService(repo, cat, nil, 30, 30, logging.New("error"))
	svc.now = func() time.Time { return now }

	return &fixture{svc: svc, repo: repo, corte: corte, combo: combo, carlos: carlos, ana: ana, catalogDB: cat}
}

// 2026-09-07 is a Monday.
var monday = time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)

func TestSlotsForWeekdayGrid(t *testing.T) {
	f := newFixture(t, monday)

	free, err := f.svc.FreeSlotsFor(context.Background(), f.carlos.ID, f.corte.ID, "2026-09-08")
	require.NoError(t, err)

	want := []string{
		"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
		"14:00", "14:30", "15:00", "15:30", "16:00", "16:30", "17:00",
	}
	assert.Equal(t, want, free)
}

func TestSlotsForSaturdayOpensEarly(t *testing.T) {
	f := newFixture(t, monday)

	free, err := f.svc.FreeSlotsFor(context.Background(), f.carlos.ID, f.corte.ID, "2026-09-12")
	require.NoError(t, err)

	assert.Equal(t, "08:00", free[0])
	assert.Contains(t, free, "08:30")
}

func TestSlotsForSundayClosed(t *testing.T) {
	f := newFixture(t, monday)

	free, err := f.svc.FreeSlotsFor(context.Background(), f.carlos.ID, f.corte.ID, "2026-09-13")
	require.NoError(t, err)
	assert.Empty(t, free)
}

func TestSlotsForExcludesBookedOverlaps(t *testing.T) {
	f := newFixture(t, monday)
	ctx := context.Background()

	// A 50-minute booking at 09:30 occupies 09:30-10:20, so 09:30 and 10:00
	// both disappear for a 30-minute cut; 09:00 stays.
	require.NoError(t, f.repo.Create(ctx, &Appointment{
		CustomerID:     "cust-1",
		ProfessionalID: f.carlos.ID,
		ServiceID:      f.combo.ID,
		ServiceName:    f.combo.Name,
		DurationMins:   50,
		Date:           "2026-09-08",
		StartTime:      "09:30",
	}))

	free, err := f.svc.FreeSlotsFor(ctx, f.carlos.ID, f.corte.ID, "2026-09-08")
	require.NoError(t, err)

	assert.Contains(t, free, "09:00")
	assert.NotContains(t, free, "09:30")
	assert.NotContains(t, free, "10:00")
	assert.Contains(t, free, "10:30")
}

func TestSlotsForLongServiceBlockedByLaterBooking(t *testing.T) {
	f := newFixture(t, monday)
	ctx := context.Background()

	// A 30-minute booking at 10:00 blocks a 50-minute combo starting 09:30
	// (would run to 10:20) but not one starting 09:00.
	require.NoError(t, f.repo.Create(ctx, &Appointment{
		CustomerID:     "cust-1",
		ProfessionalID: f.carlos.ID,
		ServiceID:      f.corte.ID,
		ServiceName:    f.corte.Name,
		DurationMins:   30,
		Date:           "2026-09-08",
		StartTime:      "10:00",
	}))

	free, err := f.svc.FreeSlotsFor(ctx, f.carlos.ID, f.combo.ID, "2026-09-08")
	require.NoError(t, err)

	assert.Contains(t, free, "09:00")
	assert.NotContains(t, free, "09:30")
	assert.NotContains(t, free, "10:00")
}

func TestSlotsForOtherProfessionalUnaffected(t *testing.T) {
	f := newFixture(t, monday)
	ctx := context.Background()

	require.NoError(t, f.repo.Create(ctx, &Appointment{
		CustomerID:     "cust-1",
		ProfessionalID: f.carlos.ID,
		ServiceID:      f.corte.ID,
		ServiceName:    f.corte.Name,
		DurationMins:   30,
		Date:           "2026-09-08",
		StartTime:      "09:00",
	}))

	free, err := f.svc.FreeSlotsFor(ctx, f.ana.ID, f.corte.ID, "2026-09-08")
	require.NoError(t, err)
	assert.Contains(t, free, "09:00")
}

func TestSlotsForTodayDropsPastTimes(t *testing.T) {
	// Monday 10:05 shop time: morning slots before 10:05 are gone.
	f := newFixture(t, time.Date(2026, 9, 7, 10, 5, 0, 0, time.UTC))

	free, err := f.svc.FreeSlotsFor(context.Background(), f.carlos.ID, f.corte.ID, "2026-09-07")
	require.NoError(t, err)

	assert.NotContains(t, free, "09:00")
	assert.NotContains(t, free, "10:00")
	assert.Contains(t, free, "10:30")
}

func TestSlotsForRejectsOutOfWindowDates(t *testing.T) {
	f := newFixture(t, monday)
	ctx := context.Background()

	_, err := f.svc.FreeSlotsFor(ctx, f.carlos.ID, f.corte.ID, "2026-09-06")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = f.svc.FreeSlotsFor(ctx, f.carlos.ID, f.corte.ID, "2026-12-25")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = f.svc.FreeSlotsFor(ctx, f.carlos.ID, f.corte.ID, "not-a-date")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestSlotsForUsesShopClockAroundMidnight(t *testing.T) {
	// 01:00 UTC on the 8th is still 22:00 on the 7th in São Paulo: the 7th
	// must stay inside the window and its slots are all in the past.
	f := newFixture(t, time.Date(2026, 9, 8, 1, 0, 0, 0, time.UTC))
	f.svc.WithTimezone(time.FixedZone("-03", -3*60*60))
	ctx := context.Background()

	free, err := f.svc.FreeSlotsFor(ctx, f.carlos.ID, f.corte.ID, "2026-09-07")
	require.NoError(t, err)
	assert.Empty(t, free)

	free, err = f.svc.FreeSlotsFor(ctx, f.carlos.ID, f.corte.ID, "2026-09-08")
	require.NoError(t, err)
	assert.Contains(t, free, "09:00")
}

func TestIsBookable(t *testing.T) {
	f := newFixture(t, monday)
	ctx := context.Background()

	require.NoError(t, f.svc.IsBookable(ctx, f.carlos.ID, f.corte.ID, "2026-09-08", "09:00"))

	require.NoError(t, f.repo.Create(ctx, &Appointment{
		CustomerID:     "cust-1",
		ProfessionalID: f.carlos.ID,
		ServiceID:      f.corte.ID,
		ServiceName:    f.corte.Name,
		DurationMins:   30,
		Date:           "2026-09-08",
		StartTime:      "09:00",
	}))

	err := f.svc.IsBookable(ctx, f.carlos.ID, f.corte.ID, "2026-09-08", "09:00")
	assert.ErrorIs(t, err, ErrSlotTaken)

	err = f.svc.IsBookable(ctx, f.carlos.ID, f.corte.ID, "2026-09-08", "12:00")
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestCreateRejectsDoubleBooking(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	appt := Appointment{
		CustomerID:     "cust-1",
		ProfessionalID: "pro-1",
		ServiceID:      "svc-1",
		DurationMins:   30,
		Date:           "2026-09-08",
		StartTime:      "09:00",
	}
	first := appt
	require.NoError(t, repo.Create(ctx, &first))

	second := appt
	second.CustomerID = "cust-2"
	err := repo.Create(ctx, &second)
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestUpdateStatus(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	appt := Appointment{CustomerID: "c", ProfessionalID: "p", ServiceID: "s", DurationMins: 30, Date: "2026-09-08", StartTime: "09:00"}
	require.NoError(t, repo.Create(ctx, &appt))
	assert.Equal(t, StatusScheduled, appt.Status)

	require.NoError(t, repo.UpdateStatus(ctx, appt.ID, StatusCancelled))
	stored, err := repo.GetByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, appt.ID, "postponed"), ErrInvalidStatus)
	assert.True(t, errors.Is(repo.UpdateStatus(ctx, "missing", StatusCompleted), ErrAppointmentNotFound))
}

func TestEndTime(t *testing.T) {
	a := Appointment{StartTime: "09:30", DurationMins: 50}
	assert.Equal(t, "10:20", a.EndTime())
}
