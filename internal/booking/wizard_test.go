package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidbarber/barbershop-platform/internal/appointments"
	"github.com/davidbarber/barbershop-platform/internal/catalog"
	"github.com/davidbarber/barbershop-platform/internal/customers"
	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

type wizardFixture struct {
	manager   *Manager
	store     *MemoryStore
	bus       *Bus
	submitter *MemorySubmitter
	avail     *appointments.AvailabilityService
	custRepo  *customers.InMemoryRepository
	apptRepo  *appointments.InMemoryRepository
	corte     *catalog.Service
	combo     *catalog.Service
	carlos    *catalog.Professional
	ana       *catalog.Professional
	loader    *flakyLoader
}

// flakyLoader wraps the catalog service so tests can force load failures.
type flakyLoader struct {
	inner catalog.Loader
	fail  bool
}

func (l *flakyLoader) Load(ctx context.Context) (*catalog.Catalog, error) {
	if l.fail {
		return nil, errors.New("connection refused")
	}
	return l.inner.Load(ctx)
}

func newWizardFixture(t *testing.T, professionals int) *wizardFixture {
	t.Helper()
	ctx := context.Background()
	logger := logging.New("error")

	cat := catalog.NewInMemoryRepository()
	corte, err := cat.CreateService(ctx, &catalog.CreateServiceRequest{Name: "Corte Clássico", PriceCents: 4500, DurationMins: 30})
	require.NoError(t, err)
	combo, err := cat.CreateService(ctx, &catalog.CreateServiceRequest{Name: "Corte + Barba", PriceCents: 8500, DurationMins: 50})
	require.NoError(t, err)

	f := &wizardFixture{corte: corte, combo: combo}
	f.carlos, err = cat.CreateProfessional(ctx, &catalog.CreateProfessionalRequest{Name: "Carlos Silva", Role: "barber"})
	require.NoError(t, err)
	if professionals > 1 {
		f.ana, err = cat.CreateProfessional(ctx, &catalog.CreateProfessionalRequest{Name: "Ana Costa", Role: "barber"})
		require.NoError(t, err)
	}

	f.loader = &flakyLoader{inner: catalog.NewService(cat, nil, logger)}
	f.store = NewMemoryStore()
	f.bus = NewBus(16)
	f.custRepo = customers.NewInMemoryRepository()
	f.apptRepo = appointments.NewInMemoryRepository()
	f.submitter = NewMemorySubmitter(f.custRepo, f.apptRepo, logger)
	f.avail = appointments.NewAvailabilityService(f.apptRepo, cat, nil, 30, 30, logger).
		WithClock(func() time.Time { return time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC) })
	f.manager = NewManager(f.store, f.loader, f.bus, f.submitter, nil, logger).
		WithAvailability(f.avail)
	return f
}

func (f *wizardFixture) open(t *testing.T, visitorID, serviceID string) *Session {
	t.Helper()
	require.NoError(t, f.manager.Open(context.Background(), OpenRequest{VisitorID: visitorID, ServiceID: serviceID}))
	sess, err := f.manager.Get(context.Background(), visitorID)
	require.NoError(t, err)
	return sess
}

func TestOpenStartsAtServiceStep(t *testing.T) {
	f := newWizardFixture(t, 2)
	sess := f.open(t, "v1", "")

	assert.Equal(t, StateCollecting, sess.State)
	assert.Equal(t, StepService, sess.Step)
	assert.Len(t, sess.Catalog.Services, 2)
	assert.Empty(t, sess.Draft.ServiceID)
}

// Selecting a service advances straight to the schedule step with no
// explicit continue.
func TestSelectServiceAutoAdvances(t *testing.T) {
	f := newWizardFixture(t, 2)
	f.open(t, "v1", "")
	ctx := context.Background()

	sess, err := f.manager.SelectService(ctx, "v1", f.corte.ID)
	require.NoError(t, err)

	assert.Equal(t, StepSchedule, sess.Step)
	assert.Equal(t, f.corte.ID, sess.Draft.ServiceID)
	assert.Equal(t, int64(4500), sess.ServiceByID(sess.Draft.ServiceID).PriceCents)
}

func TestSelectServiceUnknownRejected(t *testing.T) {
	f := newWizardFixture(t, 2)
	f.open(t, "v1", "")

	_, err := f.manager.SelectService(context.Background(), "v1", "not-a-service")
	assert.ErrorIs(t, err, ErrUnknownService)
}

// Professional, date and time land on the confirmation step showing what
// the visitor picked.
func TestScheduleThenContinueReachesConfirmation(t *testing.T) {
	f := newWizardFixture(t, 2)
	f.open(t, "v1", "")
	ctx := context.Background()

	_, err := f.manager.SelectService(ctx, "v1", f.corte.ID)
	require.NoError(t, err)
	_, err = f.manager.SelectProfessional(ctx, "v1", f.carlos.ID)
	require.NoError(t, err)
	_, err = f.manager.SetDate(ctx, "v1", "2026-09-10")
	require.NoError(t, err)
	_, err = f.manager.SetTime(ctx, "v1", "09:00")
	require.NoError(t, err)

	sess, err := f.manager.Continue(ctx, "v1")
	require.NoError(t, err)

	assert.Equal(t, StepConfirm, sess.Step)
	assert.NotEmpty(t, sess.IdempotencyKey)
	assert.Equal(t, "Corte Clássico", sess.ServiceByID(sess.Draft.ServiceID).Name)
	assert.Equal(t, "Carlos Silva", sess.ProfessionalByID(sess.Draft.ProfessionalID).Name)
	assert.Equal(t, "2026-09-10", sess.Draft.Date)
	assert.Equal(t, "09:00", sess.Draft.TimeSlot)
}

func TestContinueRequiresCompleteSchedule(t *testing.T) {
	f := newWizardFixture(t, 2)
	f.open(t, "v1", "")
	ctx := context.Background()

	_, err := f.manager.SelectService(ctx, "v1", f.corte.ID)
	require.NoError(t, err)

	_, err = f.manager.Continue(ctx, "v1")
	assert.ErrorIs(t, err, ErrScheduleIncomplete)
}

func TestTimeBeforeDateDisallowed(t *testing.T) {
	f := newWizardFixture(t, 2)
	f.open(t, "v1", "")
	ctx := context.Background()

	_, err := f.manager.SelectService(ctx, "v1", f.corte.ID)
	require.NoError(t, err)

	_, err = f.manager.SetTime(ctx, "v1", "09:00")
	assert.ErrorIs(t, err, ErrDateRequired)
}

func TestChangingDateClearsTime(t *testing.T) {
	f := newWizardFixture(t, 2)
	f.open(t, "v1", "")
	ctx := context.Background()

	_, err := f.manager.SelectService(ctx, "v1", f.corte.ID)
	require.NoError(t, err)
	_, err = f.manager.SetDate(ctx, "v1", "2026-09-10")
	require.NoError(t, err)
	_, err = f.manager.SetTime(ctx, "v1", "09:00")
	require.NoError(t, err)

	sess, err := f.manager.SetDate(ctx, "v1", "2026-09-11")
	require.NoError(t, err)
	assert.Empty(t, sess.Draft.TimeSlot)

	// Re-setting the same date keeps the chosen time.
	_, err = f.manager.SetTime(ctx, "v1", "10:00")
	require.NoError(t, err)
	sess, err = f.manager.SetDate(ctx, "v1", "2026-09-11")
	require.NoError(t, err)
	assert.Equal(t, "10:00", sess.Draft.TimeSlot)
}

// Going back keeps the entered values so the visitor can adjust and
// re-advance; backing up below step 1 is a no-op.
func TestBackRetainsValues(t *testing.T) {
	f := newWizardFixture(t, 2)
	f.open(t, "v1", "")
	ctx := context.Background()

	_, err := f.manager.SelectService(ctx, "v1", f.corte.ID)
	require.NoError(t, err)

	sess, err := f.manager.Back(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, StepService, sess.Step)
	assert.Equal(t, f.corte.ID, sess.Draft.ServiceID)

	sess, err = f.manager.Back(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, StepService, sess.Step)
}

func TestSubmitCreatesCustomerAndAppointment(t *testing.T) {
	f := newWizardFixture(t, 2)
	f.open(t, "v1", "")
	ctx := context.Background()

	_, err := f.manager.SelectService(ctx, "v1", f.corte.ID)
	require.NoError(t, err)
	_, err = f.manager.SelectProfessional(ctx, "v1", f.carlos.ID)
	require.NoError(t, err)
	_, err = f.manager.SetDate(ctx, "v1", "2026-09-10")
	require.NoError(t, err)
	_, err = f.manager.SetTime(ctx, "v1", "09:00")
	require.NoError(t, err)
	_, err = f.manager.Continue(ctx, "v1")
	require.NoError(t, err)
	_, err = f.manager.SetContact(ctx, "v1", "Maria Souza", "11999990000", "")
	require.NoError(t, err)

	sess, conf, err := f.manager.Submit(ctx, "v1")
	require.NoError(t, err)
	require.NotNil(t, conf)

	// Customer was created and the appointment references it.
	cust, err := f.custRepo.FindByPhone(ctx, "11999990000")
	require.NoError(t, err)
	assert.Equal(t, "Maria Souza", cust.Name)
	assert.Equal(t, cust.ID, conf.CustomerID)

	appt, err := f.apptRepo.GetByID(ctx, conf.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, appointments.StatusScheduled, appt.Status)
	assert.Equal(t, "Corte Clássico", appt.ServiceName)
	assert.Equal(t, int64(4500), appt.PriceCents)
	assert.Equal(t, "2026-09-10", appt.Date)
	assert.Equal(t, "09:00", appt.StartTime)

	// Draft resets to a fresh step 1.
	assert.Equal(t, StateSubmitted, sess.State)
	assert.False(t, sess.SubmittedAt.IsZero())
	assert.Equal(t, StepService, sess.Step)
	assert.Empty(t, sess.Draft.ServiceID)
	assert.Empty(t, sess.Draft.Name)
	assert.Empty(t, sess.IdempotencyKey)

	// The scheduled event was staged.
	require.Len(t, f.submitter.Emitted(), 1)
	assert.Equal(t, conf.AppointmentID, f.submitter.Emitted()[0].AppointmentID)
}

func TestSubmitReusesExistingCustomer(t *testing.T) {
	f := newWizardFixture(t, 2)
	ctx := context.Background()
	existing, err := f.custRepo.Create(ctx, &customers.NewCustomerParams{Name: "Maria Souza", Phone: "11999990000"})
	require.NoError(t, err)

	f.open(t, "v1", "")
	_, err = f.manager.SelectService(ctx, "v1", f.corte.ID)
	require.NoError(t, err)
	_, err = f.manager.SelectProfessional(ctx, "v1", f.carlos.ID)
	require.NoError(t, err)
	_, err = f.manager.SetDate(ctx, "v1", "2026-09-10")
	require.NoError(t, err)
	_, err = f.manager.SetTime(ctx, "v1", "09:00")
	require.NoError(t, err)
	_, err = f.manager.Continue(ctx, "v1")
	require.NoError(t, err)
	_, err = f.manager.SetContact(ctx, "v1", "Maria Souza", "(11) 99999-0000", "")
	require.NoError(t, err)

	_, conf, err := f.manager.Submit(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, conf.CustomerID)
}

func TestSubmitRequiresContact(t *testing.T) {
	f := newWizardFixture(t, 2)
	f.open(t, "v1", "")
	ctx := context.Background()

	_, err := f.manager.SelectService(ctx, "v1", f.corte.ID)
	require.NoError(t, err)
	_, err = f.manager.SelectProfessional(ctx, "v1", f.carlos.ID)
	require.NoError(t, err)
	_, err = f.manager.SetDate(ctx, "v1", "2026-09-10")
	require.NoError(t, err)
	_, err = f.manager.SetTime(ctx, "v1", "09:00")
	require.NoError(t, err)
	_, err = f.manager.Continue(ctx, "v1")
	require.NoError(t, err)

	// Phone left empty: submit is rejected, not attempted.
	_, err = f.manager.SetContact(ctx, "v1", "Maria Souza", "", "")
	require.NoError(t, err)
	_, _, err = f.manager.Submit(ctx, "v1")
	assert.ErrorIs(t, err, ErrContactIncomplete)
}

type failingApptRepo struct {
	appointments.Repository
}

func (failingApptRepo) Create(ctx context.Context, appt *appointments.Appointment) error {
	return errors.New("insert failed")
}

// An appointment-create failure surfaces its own error and keeps the draft
// so the visitor can retry without re-entering anything.
func TestSubmitAppointmentFailureKeepsDraft(t *testing.T) {
	f := newWizardFixture(t, 2)
	f.submitter = NewMemorySubmitter(f.custRepo, failingApptRepo{f.apptRepo}, logging.New("error"))
	f.manager = NewManager(f.store, f.loader, f.bus, f.submitter, nil, logging.New("error")).
		WithAvailability(f.avail)

	f.open(t, "v1", "")
	ctx := context.Background()
	_, err := f.manager.SelectService(ctx, "v1", f.corte.ID)
	require.NoError(t, err)
	_, err = f.manager.SelectProfessional(ctx, "v1", f.carlos.ID)
	require.NoError(t, err)
	_, err = f.manager.SetDate(ctx, "v1", "2026-09-10")
	require.NoError(t, err)
	_, err = f.manager.SetTime(ctx, "v1", "09:00")
	require.NoError(t, err)
	_, err = f.manager.Continue(ctx, "v1")
	require.NoError(t, err)
	_, err = f.manager.SetContact(ctx, "v1", "Maria Souza", "11999990000", "")
	require.NoError(t, err)

	sess, _, err := f.manager.Submit(ctx, "v1")
	require.ErrorIs(t, err, ErrAppointmentCreate)

	// Customer exists, draft intact, wizard editable again.
	_, lookupErr := f.custRepo.FindByPhone(ctx, "11999990000")
	assert.NoError(t, lookupErr)
	assert.Equal(t, StateCollecting, sess.State)
	assert.Equal(t, StepConfirm, sess.Step)
	assert.Equal(t, "Maria Souza", sess.Draft.Name)
	assert.Equal(t, UserMessage(ErrAppointmentCreate), sess.LastError)
}

// A time outside business hours never reaches the store, even though the
// client was free to send any string.
func TestSubmitRejectsClosedDaySlot(t *testing.T) {
	f := newWizardFixture(t, 2)
	f.open(t, "v1", "")
	ctx := context.Background()

	_, err := f.manager.SelectService(ctx, "v1", f.corte.ID)
	require.NoError(t, err)
	_, err = f.manager.SelectProfessional(ctx, "v1", f.carlos.ID)
	require.NoError(t, err)
	// 2026-09-13 is a Sunday; the shop is closed.
	_, err = f.manager.SetDate(ctx, "v1", "2026-09-13")
	require.NoError(t, err)
	_, err = f.manager.SetTime(ctx, "v1", "03:00")
	require.NoError(t, err)
	_, err = f.manager.Continue(ctx, "v1")
	require.NoError(t, err)
	_, err = f.manager.SetContact(ctx, "v1", "Maria Souza", "11999990000", "")
	require.NoError(t, err)

	sess, _, err := f.manager.Submit(ctx, "v1")
	require.ErrorIs(t, err, ErrSlotUnavailable)

	appts, listErr := f.apptRepo.ListOnDate(ctx, "2026-09-13")
	require.NoError(t, listErr)
	assert.Empty(t, appts)

	// Draft intact for correction.
	assert.Equal(t, StateCollecting, sess.State)
	assert.Equal(t, StepConfirm, sess.Step)
	assert.Equal(t, UserMessage(ErrSlotUnavailable), sess.LastError)
}

// A slot hidden by an overlapping booking is rejected even though its exact
// start time is not taken.
func TestSubmitRejectsOverlappingSlot(t *testing.T) {
	f := newWizardFixture(t, 2)
	ctx := context.Background()

	// A 50-minute combo at 09:00 runs to 09:50, covering the 09:30 slot.
	require.NoError(t, f.apptRepo.Create(ctx, &appointments.Appointment{
		CustomerID:     "cust-1",
		ProfessionalID: f.carlos.ID,
		ServiceID:      f.combo.ID,
		ServiceName:    f.combo.Name,
		DurationMins:   50,
		Date:           "2026-09-10",
		StartTime:      "09:00",
	}))

	f.open(t, "v1", "")
	_, err := f.manager.SelectService(ctx, "v1", f.corte.ID)
	require.NoError(t, err)
	_, err = f.manager.SelectProfessional(ctx, "v1", f.carlos.ID)
	require.NoError(t, err)
	_, err = f.manager.SetDate(ctx, "v1", "2026-09-10")
	require.NoError(t, err)
	_, err = f.manager.SetTime(ctx, "v1", "09:30")
	require.NoError(t, err)
	_, err = f.manager.Continue(ctx, "v1")
	require.NoError(t, err)
	_, err = f.manager.SetContact(ctx, "v1", "Maria Souza", "11999990000", "")
	require.NoError(t, err)

	_, _, err = f.manager.Submit(ctx, "v1")
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

// The confirmation notice carries its timestamp and the next interaction
// takes it down.
func TestSubmittedAtClearedOnNextInteraction(t *testing.T) {
	f := newWizardFixture(t, 2)
	f.open(t, "v1", "")
	ctx := context.Background()

	_, err := f.manager.SelectService(ctx, "v1", f.corte.ID)
	require.NoError(t, err)
	_, err = f.manager.SelectProfessional(ctx, "v1", f.carlos.ID)
	require.NoError(t, err)
	_, err = f.manager.SetDate(ctx, "v1", "2026-09-10")
	require.NoError(t, err)
	_, err = f.manager.SetTime(ctx, "v1", "09:00")
	require.NoError(t, err)
	_, err = f.manager.Continue(ctx, "v1")
	require.NoError(t, err)
	_, err = f.manager.SetContact(ctx, "v1", "Maria Souza", "11999990000", "")
	require.NoError(t, err)

	sess, _, err := f.manager.Submit(ctx, "v1")
	require.NoError(t, err)
	assert.False(t, sess.SubmittedAt.IsZero())
	assert.NotEmpty(t, sess.AppointmentID)

	sess, err = f.manager.SelectService(ctx, "v1", f.combo.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCollecting, sess.State)
	assert.True(t, sess.SubmittedAt.IsZero())
	assert.Empty(t, sess.AppointmentID)
}

// Opening via a service card lands directly on the schedule step with the
// service pre-filled.
func TestOpenWithPreselectedService(t *testing.T) {
	f := newWizardFixture(t, 2)
	sess := f.open(t, "v1", f.combo.ID)

	assert.Equal(t, StepSchedule, sess.Step)
	assert.Equal(t, f.combo.ID, sess.Draft.ServiceID)
	assert.Equal(t, "Corte + Barba", sess.ServiceByID(sess.Draft.ServiceID).Name)
}

func TestOpenWithUnknownPreselectionFallsBack(t *testing.T) {
	f := newWizardFixture(t, 2)
	sess := f.open(t, "v1", "not-a-service")

	assert.Equal(t, StepService, sess.Step)
	assert.Empty(t, sess.Draft.ServiceID)
}

func TestSingleProfessionalAutoSelected(t *testing.T) {
	f := newWizardFixture(t, 1)
	sess := f.open(t, "v1", "")

	assert.Equal(t, f.carlos.ID, sess.Draft.ProfessionalID)
}

func TestCatalogFailureBlocksProgress(t *testing.T) {
	f := newWizardFixture(t, 2)
	f.loader.fail = true
	sess := f.open(t, "v1", "")

	assert.Equal(t, StateCatalogError, sess.State)
	assert.NotEmpty(t, sess.LastError)

	_, err := f.manager.SelectService(context.Background(), "v1", f.corte.ID)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestRetryCatalogRecovers(t *testing.T) {
	f := newWizardFixture(t, 2)
	f.loader.fail = true
	f.open(t, "v1", "")
	ctx := context.Background()

	_, err := f.manager.RetryCatalog(ctx, "v1")
	assert.ErrorIs(t, err, ErrCatalogUnavailable)

	f.loader.fail = false
	sess, err := f.manager.RetryCatalog(ctx, "v1")
	require.NoError(t, err)

	assert.Equal(t, StateCollecting, sess.State)
	assert.Empty(t, sess.LastError)
	assert.Len(t, sess.Catalog.Services, 2)
}

func TestDuplicateIdempotencyKeyRejected(t *testing.T) {
	f := newWizardFixture(t, 2)
	f.open(t, "v1", "")
	ctx := context.Background()

	_, err := f.manager.SelectService(ctx, "v1", f.corte.ID)
	require.NoError(t, err)
	_, err = f.manager.SelectProfessional(ctx, "v1", f.carlos.ID)
	require.NoError(t, err)
	_, err = f.manager.SetDate(ctx, "v1", "2026-09-10")
	require.NoError(t, err)
	_, err = f.manager.SetTime(ctx, "v1", "09:00")
	require.NoError(t, err)
	sess, err := f.manager.Continue(ctx, "v1")
	require.NoError(t, err)
	key := sess.IdempotencyKey
	_, err = f.manager.SetContact(ctx, "v1", "Maria Souza", "11999990000", "")
	require.NoError(t, err)

	_, _, err = f.manager.Submit(ctx, "v1")
	require.NoError(t, err)

	// Replaying the consumed key directly against the submitter is rejected.
	_, err2 := f.submitter.Submit(ctx, &Submission{
		IdempotencyKey: key,
		ServiceID:      f.corte.ID, ServiceName: f.corte.Name, PriceCents: 4500, DurationMins: 30,
		ProfessionalID: f.carlos.ID, Date: "2026-09-10", StartTime: "09:00",
		Name: "Maria Souza", Phone: "11999990000",
	})
	assert.ErrorIs(t, err2, ErrDuplicateSubmission)
}

func TestCloseDiscardsSession(t *testing.T) {
	f := newWizardFixture(t, 2)
	f.open(t, "v1", "")
	ctx := context.Background()

	require.NoError(t, f.manager.Close(ctx, "v1"))
	_, err := f.manager.Get(ctx, "v1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRunConsumesBusSignals(t *testing.T) {
	f := newWizardFixture(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.manager.Run(ctx)
	}()

	require.True(t, f.bus.RequestOpen(OpenRequest{VisitorID: "v1"}))

	// The manager consumes asynchronously; wait for the session to appear.
	require.Eventually(t, func() bool {
		_, err := f.manager.Get(context.Background(), "v1")
		return err == nil
	}, time.Second, 5*time.Millisecond)

	sess, err := f.manager.Get(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, StateCollecting, sess.State)

	require.True(t, f.bus.RequestClose(CloseRequest{VisitorID: "v1"}))
	require.Eventually(t, func() bool {
		_, err := f.manager.Get(context.Background(), "v1")
		return errors.Is(err, ErrSessionNotFound)
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
