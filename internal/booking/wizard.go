package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/davidbarber/barbershop-platform/internal/appointments"
	"github.com/davidbarber/barbershop-platform/internal/catalog"
	"github.com/davidbarber/barbershop-platform/internal/observability/metrics"
	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

// SlotChecker vets a start time against business hours and existing bookings.
// It is the last availability check before the submitter writes.
type SlotChecker interface {
	IsBookable(ctx context.Context, professionalID, serviceID, date, startTime string) error
}

// Manager is the single wizard instance behind the signal bus. It owns every
// session transition; HTTP handlers only translate requests into calls here.
type Manager struct {
	store     SessionStore
	catalog   catalog.Loader
	bus       *Bus
	submitter Submitter
	slots     SlotChecker
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// NewManager wires the wizard. metrics may be nil.
func NewManager(store SessionStore, loader catalog.Loader, bus *Bus, submitter Submitter, m *metrics.BookingMetrics, logger *logging.Logger) *Manager {
	if store == nil {
		panic("booking: session store required")
	}
	if loader == nil {
		panic("booking: catalog loader required")
	}
	if bus == nil {
		panic("booking: signal bus required")
	}
	if submitter == nil {
		panic("booking: submitter required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		store:     store,
		catalog:   loader,
		bus:       bus,
		submitter: submitter,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// WithAvailability installs the slot guard run on every submit. Without it a
// submission trusts the client's date and time.
func (m *Manager) WithAvailability(slots SlotChecker) *Manager {
	m.slots = slots
	return m
}

// Run consumes the signal bus until the context ends. It is the sole
// subscriber; open and close requests arriving while it is not running are
// dropped by the bus.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-m.bus.Opens():
			if err := m.Open(ctx, req); err != nil {
				m.logger.Error("wizard open failed", "error", err, "visitor_id", req.VisitorID)
			}
		case req := <-m.bus.Closes():
			if err := m.Close(ctx, req.VisitorID); err != nil {
				m.logger.Error("wizard close failed", "error", err, "visitor_id", req.VisitorID)
			}
		}
	}
}

// Open starts (or restarts) a visitor's session. The catalog is fetched
// fresh on every open; a load failure leaves the session in a retryable
// error state that blocks progression past step 1. A valid preselected
// service skips straight to the schedule step.
func (m *Manager) Open(ctx context.Context, req OpenRequest) error {
	if req.VisitorID == "" {
		req.VisitorID = uuid.New().String()
	}

	now := m.now().UTC()
	sess := &Session{
		VisitorID: req.VisitorID,
		State:     StateCollecting,
		Step:      StepService,
		CreatedAt: now,
		UpdatedAt: now,
	}

	cat, err := m.catalog.Load(ctx)
	if err != nil {
		m.logger.Warn("catalog load failed on open", "error", err, "visitor_id", req.VisitorID)
		m.metrics.ObserveCatalogLoad("error")
		sess.State = StateCatalogError
		sess.LastError = UserMessage(ErrCatalogUnavailable)
		return m.store.Put(ctx, sess)
	}
	m.metrics.ObserveCatalogLoad("ok")
	sess.Catalog = cat
	m.applyCatalog(sess, req.ServiceID)

	m.metrics.ObserveWizardOpen(req.ServiceID != "")
	m.logger.Info("wizard opened", "visitor_id", req.VisitorID, "preselected", req.ServiceID != "")
	return m.store.Put(ctx, sess)
}

// applyCatalog applies the open-time policies: preselection jumps to the
// schedule step, and a catalog with exactly one professional auto-selects it.
func (m *Manager) applyCatalog(sess *Session, preselectServiceID string) {
	if preselectServiceID != "" {
		if svc := sess.ServiceByID(preselectServiceID); svc != nil {
			sess.Draft.ServiceID = svc.ID
			sess.Step = StepSchedule
		}
	}
	if len(sess.Catalog.Professionals) == 1 {
		sess.Draft.ProfessionalID = sess.Catalog.Professionals[0].ID
	}
}

// Get returns the visitor's current session.
func (m *Manager) Get(ctx context.Context, visitorID string) (*Session, error) {
	return m.store.Get(ctx, visitorID)
}

// RetryCatalog re-runs the catalog fetch for a session stuck in the error
// state. A late result is dropped if the session was closed or already
// recovered in the meantime.
func (m *Manager) RetryCatalog(ctx context.Context, visitorID string) (*Session, error) {
	sess, err := m.store.Get(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if sess.State != StateCatalogError {
		return sess, nil
	}

	cat, err := m.catalog.Load(ctx)

	// Re-read: the visitor may have closed the wizard while the fetch ran.
	current, getErr := m.store.Get(ctx, visitorID)
	if getErr != nil || current.State != StateCatalogError {
		return current, getErr
	}

	if err != nil {
		m.metrics.ObserveCatalogLoad("error")
		return current, ErrCatalogUnavailable
	}
	m.metrics.ObserveCatalogLoad("ok")

	current.Catalog = cat
	current.State = StateCollecting
	current.LastError = ""
	m.applyCatalog(current, "")
	current.UpdatedAt = m.now().UTC()
	if err := m.store.Put(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

// SelectService records the service and auto-advances to the schedule step.
func (m *Manager) SelectService(ctx context.Context, visitorID, serviceID string) (*Session, error) {
	sess, err := m.collecting(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if sess.ServiceByID(serviceID) == nil {
		return nil, ErrUnknownService
	}

	sess.Draft.ServiceID = serviceID
	if sess.Step == StepService {
		sess.Step = StepSchedule
		m.metrics.ObserveStep("schedule", true)
	}
	return m.put(ctx, sess)
}

// SelectProfessional records the professional for the schedule step.
func (m *Manager) SelectProfessional(ctx context.Context, visitorID, professionalID string) (*Session, error) {
	sess, err := m.collecting(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if sess.Step != StepSchedule {
		return nil, ErrWrongStep
	}
	if sess.ProfessionalByID(professionalID) == nil {
		return nil, ErrUnknownProfessional
	}

	sess.Draft.ProfessionalID = professionalID
	return m.put(ctx, sess)
}

// SetDate records the date; a previously chosen time is cleared when the
// date changes.
func (m *Manager) SetDate(ctx context.Context, visitorID, date string) (*Session, error) {
	sess, err := m.collecting(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if sess.Step != StepSchedule {
		return nil, ErrWrongStep
	}

	sess.Draft.SetDate(date)
	return m.put(ctx, sess)
}

// SetTime records the time slot. Disallowed until a date is chosen.
func (m *Manager) SetTime(ctx context.Context, visitorID, slot string) (*Session, error) {
	sess, err := m.collecting(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if sess.Step != StepSchedule {
		return nil, ErrWrongStep
	}
	if err := sess.Draft.SetTime(slot); err != nil {
		return nil, err
	}
	return m.put(ctx, sess)
}

// Continue advances from the schedule step to confirmation once professional,
// date and time are all chosen. Entering confirmation issues the idempotency
// key that guards this submission attempt.
func (m *Manager) Continue(ctx context.Context, visitorID string) (*Session, error) {
	sess, err := m.collecting(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if sess.Step != StepSchedule {
		return nil, ErrWrongStep
	}
	if !sess.Draft.ScheduleComplete() {
		return nil, ErrScheduleIncomplete
	}

	sess.Step = StepConfirm
	if sess.IdempotencyKey == "" {
		sess.IdempotencyKey = uuid.New().String()
	}
	m.metrics.ObserveStep("confirm", true)
	return m.put(ctx, sess)
}

// SetContact records the confirm-step fields. Validation happens at submit;
// incomplete contact only keeps the submit control disabled.
func (m *Manager) SetContact(ctx context.Context, visitorID, name, phone, email string) (*Session, error) {
	sess, err := m.collecting(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if sess.Step != StepConfirm {
		return nil, ErrWrongStep
	}

	sess.Draft.Name = name
	sess.Draft.Phone = phone
	sess.Draft.Email = email
	return m.put(ctx, sess)
}

// Back returns to the previous step keeping entered values. Below step 2 it
// is a no-op rather than an error.
func (m *Manager) Back(ctx context.Context, visitorID string) (*Session, error) {
	sess, err := m.collecting(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if sess.back() {
		m.metrics.ObserveStep(stepName(sess.Step), false)
	}
	return m.put(ctx, sess)
}

// Submit runs the transactional booking. On success the session resets to a
// fresh step 1 draft and carries the confirmation; on failure the draft is
// kept intact so the visitor can correct and retry.
func (m *Manager) Submit(ctx context.Context, visitorID string) (*Session, *Confirmation, error) {
	sess, err := m.store.Get(ctx, visitorID)
	if err != nil {
		return nil, nil, err
	}
	if sess.State == StateSubmitting {
		return nil, nil, ErrSubmissionInFlight
	}
	if sess.State != StateCollecting || sess.Step != StepConfirm {
		return nil, nil, ErrWrongStep
	}
	if !sess.Draft.ContactComplete() {
		return nil, nil, ErrContactIncomplete
	}

	svc := sess.ServiceByID(sess.Draft.ServiceID)
	pro := sess.ProfessionalByID(sess.Draft.ProfessionalID)
	if svc == nil || pro == nil {
		return nil, nil, ErrScheduleIncomplete
	}

	if m.slots != nil {
		if err := m.checkSlot(ctx, sess, svc.ID, pro.ID); err != nil {
			m.metrics.ObserveSubmission(outcomeFor(err))
			sess.LastError = UserMessage(err)
			if putErr := m.put0(ctx, sess); putErr != nil {
				m.logger.Error("failed to persist session after slot check", "error", putErr, "visitor_id", visitorID)
			}
			return sess, nil, err
		}
	}

	sess.State = StateSubmitting
	if err := m.put0(ctx, sess); err != nil {
		return nil, nil, err
	}

	start := m.now()
	conf, err := m.submitter.Submit(ctx, &Submission{
		IdempotencyKey:   sess.IdempotencyKey,
		ServiceID:        svc.ID,
		ServiceName:      svc.Name,
		PriceCents:       svc.PriceCents,
		DurationMins:     svc.DurationMins,
		ProfessionalID:   pro.ID,
		ProfessionalName: pro.Name,
		Date:             sess.Draft.Date,
		StartTime:        sess.Draft.TimeSlot,
		Name:             sess.Draft.Name,
		Phone:            sess.Draft.Phone,
		Email:            sess.Draft.Email,
	})
	m.metrics.ObserveSubmitLatency(m.now().Sub(start).Seconds())

	if err != nil {
		m.metrics.ObserveSubmission(outcomeFor(err))
		sess.State = StateCollecting
		sess.LastError = UserMessage(err)
		if putErr := m.put0(ctx, sess); putErr != nil {
			m.logger.Error("failed to persist session after submit error", "error", putErr, "visitor_id", visitorID)
		}
		return sess, nil, err
	}

	m.metrics.ObserveSubmission("confirmed")
	sess.State = StateSubmitted
	sess.SubmittedAt = m.now().UTC()
	sess.AppointmentID = conf.AppointmentID
	sess.Draft = Draft{}
	sess.Step = StepService
	sess.IdempotencyKey = ""
	sess.LastError = ""
	if err := m.put0(ctx, sess); err != nil {
		return nil, nil, err
	}
	return sess, conf, nil
}

// checkSlot re-validates the drafted slot right before the write. The unique
// index still catches an exact collision that lands between this check and
// the insert; overlaps and out-of-hours times are rejected here.
func (m *Manager) checkSlot(ctx context.Context, sess *Session, serviceID, professionalID string) error {
	err := m.slots.IsBookable(ctx, professionalID, serviceID, sess.Draft.Date, sess.Draft.TimeSlot)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, appointments.ErrSlotTaken),
		errors.Is(err, appointments.ErrInvalidTime),
		errors.Is(err, appointments.ErrInvalidDate):
		return ErrSlotUnavailable
	}
	return fmt.Errorf("booking: availability check: %w", err)
}

// Close discards the session entirely; reopening starts from scratch.
func (m *Manager) Close(ctx context.Context, visitorID string) error {
	return m.store.Delete(ctx, visitorID)
}

// collecting loads a session and rejects operations while the catalog is
// unavailable or a submission is in flight.
func (m *Manager) collecting(ctx context.Context, visitorID string) (*Session, error) {
	sess, err := m.store.Get(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	switch sess.State {
	case StateCatalogError:
		return nil, ErrCatalogUnavailable
	case StateSubmitting:
		return nil, ErrSubmissionInFlight
	case StateSubmitted:
		// A new interaction after success starts collecting again and takes
		// the confirmation notice down.
		sess.State = StateCollecting
		sess.SubmittedAt = time.Time{}
		sess.AppointmentID = ""
	}
	return sess, nil
}

func (m *Manager) put(ctx context.Context, sess *Session) (*Session, error) {
	if err := m.put0(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (m *Manager) put0(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = m.now().UTC()
	return m.store.Put(ctx, sess)
}

func stepName(step int) string {
	switch step {
	case StepService:
		return "service"
	case StepSchedule:
		return "schedule"
	case StepConfirm:
		return "confirm"
	}
	return "unknown"
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrCustomerLookup):
		return "failed_customer_lookup"
	case errors.Is(err, ErrCustomerCreate):
		return "failed_customer_create"
	case errors.Is(err, ErrAppointmentCreate):
		return "failed_appointment_create"
	case errors.Is(err, ErrSlotUnavailable):
		return "failed_slot_taken"
	case errors.Is(err, ErrDuplicateSubmission):
		return "duplicate"
	}
	return "failed"
}
