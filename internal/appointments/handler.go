package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/davidbarber/barbershop-platform/internal/events"
	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

// Handler handles HTTP requests for availability and admin appointment views
type Handler struct {
	availability *AvailabilityService
	repo         Repository
	outbox       *events.OutboxStore
	logger       *logging.Logger
}

// NewHandler creates a new appointments handler
func NewHandler(availability *AvailabilityService, repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{availability: availability, repo: repo, logger: logger}
}

// WithOutbox records appointment cancellations to the outbox so downstream
// consumers (realtime feed, notifications) see them.
func (h *Handler) WithOutbox(store *events.OutboxStore) *Handler {
	h.outbox = store
	return h
}

// GetAvailability handles GET /api/availability?professional_id=&service_id=&date=
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	professionalID := r.URL.Query().Get("professional_id")
	serviceID := r.URL.Query().Get("service_id")
	date := r.URL.Query().Get("date")
	if professionalID == "" || serviceID == "" || date == "" {
		http.Error(w, "professional_id, service_id and date are required", http.StatusBadRequest)
		return
	}

	slots, err := h.availability.SlotsFor(r.Context(), professionalID, serviceID, date)
	if err != nil {
		if errors.Is(err, ErrInvalidDate) {
			http.Error(w, "date is outside the booking window", http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to compute availability", "error", err, "date", date)
		http.Error(w, "availability unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"date":  date,
		"slots": slots,
	})
}

// ListAppointments handles GET /admin/appointments?date= requests. Date
// defaults to today.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := parseDate(date); err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	appts, err := h.repo.ListOnDate(r.Context(), date)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "date", date)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"date":         date,
		"appointments": appts,
	})
}

// GetAppointment handles GET /admin/appointments/{appointmentID} requests
func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "appointmentID")

	appt, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load appointment", "error", err, "id", id)
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appt)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /admin/appointments/{appointmentID}/status requests
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "appointmentID")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.repo.UpdateStatus(r.Context(), id, req.Status); err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			http.Error(w, "invalid status", http.StatusBadRequest)
		case errors.Is(err, ErrAppointmentNotFound):
			http.Error(w, "appointment not found", http.StatusNotFound)
		default:
			h.logger.Error("failed to update status", "error", err, "id", id)
			http.Error(w, "failed to update status", http.StatusInternalServerError)
		}
		return
	}

	if req.Status == StatusCancelled && h.outbox != nil {
		h.recordCancellation(r, id)
	}

	h.logger.Info("appointment status updated", "id", id, "status", req.Status)
	w.WriteHeader(http.StatusNoContent)
}

// recordCancellation writes the cancellation event to the outbox. The status
// change has already committed, so a failure here is logged, not surfaced.
func (h *Handler) recordCancellation(r *http.Request, id string) {
	appt, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load cancelled appointment", "error", err, "id", id)
		return
	}

	evt := events.AppointmentCancelledV1{
		EventID:       uuid.New().String(),
		AppointmentID: appt.ID,
		CustomerID:    appt.CustomerID,
		CancelledAt:   time.Now().UTC(),
	}
	if _, err := h.outbox.Insert(r.Context(), events.TypeAppointmentCancelled, evt); err != nil {
		h.logger.Error("failed to record cancellation event", "error", err, "id", id)
	}
}
