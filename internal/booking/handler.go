package booking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

// VisitorHeader carries the wizard session key. The page generates a random
// id per browser and sends it on every booking call.
const VisitorHeader = "X-Visitor-ID"

// Handler translates the booking REST surface into manager calls.
type Handler struct {
	manager *Manager
	bus     *Bus
	logger  *logging.Logger
}

// NewHandler creates a new booking handler
func NewHandler(manager *Manager, bus *Bus, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{manager: manager, bus: bus, logger: logger}
}

type openRequest struct {
	ServiceID string `json:"service_id,omitempty"`
}

// Open handles POST /api/booking/open. The signal is fire-and-forget: the
// wizard manager picks it up from the bus, so the response is 202 and the
// page polls the session endpoint.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	visitorID := r.Header.Get(VisitorHeader)
	if visitorID == "" {
		http.Error(w, "missing "+VisitorHeader+" header", http.StatusBadRequest)
		return
	}

	var req openRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	delivered := h.bus.RequestOpen(OpenRequest{VisitorID: visitorID, ServiceID: req.ServiceID})
	if !delivered {
		h.logger.Warn("open signal dropped", "visitor_id", visitorID)
	}
	w.WriteHeader(http.StatusAccepted)
}

// Close handles POST /api/booking/close.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	visitorID := r.Header.Get(VisitorHeader)
	if visitorID == "" {
		http.Error(w, "missing "+VisitorHeader+" header", http.StatusBadRequest)
		return
	}

	if !h.bus.RequestClose(CloseRequest{VisitorID: visitorID}) {
		h.logger.Warn("close signal dropped", "visitor_id", visitorID)
	}
	w.WriteHeader(http.StatusAccepted)
}

// GetSession handles GET /api/booking/session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func() (*Session, error) {
		return h.manager.Get(r.Context(), r.Header.Get(VisitorHeader))
	})
}

type selectServiceRequest struct {
	ServiceID string `json:"service_id"`
}

// SelectService handles POST /api/booking/service.
func (h *Handler) SelectService(w http.ResponseWriter, r *http.Request) {
	var req selectServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.respond(w, r, func() (*Session, error) {
		return h.manager.SelectService(r.Context(), r.Header.Get(VisitorHeader), req.ServiceID)
	})
}

type selectProfessionalRequest struct {
	ProfessionalID string `json:"professional_id"`
}

// SelectProfessional handles POST /api/booking/professional.
func (h *Handler) SelectProfessional(w http.ResponseWriter, r *http.Request) {
	var req selectProfessionalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.respond(w, r, func() (*Session, error) {
		return h.manager.SelectProfessional(r.Context(), r.Header.Get(VisitorHeader), req.ProfessionalID)
	})
}

type scheduleRequest struct {
	Date string `json:"date,omitempty"`
	Time string `json:"time,omitempty"`
}

// SetSchedule handles POST /api/booking/schedule. Date and time may arrive
// together or in separate calls; date is applied first so a date change
// clears a stale time before the new one lands.
func (h *Handler) SetSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.respond(w, r, func() (*Session, error) {
		visitorID := r.Header.Get(VisitorHeader)
		var sess *Session
		var err error
		if req.Date != "" {
			sess, err = h.manager.SetDate(r.Context(), visitorID, req.Date)
			if err != nil {
				return nil, err
			}
		}
		if req.Time != "" {
			sess, err = h.manager.SetTime(r.Context(), visitorID, req.Time)
			if err != nil {
				return nil, err
			}
		}
		if sess == nil {
			return h.manager.Get(r.Context(), visitorID)
		}
		return sess, nil
	})
}

// Continue handles POST /api/booking/continue.
func (h *Handler) Continue(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func() (*Session, error) {
		return h.manager.Continue(r.Context(), r.Header.Get(VisitorHeader))
	})
}

// Back handles POST /api/booking/back.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func() (*Session, error) {
		return h.manager.Back(r.Context(), r.Header.Get(VisitorHeader))
	})
}

type contactRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// SetContact handles POST /api/booking/contact.
func (h *Handler) SetContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.respond(w, r, func() (*Session, error) {
		return h.manager.SetContact(r.Context(), r.Header.Get(VisitorHeader), req.Name, req.Phone, req.Email)
	})
}

// RetryCatalog handles POST /api/booking/retry-catalog.
func (h *Handler) RetryCatalog(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func() (*Session, error) {
		return h.manager.RetryCatalog(r.Context(), r.Header.Get(VisitorHeader))
	})
}

type submitResponse struct {
	Session      *Session      `json:"session"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Submit handles POST /api/booking/submit. Submission errors come back with
// the user-readable message and the intact session so the page can show the
// inline error and keep the draft editable.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	visitorID := r.Header.Get(VisitorHeader)
	if visitorID == "" {
		http.Error(w, "missing "+VisitorHeader+" header", http.StatusBadRequest)
		return
	}

	sess, conf, err := h.manager.Submit(r.Context(), visitorID)
	if err != nil {
		status := http.StatusUnprocessableEntity
		switch {
		case errors.Is(err, ErrSessionNotFound):
			status = http.StatusNotFound
		case errors.Is(err, ErrSubmissionInFlight), errors.Is(err, ErrDuplicateSubmission):
			status = http.StatusConflict
		case errors.Is(err, ErrContactIncomplete), errors.Is(err, ErrWrongStep):
			status = http.StatusBadRequest
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(submitResponse{Session: sess, Error: UserMessage(err)})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(submitResponse{Session: sess, Confirmation: conf})
}

// respond runs op and renders the resulting session, mapping wizard errors
// onto HTTP statuses.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, op func() (*Session, error)) {
	if r.Header.Get(VisitorHeader) == "" {
		http.Error(w, "missing "+VisitorHeader+" header", http.StatusBadRequest)
		return
	}

	sess, err := op()
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			http.Error(w, "no active booking session", http.StatusNotFound)
		case errors.Is(err, ErrCatalogUnavailable):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"error": UserMessage(err)})
		case errors.Is(err, ErrUnknownService), errors.Is(err, ErrUnknownProfessional),
			errors.Is(err, ErrDateRequired), errors.Is(err, ErrScheduleIncomplete),
			errors.Is(err, ErrWrongStep):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrSubmissionInFlight):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.logger.Error("booking operation failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sess)
}
