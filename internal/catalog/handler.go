package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

// Handler handles HTTP requests for the catalog
type Handler struct {
	service *CatalogService
	repo    Repository
	logger  *logging.Logger
}

// NewHandler creates a new catalog handler
func NewHandler(service *CatalogService, repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, repo: repo, logger: logger}
}

// GetCatalog handles GET /api/catalog requests
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	cat, err := h.service.Load(r.Context())
	if err != nil {
		h.logger.Error("failed to load catalog", "error", err)
		http.Error(w, "catalog unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cat)
}

// CreateService handles POST /admin/services requests
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req CreateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	svc, err := h.repo.CreateService(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create service", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.service.Invalidate(r.Context())

	h.logger.Info("service created", "id", svc.ID, "name", svc.Name)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(svc)
}

// UpdateService handles PUT /admin/services/{serviceID} requests
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "serviceID")
	if id == "" {
		http.Error(w, "missing service id", http.StatusBadRequest)
		return
	}

	var svc Service
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	svc.ID = id

	if err := h.repo.UpdateService(r.Context(), &svc); err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update service", "error", err, "id", id)
		http.Error(w, "failed to update service", http.StatusInternalServerError)
		return
	}
	h.service.Invalidate(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(svc)
}

// DeleteService handles DELETE /admin/services/{serviceID} requests.
// Services are deactivated rather than removed so existing appointments keep
// their display name.
func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "serviceID")
	if id == "" {
		http.Error(w, "missing service id", http.StatusBadRequest)
		return
	}

	if err := h.repo.DeactivateService(r.Context(), id); err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to deactivate service", "error", err, "id", id)
		http.Error(w, "failed to deactivate service", http.StatusInternalServerError)
		return
	}
	h.service.Invalidate(r.Context())

	w.WriteHeader(http.StatusNoContent)
}

// CreateProfessional handles POST /admin/professionals requests
func (h *Handler) CreateProfessional(w http.ResponseWriter, r *http.Request) {
	var req CreateProfessionalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pro, err := h.repo.CreateProfessional(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create professional", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.service.Invalidate(r.Context())

	h.logger.Info("professional created", "id", pro.ID, "name", pro.Name)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(pro)
}

// UpdateProfessional handles PUT /admin/professionals/{professionalID} requests
func (h *Handler) UpdateProfessional(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "professionalID")
	if id == "" {
		http.Error(w, "missing professional id", http.StatusBadRequest)
		return
	}

	var pro Professional
	if err := json.NewDecoder(r.Body).Decode(&pro); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	pro.ID = id

	if err := h.repo.UpdateProfessional(r.Context(), &pro); err != nil {
		if errors.Is(err, ErrProfessionalNotFound) {
			http.Error(w, "professional not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update professional", "error", err, "id", id)
		http.Error(w, "failed to update professional", http.StatusInternalServerError)
		return
	}
	h.service.Invalidate(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pro)
}

// DeleteProfessional handles DELETE /admin/professionals/{professionalID} requests
func (h *Handler) DeleteProfessional(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "professionalID")
	if id == "" {
		http.Error(w, "missing professional id", http.StatusBadRequest)
		return
	}

	if err := h.repo.DeactivateProfessional(r.Context(), id); err != nil {
		if errors.Is(err, ErrProfessionalNotFound) {
			http.Error(w, "professional not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to deactivate professional", "error", err, "id", id)
		http.Error(w, "failed to deactivate professional", http.StatusInternalServerError)
		return
	}
	h.service.Invalidate(r.Context())

	w.WriteHeader(http.StatusNoContent)
}
