package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for catalog storage
type Repository interface {
	ListActiveServices(ctx context.Context) ([]Service, error)
	ListBookableProfessionals(ctx context.Context) ([]Professional, error)
	GetService(ctx context.Context, id string) (*Service, error)
	GetProfessional(ctx context.Context, id string) (*Professional, error)
	CreateService(ctx context.Context, req *CreateServiceRequest) (*Service, error)
	UpdateService(ctx context.Context, svc *Service) error
	DeactivateService(ctx context.Context, id string) error
	CreateProfessional(ctx context.Context, req *CreateProfessionalRequest) (*Professional, error)
	UpdateProfessional(ctx context.Context, pro *Professional) error
	DeactivateProfessional(ctx context.Context, id string) error
}

// InMemoryRepository is a Repository backed by process memory, used in tests
// and local development without Postgres.
type InMemoryRepository struct {
	mu            sync.RWMutex
	services      map[string]*Service
	professionals map[string]*Professional
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		services:      make(map[string]*Service),
		professionals: make(map[string]*Professional),
	}
}

// ListActiveServices returns active services ordered by price ascending.
func (r *InMemoryRepository) ListActiveServices(ctx context.Context) ([]Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Service, 0, len(r.services))
	for _, svc := range r.services {
		if svc.Active {
			out = append(out, *svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriceCents < out[j].PriceCents })
	return out, nil
}

// ListBookableProfessionals returns active professionals with an eligible role.
func (r *InMemoryRepository) ListBookableProfessionals(ctx context.Context) ([]Professional, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Professional, 0, len(r.professionals))
	for _, pro := range r.professionals {
		if pro.Active && IsBookableRole(pro.Role) {
			out = append(out, *pro)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetService retrieves a service by ID
func (r *InMemoryRepository) GetService(ctx context.Context, id string) (*Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	copy := *svc
	return &copy, nil
}

// GetProfessional retrieves a professional by ID
func (r *InMemoryRepository) GetProfessional(ctx context.Context, id string) (*Professional, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pro, ok := r.professionals[id]
	if !ok {
		return nil, ErrProfessionalNotFound
	}
	copy := *pro
	return &copy, nil
}

// CreateService creates a new service
func (r *InMemoryRepository) CreateService(ctx context.Context, req *CreateServiceRequest) (*Service, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	svc := &Service{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Description:  req.Description,
		PriceCents:   req.PriceCents,
		DurationMins: req.DurationMins,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}

	r.mu.Lock()
	r.services[svc.ID] = svc
	r.mu.Unlock()

	copy := *svc
	return &copy, nil
}

// UpdateService replaces an existing service
func (r *InMemoryRepository) UpdateService(ctx context.Context, svc *Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.services[svc.ID]; !ok {
		return ErrServiceNotFound
	}
	copy := *svc
	r.services[svc.ID] = &copy
	return nil
}

// DeactivateService marks a service inactive
func (r *InMemoryRepository) DeactivateService(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	svc, ok := r.services[id]
	if !ok {
		return ErrServiceNotFound
	}
	svc.Active = false
	return nil
}

// CreateProfessional creates a new professional
func (r *InMemoryRepository) CreateProfessional(ctx context.Context, req *CreateProfessionalRequest) (*Professional, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pro := &Professional{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Role:        req.Role,
		Specialties: append([]string(nil), req.Specialties...),
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}

	r.mu.Lock()
	r.professionals[pro.ID] = pro
	r.mu.Unlock()

	copy := *pro
	return &copy, nil
}

// UpdateProfessional replaces an existing professional
func (r *InMemoryRepository) UpdateProfessional(ctx context.Context, pro *Professional) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.professionals[pro.ID]; !ok {
		return ErrProfessionalNotFound
	}
	copy := *pro
	r.professionals[pro.ID] = &copy
	return nil
}

// DeactivateProfessional marks a professional inactive
func (r *InMemoryRepository) DeactivateProfessional(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pro, ok := r.professionals[id]
	if !ok {
		return ErrProfessionalNotFound
	}
	pro.Active = false
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
