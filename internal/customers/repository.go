package customers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for customer storage
type Repository interface {
	FindByPhone(ctx context.Context, phone string) (*Customer, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
	Create(ctx context.Context, params *NewCustomerParams) (*Customer, error)
	List(ctx context.Context) ([]Customer, error)
}

// InMemoryRepository keeps customers in process memory for tests and local
// development.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*Customer
	byPhone map[string]*Customer
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:    make(map[string]*Customer),
		byPhone: make(map[string]*Customer),
	}
}

// FindByPhone looks a customer up by normalized phone digits.
func (r *InMemoryRepository) FindByPhone(ctx context.Context, phone string) (*Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byPhone[NormalizePhone(phone)]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	copy := *c
	return &copy, nil
}

// GetByID retrieves a customer by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	copy := *c
	return &copy, nil
}

// Create stores a new customer keyed by normalized phone.
func (r *InMemoryRepository) Create(ctx context.Context, params *NewCustomerParams) (*Customer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	c := &Customer{
		ID:        uuid.New().String(),
		Name:      params.Name,
		Phone:     NormalizePhone(params.Phone),
		Email:     params.Email,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.byID[c.ID] = c
	r.byPhone[c.Phone] = c
	r.mu.Unlock()

	copy := *c
	return &copy, nil
}

// List returns all customers ordered by creation time descending.
func (r *InMemoryRepository) List(ctx context.Context) ([]Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Customer, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

var _ Repository = (*InMemoryRepository)(nil)
