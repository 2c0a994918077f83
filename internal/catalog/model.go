package catalog

import (
	"strings"
	"time"
)

// Service represents a bookable offering on the storefront.
type Service struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PriceCents   int64     `json:"price_cents"`
	DurationMins int       `json:"duration_mins"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Professional represents a staff member who can take appointments.
type Professional struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	Specialties []string  `json:"specialties,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Catalog bundles the read-only lists the booking wizard needs.
type Catalog struct {
	Services      []Service      `json:"services"`
	Professionals []Professional `json:"professionals"`
}

// BookableRoles are the professional roles eligible for appointments.
var BookableRoles = []string{"barber", "admin"}

// IsBookableRole reports whether a professional with the given role can be
// assigned to appointments.
func IsBookableRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	for _, r := range BookableRoles {
		if role == r {
			return true
		}
	}
	return false
}

// CreateServiceRequest is the admin request body for creating a service.
type CreateServiceRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	PriceCents   int64  `json:"price_cents"`
	DurationMins int    `json:"duration_mins"`
}

// Validate validates the create service request
func (r *CreateServiceRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.PriceCents < 0 {
		return ErrInvalidPrice
	}
	if r.DurationMins <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// CreateProfessionalRequest is the admin request body for creating a professional.
type CreateProfessionalRequest struct {
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Specialties []string `json:"specialties"`
}

// Validate validates the create professional request
func (r *CreateProfessionalRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(r.Role) == "" {
		return ErrInvalidRole
	}
	return nil
}
