package catalog

import "errors"

var (
	// ErrServiceNotFound is returned when a service does not exist
	ErrServiceNotFound = errors.New("service not found")

	// ErrProfessionalNotFound is returned when a professional does not exist
	ErrProfessionalNotFound = errors.New("professional not found")

	// ErrInvalidName is returned when a catalog entry has no name
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidPrice is returned when a service price is negative
	ErrInvalidPrice = errors.New("price must not be negative")

	// ErrInvalidDuration is returned when a service duration is not positive
	ErrInvalidDuration = errors.New("duration must be positive")

	// ErrInvalidRole is returned when a professional has no role
	ErrInvalidRole = errors.New("role is required")
)
