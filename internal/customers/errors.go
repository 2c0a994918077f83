package customers

import "errors"

var (
	// ErrCustomerNotFound signals a phone lookup with no matching row.
	ErrCustomerNotFound = errors.New("customers: customer not found")
	// ErrInvalidName rejects blank names at the storage boundary.
	ErrInvalidName = errors.New("customers: name is required")
	// ErrInvalidPhone rejects phones with too few digits to be dialable.
	ErrInvalidPhone = errors.New("customers: phone is invalid")
)
