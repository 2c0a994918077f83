package customers

import (
	"strings"
	"time"
	"unicode"
)

// Customer is a person who has booked (or is booking) an appointment.
// Phone is the identity key: re-bookings with the same phone reuse the row.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizePhone strips everything but digits so lookups match regardless of
// the formatting the visitor typed ("(11) 99876-5432" and "11998765432" are
// the same customer).
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NewCustomerParams carries the contact details collected at the confirm step.
type NewCustomerParams struct {
	Name  string
	Phone string
	Email string
}

// Validate checks the params before persistence. The wizard performs its own
// form validation; this is the storage-side gate.
func (p *NewCustomerParams) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidName
	}
	if len(NormalizePhone(p.Phone)) < 8 {
		return ErrInvalidPhone
	}
	return nil
}
