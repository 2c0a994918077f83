package booking

import "errors"

var (
	// ErrSessionNotFound signals that no wizard session exists for the visitor.
	ErrSessionNotFound = errors.New("booking: session not found")
	// ErrCatalogUnavailable blocks progression while the catalog load has failed.
	ErrCatalogUnavailable = errors.New("booking: catalog unavailable")
	// ErrServiceRequired guards the step 1 -> 2 transition.
	ErrServiceRequired = errors.New("booking: service not selected")
	// ErrUnknownService rejects service ids not present in the loaded catalog.
	ErrUnknownService = errors.New("booking: unknown service")
	// ErrUnknownProfessional rejects professional ids not in the catalog.
	ErrUnknownProfessional = errors.New("booking: unknown professional")
	// ErrDateRequired rejects picking a time slot before a date.
	ErrDateRequired = errors.New("booking: date must be selected before a time")
	// ErrScheduleIncomplete guards the step 2 -> 3 transition.
	ErrScheduleIncomplete = errors.New("booking: professional, date and time are required")
	// ErrContactIncomplete guards submission: name and phone are required.
	ErrContactIncomplete = errors.New("booking: name and phone are required")
	// ErrWrongStep rejects operations issued at the wrong wizard step.
	ErrWrongStep = errors.New("booking: operation not valid at current step")

	// ErrCustomerLookup is the failure before any write was attempted.
	ErrCustomerLookup = errors.New("booking: could not verify existing customer")
	// ErrCustomerCreate is the failure creating a new customer record.
	ErrCustomerCreate = errors.New("booking: could not create customer")
	// ErrAppointmentCreate is the failure creating the appointment itself.
	ErrAppointmentCreate = errors.New("booking: could not create appointment")
	// ErrSubmissionInFlight rejects a submit while one is already running.
	ErrSubmissionInFlight = errors.New("booking: submission already in flight")
	// ErrDuplicateSubmission rejects a replayed idempotency key.
	ErrDuplicateSubmission = errors.New("booking: submission already processed")
	// ErrSlotUnavailable rejects a submit whose slot was taken meanwhile.
	ErrSlotUnavailable = errors.New("booking: selected slot is no longer available")
)

// UserMessage maps an error to the inline text shown in the wizard. Unknown
// errors collapse to a generic message so internals never leak to the page.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrCatalogUnavailable):
		return "Não foi possível carregar os serviços. Tente novamente."
	case errors.Is(err, ErrCustomerLookup):
		return "Não foi possível verificar seu cadastro. Tente novamente."
	case errors.Is(err, ErrCustomerCreate):
		return "Não foi possível criar seu cadastro. Tente novamente."
	case errors.Is(err, ErrAppointmentCreate):
		return "Não foi possível criar o agendamento. Tente novamente."
	case errors.Is(err, ErrSlotUnavailable):
		return "Este horário acabou de ser reservado. Escolha outro horário."
	case errors.Is(err, ErrDuplicateSubmission):
		return "Este agendamento já foi confirmado."
	case errors.Is(err, ErrContactIncomplete):
		return "Preencha nome e telefone para confirmar."
	default:
		return "Algo deu errado. Tente novamente."
	}
}
