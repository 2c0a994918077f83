package booking

// OpenRequest asks the mounted wizard to start a session for a visitor,
// optionally pre-seeding the selected service.
type OpenRequest struct {
	VisitorID string `json:"visitor_id"`
	ServiceID string `json:"service_id,omitempty"`
}

// CloseRequest asks the wizard to discard a visitor's session.
type CloseRequest struct {
	VisitorID string `json:"visitor_id"`
}

// Bus is the open/close signal channel between page surfaces and the wizard.
// Publishes are fire-and-forget: when nothing is listening (or the buffer is
// full) the request is dropped, matching the single-expected-subscriber
// contract.
type Bus struct {
	opens  chan OpenRequest
	closes chan CloseRequest
}

// NewBus creates a signal bus with the given buffer per channel.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 16
	}
	return &Bus{
		opens:  make(chan OpenRequest, buffer),
		closes: make(chan CloseRequest, buffer),
	}
}

// RequestOpen publishes an open signal. Returns false if it was dropped.
func (b *Bus) RequestOpen(req OpenRequest) bool {
	select {
	case b.opens <- req:
		return true
	default:
		return false
	}
}

// RequestClose publishes a close signal. Returns false if it was dropped.
func (b *Bus) RequestClose(req CloseRequest) bool {
	select {
	case b.closes <- req:
		return true
	default:
		return false
	}
}

// Opens is the consumer side, read by the single wizard manager.
func (b *Bus) Opens() <-chan OpenRequest { return b.opens }

// Closes is the consumer side, read by the single wizard manager.
func (b *Bus) Closes() <-chan CloseRequest { return b.closes }
