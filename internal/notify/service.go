package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/davidbarber/barbershop-platform/internal/events"
	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

// ShopConfig identifies the shop in outgoing notifications.
type ShopConfig struct {
	Name  string
	Email string
}

// Service sends booking notifications: a confirmation to the customer when
// an email was given, and a notice to the shop inbox for every booking.
type Service struct {
	email  EmailSender
	shop   ShopConfig
	logger *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, shop ShopConfig, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if shop.Name == "" {
		shop.Name = "David Barber"
	}
	return &Service{email: email, shop: shop, logger: logger}
}

// NotifyAppointmentScheduled fans the booking out to customer and shop.
// Individual send failures are collected so one bad address does not
// suppress the other notification.
func (s *Service) NotifyAppointmentScheduled(ctx context.Context, evt events.AppointmentScheduledV1) error {
	if s.email == nil {
		s.logger.Debug("notify: email sender not configured, skipping")
		return nil
	}

	var errs []error

	if evt.CustomerEmail != "" {
		msg := EmailMessage{
			To:      evt.CustomerEmail,
			ToName:  evt.CustomerName,
			Subject: fmt.Sprintf("Agendamento confirmado - %s", evt.ServiceName),
			Body:    s.customerBody(evt),
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: customer confirmation failed", "error", err, "to", evt.CustomerEmail)
			errs = append(errs, err)
		} else {
			s.logger.Info("notify: customer confirmation sent", "to", evt.CustomerEmail, "appointment_id", evt.AppointmentID)
		}
	}

	if s.shop.Email != "" {
		msg := EmailMessage{
			To:      s.shop.Email,
			ToName:  s.shop.Name,
			Subject: fmt.Sprintf("Novo agendamento - %s, %s %s", evt.CustomerName, evt.Date, evt.StartTime),
			Body:    s.shopBody(evt),
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: shop notice failed", "error", err, "to", s.shop.Email)
			errs = append(errs, err)
		} else {
			s.logger.Info("notify: shop notice sent", "appointment_id", evt.AppointmentID)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d notification(s) failed", len(errs))
	}
	return nil
}

// NotifyAppointmentCancelled tells the shop inbox about a cancellation.
func (s *Service) NotifyAppointmentCancelled(ctx context.Context, evt events.AppointmentCancelledV1) error {
	if s.email == nil || s.shop.Email == "" {
		return nil
	}

	msg := EmailMessage{
		To:      s.shop.Email,
		ToName:  s.shop.Name,
		Subject: "Agendamento cancelado",
		Body: fmt.Sprintf(`O agendamento %s foi cancelado em %s.

- %s`, evt.AppointmentID, evt.CancelledAt.Format(time.RFC3339), s.shop.Name),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: cancellation notice: %w", err)
	}
	return nil
}

func (s *Service) customerBody(evt events.AppointmentScheduledV1) string {
	return fmt.Sprintf(`Olá %s,

Seu agendamento está confirmado!

Serviço: %s
Profissional: %s
Data: %s às %s
Valor: %s

Até breve,
%s`,
		evt.CustomerName, evt.ServiceName, evt.ProfessionalName,
		evt.Date, evt.StartTime, formatPrice(evt.PriceCents), s.shop.Name)
}

func (s *Service) shopBody(evt events.AppointmentScheduledV1) string {
	return fmt.Sprintf(`Novo agendamento recebido.

Cliente: %s
Telefone: %s
Serviço: %s (%d min)
Profissional: %s
Data: %s às %s
Valor: %s`,
		evt.CustomerName, evt.CustomerPhone, evt.ServiceName, evt.DurationMins,
		evt.ProfessionalName, evt.Date, evt.StartTime, formatPrice(evt.PriceCents))
}

func formatPrice(cents int64) string {
	return fmt.Sprintf("R$ %d,%02d", cents/100, cents%100)
}
