package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/physio-booking/internal/booking"
	"github.com/wolfman30/physio-booking/internal/clinic"
	"github.com/wolfman30/physio-booking/internal/locale"
	"github.com/wolfman30/physio-booking/pkg/logging"
)

// Service emails booking confirmations. It is registered as an observer of
// the commit protocol, so failures are logged and never reach the flow.
type Service struct {
	email      EmailSender
	clinicName string
	staffEmail string
	logger     *logging.Logger
}

// Config wires a notification Service. StaffEmail, when set, receives a
// copy of every new booking.
type Config struct {
	Email      EmailSender
	ClinicName string
	StaffEmail string
	Logger     *logging.Logger
}

// NewService creates a notification service.
func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Email == nil {
		cfg.Email = NewStubEmailSender(cfg.Logger)
	}
	return &Service{email: cfg.Email, clinicName: cfg.ClinicName, staffEmail: cfg.StaffEmail, logger: cfg.Logger}
}

// BookingCommitted sends the client confirmation and the staff copy.
func (s *Service) BookingCommitted(ctx context.Context, receipt booking.Receipt, req booking.Request) {
	if req.Client.Email == "" {
		s.logger.Debug("client has no email, skipping confirmation", "appointment_id", receipt.AppointmentID, "client_id", req.Client.ID)
	} else if err := s.email.Send(ctx, s.clientMessage(receipt, req)); err != nil {
		s.logger.Error("failed to send booking confirmation", "appointment_id", receipt.AppointmentID, "error", err)
	}

	if s.staffEmail == "" {
		return
	}
	if err := s.email.Send(ctx, s.staffMessage(receipt, req)); err != nil {
		s.logger.Error("failed to send staff booking notice", "appointment_id", receipt.AppointmentID, "error", err)
	}
}

func (s *Service) clientMessage(receipt booking.Receipt, req booking.Request) EmailMessage {
	var b strings.Builder
	fmt.Fprintf(&b, "Poštovani/a %s,\n\n", req.Client.FullName)
	b.WriteString("potvrđujemo vašu rezervaciju:\n\n")
	writeDetails(&b, receipt, req)
	b.WriteString("\nAko ne možete doći, javite nam se što prije.\n")
	if s.clinicName != "" {
		fmt.Fprintf(&b, "\n%s\n", s.clinicName)
	}
	return EmailMessage{
		To:       req.Client.Email,
		ToName:   req.Client.FullName,
		Subject:  fmt.Sprintf("Potvrda termina %s u %s", locale.ShortDate(req.Date), req.Start),
		Body:     b.String(),
		ReplyTo:  s.staffEmail,
		Category: "booking_confirmation",
	}
}

func (s *Service) staffMessage(receipt booking.Receipt, req booking.Request) EmailMessage {
	var b strings.Builder
	fmt.Fprintf(&b, "Nova rezervacija: %s\n", clientLine(req.Client))
	writeDetails(&b, receipt, req)
	return EmailMessage{
		To:       s.staffEmail,
		Subject:  fmt.Sprintf("Nova rezervacija - %s, %s %s", req.Practitioner.Name, locale.ShortDate(req.Date), req.Start),
		Body:     b.String(),
		Category: "booking_staff_notice",
	}
}

func writeDetails(b *strings.Builder, receipt booking.Receipt, req booking.Request) {
	fmt.Fprintf(b, "Fizioterapeut: %s\n", req.Practitioner.Name)
	fmt.Fprintf(b, "Usluga: %s (%d min, %s)\n", req.Service.Name, req.DurationMinutes, clinic.FormatPrice(req.Service.Price))
	fmt.Fprintf(b, "Datum: %s\n", locale.LongDate(req.Date))
	fmt.Fprintf(b, "Vrijeme: %s - %s\n", req.Start, req.Start.Add(req.DurationMinutes))
	fmt.Fprintf(b, "Broj rezervacije: %s\n", receipt.AppointmentID)
}

func clientLine(c clinic.ClientIdentity) string {
	parts := []string{c.FullName}
	if c.Phone != "" {
		parts = append(parts, c.Phone)
	}
	if c.Email != "" {
		parts = append(parts, c.Email)
	}
	return strings.Join(parts, ", ")
}
