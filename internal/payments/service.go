package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-marketplace/internal/errs"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
	paymentdb "ms-marketplace/internal/payments/db"
)

type DBLayer interface {
	RecordPayment(ctx context.Context, payment *models.Payment) error
	ListByUser(ctx context.Context, email string) ([]models.Payment, error)
	ListAll(ctx context.Context) ([]models.Payment, error)
}

type BookingStore interface {
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
}

type TicketStore interface {
	GetTicketByID(ctx context.Context, id string) (*models.Ticket, error)
}

type Gateway interface {
	CreatePaymentIntent(amount float64) (string, error)
}

type EventPublisher interface {
	PublishPaymentRecorded(payment models.Payment) error
}

type PaymentService struct {
	DB       DBLayer
	Bookings BookingStore
	Tickets  TicketStore
	Gateway  Gateway
	Events   EventPublisher
	Logger   *logger.Logger
}

func NewPaymentService(db DBLayer, bookings BookingStore, tickets TicketStore, gateway Gateway, events EventPublisher, log *logger.Logger) *PaymentService {
	return &PaymentService{DB: db, Bookings: bookings, Tickets: tickets, Gateway: gateway, Events: events, Logger: log}
}

// CreateIntent asks the payment gateway for a client secret.
func (s *PaymentService) CreateIntent(ctx context.Context, req models.PaymentIntentRequest) (*models.PaymentIntentResponse, error) {
	if req.Amount <= 0 {
		return nil, errs.New(errs.InvalidState, "amount must be positive")
	}
	secret, err := s.Gateway.CreatePaymentIntent(req.Amount)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to create payment intent", err)
	}
	return &models.PaymentIntentResponse{ClientSecret: secret}, nil
}

// Record captures a payment for a booking: payment row, booking to paid and
// ticket decrement commit together or not at all. Only the booking's own user
// can pay, and only pending or accepted bookings are payable.
func (s *PaymentService) Record(ctx context.Context, callerEmail string, req models.PaymentRequest) (*models.Payment, error) {
	booking, err := s.Bookings.GetBookingByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.NotFound, "booking not found")
		}
		return nil, errs.Wrap(errs.Internal, "failed to load booking", err)
	}
	if booking.UserEmail != callerEmail {
		return nil, errs.New(errs.Forbidden, "not the owner of this booking")
	}

	ticket, err := s.Tickets.GetTicketByID(ctx, booking.TicketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.NotFound, "ticket not found")
		}
		return nil, errs.Wrap(errs.Internal, "failed to load ticket", err)
	}

	payment := models.Payment{
		PaymentID:     uuid.NewString(),
		BookingID:     booking.BookingID,
		TicketID:      booking.TicketID,
		UserEmail:     booking.UserEmail,
		VendorEmail:   booking.VendorEmail,
		Amount:        ticket.Price * float64(booking.Quantity),
		Quantity:      booking.Quantity,
		TransactionID: req.TransactionID,
		PaidAt:        time.Now(),
	}

	if err := s.DB.RecordPayment(ctx, &payment); err != nil {
		switch {
		case errors.Is(err, paymentdb.ErrNotPayable):
			return nil, errs.New(errs.InvalidState,
				fmt.Sprintf("booking is %s, only pending or accepted bookings can be paid", booking.Status))
		case errors.Is(err, paymentdb.ErrInsufficientQuantity):
			return nil, errs.New(errs.InvalidState, "insufficient ticket quantity")
		default:
			return nil, errs.Wrap(errs.Internal, "failed to record payment", err)
		}
	}

	s.Logger.LogPayment("RECORD", payment.PaymentID,
		fmt.Sprintf("booking %s paid, ticket %s quantity -%d", payment.BookingID, payment.TicketID, payment.Quantity))
	if err := s.Events.PublishPaymentRecorded(payment); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish payment event: %v", err))
	}
	return &payment, nil
}

func (s *PaymentService) ListForUser(ctx context.Context, callerEmail, email string) ([]models.Payment, error) {
	if callerEmail != email {
		return nil, errs.New(errs.Forbidden, "forbidden")
	}
	payments, err := s.DB.ListByUser(ctx, email)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to load payments", err)
	}
	return payments, nil
}

func (s *PaymentService) ListAll(ctx context.Context) ([]models.Payment, error) {
	payments, err := s.DB.ListAll(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to list payments", err)
	}
	return payments, nil
}
