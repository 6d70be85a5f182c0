package bookings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	bookingdb "ms-marketplace/internal/bookings/db"
	"ms-marketplace/internal/bookings/qr"
	"ms-marketplace/internal/errs"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
)

type DBLayer interface {
	CreateBooking(ctx context.Context, booking *models.Booking) (*models.Ticket, error)
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
	ListByUser(ctx context.Context, email string) ([]models.Booking, error)
	ListByVendor(ctx context.Context, email string) ([]models.Booking, error)
	Transition(ctx context.Context, id, from, to, timestampCol string) (bool, error)
}

type EventPublisher interface {
	PublishBookingCreated(booking models.Booking) error
	PublishBookingStatus(booking models.Booking) error
}

type BookingService struct {
	DB     DBLayer
	Events EventPublisher
	Logger *logger.Logger
}

func NewBookingService(db DBLayer, events EventPublisher, log *logger.Logger) *BookingService {
	return &BookingService{DB: db, Events: events, Logger: log}
}

// Create books quantity seats on a ticket for userEmail. The ticket must
// exist, have enough remaining quantity and not have departed.
func (s *BookingService) Create(ctx context.Context, userEmail string, req models.BookingRequest) (*models.Booking, error) {
	if req.Quantity <= 0 {
		return nil, errs.New(errs.InvalidState, "quantity must be positive")
	}

	booking := models.Booking{
		BookingID: uuid.NewString(),
		TicketID:  req.TicketID,
		UserEmail: userEmail,
		Quantity:  req.Quantity,
		Status:    models.BookingPending,
		BookedAt:  time.Now(),
	}

	_, err := s.DB.CreateBooking(ctx, &booking)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, errs.New(errs.NotFound, "ticket not found")
		case errors.Is(err, bookingdb.ErrInsufficientQuantity):
			return nil, errs.New(errs.InvalidState, "insufficient ticket quantity")
		case errors.Is(err, bookingdb.ErrDeparted):
			return nil, errs.New(errs.InvalidState, "ticket has already departed")
		default:
			return nil, errs.Wrap(errs.Internal, "failed to create booking", err)
		}
	}

	s.Logger.LogBooking("CREATE", booking.BookingID,
		fmt.Sprintf("user %s booked %d on ticket %s", userEmail, booking.Quantity, booking.TicketID))
	if err := s.Events.PublishBookingCreated(booking); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish booking created event: %v", err))
	}
	return &booking, nil
}

func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.DB.GetBookingByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.NotFound, "booking not found")
		}
		return nil, errs.Wrap(errs.Internal, "failed to load booking", err)
	}
	return booking, nil
}

func (s *BookingService) ListForUser(ctx context.Context, callerEmail, email string) ([]models.Booking, error) {
	if callerEmail != email {
		return nil, errs.New(errs.Forbidden, "forbidden")
	}
	bookings, err := s.DB.ListByUser(ctx, email)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to load bookings", err)
	}
	return bookings, nil
}

func (s *BookingService) ListForVendor(ctx context.Context, callerEmail, email string) ([]models.Booking, error) {
	if callerEmail != email {
		return nil, errs.New(errs.Forbidden, "forbidden")
	}
	bookings, err := s.DB.ListByVendor(ctx, email)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to load bookings", err)
	}
	return bookings, nil
}

// Accept moves a pending booking to accepted. Only the vendor who owns the
// booking may accept it, and only while it is pending.
func (s *BookingService) Accept(ctx context.Context, vendorEmail, id string) (*models.Booking, error) {
	return s.vendorTransition(ctx, vendorEmail, id, models.BookingAccepted, "accepted_at")
}

// Reject is the vendor-side refusal, same rules as Accept.
func (s *BookingService) Reject(ctx context.Context, vendorEmail, id string) (*models.Booking, error) {
	return s.vendorTransition(ctx, vendorEmail, id, models.BookingRejected, "rejected_at")
}

func (s *BookingService) vendorTransition(ctx context.Context, vendorEmail, id, to, timestampCol string) (*models.Booking, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.VendorEmail != vendorEmail {
		return nil, errs.New(errs.Forbidden, "not the vendor of this booking")
	}

	ok, err := s.DB.Transition(ctx, id, models.BookingPending, to, timestampCol)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to update booking", err)
	}
	if !ok {
		return nil, errs.New(errs.InvalidState,
			fmt.Sprintf("booking is %s, only pending bookings can be %s", booking.Status, to))
	}

	booking.Status = to
	s.Logger.LogBooking(to, id, "status updated by vendor "+vendorEmail)
	if err := s.Events.PublishBookingStatus(*booking); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish booking status event: %v", err))
	}
	return booking, nil
}

// Cancel lets the booking's user withdraw a pending booking.
func (s *BookingService) Cancel(ctx context.Context, callerEmail, id string) (*models.Booking, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.UserEmail != callerEmail {
		return nil, errs.New(errs.Forbidden, "not the owner of this booking")
	}

	ok, err := s.DB.Transition(ctx, id, models.BookingPending, models.BookingCancelled, "cancelled_at")
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to cancel booking", err)
	}
	if !ok {
		return nil, errs.New(errs.InvalidState,
			fmt.Sprintf("booking is %s, only pending bookings can be cancelled", booking.Status))
	}

	booking.Status = models.BookingCancelled
	s.Logger.LogBooking("CANCEL", id, "cancelled by "+callerEmail)
	if err := s.Events.PublishBookingStatus(*booking); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish booking status event: %v", err))
	}
	return booking, nil
}

// QRCode renders the booking reference as a PNG for paid bookings. The user
// who booked and the vendor who sold may both fetch it.
func (s *BookingService) QRCode(ctx context.Context, callerEmail, id string) ([]byte, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.UserEmail != callerEmail && booking.VendorEmail != callerEmail {
		return nil, errs.New(errs.Forbidden, "forbidden")
	}
	if booking.Status != models.BookingPaid {
		return nil, errs.New(errs.InvalidState, "only paid bookings have a QR code")
	}

	png, err := qr.Encode(*booking)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to render QR code", err)
	}
	return png, nil
}
