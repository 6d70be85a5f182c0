package bookings_test

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ms-marketplace/internal/bookings"
	bookingdb "ms-marketplace/internal/bookings/db"
	"ms-marketplace/internal/errs"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateBooking(ctx context.Context, booking *models.Booking) (*models.Ticket, error) {
	args := m.Called(ctx, booking)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockDBLayer) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockDBLayer) ListByUser(ctx context.Context, email string) ([]models.Booking, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockDBLayer) ListByVendor(ctx context.Context, email string) ([]models.Booking, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockDBLayer) Transition(ctx context.Context, id, from, to, timestampCol string) (bool, error) {
	args := m.Called(ctx, id, from, to, timestampCol)
	return args.Bool(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishBookingCreated(booking models.Booking) error {
	args := m.Called(booking)
	return args.Error(0)
}

func (m *MockPublisher) PublishBookingStatus(booking models.Booking) error {
	args := m.Called(booking)
	return args.Error(0)
}

func newService(db *MockDBLayer, events *MockPublisher) *bookings.BookingService {
	return bookings.NewBookingService(db, events, logger.NewLogger())
}

func statusCode(t *testing.T, err error) int {
	var e *errs.Error
	if !assert.ErrorAs(t, err, &e) {
		return 0
	}
	return e.StatusCode()
}

// Tests start here
func TestCreateBooking(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockEvents := new(MockPublisher)
	svc := newService(mockDB, mockEvents)

	ticket := &models.Ticket{
		TicketID:    uuid.New().String(),
		VendorEmail: "vendor@example.com",
	}

	mockDB.On("CreateBooking", mock.Anything, mock.Anything).Return(ticket, nil)
	mockEvents.On("PublishBookingCreated", mock.Anything).Return(nil)

	booking, err := svc.Create(context.Background(), "rider@example.com",
		models.BookingRequest{TicketID: ticket.TicketID, Quantity: 3})
	assert.NoError(t, err)
	assert.NotNil(t, booking)
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, "rider@example.com", booking.UserEmail)
	assert.Equal(t, 3, booking.Quantity)

	mockDB.AssertExpectations(t)
	mockEvents.AssertExpectations(t)
}

func TestCreateBookingRejectsNonPositiveQuantity(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockEvents := new(MockPublisher)
	svc := newService(mockDB, mockEvents)

	_, err := svc.Create(context.Background(), "rider@example.com",
		models.BookingRequest{TicketID: "t1", Quantity: 0})
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusCode(t, err))

	mockDB.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestCreateBookingErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		dbErr      error
		wantStatus int
	}{
		{"missing ticket", sql.ErrNoRows, http.StatusNotFound},
		{"insufficient quantity", bookingdb.ErrInsufficientQuantity, http.StatusBadRequest},
		{"departed ticket", bookingdb.ErrDeparted, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockDB := new(MockDBLayer)
			mockEvents := new(MockPublisher)
			svc := newService(mockDB, mockEvents)

			mockDB.On("CreateBooking", mock.Anything, mock.Anything).Return(nil, tc.dbErr)

			_, err := svc.Create(context.Background(), "rider@example.com",
				models.BookingRequest{TicketID: "t1", Quantity: 1})
			assert.Error(t, err)
			assert.Equal(t, tc.wantStatus, statusCode(t, err))

			mockEvents.AssertNotCalled(t, "PublishBookingCreated", mock.Anything)
		})
	}
}

func TestCreateBookingSurvivesPublishFailure(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockEvents := new(MockPublisher)
	svc := newService(mockDB, mockEvents)

	mockDB.On("CreateBooking", mock.Anything, mock.Anything).Return(&models.Ticket{}, nil)
	mockEvents.On("PublishBookingCreated", mock.Anything).Return(assert.AnError)

	// A broker failure is logged, never surfaced to the caller
	booking, err := svc.Create(context.Background(), "rider@example.com",
		models.BookingRequest{TicketID: "t1", Quantity: 1})
	assert.NoError(t, err)
	assert.NotNil(t, booking)
}

func TestAcceptBooking(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockEvents := new(MockPublisher)
	svc := newService(mockDB, mockEvents)

	booking := &models.Booking{
		BookingID:   "b1",
		VendorEmail: "vendor@example.com",
		UserEmail:   "rider@example.com",
		Status:      models.BookingPending,
	}

	mockDB.On("GetBookingByID", mock.Anything, "b1").Return(booking, nil)
	mockDB.On("Transition", mock.Anything, "b1",
		models.BookingPending, models.BookingAccepted, "accepted_at").Return(true, nil)
	mockEvents.On("PublishBookingStatus", mock.Anything).Return(nil)

	updated, err := svc.Accept(context.Background(), "vendor@example.com", "b1")
	assert.NoError(t, err)
	assert.Equal(t, models.BookingAccepted, updated.Status)

	mockDB.AssertExpectations(t)
}

func TestAcceptBookingWrongVendor(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockEvents := new(MockPublisher)
	svc := newService(mockDB, mockEvents)

	booking := &models.Booking{
		BookingID:   "b1",
		VendorEmail: "vendor@example.com",
		Status:      models.BookingPending,
	}
	mockDB.On("GetBookingByID", mock.Anything, "b1").Return(booking, nil)

	_, err := svc.Accept(context.Background(), "intruder@example.com", "b1")
	assert.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusCode(t, err))

	mockDB.AssertNotCalled(t, "Transition",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAcceptBookingNotPending(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockEvents := new(MockPublisher)
	svc := newService(mockDB, mockEvents)

	booking := &models.Booking{
		BookingID:   "b1",
		VendorEmail: "vendor@example.com",
		Status:      models.BookingCancelled,
	}
	mockDB.On("GetBookingByID", mock.Anything, "b1").Return(booking, nil)
	mockDB.On("Transition", mock.Anything, "b1",
		models.BookingPending, models.BookingAccepted, "accepted_at").Return(false, nil)

	_, err := svc.Accept(context.Background(), "vendor@example.com", "b1")
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusCode(t, err))
}

func TestCancelBooking(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockEvents := new(MockPublisher)
	svc := newService(mockDB, mockEvents)

	booking := &models.Booking{
		BookingID: "b1",
		UserEmail: "rider@example.com",
		Status:    models.BookingPending,
	}
	mockDB.On("GetBookingByID", mock.Anything, "b1").Return(booking, nil)
	mockDB.On("Transition", mock.Anything, "b1",
		models.BookingPending, models.BookingCancelled, "cancelled_at").Return(true, nil)
	mockEvents.On("PublishBookingStatus", mock.Anything).Return(nil)

	updated, err := svc.Cancel(context.Background(), "rider@example.com", "b1")
	assert.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, updated.Status)
}

func TestCancelBookingWrongUser(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockEvents := new(MockPublisher)
	svc := newService(mockDB, mockEvents)

	booking := &models.Booking{
		BookingID: "b1",
		UserEmail: "rider@example.com",
		Status:    models.BookingPending,
	}
	mockDB.On("GetBookingByID", mock.Anything, "b1").Return(booking, nil)

	_, err := svc.Cancel(context.Background(), "someone@example.com", "b1")
	assert.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusCode(t, err))
}

func TestListForUserSelfOnly(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockEvents := new(MockPublisher)
	svc := newService(mockDB, mockEvents)

	mockDB.On("ListByUser", mock.Anything, "rider@example.com").
		Return([]models.Booking{{BookingID: "b1"}}, nil)

	list, err := svc.ListForUser(context.Background(), "rider@example.com", "rider@example.com")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(list))

	// Another user's history is off limits
	_, err = svc.ListForUser(context.Background(), "rider@example.com", "someone@example.com")
	assert.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusCode(t, err))
}

func TestQRCodePaidOnly(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockEvents := new(MockPublisher)
	svc := newService(mockDB, mockEvents)

	paid := &models.Booking{
		BookingID:     "b1",
		TicketID:      "t1",
		UserEmail:     "rider@example.com",
		VendorEmail:   "vendor@example.com",
		Status:        models.BookingPaid,
		TransactionID: "txn_123",
		BookedAt:      time.Now(),
	}
	mockDB.On("GetBookingByID", mock.Anything, "b1").Return(paid, nil)

	png, err := svc.QRCode(context.Background(), "rider@example.com", "b1")
	assert.NoError(t, err)
	assert.NotEmpty(t, png)

	// The vendor may fetch it too
	png, err = svc.QRCode(context.Background(), "vendor@example.com", "b1")
	assert.NoError(t, err)
	assert.NotEmpty(t, png)

	// Strangers may not
	_, err = svc.QRCode(context.Background(), "someone@example.com", "b1")
	assert.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusCode(t, err))

	pending := &models.Booking{
		BookingID: "b2",
		UserEmail: "rider@example.com",
		Status:    models.BookingPending,
	}
	mockDB.On("GetBookingByID", mock.Anything, "b2").Return(pending, nil)

	_, err = svc.QRCode(context.Background(), "rider@example.com", "b2")
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusCode(t, err))
}
