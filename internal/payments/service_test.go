package payments_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ms-marketplace/internal/errs"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
	"ms-marketplace/internal/payments"
	paymentdb "ms-marketplace/internal/payments/db"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) RecordPayment(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockDBLayer) ListByUser(ctx context.Context, email string) ([]models.Payment, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payment), args.Error(1)
}

func (m *MockDBLayer) ListAll(ctx context.Context) ([]models.Payment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payment), args.Error(1)
}

type MockBookingStore struct {
	mock.Mock
}

func (m *MockBookingStore) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

type MockTicketStore struct {
	mock.Mock
}

func (m *MockTicketStore) GetTicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreatePaymentIntent(amount float64) (string, error) {
	args := m.Called(amount)
	return args.String(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishPaymentRecorded(payment models.Payment) error {
	args := m.Called(payment)
	return args.Error(0)
}

type mocks struct {
	db       *MockDBLayer
	bookings *MockBookingStore
	tickets  *MockTicketStore
	gateway  *MockGateway
	events   *MockPublisher
}

func newService() (*payments.PaymentService, mocks) {
	m := mocks{
		db:       new(MockDBLayer),
		bookings: new(MockBookingStore),
		tickets:  new(MockTicketStore),
		gateway:  new(MockGateway),
		events:   new(MockPublisher),
	}
	svc := payments.NewPaymentService(m.db, m.bookings, m.tickets, m.gateway, m.events, logger.NewLogger())
	return svc, m
}

func statusCode(t *testing.T, err error) int {
	var e *errs.Error
	if !assert.ErrorAs(t, err, &e) {
		return 0
	}
	return e.StatusCode()
}

// Tests start here
func TestCreateIntent(t *testing.T) {
	svc, m := newService()

	m.gateway.On("CreatePaymentIntent", 40.0).Return("pi_secret_123", nil)

	resp, err := svc.CreateIntent(context.Background(), models.PaymentIntentRequest{Amount: 40.0})
	assert.NoError(t, err)
	assert.Equal(t, "pi_secret_123", resp.ClientSecret)

	// Non-positive amounts never reach the gateway
	_, err = svc.CreateIntent(context.Background(), models.PaymentIntentRequest{Amount: 0})
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusCode(t, err))

	m.gateway.AssertNumberOfCalls(t, "CreatePaymentIntent", 1)
}

func TestRecordPayment(t *testing.T) {
	svc, m := newService()

	booking := &models.Booking{
		BookingID:   "b1",
		TicketID:    "t1",
		UserEmail:   "rider@example.com",
		VendorEmail: "vendor@example.com",
		Quantity:    5,
		Status:      models.BookingPending,
	}
	ticket := &models.Ticket{TicketID: "t1", Price: 8.0, TicketQuantity: 40}

	m.bookings.On("GetBookingByID", mock.Anything, "b1").Return(booking, nil)
	m.tickets.On("GetTicketByID", mock.Anything, "t1").Return(ticket, nil)
	m.db.On("RecordPayment", mock.Anything, mock.Anything).Return(nil)
	m.events.On("PublishPaymentRecorded", mock.Anything).Return(nil)

	payment, err := svc.Record(context.Background(), "rider@example.com",
		models.PaymentRequest{BookingID: "b1", TransactionID: "txn_123"})
	assert.NoError(t, err)
	// The amount is computed server-side from price and quantity
	assert.Equal(t, 40.0, payment.Amount)
	assert.Equal(t, 5, payment.Quantity)
	assert.Equal(t, "txn_123", payment.TransactionID)
	assert.Equal(t, "vendor@example.com", payment.VendorEmail)

	m.db.AssertExpectations(t)
	m.events.AssertExpectations(t)
}

func TestRecordPaymentWrongUser(t *testing.T) {
	svc, m := newService()

	booking := &models.Booking{
		BookingID: "b1",
		UserEmail: "rider@example.com",
		Status:    models.BookingPending,
	}
	m.bookings.On("GetBookingByID", mock.Anything, "b1").Return(booking, nil)

	_, err := svc.Record(context.Background(), "someone@example.com",
		models.PaymentRequest{BookingID: "b1", TransactionID: "txn_123"})
	assert.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusCode(t, err))

	m.db.AssertNotCalled(t, "RecordPayment", mock.Anything, mock.Anything)
}

func TestRecordPaymentErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		dbErr      error
		wantStatus int
	}{
		{"not payable", paymentdb.ErrNotPayable, http.StatusBadRequest},
		{"insufficient quantity", paymentdb.ErrInsufficientQuantity, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, m := newService()

			booking := &models.Booking{
				BookingID: "b1",
				TicketID:  "t1",
				UserEmail: "rider@example.com",
				Quantity:  2,
				Status:    models.BookingCancelled,
			}
			m.bookings.On("GetBookingByID", mock.Anything, "b1").Return(booking, nil)
			m.tickets.On("GetTicketByID", mock.Anything, "t1").
				Return(&models.Ticket{TicketID: "t1", Price: 8.0}, nil)
			m.db.On("RecordPayment", mock.Anything, mock.Anything).Return(tc.dbErr)

			_, err := svc.Record(context.Background(), "rider@example.com",
				models.PaymentRequest{BookingID: "b1", TransactionID: "txn_123"})
			assert.Error(t, err)
			assert.Equal(t, tc.wantStatus, statusCode(t, err))

			m.events.AssertNotCalled(t, "PublishPaymentRecorded", mock.Anything)
		})
	}
}

func TestListForUserSelfOnly(t *testing.T) {
	svc, m := newService()

	m.db.On("ListByUser", mock.Anything, "rider@example.com").
		Return([]models.Payment{{PaymentID: "p1"}}, nil)

	list, err := svc.ListForUser(context.Background(), "rider@example.com", "rider@example.com")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(list))

	_, err = svc.ListForUser(context.Background(), "rider@example.com", "someone@example.com")
	assert.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusCode(t, err))
}
