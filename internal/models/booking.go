package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	BookingPending   = "pending"
	BookingAccepted  = "accepted"
	BookingRejected  = "rejected"
	BookingCancelled = "cancelled"
	BookingPaid      = "paid"
)

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	BookingID     string    `bun:"booking_id,pk" json:"booking_id"`
	TicketID      string    `bun:"ticket_id" json:"ticket_id"`
	UserEmail     string    `bun:"user_email" json:"user_email"`
	VendorEmail   string    `bun:"vendor_email" json:"vendor_email"`
	Quantity      int       `bun:"quantity" json:"quantity"`
	Status        string    `bun:"status" json:"status"`
	BookedAt      time.Time `bun:"booked_at" json:"booked_at"`
	AcceptedAt    time.Time `bun:"accepted_at,nullzero" json:"accepted_at,omitempty"`
	RejectedAt    time.Time `bun:"rejected_at,nullzero" json:"rejected_at,omitempty"`
	CancelledAt   time.Time `bun:"cancelled_at,nullzero" json:"cancelled_at,omitempty"`
	PaidAt        time.Time `bun:"paid_at,nullzero" json:"paid_at,omitempty"`
	TransactionID string    `bun:"transaction_id" json:"transaction_id,omitempty"`
}

type BookingRequest struct {
	TicketID string `json:"ticket_id"`
	Quantity int    `json:"quantity"`
}
