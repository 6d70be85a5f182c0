package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Payment rows are append-only; nothing updates or deletes them.
type Payment struct {
	bun.BaseModel `bun:"table:payments"`

	PaymentID     string    `bun:"payment_id,pk" json:"payment_id"`
	BookingID     string    `bun:"booking_id" json:"booking_id"`
	TicketID      string    `bun:"ticket_id" json:"ticket_id"`
	UserEmail     string    `bun:"user_email" json:"user_email"`
	VendorEmail   string    `bun:"vendor_email" json:"vendor_email"`
	Amount        float64   `bun:"amount" json:"amount"`
	Quantity      int       `bun:"quantity" json:"quantity"`
	TransactionID string    `bun:"transaction_id" json:"transaction_id"`
	PaidAt        time.Time `bun:"paid_at" json:"paid_at"`
}

type PaymentRequest struct {
	BookingID     string `json:"booking_id"`
	TransactionID string `json:"transaction_id"`
}

type PaymentIntentRequest struct {
	Amount float64 `json:"amount"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
}
