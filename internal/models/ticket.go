package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

// ValidVerificationStatus reports whether status is a known moderation state.
func ValidVerificationStatus(status string) bool {
	return status == VerificationPending || status == VerificationApproved || status == VerificationRejected
}

// MaxAdvertisedTickets caps how many tickets can sit on the featured list.
const MaxAdvertisedTickets = 6

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	TicketID           string    `bun:"ticket_id,pk" json:"ticket_id"`
	VendorEmail        string    `bun:"vendor_email" json:"vendor_email"`
	Title              string    `bun:"title" json:"title"`
	FromLocation       string    `bun:"from_location" json:"from_location"`
	ToLocation         string    `bun:"to_location" json:"to_location"`
	TransportType      string    `bun:"transport_type" json:"transport_type"`
	Price              float64   `bun:"price" json:"price"`
	TicketQuantity     int       `bun:"ticket_quantity" json:"ticket_quantity"`
	DepartureDateTime  time.Time `bun:"departure_date_time" json:"departure_date_time"`
	VerificationStatus string    `bun:"verification_status" json:"verification_status"`
	IsAdvertised       bool      `bun:"is_advertised" json:"is_advertised"`
	IsHidden           bool      `bun:"is_hidden" json:"is_hidden"`
	Perks              []string  `bun:"perks,array" json:"perks"`
	CreatedAt          time.Time `bun:"created_at" json:"created_at"`
	UpdatedAt          time.Time `bun:"updated_at" json:"updated_at"`
}

// TicketSearch carries the public catalog filters.
type TicketSearch struct {
	From          string
	To            string
	Search        string
	TransportType string
	Sort          string // "price_asc", "price_desc" or "" for newest-first
	Page          int
	Limit         int
}

type TicketPage struct {
	Tickets    []Ticket `json:"tickets"`
	TotalCount int      `json:"total_count"`
	PageCount  int      `json:"page_count"`
	Page       int      `json:"page"`
}

type TicketUpdate struct {
	Title             string    `json:"title"`
	FromLocation      string    `json:"from_location"`
	ToLocation        string    `json:"to_location"`
	TransportType     string    `json:"transport_type"`
	Price             float64   `json:"price"`
	TicketQuantity    int       `json:"ticket_quantity"`
	DepartureDateTime time.Time `json:"departure_date_time"`
	Perks             []string  `json:"perks"`
}
