package qr

import (
	"encoding/json"

	qrcode "github.com/skip2/go-qrcode"

	"ms-marketplace/internal/models"
)

type reference struct {
	BookingID     string `json:"booking_id"`
	TicketID      string `json:"ticket_id"`
	TransactionID string `json:"transaction_id"`
}

// Encode renders the booking reference as a 256x256 PNG. The payload is a
// public reference, nothing in it is secret.
func Encode(booking models.Booking) ([]byte, error) {
	payload, err := json.Marshal(reference{
		BookingID:     booking.BookingID,
		TicketID:      booking.TicketID,
		TransactionID: booking.TransactionID,
	})
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(string(payload), qrcode.Medium, 256)
}
