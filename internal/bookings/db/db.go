package db

import (
	"context"
	"errors"

	"github.com/uptrace/bun"

	"ms-marketplace/internal/models"
)

var (
	ErrInsufficientQuantity = errors.New("insufficient ticket quantity")
	ErrDeparted             = errors.New("ticket already departed")
)

type DB struct {
	Bun *bun.DB
}

// CreateBooking validates the referenced ticket and inserts the booking in a
// single transaction: the availability and departure checks hold at commit
// time, not just at read time. The ticket is returned so the caller can fill
// vendor details.
func (d *DB) CreateBooking(ctx context.Context, booking *models.Booking) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().
			Model(&ticket).
			Where("ticket_id = ?", booking.TicketID).
			Limit(1).
			Scan(ctx); err != nil {
			return err
		}

		if ticket.TicketQuantity < booking.Quantity {
			return ErrInsufficientQuantity
		}
		if ticket.DepartureDateTime.Before(booking.BookedAt) {
			return ErrDeparted
		}

		booking.VendorEmail = ticket.VendorEmail
		_, err := tx.NewInsert().Model(booking).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("booking_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (d *DB) ListByUser(ctx context.Context, email string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("user_email = ?", email).
		Order("booked_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (d *DB) ListByVendor(ctx context.Context, email string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("vendor_email = ?", email).
		Order("booked_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// Transition moves a booking from one status to another. The current status
// is part of the WHERE clause, so an illegal or raced transition simply
// matches zero rows.
func (d *DB) Transition(ctx context.Context, id, from, to, timestampCol string) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", to).
		Set("? = CURRENT_TIMESTAMP", bun.Ident(timestampCol)).
		Where("booking_id = ?", id).
		Where("status = ?", from).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
