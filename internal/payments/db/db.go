package db

import (
	"context"
	"errors"

	"github.com/uptrace/bun"

	"ms-marketplace/internal/models"
)

var (
	ErrNotPayable           = errors.New("booking is not payable")
	ErrInsufficientQuantity = errors.New("insufficient ticket quantity")
)

type DB struct {
	Bun *bun.DB
}

// RecordPayment commits the whole payment effect atomically: the payment row,
// the booking's move to paid and the inventory decrement either all land or
// none do. The decrement carries its own floor guard, so inventory can never
// go negative even under concurrent payments.
func (d *DB) RecordPayment(ctx context.Context, payment *models.Payment) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(payment).Exec(ctx); err != nil {
			return err
		}

		res, err := tx.NewUpdate().
			Model((*models.Booking)(nil)).
			Set("status = ?", models.BookingPaid).
			Set("paid_at = ?", payment.PaidAt).
			Set("transaction_id = ?", payment.TransactionID).
			Where("booking_id = ?", payment.BookingID).
			Where("status IN (?)", bun.In([]string{models.BookingPending, models.BookingAccepted})).
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotPayable
		}

		res, err = tx.NewUpdate().
			Model((*models.Ticket)(nil)).
			Set("ticket_quantity = ticket_quantity - ?", payment.Quantity).
			Where("ticket_id = ?", payment.TicketID).
			Where("ticket_quantity >= ?", payment.Quantity).
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err = res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrInsufficientQuantity
		}
		return nil
	})
}

func (d *DB) ListByUser(ctx context.Context, email string) ([]models.Payment, error) {
	var payments []models.Payment
	err := d.Bun.NewSelect().
		Model(&payments).
		Where("user_email = ?", email).
		Order("paid_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (d *DB) ListAll(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	err := d.Bun.NewSelect().
		Model(&payments).
		Order("paid_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return payments, nil
}
