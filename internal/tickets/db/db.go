package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/uptrace/bun"

	"ms-marketplace/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateTicket(ctx context.Context, ticket models.Ticket) error {
	_, err := d.Bun.NewInsert().Model(&ticket).Exec(ctx)
	return err
}

func (d *DB) GetTicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("ticket_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// visible restricts a query to what the public catalog may show.
func visible(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		Where("verification_status = ?", models.VerificationApproved).
		Where("is_hidden = ?", false)
}

// SearchPublic runs the catalog search: visibility rules always apply, the
// filters compose independently, and the page is returned with the total
// match count.
func (d *DB) SearchPublic(ctx context.Context, search models.TicketSearch) ([]models.Ticket, int, error) {
	var tickets []models.Ticket

	q := visible(d.Bun.NewSelect().Model(&tickets))

	if search.From != "" {
		q = q.Where("LOWER(from_location) LIKE ?", "%"+strings.ToLower(search.From)+"%")
	}
	if search.To != "" {
		q = q.Where("LOWER(to_location) LIKE ?", "%"+strings.ToLower(search.To)+"%")
	}
	if search.Search != "" {
		term := "%" + strings.ToLower(search.Search) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("LOWER(from_location) LIKE ?", term).
				WhereOr("LOWER(to_location) LIKE ?", term).
				WhereOr("LOWER(title) LIKE ?", term)
		})
	}
	if search.TransportType != "" {
		q = q.Where("transport_type = ?", search.TransportType)
	}

	switch search.Sort {
	case "price_asc":
		q = q.Order("price ASC")
	case "price_desc":
		q = q.Order("price DESC")
	default:
		q = q.Order("created_at DESC")
	}

	count, err := q.
		Offset(search.Page * search.Limit).
		Limit(search.Limit).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return tickets, count, nil
}

func (d *DB) ListAdvertised(ctx context.Context) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := visible(d.Bun.NewSelect().Model(&tickets)).
		Where("is_advertised = ?", true).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (d *DB) ListLatest(ctx context.Context, limit int) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := visible(d.Bun.NewSelect().Model(&tickets)).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (d *DB) ListByVendor(ctx context.Context, email string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("vendor_email = ?", email).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (d *DB) ListAll(ctx context.Context) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// UpdateTicket writes the vendor-editable columns of ticket.
func (d *DB) UpdateTicket(ctx context.Context, ticket models.Ticket) error {
	_, err := d.Bun.NewUpdate().
		Model(&ticket).
		Column("title", "from_location", "to_location", "transport_type",
			"price", "ticket_quantity", "departure_date_time", "perks", "updated_at").
		Where("ticket_id = ?", ticket.TicketID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteTicket(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Ticket)(nil)).
		Where("ticket_id = ?", id).
		Exec(ctx)
	return err
}

// DeleteTicketCascade removes the ticket and its bookings together.
func (d *DB) DeleteTicketCascade(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.Booking)(nil)).
			Where("ticket_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().
			Model((*models.Ticket)(nil)).
			Where("ticket_id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

func (d *DB) SetVerificationStatus(ctx context.Context, id, status string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("verification_status = ?", status).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("ticket_id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AdvertiseTicket turns the advertised flag on with the cap checked in the
// same UPDATE. The count excludes the target row, so re-advertising an
// already-featured ticket stays a no-op even at the cap. The guard is
// per-statement only; under READ COMMITTED two concurrent commits can each
// read a count below the limit. Returns false when the cap blocked the
// update.
func (d *DB) AdvertiseTicket(ctx context.Context, id string) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("is_advertised = ?", true).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("ticket_id = ?", id).
		Where("(SELECT COUNT(*) FROM tickets WHERE is_advertised = ? AND ticket_id <> ?) < ?",
			true, id, models.MaxAdvertisedTickets).
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

func (d *DB) UnadvertiseTicket(ctx context.Context, id string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("is_advertised = ?", false).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("ticket_id = ?", id).
		Exec(ctx)
	return err
}

