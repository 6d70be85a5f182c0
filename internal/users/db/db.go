package db

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"

	"ms-marketplace/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// CreateUser inserts a user unless the email is already registered. Sign-in
// calls this on every first request, so the conflict path is the common one.
func (d *DB) CreateUser(ctx context.Context, user models.User) (bool, error) {
	res, err := d.Bun.NewInsert().
		Model(&user).
		On("CONFLICT (email) DO NOTHING").
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

func (d *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("user_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := d.Bun.NewSelect().
		Model(&users).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateProfile writes only the fields carried in the update, so a partial
// PATCH body does not blank the rest of the profile.
func (d *DB) UpdateProfile(ctx context.Context, email string, update models.UserProfileUpdate) error {
	q := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Where("email = ?", email)

	changed := false
	if update.Name != nil {
		q = q.Set("name = ?", *update.Name)
		changed = true
	}
	if update.Phone != nil {
		q = q.Set("phone = ?", *update.Phone)
		changed = true
	}
	if update.Photo != nil {
		q = q.Set("photo = ?", *update.Photo)
		changed = true
	}
	if update.Address != nil {
		q = q.Set("address = ?", *update.Address)
		changed = true
	}
	if !changed {
		return nil
	}

	_, err := q.Set("updated_at = CURRENT_TIMESTAMP").Exec(ctx)
	return err
}

func (d *DB) UpdateRole(ctx context.Context, id, role string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("role = ?", role).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("user_id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRows(res)
}

// MarkFraud flags the user and hides their whole catalog in one transaction,
// so no request window sees a flagged vendor with visible tickets.
func (d *DB) MarkFraud(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().
			Model(&user).
			Where("user_id = ?", id).
			Limit(1).
			Scan(ctx); err != nil {
			return err
		}

		if _, err := tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("is_fraud = ?", true).
			Set("updated_at = CURRENT_TIMESTAMP").
			Where("user_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewUpdate().
			Model((*models.Ticket)(nil)).
			Set("is_hidden = ?", true).
			Where("vendor_email = ?", user.Email).
			Exec(ctx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	user.IsFraud = true
	return &user, nil
}

func (d *DB) DeleteUser(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.User)(nil)).
		Where("user_id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func requireRows(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
