package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RoleUser   = "user"
	RoleVendor = "vendor"
	RoleAdmin  = "admin"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleVendor || role == RoleAdmin
}

type User struct {
	bun.BaseModel `bun:"table:users"`

	UserID    string    `bun:"user_id,pk" json:"user_id"`
	Email     string    `bun:"email,unique" json:"email"`
	Name      string    `bun:"name" json:"name"`
	Role      string    `bun:"role" json:"role"`
	Phone     string    `bun:"phone" json:"phone"`
	Photo     string    `bun:"photo" json:"photo"`
	Address   string    `bun:"address" json:"address"`
	IsFraud   bool      `bun:"is_fraud" json:"is_fraud"`
	CreatedAt time.Time `bun:"created_at" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at" json:"updated_at"`
}

// UserProfileUpdate carries only the fields present in the request body;
// absent fields keep their stored values.
type UserProfileUpdate struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Photo   *string `json:"photo"`
	Address *string `json:"address"`
}

type TokenRequest struct {
	Email string `json:"email"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
