package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Household is the shared unit owning one wishlist, one budget and one set of
// categories. Members join it with its invite code.
type Household struct {
	ID         int64           `json:"id" db:"id"`
	Name       string          `json:"name" db:"name"`
	Budget     decimal.Decimal `json:"budget" db:"budget"`
	InviteCode string          `json:"invite_code" db:"invite_code"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}
