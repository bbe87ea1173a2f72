package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemStatus represents the lifecycle state of a wishlist item
type ItemStatus string

const (
	ItemStatusActive  ItemStatus = "active"
	ItemStatusDone    ItemStatus = "done"
	ItemStatusDeleted ItemStatus = "deleted"
)

// Item represents an entry of the household wishlist
type Item struct {
	ID          int64           `json:"id" db:"id"`
	HouseholdID int64           `json:"household_id" db:"household_id"`
	CategoryID  *int64          `json:"category_id" db:"category_id"`
	Title       string          `json:"title" db:"title"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Status      ItemStatus      `json:"status" db:"status"`
	CreatedByID int64           `json:"created_by_id" db:"created_by_id"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// IsActive returns true if the item is still wanted
func (i *Item) IsActive() bool {
	return i.Status == ItemStatusActive
}

// IsDone returns true if the item has been bought
func (i *Item) IsDone() bool {
	return i.Status == ItemStatusDone
}

// IsDeleted returns true if the item was soft-deleted
func (i *Item) IsDeleted() bool {
	return i.Status == ItemStatusDeleted
}

// InCategory reports whether the item belongs to the category; zero means
// "no category".
func (i *Item) InCategory(categoryID int64) bool {
	if i.CategoryID == nil {
		return categoryID == 0
	}
	return *i.CategoryID == categoryID
}

// ItemImage is a photo attached to an item. FileID is the opaque Telegram
// file handle.
type ItemImage struct {
	ID        int64     `json:"id" db:"id"`
	ItemID    int64     `json:"item_id" db:"item_id"`
	FileID    string    `json:"file_id" db:"file_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
