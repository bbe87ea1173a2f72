package models

import "time"

// DraftStage is the step of the item-entry wizard a draft is waiting on
type DraftStage string

const (
	DraftStageAwaitingTitle    DraftStage = "awaiting_title"
	DraftStageAwaitingCategory DraftStage = "awaiting_category"
	DraftStageAwaitingPrice    DraftStage = "awaiting_price"
)

// Draft is the persisted working memory of one member's wizard run. A member
// has at most one draft at a time.
type Draft struct {
	ID          int64      `json:"id" db:"id"`
	MemberID    int64      `json:"member_id" db:"member_id"`
	HouseholdID int64      `json:"household_id" db:"household_id"`
	Stage       DraftStage `json:"stage" db:"stage"`
	Title       string     `json:"title" db:"title"`
	PhotoFileID string     `json:"photo_file_id" db:"photo_file_id"`
	ItemID      *int64     `json:"item_id" db:"item_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// LinkedTo reports whether the draft already points at the given item.
func (d *Draft) LinkedTo(itemID int64) bool {
	return d.ItemID != nil && *d.ItemID == itemID
}

// Inconsistent reports a draft that claims a post-title stage but has no item.
func (d *Draft) Inconsistent() bool {
	return d.Stage != DraftStageAwaitingTitle && d.ItemID == nil
}
