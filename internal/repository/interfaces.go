package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Kerhoff/wishbot/internal/models"
)

// ErrDuplicate is returned (wrapped) when an insert violates a uniqueness
// constraint enforced by the store.
var ErrDuplicate = errors.New("duplicate record")

// Store bundles the repositories and lets callers group writes into one
// transaction. Repositories obtained from the Store passed to fn share the
// transaction.
type Store interface {
	Households() HouseholdRepository
	Members() MemberRepository
	Categories() CategoryRepository
	Items() ItemRepository
	Images() ItemImageRepository
	Drafts() DraftRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}

// HouseholdRepository defines the interface for household data operations
type HouseholdRepository interface {
	Create(ctx context.Context, household *models.Household) (*models.Household, error)
	GetByID(ctx context.Context, id int64) (*models.Household, error)
	GetByInviteCode(ctx context.Context, code string) (*models.Household, error)
	UpdateBudget(ctx context.Context, id int64, budget decimal.Decimal) error
}

// MemberRepository defines the interface for member data operations
type MemberRepository interface {
	// CreateIfAbsent inserts the member unless one with the same Telegram ID
	// exists. It returns nil when another writer got there first.
	CreateIfAbsent(ctx context.Context, member *models.Member) (*models.Member, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.Member, error)
	GetByID(ctx context.Context, id int64) (*models.Member, error)
	UpdateProfile(ctx context.Context, member *models.Member) (*models.Member, error)
	// SetHousehold attaches the member to a household only if it has none yet.
	SetHousehold(ctx context.Context, memberID, householdID int64) (bool, error)
	ListByHousehold(ctx context.Context, householdID int64) ([]*models.Member, error)
}

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	// CreateDefaults inserts the seeds, skipping slugs the household already has.
	CreateDefaults(ctx context.Context, householdID int64, seeds []models.CategorySeed) error
	CountByHousehold(ctx context.Context, householdID int64) (int, error)
	ListByHousehold(ctx context.Context, householdID int64) ([]*models.Category, error)
	GetByID(ctx context.Context, id int64) (*models.Category, error)
}

// ItemRepository defines the interface for wishlist item operations
type ItemRepository interface {
	Create(ctx context.Context, item *models.Item) (*models.Item, error)
	GetByID(ctx context.Context, id int64) (*models.Item, error)
	List(ctx context.Context, filters ItemFilters) ([]*models.Item, error)
	// The Update* and SetStatus methods write only their own column and
	// refresh updated_at, so concurrent edits of other fields survive.
	UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) error
	UpdateCategory(ctx context.Context, id int64, categoryID *int64) error
	// SetStatus changes the status when the current one is among from (any
	// status when from is empty) and reports whether a row was changed.
	SetStatus(ctx context.Context, id int64, status models.ItemStatus, from ...models.ItemStatus) (bool, error)
	SumActive(ctx context.Context, householdID int64) (decimal.Decimal, error)
}

// ItemImageRepository defines the interface for item image operations
type ItemImageRepository interface {
	Create(ctx context.Context, image *models.ItemImage) (*models.ItemImage, error)
	ListByItem(ctx context.Context, itemID int64) ([]*models.ItemImage, error)
}

// DraftRepository defines the interface for wizard draft operations
type DraftRepository interface {
	Create(ctx context.Context, draft *models.Draft) (*models.Draft, error)
	GetByMember(ctx context.Context, memberID int64) (*models.Draft, error)
	// Advance persists stage, title, photo and item of the draft only if the
	// stored stage still equals from.
	Advance(ctx context.Context, draft *models.Draft, from models.DraftStage) (bool, error)
	DeleteAtStage(ctx context.Context, id int64, stage models.DraftStage) (bool, error)
	Delete(ctx context.Context, id int64) error
	DeleteByMember(ctx context.Context, memberID int64) (int64, error)
}

// ItemFilters represents filters for querying items
type ItemFilters struct {
	HouseholdID int64
	Statuses    []models.ItemStatus
	// CategoryID restricts to one category; a pointer to zero selects
	// uncategorised items.
	CategoryID *int64
	Limit      int
}
