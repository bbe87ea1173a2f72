package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/format"
	"github.com/Kerhoff/wishbot/internal/models"
	"github.com/Kerhoff/wishbot/internal/repository"
)

// List filters accepted by ListItems besides category slugs and names.
const (
	FilterAll    = "all"
	FilterActive = "active"
	FilterDone   = "done"
)

var visibleStatuses = []models.ItemStatus{models.ItemStatusActive, models.ItemStatusDone}

// ItemList is a filtered view of the household wishlist.
type ItemList struct {
	Title      string
	Items      []*models.Item
	Categories []*models.Category
}

// BudgetReport compares the household budget with the active wishes.
type BudgetReport struct {
	Ceiling   decimal.Decimal
	Spent     decimal.Decimal
	Remaining decimal.Decimal
}

// QuickAdd creates an uncategorised item in one step (/add <text>).
func (s *Service) QuickAdd(ctx context.Context, member *models.Member, title, photoFileID string) (*models.Item, error) {
	householdID, err := requireHousehold(member)
	if err != nil {
		return nil, err
	}
	title, err = ValidateTitle(title)
	if err != nil {
		return nil, err
	}

	var item *models.Item
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		created, err := tx.Items().Create(ctx, &models.Item{
			HouseholdID: householdID,
			Title:       title,
			Price:       decimal.Zero,
			Status:      models.ItemStatusActive,
			CreatedByID: member.ID,
		})
		if err != nil {
			return err
		}
		item = created

		if photoFileID != "" {
			if _, err := tx.Images().Create(ctx, &models.ItemImage{ItemID: created.ID, FileID: photoFileID}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add item for member %d: %w", member.ID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"household_id": householdID,
		"item_id":      item.ID,
	}).Info("Item added")
	s.fanOut(ctx, member, householdID, format.NewItemNotice(member, item, nil))
	return item, nil
}

// ListItems returns the household items matching filter: empty or "all"
// (everything not deleted), "active", "done", or a category slug or name.
func (s *Service) ListItems(ctx context.Context, member *models.Member, filter string) (*ItemList, error) {
	householdID, err := requireHousehold(member)
	if err != nil {
		return nil, err
	}

	categories, err := s.Categories(ctx, member)
	if err != nil {
		return nil, err
	}

	list := &ItemList{Categories: categories}
	filters := repository.ItemFilters{HouseholdID: householdID}

	switch key := strings.ToLower(strings.TrimSpace(filter)); key {
	case "", FilterAll:
		list.Title = "Список желаний"
		filters.Statuses = visibleStatuses
	case FilterActive:
		list.Title = "Ещё не куплено"
		filters.Statuses = []models.ItemStatus{models.ItemStatusActive}
	case FilterDone:
		list.Title = "Куплено"
		filters.Statuses = []models.ItemStatus{models.ItemStatusDone}
	default:
		category := matchCategory(categories, key)
		if category == nil {
			return nil, ErrUnknownFilter
		}
		list.Title = category.Name
		filters.Statuses = visibleStatuses
		filters.CategoryID = &category.ID
	}

	list.Items, err = s.store.Items().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list items of household %d: %w", householdID, err)
	}
	return list, nil
}

func matchCategory(categories []*models.Category, key string) *models.Category {
	for _, c := range categories {
		if c.Slug == key || strings.ToLower(c.Name) == key {
			return c
		}
	}
	return nil
}

// ItemsInCategory lists the visible items of one category; zero selects
// uncategorised items.
func (s *Service) ItemsInCategory(ctx context.Context, member *models.Member, categoryID int64) (*ItemList, error) {
	householdID, err := requireHousehold(member)
	if err != nil {
		return nil, err
	}

	category, err := s.householdCategory(ctx, householdID, categoryID)
	if err != nil {
		return nil, err
	}

	list := &ItemList{Title: format.NoCategory}
	if category != nil {
		list.Title = category.Name
		list.Categories = []*models.Category{category}
	}

	list.Items, err = s.store.Items().List(ctx, repository.ItemFilters{
		HouseholdID: householdID,
		Statuses:    visibleStatuses,
		CategoryID:  &categoryID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list items of category %d: %w", categoryID, err)
	}
	return list, nil
}

// Item returns one item of the member's household with its category.
func (s *Service) Item(ctx context.Context, member *models.Member, itemID int64) (*models.Item, *models.Category, error) {
	householdID, err := requireHousehold(member)
	if err != nil {
		return nil, nil, err
	}
	item, err := s.householdItem(ctx, householdID, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item.IsDeleted() {
		return nil, nil, ErrItemDeleted
	}

	var category *models.Category
	if item.CategoryID != nil {
		category, err = s.store.Categories().GetByID(ctx, *item.CategoryID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get category %d: %w", *item.CategoryID, err)
		}
	}
	return item, category, nil
}

// ItemImages returns the photos attached to an item of the member's
// household.
func (s *Service) ItemImages(ctx context.Context, member *models.Member, itemID int64) ([]*models.ItemImage, error) {
	householdID, err := requireHousehold(member)
	if err != nil {
		return nil, err
	}
	if _, err := s.householdItem(ctx, householdID, itemID); err != nil {
		return nil, err
	}

	images, err := s.store.Images().ListByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images of item %d: %w", itemID, err)
	}
	return images, nil
}

// ToggleStatus flips an item between active and done. No one is notified.
func (s *Service) ToggleStatus(ctx context.Context, member *models.Member, itemID int64) (*models.Item, error) {
	householdID, err := requireHousehold(member)
	if err != nil {
		return nil, err
	}

	item, err := s.householdItem(ctx, householdID, itemID)
	if err != nil {
		return nil, err
	}

	from := item.Status
	switch from {
	case models.ItemStatusActive:
		item.Status = models.ItemStatusDone
	case models.ItemStatusDone:
		item.Status = models.ItemStatusActive
	default:
		return nil, ErrItemDeleted
	}

	changed, err := s.store.Items().SetStatus(ctx, item.ID, item.Status, from)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle item %d: %w", itemID, err)
	}
	if !changed {
		// Someone else toggled or deleted the item since it was read.
		return nil, ErrStaleAction
	}
	return item, nil
}

// DeleteItem soft-deletes an item. Deleting twice is not an error.
func (s *Service) DeleteItem(ctx context.Context, member *models.Member, itemID int64) (*models.Item, error) {
	householdID, err := requireHousehold(member)
	if err != nil {
		return nil, err
	}

	item, err := s.householdItem(ctx, householdID, itemID)
	if err != nil {
		return nil, err
	}
	if item.IsDeleted() {
		return item, nil
	}

	changed, err := s.store.Items().SetStatus(ctx, item.ID, models.ItemStatusDeleted, models.ItemStatusActive, models.ItemStatusDone)
	if err != nil {
		return nil, fmt.Errorf("failed to delete item %d: %w", itemID, err)
	}
	item.Status = models.ItemStatusDeleted
	if !changed {
		return item, nil
	}

	s.logger.WithFields(logrus.Fields{
		"household_id": householdID,
		"item_id":      itemID,
		"member_id":    member.ID,
	}).Info("Item deleted")
	return item, nil
}

// SetPrice changes the price of an item outside the wizard (/setprice).
// Co-members are notified when the price changes, as in the wizard.
func (s *Service) SetPrice(ctx context.Context, member *models.Member, itemID int64, amount decimal.Decimal) (*PriceResult, error) {
	householdID, err := requireHousehold(member)
	if err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, ErrInvalidPrice
	}

	item, err := s.householdItem(ctx, householdID, itemID)
	if err != nil {
		return nil, err
	}
	if item.IsDeleted() {
		return nil, ErrItemDeleted
	}

	result := &PriceResult{Item: item, Previous: item.Price, Changed: !item.Price.Equal(amount)}
	if !result.Changed {
		return result, nil
	}

	if err := s.store.Items().UpdatePrice(ctx, item.ID, amount); err != nil {
		return nil, fmt.Errorf("failed to set price of item %d: %w", itemID, err)
	}
	item.Price = amount

	s.fanOut(ctx, member, householdID, format.PriceNotice(member, item, result.Previous))
	return result, nil
}

// Budget reports the household budget against the sum of active items.
func (s *Service) Budget(ctx context.Context, member *models.Member) (*BudgetReport, error) {
	household, err := s.Household(ctx, member)
	if err != nil {
		return nil, err
	}

	spent, err := s.store.Items().SumActive(ctx, household.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum items of household %d: %w", household.ID, err)
	}

	return &BudgetReport{
		Ceiling:   household.Budget,
		Spent:     spent,
		Remaining: household.Budget.Sub(spent),
	}, nil
}

// SetBudget sets the household budget ceiling and returns the new report.
func (s *Service) SetBudget(ctx context.Context, member *models.Member, amount decimal.Decimal) (*BudgetReport, error) {
	householdID, err := requireHousehold(member)
	if err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, ErrInvalidPrice
	}

	if err := s.store.Households().UpdateBudget(ctx, householdID, amount); err != nil {
		return nil, fmt.Errorf("failed to set budget of household %d: %w", householdID, err)
	}
	s.logger.WithField("household_id", householdID).Infof("Budget set to %s", amount)

	return s.Budget(ctx, member)
}

func (s *Service) householdItem(ctx context.Context, householdID, itemID int64) (*models.Item, error) {
	item, err := s.store.Items().GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", itemID, err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if item.HouseholdID != householdID {
		return nil, ErrForbidden
	}
	return item, nil
}
