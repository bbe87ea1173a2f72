package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/format"
	"github.com/Kerhoff/wishbot/internal/metrics"
	"github.com/Kerhoff/wishbot/internal/models"
	"github.com/Kerhoff/wishbot/internal/repository"
)

// MaxTitleLength bounds item titles, in characters.
const MaxTitleLength = 200

// CategoryChoice is the outcome of picking a category for a draft's item.
type CategoryChoice struct {
	Item     *models.Item
	Category *models.Category
	// Replayed is set when the same choice had already been applied, e.g. on
	// a duplicate delivery of the button press.
	Replayed bool
}

// PriceResult is the outcome of a price change.
type PriceResult struct {
	Item     *models.Item
	Previous decimal.Decimal
	Changed  bool
	Replayed bool
}

// StartDraft opens a new wizard run for the member, discarding any earlier
// draft first. The purge and the insert share a transaction; when a
// concurrent start wins the race the whole step is retried once.
func (s *Service) StartDraft(ctx context.Context, member *models.Member) (*models.Draft, error) {
	householdID, err := requireHousehold(member)
	if err != nil {
		return nil, err
	}

	draft, err := s.replaceDraft(ctx, member, &models.Draft{
		MemberID:    member.ID,
		HouseholdID: householdID,
		Stage:       models.DraftStageAwaitingTitle,
	})
	if err != nil {
		return nil, err
	}

	metrics.WizardTransitions.WithLabelValues(string(models.DraftStageAwaitingTitle)).Inc()
	return draft, nil
}

func (s *Service) replaceDraft(ctx context.Context, member *models.Member, draft *models.Draft) (*models.Draft, error) {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.store.WithinTx(ctx, func(tx repository.Store) error {
			purged, err := tx.Drafts().DeleteByMember(ctx, member.ID)
			if err != nil {
				return err
			}
			if purged > 0 {
				s.logger.WithField("member_id", member.ID).Debug("Discarded stale draft")
			}

			_, err = tx.Drafts().Create(ctx, draft)
			return err
		})
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to start draft for member %d: %w", member.ID, err)
	}
	return draft, nil
}

// OpenDraft returns the member's open draft, or nil.
func (s *Service) OpenDraft(ctx context.Context, member *models.Member) (*models.Draft, error) {
	draft, err := s.store.Drafts().GetByMember(ctx, member.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft for member %d: %w", member.ID, err)
	}
	return draft, nil
}

// DiscardDraft drops the member's open draft. It reports whether there was
// one.
func (s *Service) DiscardDraft(ctx context.Context, member *models.Member) (bool, error) {
	n, err := s.store.Drafts().DeleteByMember(ctx, member.ID)
	if err != nil {
		return false, fmt.Errorf("failed to discard draft for member %d: %w", member.ID, err)
	}
	return n > 0, nil
}

// ValidateTitle trims the title and checks it is usable.
func ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

// SubmitTitle answers the awaiting_title stage: the item is created right
// away and the draft moves to awaiting_category. photoFileID may be empty.
func (s *Service) SubmitTitle(ctx context.Context, member *models.Member, draft *models.Draft, title, photoFileID string) (*models.Item, error) {
	title, err := ValidateTitle(title)
	if err != nil {
		return nil, err
	}
	if draft.Stage != models.DraftStageAwaitingTitle {
		return nil, ErrStaleAction
	}

	var item *models.Item
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		created, err := tx.Items().Create(ctx, &models.Item{
			HouseholdID: draft.HouseholdID,
			Title:       title,
			Price:       decimal.Zero,
			Status:      models.ItemStatusActive,
			CreatedByID: member.ID,
		})
		if err != nil {
			return err
		}
		item = created

		next := *draft
		next.Stage = models.DraftStageAwaitingCategory
		next.Title = title
		next.PhotoFileID = photoFileID
		next.ItemID = &created.ID

		advanced, err := tx.Drafts().Advance(ctx, &next, models.DraftStageAwaitingTitle)
		if err != nil {
			return err
		}
		if !advanced {
			// Another delivery of the same message got here first; the
			// rollback drops the item created above.
			return ErrStaleAction
		}
		*draft = next
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStaleAction) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to submit title for draft %d: %w", draft.ID, err)
	}

	metrics.WizardTransitions.WithLabelValues(string(models.DraftStageAwaitingCategory)).Inc()
	s.logger.WithFields(logrus.Fields{
		"member_id": member.ID,
		"item_id":   item.ID,
	}).Debug("Draft item created")
	return item, nil
}

// ChooseCategory answers the awaiting_category stage for itemID. categoryID
// zero leaves the item uncategorised. On success the staged photo is
// attached, the draft moves to awaiting_price and co-members are told about
// the new item.
func (s *Service) ChooseCategory(ctx context.Context, member *models.Member, itemID, categoryID int64) (*CategoryChoice, error) {
	householdID, err := requireHousehold(member)
	if err != nil {
		return nil, err
	}

	draft, err := s.OpenDraft(ctx, member)
	if err != nil {
		return nil, err
	}
	if draft == nil || !draft.LinkedTo(itemID) || draft.Stage != models.DraftStageAwaitingCategory {
		return s.replayedCategory(ctx, householdID, itemID, categoryID)
	}

	item, err := s.DraftItem(ctx, draft)
	if err != nil {
		return nil, err
	}
	if item.HouseholdID != householdID {
		return nil, ErrForbidden
	}

	category, err := s.householdCategory(ctx, householdID, categoryID)
	if err != nil {
		return nil, err
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		next := *draft
		next.Stage = models.DraftStageAwaitingPrice
		advanced, err := tx.Drafts().Advance(ctx, &next, models.DraftStageAwaitingCategory)
		if err != nil {
			return err
		}
		if !advanced {
			return ErrStaleAction
		}

		item.CategoryID = nil
		if category != nil {
			item.CategoryID = &category.ID
		}
		if err := tx.Items().UpdateCategory(ctx, item.ID, item.CategoryID); err != nil {
			return err
		}

		if draft.PhotoFileID != "" {
			if _, err := tx.Images().Create(ctx, &models.ItemImage{ItemID: item.ID, FileID: draft.PhotoFileID}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStaleAction) {
			return s.replayedCategory(ctx, householdID, itemID, categoryID)
		}
		return nil, fmt.Errorf("failed to set category of item %d: %w", itemID, err)
	}

	metrics.WizardTransitions.WithLabelValues(string(models.DraftStageAwaitingPrice)).Inc()
	s.fanOut(ctx, member, householdID, format.NewItemNotice(member, item, category))

	return &CategoryChoice{Item: item, Category: category}, nil
}

// replayedCategory acknowledges a category press that was already applied.
// Anything else is stale.
func (s *Service) replayedCategory(ctx context.Context, householdID, itemID, categoryID int64) (*CategoryChoice, error) {
	item, err := s.store.Items().GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", itemID, err)
	}
	if item == nil || item.HouseholdID != householdID || item.IsDeleted() || !item.InCategory(categoryID) {
		return nil, ErrStaleAction
	}

	category, err := s.householdCategory(ctx, householdID, categoryID)
	if err != nil {
		return nil, err
	}
	return &CategoryChoice{Item: item, Category: category, Replayed: true}, nil
}

// ManualPrice checks that the member's draft is waiting for a price for
// itemID, so a typed amount will be accepted.
func (s *Service) ManualPrice(ctx context.Context, member *models.Member, itemID int64) (*models.Item, error) {
	draft, err := s.OpenDraft(ctx, member)
	if err != nil {
		return nil, err
	}
	if draft == nil || !draft.LinkedTo(itemID) || draft.Stage != models.DraftStageAwaitingPrice {
		return nil, ErrStaleAction
	}
	return s.DraftItem(ctx, draft)
}

// SubmitPrice answers the awaiting_price stage and consumes the draft.
// Co-members are notified only when the price actually changed.
func (s *Service) SubmitPrice(ctx context.Context, member *models.Member, draft *models.Draft, amount decimal.Decimal) (*PriceResult, error) {
	householdID, err := requireHousehold(member)
	if err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if draft.Stage != models.DraftStageAwaitingPrice {
		return nil, ErrStaleAction
	}

	item, err := s.DraftItem(ctx, draft)
	if err != nil {
		return nil, err
	}
	if item.HouseholdID != householdID {
		return nil, ErrForbidden
	}

	result := &PriceResult{Item: item, Previous: item.Price, Changed: !item.Price.Equal(amount)}
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		consumed, err := tx.Drafts().DeleteAtStage(ctx, draft.ID, models.DraftStageAwaitingPrice)
		if err != nil {
			return err
		}
		if !consumed {
			return ErrStaleAction
		}
		if !result.Changed {
			return nil
		}
		item.Price = amount
		return tx.Items().UpdatePrice(ctx, item.ID, amount)
	})
	if err != nil {
		if errors.Is(err, ErrStaleAction) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to set price of item %d: %w", item.ID, err)
	}

	metrics.WizardTransitions.WithLabelValues("done").Inc()
	if result.Changed {
		s.fanOut(ctx, member, householdID, format.PriceNotice(member, item, result.Previous))
	}
	return result, nil
}

// SubmitPriceForItem handles a price quick-pick button for itemID. A press
// that was already applied is acknowledged without side effects.
func (s *Service) SubmitPriceForItem(ctx context.Context, member *models.Member, itemID int64, amount decimal.Decimal) (*PriceResult, error) {
	householdID, err := requireHousehold(member)
	if err != nil {
		return nil, err
	}

	draft, err := s.OpenDraft(ctx, member)
	if err != nil {
		return nil, err
	}
	if draft != nil && draft.LinkedTo(itemID) && draft.Stage == models.DraftStageAwaitingPrice {
		result, err := s.SubmitPrice(ctx, member, draft, amount)
		if !errors.Is(err, ErrStaleAction) {
			return result, err
		}
	}

	item, err := s.store.Items().GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", itemID, err)
	}
	if item == nil || item.HouseholdID != householdID || item.IsDeleted() || !item.Price.Equal(amount) {
		return nil, ErrStaleAction
	}
	return &PriceResult{Item: item, Previous: item.Price, Replayed: true}, nil
}

// StartPriceEdit opens a draft directly at awaiting_price for an existing
// item, so the price keyboard and typed amounts work the same way as in the
// add flow.
func (s *Service) StartPriceEdit(ctx context.Context, member *models.Member, itemID int64) (*models.Item, error) {
	householdID, err := requireHousehold(member)
	if err != nil {
		return nil, err
	}

	item, err := s.householdItem(ctx, householdID, itemID)
	if err != nil {
		return nil, err
	}
	if item.IsDeleted() {
		return nil, ErrItemDeleted
	}

	if _, err := s.replaceDraft(ctx, member, &models.Draft{
		MemberID:    member.ID,
		HouseholdID: householdID,
		Stage:       models.DraftStageAwaitingPrice,
		Title:       item.Title,
		ItemID:      &item.ID,
	}); err != nil {
		return nil, err
	}

	metrics.WizardTransitions.WithLabelValues(string(models.DraftStageAwaitingPrice)).Inc()
	return item, nil
}

// DraftItem loads the item a post-title draft points at. A draft without a
// usable item is discarded and ErrDraftCorrupted returned.
func (s *Service) DraftItem(ctx context.Context, draft *models.Draft) (*models.Item, error) {
	var item *models.Item
	if !draft.Inconsistent() && draft.ItemID != nil {
		var err error
		item, err = s.store.Items().GetByID(ctx, *draft.ItemID)
		if err != nil {
			return nil, fmt.Errorf("failed to get draft item %d: %w", *draft.ItemID, err)
		}
	}
	if item != nil && !item.IsDeleted() {
		return item, nil
	}

	s.logger.WithFields(logrus.Fields{
		"draft_id":  draft.ID,
		"member_id": draft.MemberID,
		"stage":     draft.Stage,
	}).Warn("Discarding inconsistent draft")
	if err := s.store.Drafts().Delete(ctx, draft.ID); err != nil {
		return nil, fmt.Errorf("failed to discard draft %d: %w", draft.ID, err)
	}
	return nil, ErrDraftCorrupted
}

// householdCategory resolves categoryID within the household; zero means
// no category and yields nil.
func (s *Service) householdCategory(ctx context.Context, householdID, categoryID int64) (*models.Category, error) {
	if categoryID == 0 {
		return nil, nil
	}
	category, err := s.store.Categories().GetByID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get category %d: %w", categoryID, err)
	}
	if category == nil || category.HouseholdID != householdID {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}
