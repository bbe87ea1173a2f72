package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/format"
	"github.com/Kerhoff/wishbot/internal/models"
	"github.com/Kerhoff/wishbot/internal/repository"
)

const maxHouseholdNameLength = 64

// ResolveMember retrieves the member for a Telegram user, creating it on
// first contact. Profile fields are refreshed when they changed. Concurrent
// first contacts converge on one row through the store's uniqueness
// constraint.
func (s *Service) ResolveMember(ctx context.Context, telegramID int64, username, firstName, lastName string) (*models.Member, error) {
	username = strings.TrimSpace(username)
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	member, err := s.store.Members().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup member (telegram_id=%d): %w", telegramID, err)
	}

	if member == nil {
		created, err := s.store.Members().CreateIfAbsent(ctx, &models.Member{
			TelegramID:       telegramID,
			TelegramUsername: username,
			FirstName:        firstName,
			LastName:         lastName,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create member (telegram_id=%d): %w", telegramID, err)
		}
		if created != nil {
			s.logger.WithFields(logrus.Fields{
				"member_id":   created.ID,
				"telegram_id": telegramID,
			}).Infof("Created new member: %s", created.DisplayName())
			return created, nil
		}

		// Lost the insert race; the winner's row is authoritative.
		member, err = s.store.Members().GetByTelegramID(ctx, telegramID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload member (telegram_id=%d): %w", telegramID, err)
		}
		if member == nil {
			return nil, fmt.Errorf("member %d vanished after conflicting insert", telegramID)
		}
	}

	if member.TelegramUsername != username || member.FirstName != firstName || member.LastName != lastName {
		member.TelegramUsername = username
		member.FirstName = firstName
		member.LastName = lastName
		member, err = s.store.Members().UpdateProfile(ctx, member)
		if err != nil {
			return nil, fmt.Errorf("failed to update member %d: %w", telegramID, err)
		}
		s.logger.WithField("member_id", member.ID).Debugf("Updated member profile: %s", member.DisplayName())
	}

	return member, nil
}

// CreateHousehold creates a household owned by the member, attaches the
// member and seeds the default categories in one transaction.
func (s *Service) CreateHousehold(ctx context.Context, member *models.Member, name string) (*models.Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyHouseholdName
	}
	if utf8.RuneCountInString(name) > maxHouseholdNameLength {
		name = string([]rune(name)[:maxHouseholdNameLength])
	}
	if member.HasHousehold() {
		return nil, ErrAlreadyInHousehold
	}

	for attempt := 1; attempt <= inviteCodeAttempts; attempt++ {
		code, err := s.codeGen()
		if err != nil {
			return nil, fmt.Errorf("failed to generate invite code: %w", err)
		}

		var household *models.Household
		err = s.store.WithinTx(ctx, func(tx repository.Store) error {
			created, err := tx.Households().Create(ctx, &models.Household{Name: name, InviteCode: code})
			if err != nil {
				return err
			}
			household = created

			attached, err := tx.Members().SetHousehold(ctx, member.ID, household.ID)
			if err != nil {
				return err
			}
			if !attached {
				return ErrAlreadyInHousehold
			}

			return ensureCategories(ctx, tx, household.ID)
		})
		if errors.Is(err, repository.ErrDuplicate) {
			s.logger.WithField("attempt", attempt).Debug("Invite code collision, retrying")
			continue
		}
		if err != nil {
			if errors.Is(err, ErrAlreadyInHousehold) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to create household for member %d: %w", member.ID, err)
		}

		member.HouseholdID = &household.ID
		s.logger.WithFields(logrus.Fields{
			"household_id": household.ID,
			"member_id":    member.ID,
		}).Infof("Created household %q", household.Name)
		return household, nil
	}

	return nil, errInviteCodeExhausted
}

// JoinHousehold attaches the member to the household with the given invite
// code. A wrong code never touches the member.
func (s *Service) JoinHousehold(ctx context.Context, member *models.Member, code string) (*models.Household, error) {
	if member.HasHousehold() {
		return nil, ErrAlreadyInHousehold
	}

	code = NormalizeInviteCode(code)
	if code == "" {
		return nil, ErrInvalidInviteCode
	}

	household, err := s.store.Households().GetByInviteCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup invite code: %w", err)
	}
	if household == nil {
		return nil, ErrInvalidInviteCode
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		attached, err := tx.Members().SetHousehold(ctx, member.ID, household.ID)
		if err != nil {
			return err
		}
		if !attached {
			return ErrAlreadyInHousehold
		}
		return ensureCategories(ctx, tx, household.ID)
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyInHousehold) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to join household %d: %w", household.ID, err)
	}

	member.HouseholdID = &household.ID
	s.logger.WithFields(logrus.Fields{
		"household_id": household.ID,
		"member_id":    member.ID,
	}).Info("Member joined household")

	s.fanOut(ctx, member, household.ID, format.JoinNotice(member, household))
	return household, nil
}

// CoMembers lists the household members except the one with the given
// Telegram ID.
func (s *Service) CoMembers(ctx context.Context, householdID, excludingTelegramID int64) ([]*models.Member, error) {
	members, err := s.store.Members().ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of household %d: %w", householdID, err)
	}

	others := members[:0]
	for _, m := range members {
		if m.TelegramID != excludingTelegramID {
			others = append(others, m)
		}
	}
	return others, nil
}

// Household returns the member's household.
func (s *Service) Household(ctx context.Context, member *models.Member) (*models.Household, error) {
	householdID, err := requireHousehold(member)
	if err != nil {
		return nil, err
	}

	household, err := s.store.Households().GetByID(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to get household %d: %w", householdID, err)
	}
	if household == nil {
		return nil, fmt.Errorf("household %d of member %d not found", householdID, member.ID)
	}
	return household, nil
}

// EnsureCategories seeds the default categories unless the household
// already has some.
func (s *Service) EnsureCategories(ctx context.Context, householdID int64) error {
	return ensureCategories(ctx, s.store, householdID)
}

func ensureCategories(ctx context.Context, store repository.Store, householdID int64) error {
	n, err := store.Categories().CountByHousehold(ctx, householdID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return store.Categories().CreateDefaults(ctx, householdID, models.DefaultCategories)
}

// Categories lists the member's household categories, seeding them on
// first need.
func (s *Service) Categories(ctx context.Context, member *models.Member) ([]*models.Category, error) {
	householdID, err := requireHousehold(member)
	if err != nil {
		return nil, err
	}

	if err := s.EnsureCategories(ctx, householdID); err != nil {
		return nil, fmt.Errorf("failed to seed categories for household %d: %w", householdID, err)
	}

	categories, err := s.store.Categories().ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories for household %d: %w", householdID, err)
	}
	return categories, nil
}

func requireHousehold(member *models.Member) (int64, error) {
	if member == nil || member.HouseholdID == nil {
		return 0, ErrNoHousehold
	}
	return *member.HouseholdID, nil
}
