// Package sqlstoretest opens throwaway migrated stores for tests.
package sqlstoretest

import (
	"context"
	"testing"

	"github.com/Kerhoff/wishbot/internal/config"
	"github.com/Kerhoff/wishbot/internal/models"
	"github.com/Kerhoff/wishbot/internal/repository/sqlstore"
	"github.com/Kerhoff/wishbot/pkg/logger"
)

// Open returns a store over a fresh in-memory sqlite database with all
// migrations applied. The database is closed when the test ends.
func Open(t testing.TB) *sqlstore.Store {
	t.Helper()

	db, err := config.NewDatabase(config.DriverSQLite, ":memory:", logger.Discard())
	if err != nil {
		t.Fatal("Failed to open test database:", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatal("Failed to run migrations:", err)
	}

	return sqlstore.New(db.DB)
}

// Member inserts a member with the given Telegram ID.
func Member(t testing.TB, store *sqlstore.Store, telegramID int64, firstName string) *models.Member {
	t.Helper()

	m, err := store.Members().CreateIfAbsent(context.Background(), &models.Member{
		TelegramID: telegramID,
		FirstName:  firstName,
	})
	if err != nil || m == nil {
		t.Fatalf("Failed to create member %d: %v", telegramID, err)
	}
	return m
}

// Household creates a household, attaches the members to it and seeds the
// default categories.
func Household(t testing.TB, store *sqlstore.Store, code string, members ...*models.Member) *models.Household {
	t.Helper()
	ctx := context.Background()

	h, err := store.Households().Create(ctx, &models.Household{Name: "Home", InviteCode: code})
	if err != nil {
		t.Fatal("Failed to create household:", err)
	}
	if err := store.Categories().CreateDefaults(ctx, h.ID, models.DefaultCategories); err != nil {
		t.Fatal("Failed to seed categories:", err)
	}
	for _, m := range members {
		if _, err := store.Members().SetHousehold(ctx, m.ID, h.ID); err != nil {
			t.Fatal("Failed to attach member:", err)
		}
		id := h.ID
		m.HouseholdID = &id
	}
	return h
}
