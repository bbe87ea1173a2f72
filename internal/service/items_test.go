package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Kerhoff/wishbot/internal/models"
)

func TestToggleStatusTwiceRestores(t *testing.T) {
	svc, _, notifier := setupService(t)
	ctx := context.Background()
	_, ann, bob := pairedHousehold(t, svc)

	item, _ := svc.QuickAdd(ctx, ann, "Свеча", "")
	before := notifier.count(bob.TelegramID)

	toggled, err := svc.ToggleStatus(ctx, ann, item.ID)
	if err != nil || !toggled.IsDone() {
		t.Fatalf("first toggle: %+v %v", toggled, err)
	}
	toggled, err = svc.ToggleStatus(ctx, bob, item.ID)
	if err != nil || !toggled.IsActive() {
		t.Fatalf("second toggle: %+v %v", toggled, err)
	}
	if notifier.count(bob.TelegramID) != before {
		t.Errorf("status toggles must not notify")
	}
}

func TestDeleteItemHidesFromListButKeepsRow(t *testing.T) {
	svc, store, _ := setupService(t)
	ctx := context.Background()
	_, ann, _ := pairedHousehold(t, svc)

	keep, _ := svc.QuickAdd(ctx, ann, "Keep", "")
	gone, _ := svc.QuickAdd(ctx, ann, "Gone", "")

	if _, err := svc.DeleteItem(ctx, ann, gone.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.DeleteItem(ctx, ann, gone.ID); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}

	list, err := svc.ListItems(ctx, ann, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != keep.ID {
		t.Fatalf("deleted item still listed: %+v", list.Items)
	}

	row, _ := store.Items().GetByID(ctx, gone.ID)
	if row == nil || !row.IsDeleted() {
		t.Fatalf("deleted item should stay in storage as a tombstone: %+v", row)
	}

	if _, err := svc.ToggleStatus(ctx, ann, gone.ID); !errors.Is(err, ErrItemDeleted) {
		t.Errorf("toggling a deleted item: %v", err)
	}
}

func TestItemsAreScopedToHousehold(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	_, ann, _ := pairedHousehold(t, svc)

	eve := mustMember(t, svc, 300, "Eve")
	if _, err := svc.CreateHousehold(ctx, eve, "Other"); err != nil {
		t.Fatal(err)
	}
	item, _ := svc.QuickAdd(ctx, ann, "Private", "")

	if _, err := svc.ToggleStatus(ctx, eve, item.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.SetPrice(ctx, eve, 9999, decimal.NewFromInt(1)); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	_, ann, _ := pairedHousehold(t, svc)
	tech := categoryBySlug(t, svc, ann, "tech")

	draft, _ := svc.StartDraft(ctx, ann)
	phone, _ := svc.SubmitTitle(ctx, ann, draft, "Телефон", "")
	if _, err := svc.ChooseCategory(ctx, ann, phone.ID, tech.ID); err != nil {
		t.Fatal(err)
	}
	bought, _ := svc.QuickAdd(ctx, ann, "Хлеб", "")
	if _, err := svc.ToggleStatus(ctx, ann, bought.ID); err != nil {
		t.Fatal(err)
	}

	cases := map[string]int{
		"":        2,
		"all":     2,
		"active":  1,
		"DONE":    1,
		"tech":    1,
		"Техника": 1,
		"hobby":   0,
	}
	for filter, want := range cases {
		list, err := svc.ListItems(ctx, ann, filter)
		if err != nil {
			t.Errorf("filter %q: %v", filter, err)
			continue
		}
		if len(list.Items) != want {
			t.Errorf("filter %q: got %d items, want %d", filter, len(list.Items), want)
		}
	}

	if _, err := svc.ListItems(ctx, ann, "spaceships"); !errors.Is(err, ErrUnknownFilter) {
		t.Errorf("expected ErrUnknownFilter, got %v", err)
	}

	inTech, err := svc.ItemsInCategory(ctx, ann, tech.ID)
	if err != nil || len(inTech.Items) != 1 || inTech.Title != tech.Name {
		t.Errorf("ItemsInCategory(tech): %+v %v", inTech, err)
	}
	loose, err := svc.ItemsInCategory(ctx, ann, 0)
	if err != nil || len(loose.Items) != 1 || loose.Items[0].ID != bought.ID {
		t.Errorf("ItemsInCategory(0): %+v %v", loose, err)
	}
}

func TestBudgetReport(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	_, ann, bob := pairedHousehold(t, svc)

	if _, err := svc.SetBudget(ctx, ann, decimal.NewFromInt(10000)); err != nil {
		t.Fatal(err)
	}

	for _, p := range []struct {
		title string
		price int64
	}{{"A", 1500}, {"B", 2000}, {"C", 700}} {
		item, err := svc.QuickAdd(ctx, ann, p.title, "")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := svc.SetPrice(ctx, ann, item.ID, decimal.NewFromInt(p.price)); err != nil {
			t.Fatal(err)
		}
		if p.title == "C" {
			if _, err := svc.ToggleStatus(ctx, ann, item.ID); err != nil {
				t.Fatal(err)
			}
		}
	}

	report, err := svc.Budget(ctx, bob)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Ceiling.Equal(decimal.NewFromInt(10000)) ||
		!report.Spent.Equal(decimal.NewFromInt(3500)) ||
		!report.Remaining.Equal(decimal.NewFromInt(6500)) {
		t.Fatalf("unexpected report %+v", report)
	}

	if _, err := svc.SetBudget(ctx, ann, decimal.NewFromInt(-1)); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("negative budget: %v", err)
	}
}

func TestSetPriceNotifiesOnlyOnChange(t *testing.T) {
	svc, _, notifier := setupService(t)
	ctx := context.Background()
	_, ann, bob := pairedHousehold(t, svc)

	item, _ := svc.QuickAdd(ctx, ann, "Ковёр", "")
	before := notifier.count(bob.TelegramID)

	res, err := svc.SetPrice(ctx, ann, item.ID, decimal.NewFromInt(3000))
	if err != nil || !res.Changed {
		t.Fatalf("SetPrice: %+v %v", res, err)
	}
	res, err = svc.SetPrice(ctx, ann, item.ID, decimal.RequireFromString("3000.00"))
	if err != nil || res.Changed {
		t.Fatalf("same price: %+v %v", res, err)
	}

	if notifier.count(bob.TelegramID)-before != 1 {
		t.Errorf("expected exactly one price notice, got %d", notifier.count(bob.TelegramID)-before)
	}
}

func TestQuickAddAttachesPhoto(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	_, ann, _ := pairedHousehold(t, svc)

	item, err := svc.QuickAdd(ctx, ann, "Картина", "file-42")
	if err != nil {
		t.Fatal(err)
	}
	if item.CategoryID != nil || !item.Price.IsZero() || item.Status != models.ItemStatusActive {
		t.Errorf("unexpected quick-add item %+v", item)
	}

	images, err := svc.ItemImages(ctx, ann, item.ID)
	if err != nil || len(images) != 1 || images[0].FileID != "file-42" {
		t.Errorf("photo not attached: %+v %v", images, err)
	}
}
