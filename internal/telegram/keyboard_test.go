package telegram

import (
	"testing"

	"github.com/Kerhoff/wishbot/internal/models"
)

func TestCategoryPickerLayout(t *testing.T) {
	var cats []*models.Category
	for i, seed := range models.DefaultCategories {
		cats = append(cats, &models.Category{ID: int64(i + 1), Name: seed.Name, Slug: seed.Slug})
	}

	kb := CategoryPicker(42, cats)
	if len(kb.InlineKeyboard) != 4 {
		t.Fatalf("expected 3 rows of categories plus skip, got %d rows", len(kb.InlineKeyboard))
	}
	for i, row := range kb.InlineKeyboard[:3] {
		if len(row) != 3 {
			t.Errorf("row %d has %d buttons", i, len(row))
		}
	}

	first, err := ParseAction(*kb.InlineKeyboard[0][0].CallbackData)
	if err != nil || first.Kind != ActionPickCategory || first.ItemID != 42 || first.CategoryID != 1 {
		t.Errorf("unexpected first button %+v %v", first, err)
	}

	skip, err := ParseAction(*kb.InlineKeyboard[3][0].CallbackData)
	if err != nil || skip.CategoryID != 0 {
		t.Errorf("skip button should pick no category: %+v %v", skip, err)
	}
}

func TestPricePickerOffersQuickAmountsAndSkip(t *testing.T) {
	kb := PricePicker(5)

	var kinds = map[ActionKind]int{}
	var amounts []string
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			a, err := ParseAction(*b.CallbackData)
			if err != nil {
				t.Fatalf("button %q: %v", b.Text, err)
			}
			if a.ItemID != 5 {
				t.Errorf("button %q targets item %d", b.Text, a.ItemID)
			}
			kinds[a.Kind]++
			if a.Kind == ActionPickPrice {
				amounts = append(amounts, a.Amount.String())
			}
		}
	}

	if kinds[ActionPickPrice] != len(QuickPrices)+1 || kinds[ActionManualPrice] != 1 {
		t.Errorf("unexpected button mix %v", kinds)
	}
	if amounts[len(amounts)-1] != "0" {
		t.Errorf("skip should be a zero price, got %v", amounts)
	}
}

func TestItemActionsToggleLabel(t *testing.T) {
	active := ItemActions(&models.Item{ID: 1, Status: models.ItemStatusActive})
	done := ItemActions(&models.Item{ID: 1, Status: models.ItemStatusDone})
	if active.InlineKeyboard[0][0].Text == done.InlineKeyboard[0][0].Text {
		t.Error("toggle label should depend on status")
	}
}

func TestItemButtons(t *testing.T) {
	if ItemButtons(nil) != nil {
		t.Error("empty list should give no keyboard")
	}

	long := &models.Item{ID: 3, Title: "Очень длинное название желания, которое не поместится на кнопке"}
	kb := ItemButtons([]*models.Item{long})
	if kb == nil || len(kb.InlineKeyboard) != 1 {
		t.Fatalf("unexpected keyboard %+v", kb)
	}
	if n := len([]rune(kb.InlineKeyboard[0][0].Text)); n > maxButtonTitle {
		t.Errorf("button label has %d characters", n)
	}
}
