package format

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Kerhoff/wishbot/internal/models"
)

// NewItemNotice tells co-members that actor added an item.
func NewItemNotice(actor *models.Member, item *models.Item, category *models.Category) string {
	text := fmt.Sprintf("🆕 %s добавил(а) желание: <b>%s</b>\nКатегория: %s",
		Escape(actor.DisplayName()), Escape(item.Title), categoryName(category))
	if item.Price.IsPositive() {
		text += "\nЦена: " + Money(item.Price)
	}
	return text
}

// PriceNotice tells co-members that actor changed the price of an item.
func PriceNotice(actor *models.Member, item *models.Item, previous decimal.Decimal) string {
	return fmt.Sprintf("💰 %s изменил(а) цену: <b>%s</b>\n%s → %s",
		Escape(actor.DisplayName()), Escape(item.Title), Money(previous), Money(item.Price))
}

// JoinNotice tells existing members that actor joined the household.
func JoinNotice(actor *models.Member, household *models.Household) string {
	return fmt.Sprintf("👋 %s присоединился(ась) к «%s»",
		Escape(actor.DisplayName()), Escape(household.Name))
}
