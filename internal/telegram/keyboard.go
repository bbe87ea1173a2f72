package telegram

import (
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/Kerhoff/wishbot/internal/format"
	"github.com/Kerhoff/wishbot/internal/models"
)

const (
	categoriesPerRow = 3
	maxItemButtons   = 30
	maxButtonTitle   = 40
)

// QuickPrices are offered as one-tap answers on the price step.
var QuickPrices = []int64{500, 1000, 2000, 5000, 10000}

func button(text string, action Action) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, action.Encode())
}

// rowsOf lays buttons out n per row.
func rowsOf(buttons []tgbotapi.InlineKeyboardButton, n int) [][]tgbotapi.InlineKeyboardButton {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, (len(buttons)+n-1)/n)
	for start := 0; start < len(buttons); start += n {
		end := start + n
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons[start:end]...))
	}
	return rows
}

// CategoryPicker asks which category the draft item belongs to.
func CategoryPicker(itemID int64, categories []*models.Category) tgbotapi.InlineKeyboardMarkup {
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(categories))
	for _, c := range categories {
		buttons = append(buttons, button(c.Name, Action{Kind: ActionPickCategory, ItemID: itemID, CategoryID: c.ID}))
	}

	rows := rowsOf(buttons, categoriesPerRow)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		button(format.NoCategory, Action{Kind: ActionPickCategory, ItemID: itemID, CategoryID: 0}),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// PricePicker offers quick amounts, manual entry and skipping.
func PricePicker(itemID int64) tgbotapi.InlineKeyboardMarkup {
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(QuickPrices))
	for _, p := range QuickPrices {
		amount := decimal.NewFromInt(p)
		buttons = append(buttons, button(format.Money(amount), Action{Kind: ActionPickPrice, ItemID: itemID, Amount: amount}))
	}

	rows := rowsOf(buttons, 3)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		button("✏️ Своя сумма", Action{Kind: ActionManualPrice, ItemID: itemID}),
		button("Пропустить", Action{Kind: ActionPickPrice, ItemID: itemID, Amount: decimal.Zero}),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ItemActions is attached to an item card.
func ItemActions(item *models.Item) tgbotapi.InlineKeyboardMarkup {
	toggle := "✅ Куплено"
	if item.IsDone() {
		toggle = "↩️ Вернуть в список"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button(toggle, Action{Kind: ActionToggleStatus, ItemID: item.ID}),
			button("💰 Цена", Action{Kind: ActionEditPrice, ItemID: item.ID}),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("🗑 Удалить", Action{Kind: ActionDelete, ItemID: item.ID}),
		),
	)
}

// CategoryBrowser lists categories; a press shows that category's items.
func CategoryBrowser(categories []*models.Category) tgbotapi.InlineKeyboardMarkup {
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(categories)+1)
	for _, c := range categories {
		buttons = append(buttons, button(c.Name, Action{Kind: ActionShowCategory, CategoryID: c.ID}))
	}
	buttons = append(buttons, button(format.NoCategory, Action{Kind: ActionShowCategory, CategoryID: 0}))
	return tgbotapi.NewInlineKeyboardMarkup(rowsOf(buttons, categoriesPerRow)...)
}

// ItemButtons opens item cards, one item per row. It returns nil for an
// empty list, since Telegram rejects empty keyboards.
func ItemButtons(items []*models.Item) *tgbotapi.InlineKeyboardMarkup {
	if len(items) == 0 {
		return nil
	}
	if len(items) > maxItemButtons {
		items = items[:maxItemButtons]
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(items))
	for _, it := range items {
		label := it.Title
		if utf8.RuneCountInString(label) > maxButtonTitle {
			label = string([]rune(label)[:maxButtonTitle-1]) + "…"
		}
		if it.IsDone() {
			label = "✅ " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(label, Action{Kind: ActionShowItem, ItemID: it.ID})))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}
