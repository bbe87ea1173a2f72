package format

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Kerhoff/wishbot/internal/models"
)

// NoCategory labels items without a category.
const NoCategory = "Без категории"

// ItemLine renders one list entry. Bought items are struck through.
func ItemLine(item *models.Item) string {
	text := fmt.Sprintf("#%d %s", item.ID, Escape(item.Title))
	if item.Price.IsPositive() {
		text += " · " + Money(item.Price)
	}
	if item.IsDone() {
		return "✅ <s>" + text + "</s>"
	}
	return "▫️ " + text
}

// ItemCard renders a single item with its category.
func ItemCard(item *models.Item, category *models.Category) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", Escape(item.Title))
	fmt.Fprintf(&b, "Категория: %s\n", categoryName(category))
	if item.Price.IsPositive() {
		fmt.Fprintf(&b, "Цена: %s\n", Money(item.Price))
	} else {
		b.WriteString("Цена: не указана\n")
	}
	if item.IsDone() {
		b.WriteString("Статус: куплено ✅")
	} else {
		b.WriteString("Статус: в списке")
	}
	return b.String()
}

// MaxMessageLength is the Telegram limit for a text message, in characters.
const MaxMessageLength = 4096

// listBudget leaves room for the "more items" footer.
const listBudget = MaxMessageLength - 64

type listLine struct {
	text string
	item bool
}

// ItemList renders items grouped by category in category order;
// uncategorised items come last. Lines that do not fit into one message are
// replaced by a footer with the number of hidden items.
func ItemList(title string, items []*models.Item, categories []*models.Category) string {
	if len(items) == 0 {
		return fmt.Sprintf("<b>%s</b>\n\nПусто. Добавьте желание командой /add", Escape(title))
	}

	byCategory := make(map[int64][]*models.Item)
	for _, it := range items {
		var key int64
		if it.CategoryID != nil {
			key = *it.CategoryID
		}
		byCategory[key] = append(byCategory[key], it)
	}

	var lines []listLine
	addGroup := func(name string, group []*models.Item) {
		if len(group) == 0 {
			return
		}
		lines = append(lines, listLine{text: fmt.Sprintf("\n<b>%s</b>", Escape(name))})
		for _, it := range group {
			lines = append(lines, listLine{text: ItemLine(it), item: true})
		}
	}

	known := make(map[int64]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
		addGroup(c.Name, byCategory[c.ID])
	}
	// Items pointing at a category outside the list are shown as uncategorised.
	orphans := byCategory[0]
	for id, group := range byCategory {
		if id != 0 && !known[id] {
			orphans = append(orphans, group...)
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].ID < orphans[j].ID })
	addGroup(NoCategory, orphans)

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>", Escape(title))
	used := utf8.RuneCountInString(b.String())
	shown := 0
	for i, line := range lines {
		need := utf8.RuneCountInString(line.text) + 1
		if !line.item && i+1 < len(lines) {
			// A header is only worth printing together with its first item.
			need += utf8.RuneCountInString(lines[i+1].text) + 1
		}
		if used+need > listBudget {
			break
		}
		b.WriteByte('\n')
		b.WriteString(line.text)
		used += utf8.RuneCountInString(line.text) + 1
		if line.item {
			shown++
		}
	}
	if hidden := len(items) - shown; hidden > 0 {
		fmt.Fprintf(&b, "\n\n…и ещё %d. Уточните фильтр: /list &lt;категория&gt;", hidden)
	}
	return b.String()
}

// CategoryList renders the household categories for /categories.
func CategoryList(categories []*models.Category) string {
	var b strings.Builder
	b.WriteString("<b>Категории</b>\n")
	for _, c := range categories {
		fmt.Fprintf(&b, "\n• %s <code>%s</code>", Escape(c.Name), Escape(c.Slug))
	}
	b.WriteString("\n\nФильтр списка: /list &lt;категория&gt;")
	return b.String()
}

// Budget renders the budget report.
func Budget(ceiling, spent, remaining decimal.Decimal) string {
	var b strings.Builder
	b.WriteString("<b>Бюджет</b>\n")
	fmt.Fprintf(&b, "Лимит: %s\n", Money(ceiling))
	fmt.Fprintf(&b, "Желания: %s\n", Money(spent))
	if remaining.IsNegative() {
		fmt.Fprintf(&b, "Превышение: %s", Money(remaining.Neg()))
	} else {
		fmt.Fprintf(&b, "Остаток: %s", Money(remaining))
	}
	return b.String()
}

func categoryName(category *models.Category) string {
	if category == nil {
		return NoCategory
	}
	return Escape(category.Name)
}
