package format

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Kerhoff/wishbot/internal/models"
)

func TestMoney(t *testing.T) {
	cases := map[string]string{
		"0":          "0 ₴",
		"999":        "999 ₴",
		"1500":       "1 500 ₴",
		"1500.5":     "1 500,50 ₴",
		"1234567.89": "1 234 567,89 ₴",
		"100000":     "100 000 ₴",
		"12.345":     "12,35 ₴",
	}
	for in, want := range cases {
		if got := Money(decimal.RequireFromString(in)); got != want {
			t.Errorf("Money(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestEscape(t *testing.T) {
	got := Escape(`<b>Tom & "Jerry"</b>`)
	if strings.Contains(got, "<b>") || !strings.Contains(got, "&amp;") {
		t.Fatalf("unexpected escape result %q", got)
	}
}

func TestItemListGroupsAndStrikesDone(t *testing.T) {
	things := int64(1)
	cats := []*models.Category{{ID: 1, Name: "Вещи"}, {ID: 2, Name: "Техника"}}
	items := []*models.Item{
		{ID: 1, Title: "Кроссовки", CategoryID: &things, Price: decimal.NewFromInt(1500), Status: models.ItemStatusActive},
		{ID: 2, Title: "Носки <3", Status: models.ItemStatusDone},
	}

	out := ItemList("Список", items, cats)

	if !strings.Contains(out, "<b>Вещи</b>") {
		t.Errorf("missing category header: %s", out)
	}
	if strings.Contains(out, "Техника") {
		t.Errorf("empty category should be omitted: %s", out)
	}
	if !strings.Contains(out, "<s>#2 Носки &lt;3</s>") {
		t.Errorf("done item should be struck and escaped: %s", out)
	}
	if strings.Index(out, "Вещи") > strings.Index(out, NoCategory) {
		t.Errorf("uncategorised group should come last: %s", out)
	}
	if !strings.Contains(out, "1 500 ₴") {
		t.Errorf("price missing: %s", out)
	}
}

func TestItemListEmpty(t *testing.T) {
	out := ItemList("Список", nil, nil)
	if !strings.Contains(out, "/add") {
		t.Errorf("empty list should hint at /add: %s", out)
	}
}

func TestItemListFitsOneMessage(t *testing.T) {
	var items []*models.Item
	for i := 1; i <= 60; i++ {
		items = append(items, &models.Item{
			ID:     int64(i),
			Title:  strings.Repeat("ж", 120),
			Price:  decimal.NewFromInt(1500),
			Status: models.ItemStatusActive,
		})
	}

	out := ItemList("Список", items, nil)

	if n := utf8.RuneCountInString(out); n > MaxMessageLength {
		t.Fatalf("list is %d characters long", n)
	}
	if !strings.Contains(out, "#1 ") {
		t.Errorf("first item missing: %s", out)
	}
	if strings.Contains(out, "#60 ") {
		t.Errorf("last item should be cut: %s", out)
	}
	shown := strings.Count(out, "▫️")
	if want := fmt.Sprintf("…и ещё %d.", 60-shown); !strings.Contains(out, want) {
		t.Errorf("footer %q missing: %s", want, out[len(out)-120:])
	}
}

func TestItemListShortListHasNoFooter(t *testing.T) {
	items := []*models.Item{{ID: 1, Title: "Чайник", Status: models.ItemStatusActive}}
	if out := ItemList("Список", items, nil); strings.Contains(out, "ещё") {
		t.Errorf("unexpected footer: %s", out)
	}
}

func TestItemListOrphansAreOrderedByID(t *testing.T) {
	gone1, gone2 := int64(7), int64(8)
	items := []*models.Item{
		{ID: 5, Title: "пятый", CategoryID: &gone2, Status: models.ItemStatusActive},
		{ID: 3, Title: "третий", CategoryID: &gone1, Status: models.ItemStatusActive},
		{ID: 4, Title: "четвёртый", Status: models.ItemStatusActive},
		{ID: 1, Title: "первый", CategoryID: &gone2, Status: models.ItemStatusActive},
	}

	first := ItemList("Список", items, nil)
	for i := 0; i < 20; i++ {
		if out := ItemList("Список", items, nil); out != first {
			t.Fatalf("render is not stable:\n%s\n---\n%s", first, out)
		}
	}
	prev := -1
	for _, id := range []string{"#1 ", "#3 ", "#4 ", "#5 "} {
		at := strings.Index(first, id)
		if at <= prev {
			t.Fatalf("%s out of order in %s", id, first)
		}
		prev = at
	}
}

func TestBudget(t *testing.T) {
	out := Budget(decimal.NewFromInt(10000), decimal.NewFromInt(3500), decimal.NewFromInt(6500))
	for _, want := range []string{"10 000 ₴", "3 500 ₴", "Остаток: 6 500 ₴"} {
		if !strings.Contains(out, want) {
			t.Errorf("budget report missing %q: %s", want, out)
		}
	}

	over := Budget(decimal.NewFromInt(1000), decimal.NewFromInt(1500), decimal.NewFromInt(-500))
	if !strings.Contains(over, "Превышение: 500 ₴") {
		t.Errorf("overspend not reported: %s", over)
	}
}

func TestNotices(t *testing.T) {
	actor := &models.Member{FirstName: "Ann"}
	item := &models.Item{Title: "Lamp", Price: decimal.NewFromInt(700)}

	if n := NewItemNotice(actor, item, nil); !strings.Contains(n, "Ann") || !strings.Contains(n, NoCategory) {
		t.Errorf("new item notice: %s", n)
	}
	if n := PriceNotice(actor, item, decimal.Zero); !strings.Contains(n, "0 ₴ → 700 ₴") {
		t.Errorf("price notice: %s", n)
	}
	if n := JoinNotice(actor, &models.Household{Name: "Дом"}); !strings.Contains(n, "«Дом»") {
		t.Errorf("join notice: %s", n)
	}
}
