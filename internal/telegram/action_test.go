package telegram

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseActionRoundTrip(t *testing.T) {
	actions := []Action{
		{Kind: ActionPickCategory, ItemID: 12, CategoryID: 3},
		{Kind: ActionPickCategory, ItemID: 12, CategoryID: 0},
		{Kind: ActionPickPrice, ItemID: 12, Amount: decimal.NewFromInt(1500)},
		{Kind: ActionPickPrice, ItemID: 12, Amount: decimal.Zero},
		{Kind: ActionManualPrice, ItemID: 7},
		{Kind: ActionToggleStatus, ItemID: 7},
		{Kind: ActionDelete, ItemID: 7},
		{Kind: ActionEditPrice, ItemID: 7},
		{Kind: ActionShowItem, ItemID: 7},
		{Kind: ActionShowCategory, CategoryID: 0},
		{Kind: ActionShowCategory, CategoryID: 4},
	}
	for _, want := range actions {
		data := want.Encode()
		got, err := ParseAction(data)
		if err != nil {
			t.Errorf("ParseAction(%q): %v", data, err)
			continue
		}
		if got.Kind != want.Kind || got.ItemID != want.ItemID || got.CategoryID != want.CategoryID || !got.Amount.Equal(want.Amount) {
			t.Errorf("ParseAction(%q) = %+v, want %+v", data, got, want)
		}
	}
}

func TestParseActionRejectsMalformed(t *testing.T) {
	for _, data := range []string{
		"", "pc", "pc:1", "pc:x:1", "pc:1:2:3", "pc:0:1",
		"pp:1", "pp:1:abc", "pp:1:-5",
		"st", "st:", "st:-1", "del:abc",
		"cat", "cat:x",
		"zz:1", "PC:1:1",
	} {
		if _, err := ParseAction(data); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("ParseAction(%q) should fail, got %v", data, err)
		}
	}
}

func TestEncodedPayloadsFitTelegramLimit(t *testing.T) {
	a := Action{Kind: ActionPickCategory, ItemID: 9223372036854775807, CategoryID: 9223372036854775807}
	if n := len(a.Encode()); n > 64 {
		t.Fatalf("callback data is %d bytes, Telegram allows 64", n)
	}
}
