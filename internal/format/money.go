// Package format renders bot output as Telegram HTML.
package format

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

// Currency is appended to every amount.
const Currency = "₴"

// Money renders an amount as "1 500 ₴" or "1 500,50 ₴".
func Money(d decimal.Decimal) string {
	return Amount(d) + " " + Currency
}

// Amount renders an amount without the currency sign.
func Amount(d decimal.Decimal) string {
	fixed := d.Round(2).StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	whole, frac, _ := strings.Cut(fixed, ".")
	out := sign + groupThousands(whole)
	if frac != "00" {
		out += "," + frac
	}
	return out
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Escape makes user supplied text safe for HTML parse mode.
func Escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}
