package service

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	priceRe = regexp.MustCompile(`^(\d{1,3}(?:[ \x{00A0}\x{202F}]\d{3})+|\d+)(?:[.,](\d{1,2}))?$`)

	priceSuffixes = []string{"₴", "грн.", "грн", "uah"}
	skipWords     = map[string]bool{"-": true, "skip": true, "пропустить": true, "0": true}
	maxPrice      = decimal.New(1, 12)
)

// ParsePrice reads an amount typed by a user: "1500", "1 500,50",
// "2000 грн". Skip words yield zero.
func ParsePrice(input string) (decimal.Decimal, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if skipWords[s] {
		return decimal.Zero, nil
	}

	for _, suffix := range priceSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}

	m := priceRe.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, ErrInvalidPrice
	}

	whole := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, m[1])
	number := whole
	if m[2] != "" {
		number += "." + m[2]
	}

	amount, err := decimal.NewFromString(number)
	if err != nil || amount.IsNegative() || amount.GreaterThanOrEqual(maxPrice) {
		return decimal.Zero, ErrInvalidPrice
	}
	return amount, nil
}
