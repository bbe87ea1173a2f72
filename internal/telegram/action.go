package telegram

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ActionKind tags an inline button press.
type ActionKind string

const (
	ActionPickCategory  ActionKind = "pc"  // pc:<item>:<category|0>
	ActionPickPrice     ActionKind = "pp"  // pp:<item>:<amount>
	ActionManualPrice   ActionKind = "pm"  // pm:<item>
	ActionToggleStatus  ActionKind = "st"  // st:<item>
	ActionDelete        ActionKind = "del" // del:<item>
	ActionShowCategory  ActionKind = "cat" // cat:<category|0>
	ActionEditPrice     ActionKind = "ep"  // ep:<item>
	ActionShowItem      ActionKind = "it"  // it:<item>
)

const payloadSeparator = ":"

// ErrMalformedPayload is returned for callback data that does not decode to
// a known action.
var ErrMalformedPayload = errors.New("malformed callback payload")

// Action is a decoded button press. Only the fields its Kind uses are set.
type Action struct {
	Kind       ActionKind
	ItemID     int64
	CategoryID int64
	Amount     decimal.Decimal
}

// ParseAction decodes callback data of the form "kind:arg1:arg2".
func ParseAction(data string) (Action, error) {
	parts := strings.Split(data, payloadSeparator)
	kind := ActionKind(parts[0])
	args := parts[1:]

	switch kind {
	case ActionPickCategory:
		if len(args) != 2 {
			return Action{}, ErrMalformedPayload
		}
		item, err := parseID(args[0], false)
		if err != nil {
			return Action{}, err
		}
		category, err := parseID(args[1], true)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: kind, ItemID: item, CategoryID: category}, nil

	case ActionPickPrice:
		if len(args) != 2 {
			return Action{}, ErrMalformedPayload
		}
		item, err := parseID(args[0], false)
		if err != nil {
			return Action{}, err
		}
		amount, err := decimal.NewFromString(args[1])
		if err != nil || amount.IsNegative() {
			return Action{}, ErrMalformedPayload
		}
		return Action{Kind: kind, ItemID: item, Amount: amount}, nil

	case ActionManualPrice, ActionToggleStatus, ActionDelete, ActionEditPrice, ActionShowItem:
		if len(args) != 1 {
			return Action{}, ErrMalformedPayload
		}
		item, err := parseID(args[0], false)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: kind, ItemID: item}, nil

	case ActionShowCategory:
		if len(args) != 1 {
			return Action{}, ErrMalformedPayload
		}
		category, err := parseID(args[0], true)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: kind, CategoryID: category}, nil
	}

	return Action{}, ErrMalformedPayload
}

func parseID(s string, allowZero bool) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 || (id == 0 && !allowZero) {
		return 0, ErrMalformedPayload
	}
	return id, nil
}

// Encode renders the action as callback data; ParseAction(a.Encode())
// yields a again.
func (a Action) Encode() string {
	parts := []string{string(a.Kind)}
	switch a.Kind {
	case ActionPickCategory:
		parts = append(parts, formatID(a.ItemID), formatID(a.CategoryID))
	case ActionPickPrice:
		parts = append(parts, formatID(a.ItemID), a.Amount.String())
	case ActionShowCategory:
		parts = append(parts, formatID(a.CategoryID))
	default:
		parts = append(parts, formatID(a.ItemID))
	}
	return strings.Join(parts, payloadSeparator)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
