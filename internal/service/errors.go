package service

import "errors"

// User input and precondition failures. Handlers turn these into corrective
// replies; anything else is a store or transport failure.
var (
	ErrNoHousehold         = errors.New("member has no household")
	ErrAlreadyInHousehold  = errors.New("member already belongs to a household")
	ErrInvalidInviteCode   = errors.New("invalid invite code")
	ErrEmptyHouseholdName  = errors.New("household name is empty")
	ErrEmptyTitle          = errors.New("item title is empty")
	ErrTitleTooLong        = errors.New("item title is too long")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrItemNotFound        = errors.New("item not found")
	ErrForbidden           = errors.New("item belongs to another household")
	ErrItemDeleted         = errors.New("item is deleted")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrUnknownFilter       = errors.New("unknown list filter")
	ErrStaleAction         = errors.New("action no longer applies")
	ErrDraftCorrupted      = errors.New("draft is inconsistent")
	errInviteCodeExhausted = errors.New("could not allocate a unique invite code")
)
