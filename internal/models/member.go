package models

import "time"

// Member represents a Telegram user in the system
type Member struct {
	ID               int64     `json:"id" db:"id"`
	TelegramID       int64     `json:"telegram_id" db:"telegram_id"`
	TelegramUsername string    `json:"telegram_username" db:"telegram_username"`
	FirstName        string    `json:"first_name" db:"first_name"`
	LastName         string    `json:"last_name" db:"last_name"`
	HouseholdID      *int64    `json:"household_id" db:"household_id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// FullName returns the member's full name
func (m *Member) FullName() string {
	if m.LastName != "" {
		return m.FirstName + " " + m.LastName
	}
	return m.FirstName
}

// DisplayName returns the best display name for the member
func (m *Member) DisplayName() string {
	if name := m.FullName(); name != "" {
		return name
	}
	if m.TelegramUsername != "" {
		return "@" + m.TelegramUsername
	}
	return "Участник"
}

// HasHousehold reports whether the member has joined a household.
func (m *Member) HasHousehold() bool {
	return m.HouseholdID != nil
}

// InHousehold reports whether the member belongs to the given household.
func (m *Member) InHousehold(householdID int64) bool {
	return m.HouseholdID != nil && *m.HouseholdID == householdID
}
