package models

import "time"

// Category groups items of one household
type Category struct {
	ID          int64     `json:"id" db:"id"`
	HouseholdID int64     `json:"household_id" db:"household_id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Position    int       `json:"position" db:"position"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// CategorySeed describes one of the categories every household starts with.
type CategorySeed struct {
	Name string
	Slug string
}

// DefaultCategories is seeded once per household, in this order.
var DefaultCategories = []CategorySeed{
	{Name: "Вещи", Slug: "things"},
	{Name: "Техника", Slug: "tech"},
	{Name: "Дом", Slug: "home"},
	{Name: "Красота", Slug: "beauty"},
	{Name: "Здоровье", Slug: "health"},
	{Name: "Хобби", Slug: "hobby"},
	{Name: "Путешествия", Slug: "travel"},
	{Name: "Подарки", Slug: "gifts"},
	{Name: "Другое", Slug: "other"},
}
