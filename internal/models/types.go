package models

import "time"

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// NoteRecord is the persisted form of a document. Images and Formatting
// hold the raw JSON side tables exactly as stored.
type NoteRecord struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title" validate:"notblank"`
	Content    string    `json:"content" validate:"notblank"`
	Images     string    `json:"images"`
	Formatting string    `json:"formatting"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type NoteSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type RecentNote struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Settings is the singleton row of default editing preferences.
type Settings struct {
	Theme      Theme  `json:"theme" validate:"oneof=dark light"`
	FontFamily string `json:"font_family" validate:"notblank"`
	FontSize   int    `json:"font_size" validate:"gt=0"`
}

func DefaultSettings() Settings {
	return Settings{Theme: ThemeDark, FontFamily: "Arial", FontSize: 12}
}
