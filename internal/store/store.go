package store

import (
	"writeit/internal/models"
)

// Store defines the interface for all note persistence.
// Each call is one statement; no transaction spans two calls.
type Store interface {
	// Notes
	CreateNote(rec models.NoteRecord) (int64, error)
	UpdateNote(rec models.NoteRecord) error
	ListNotes() ([]models.NoteSummary, error)
	ListRecent(limit int) ([]models.RecentNote, error)
	GetNote(id int64) (models.NoteRecord, error)
	DeleteNote(id int64) error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(settings models.Settings) error

	Close() error
}
