package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"writeit/internal/domain"
	"writeit/internal/models"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect is the SQL flavour spoken by the driver
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3":
		return SQLite, nil
	case "postgres", "pgx":
		return Postgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// SQLStore implements the Store interface for SQL databases
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	log     *slog.Logger
}

// New opens the database with the given driver and connection string and
// makes sure the schema exists.
func New(driver, connStr string, logger *slog.Logger) (*SQLStore, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, domain.NewStoreError("open", err)
	}
	if dialect == SQLite {
		// one connection keeps :memory: databases intact and serializes writers
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, domain.NewStoreError("ping", err)
	}

	store := &SQLStore{
		db:      db,
		dialect: dialect,
		log:     logger.With("component", "sqlstore", "dialect", string(dialect)),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, domain.NewStoreError("init schema", err)
	}

	return store, nil
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL
func (s *SQLStore) rebind(query string) string {
	if s.dialect == SQLite {
		return query
	}
	var result strings.Builder
	argNum := 1
	for _, c := range query {
		if c == '?' {
			result.WriteString(fmt.Sprintf("$%d", argNum))
			argNum++
		} else {
			result.WriteRune(c)
		}
	}
	return result.String()
}

func (s *SQLStore) initSchema() error {
	var createNotesTable, createSettingsTable string

	if s.dialect == Postgres {
		createNotesTable = `
		CREATE TABLE IF NOT EXISTS notes (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ,
			images TEXT DEFAULT '{}',
			formatting TEXT DEFAULT '{}'
		);`

		createSettingsTable = `
		CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY,
			theme TEXT NOT NULL DEFAULT 'dark',
			font_family TEXT NOT NULL DEFAULT 'Arial',
			font_size INTEGER NOT NULL DEFAULT 12
		);`
	} else {
		createNotesTable = `
		CREATE TABLE IF NOT EXISTS notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			content TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME,
			images TEXT DEFAULT '{}',
			formatting TEXT DEFAULT '{}'
		);`

		createSettingsTable = `
		CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY,
			theme TEXT NOT NULL DEFAULT 'dark',
			font_family TEXT NOT NULL DEFAULT 'Arial',
			font_size INTEGER NOT NULL DEFAULT 12
		);`
	}

	for _, stmt := range []string{createNotesTable, createSettingsTable} {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}

	// SQLite migration for databases created before images/formatting existed
	if s.dialect == SQLite {
		if err := s.migrateSideColumns(); err != nil {
			return err
		}
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM settings").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		def := models.DefaultSettings()
		_, err := s.db.Exec(s.rebind("INSERT INTO settings (id, theme, font_family, font_size) VALUES (1, ?, ?, ?)"),
			string(def.Theme), def.FontFamily, def.FontSize)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) migrateSideColumns() error {
	rows, err := s.db.Query("PRAGMA table_info(notes)")
	if err != nil {
		return err
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return err
		}
		columns[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	for _, col := range []string{"images", "formatting"} {
		if columns[col] {
			continue
		}
		s.log.Info("migrating notes table", "add_column", col)
		if _, err := s.db.Exec("ALTER TABLE notes ADD COLUMN " + col + " TEXT DEFAULT '{}'"); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Note functions
func (s *SQLStore) CreateNote(rec models.NoteRecord) (int64, error) {
	const query = "INSERT INTO notes (title, content, created_at, updated_at, images, formatting) VALUES (?, ?, ?, ?, ?, ?)"
	args := []any{rec.Title, rec.Content, rec.UpdatedAt, rec.UpdatedAt, sideTable(rec.Images), sideTable(rec.Formatting)}

	if s.dialect == Postgres {
		var id int64
		err := s.db.QueryRow(s.rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, domain.NewStoreError("create note", err)
	}
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, domain.NewStoreError("create note", err)
	}
	id, err := result.LastInsertId()
	return id, domain.NewStoreError("create note", err)
}

func (s *SQLStore) UpdateNote(rec models.NoteRecord) error {
	result, err := s.db.Exec(s.rebind("UPDATE notes SET title = ?, content = ?, updated_at = ?, images = ?, formatting = ? WHERE id = ?"),
		rec.Title, rec.Content, rec.UpdatedAt, sideTable(rec.Images), sideTable(rec.Formatting), rec.ID)
	if err != nil {
		return domain.NewStoreError("update note", err)
	}
	return s.requireRow(result, "note", rec.ID)
}

func (s *SQLStore) ListNotes() ([]models.NoteSummary, error) {
	rows, err := s.db.Query("SELECT id, title FROM notes ORDER BY updated_at DESC, id DESC")
	if err != nil {
		return nil, domain.NewStoreError("list notes", err)
	}
	defer rows.Close()

	var notes []models.NoteSummary
	for rows.Next() {
		var n models.NoteSummary
		if err := rows.Scan(&n.ID, &n.Title); err != nil {
			s.log.Warn("skipping unreadable note row", "err", err)
			continue
		}
		notes = append(notes, n)
	}
	return notes, domain.NewStoreError("list notes", rows.Err())
}

func (s *SQLStore) ListRecent(limit int) ([]models.RecentNote, error) {
	rows, err := s.db.Query(s.rebind("SELECT id, title, updated_at FROM notes ORDER BY updated_at DESC, id DESC LIMIT ?"), limit)
	if err != nil {
		return nil, domain.NewStoreError("list recent", err)
	}
	defer rows.Close()

	var notes []models.RecentNote
	for rows.Next() {
		var n models.RecentNote
		var updated sql.NullTime
		if err := rows.Scan(&n.ID, &n.Title, &updated); err != nil {
			s.log.Warn("skipping unreadable note row", "err", err)
			continue
		}
		n.UpdatedAt = updated.Time
		notes = append(notes, n)
	}
	return notes, domain.NewStoreError("list recent", rows.Err())
}

func (s *SQLStore) GetNote(id int64) (models.NoteRecord, error) {
	var (
		rec                         models.NoteRecord
		content, images, formatting sql.NullString
		updated                     sql.NullTime
	)
	err := s.db.QueryRow(s.rebind("SELECT id, title, content, created_at, updated_at, images, formatting FROM notes WHERE id = ?"), id).
		Scan(&rec.ID, &rec.Title, &content, &rec.CreatedAt, &updated, &images, &formatting)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NoteRecord{}, fmt.Errorf("note %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return models.NoteRecord{}, domain.NewStoreError("get note", err)
	}
	rec.Content = content.String
	rec.Images = images.String
	rec.Formatting = formatting.String
	rec.UpdatedAt = updated.Time
	return rec, nil
}

func (s *SQLStore) DeleteNote(id int64) error {
	result, err := s.db.Exec(s.rebind("DELETE FROM notes WHERE id = ?"), id)
	if err != nil {
		return domain.NewStoreError("delete note", err)
	}
	return s.requireRow(result, "note", id)
}

// Settings functions
func (s *SQLStore) GetSettings() (models.Settings, error) {
	var settings models.Settings
	var theme string
	err := s.db.QueryRow("SELECT theme, font_family, font_size FROM settings WHERE id = 1").
		Scan(&theme, &settings.FontFamily, &settings.FontSize)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.Settings{}, domain.NewStoreError("get settings", err)
	}
	settings.Theme = models.Theme(theme)
	return settings, nil
}

func (s *SQLStore) SaveSettings(settings models.Settings) error {
	_, err := s.db.Exec(s.rebind("UPDATE settings SET theme = ?, font_family = ?, font_size = ? WHERE id = 1"),
		string(settings.Theme), settings.FontFamily, settings.FontSize)
	return domain.NewStoreError("save settings", err)
}

func (s *SQLStore) requireRow(result sql.Result, what string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.NewStoreError("rows affected", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", what, id, domain.ErrNotFound)
	}
	return nil
}

// sideTable stores an absent JSON side table as an empty object.
func sideTable(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "{}"
	}
	return raw
}
