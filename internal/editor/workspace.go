package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"writeit/internal/codec"
	"writeit/internal/document"
	"writeit/internal/domain"
	"writeit/internal/metrics"
	"writeit/internal/models"
	"writeit/internal/store"

	"github.com/google/uuid"
)

const defaultRecentLimit = 6

// Workspace owns the open editing sessions and the shared settings row.
// At most one session holds a given note id. Font defaults are shared by
// every open session; mu is always taken before a session's own lock.
type Workspace struct {
	store       store.Store
	log         *slog.Logger
	now         func() time.Time
	recentLimit int

	mu       sync.Mutex
	sessions map[string]*Session
	order    []string
	settings models.Settings
}

type Option func(*Workspace)

// WithLogger sets the logger used for session events.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workspace) { w.log = l }
}

// WithClock replaces time.Now for stamping saves.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) { w.now = now }
}

// WithRecentLimit sets how many notes RecentNotes returns by default.
func WithRecentLimit(n int) Option {
	return func(w *Workspace) {
		if n > 0 {
			w.recentLimit = n
		}
	}
}

// NewWorkspace loads the settings row from st.
func NewWorkspace(st store.Store, opts ...Option) (*Workspace, error) {
	w := &Workspace{
		store:       st,
		log:         slog.Default(),
		now:         func() time.Time { return time.Now().UTC() },
		recentLimit: defaultRecentLimit,
		sessions:    make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(w)
	}

	settings, err := st.GetSettings()
	if err != nil {
		w.storeFailed("get settings", err)
		return nil, err
	}
	if err := models.Validate(settings); err != nil {
		w.log.Warn("stored settings invalid, using defaults", "err", err)
		settings = models.DefaultSettings()
	}
	w.settings = settings
	return w, nil
}

func defaultsOf(s models.Settings) document.Defaults {
	return document.Defaults{Size: s.FontSize, Family: s.FontFamily}
}

func (w *Workspace) register(s *Session) *Session {
	w.sessions[s.id] = s
	w.order = append(w.order, s.id)
	w.log.Debug("session opened", "tab", s.id, "note_id", s.noteID)
	return s
}

// NewNote opens an unsaved session with an empty document.
func (w *Workspace) NewNote() *Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.register(newSession(w, document.New(defaultsOf(w.settings))))
}

// View is a read-only snapshot of a stored note.
type View struct {
	NoteID    int64
	Title     string
	UpdatedAt time.Time
	Doc       *document.Document
	// Warning is set when the images or formatting table could not be
	// restored; Doc still carries the full text.
	Warning error
}

// View loads note id without opening a session for it.
func (w *Workspace) View(id int64) (*View, error) {
	w.mu.Lock()
	d := defaultsOf(w.settings)
	w.mu.Unlock()
	return w.view(id, d)
}

func (w *Workspace) view(id int64, d document.Defaults) (*View, error) {
	if id <= 0 {
		return nil, fmt.Errorf("note %d: %w", id, domain.ErrNotFound)
	}
	rec, err := w.store.GetNote(id)
	if err != nil {
		w.storeFailed("get note", err)
		return nil, err
	}

	doc, err := codec.Deserialize(rec, d)
	if doc == nil {
		return nil, err
	}
	v := &View{NoteID: rec.ID, Title: rec.Title, UpdatedAt: rec.UpdatedAt, Doc: doc}
	if err != nil {
		if !errors.Is(err, domain.ErrCorruptFormat) {
			return nil, err
		}
		w.log.Warn("note opened without some formatting", "note_id", id, "err", err)
		metrics.TrackDegraded()
		v.Warning = err
	}
	return v, nil
}

// Open returns a session for note id, reusing one that already holds it.
// Unsaved tabs never match.
func (w *Workspace) Open(id int64) (*Session, error) {
	s, _, err := w.open(id)
	return s, err
}

// open reports whether the returned session was registered by this call.
func (w *Workspace) open(id int64) (*Session, bool, error) {
	if id <= 0 {
		return nil, false, fmt.Errorf("note %d: %w", id, domain.ErrNotFound)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, tab := range w.order {
		if s := w.sessions[tab]; s.holds(id) {
			return s, false, nil
		}
	}

	v, err := w.view(id, defaultsOf(w.settings))
	if err != nil {
		return nil, false, err
	}
	s := newSession(w, v.Doc)
	s.noteID = v.NoteID
	s.title = v.Title
	s.updatedAt = v.UpdatedAt
	s.state = Saved
	s.loadWarning = v.Warning
	return w.register(s), true, nil
}

// DeleteNote deletes note id and closes the session holding it. A session
// opened only for the delete is closed again when the store call fails.
func (w *Workspace) DeleteNote(id int64) error {
	s, opened, err := w.open(id)
	if err != nil {
		return err
	}
	if err := s.Delete(); err != nil {
		if opened {
			w.Close(s.ID())
		}
		return err
	}
	return nil
}

// Session returns the open session for tab.
func (w *Workspace) Session(tab string) (*Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.sessions[tab]
	if !ok {
		return nil, fmt.Errorf("tab %s: %w", tab, domain.ErrNotFound)
	}
	return s, nil
}

// Sessions lists open sessions in the order they were opened.
func (w *Workspace) Sessions() []*Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*Session, 0, len(w.order))
	for _, tab := range w.order {
		out = append(out, w.sessions[tab])
	}
	return out
}

// Close discards the session for tab. Unsaved edits are lost.
func (w *Workspace) Close(tab string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.sessions[tab]; !ok {
		return fmt.Errorf("tab %s: %w", tab, domain.ErrNotFound)
	}
	delete(w.sessions, tab)
	for i, t := range w.order {
		if t == tab {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	w.log.Debug("session closed", "tab", tab)
	return nil
}

func (w *Workspace) Settings() models.Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settings
}

// SetTheme persists theme, which must be dark or light.
func (w *Workspace) SetTheme(theme models.Theme) error {
	return w.updateSettings(func(s *models.Settings) { s.Theme = theme })
}

// SaveSettings validates and persists settings as a whole.
func (w *Workspace) SaveSettings(settings models.Settings) error {
	return w.updateSettings(func(s *models.Settings) { *s = settings })
}

// updateSettings persists one change to the settings row. When the font
// defaults move, every open session picks them up.
func (w *Workspace) updateSettings(mutate func(*models.Settings)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := w.settings
	mutate(&next)
	if err := models.Validate(next); err != nil {
		return err
	}
	if err := w.store.SaveSettings(next); err != nil {
		w.storeFailed("save settings", err)
		return err
	}

	old, d := defaultsOf(w.settings), defaultsOf(next)
	w.settings = next
	if old != d {
		for _, tab := range w.order {
			w.sessions[tab].applyDefaults(old, d)
		}
		w.log.Debug("font defaults changed", "size", d.Size, "family", d.Family, "sessions", len(w.order))
	}
	return nil
}

func (w *Workspace) ListNotes() ([]models.NoteSummary, error) {
	notes, err := w.store.ListNotes()
	if err != nil {
		w.storeFailed("list notes", err)
	}
	return notes, err
}

// RecentNotes returns the most recently updated notes. A limit below one
// uses the workspace default.
func (w *Workspace) RecentNotes(limit int) ([]models.RecentNote, error) {
	if limit < 1 {
		limit = w.recentLimit
	}
	notes, err := w.store.ListRecent(limit)
	if err != nil {
		w.storeFailed("list recent", err)
	}
	return notes, err
}

func (w *Workspace) storeFailed(op string, err error) {
	if !errors.Is(err, domain.ErrStore) {
		return
	}
	metrics.TrackStoreError(op)
	w.log.Error("note store call failed", "op", op, "err", err)
}

func newTabID() string {
	return uuid.NewString()
}
