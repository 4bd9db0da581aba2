package editor

import (
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"writeit/internal/codec"
	"writeit/internal/document"
	"writeit/internal/domain"
	"writeit/internal/metrics"
	"writeit/internal/models"
)

// ErrNotSaved is returned when deleting a note that was never stored.
var ErrNotSaved = errors.New("note has not been saved")

type State int

const (
	Unsaved State = iota
	Saved
)

func (s State) String() string {
	if s == Saved {
		return "saved"
	}
	return "unsaved"
}

// Clip is pasted content. A non-empty Image wins over Text.
type Clip struct {
	Text  string
	Image []byte
}

// Session is one open tab. It owns its document and typing toggles.
type Session struct {
	ws *Workspace
	id string

	mu          sync.Mutex
	doc         *document.Document
	toggles     document.Toggles
	sel         document.Selection
	state       State
	noteID      int64
	title       string
	updatedAt   time.Time
	loadWarning error
}

func newSession(w *Workspace, doc *document.Document) *Session {
	return &Session{
		ws:      w,
		id:      newTabID(),
		doc:     doc,
		toggles: document.NewToggles(doc.Defaults()),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NoteID is zero until the first successful save.
func (s *Session) NoteID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noteID
}

func (s *Session) holds(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Saved && s.noteID == id
}

// applyDefaults moves the document to d. Typing toggles still on the old
// default follow it.
func (s *Session) applyDefaults(old, d document.Defaults) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.SetDefaults(d)
	if s.toggles.Size == old.Size {
		s.toggles.Size = d.Size
	}
	if s.toggles.Family == old.Family {
		s.toggles.Family = d.Family
	}
}

func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// LoadWarning reports side tables that were dropped when the note was
// opened. It wraps domain.ErrCorruptFormat when set.
func (s *Session) LoadWarning() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadWarning
}

func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Text()
}

func (s *Session) Toggles() document.Toggles {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toggles
}

func (s *Session) Selection() document.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// StyleAt resolves the style of the character at offset.
func (s *Session) StyleAt(offset int) document.Style {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.StyleAt(offset)
}

// Image returns the stored blob for an image id in this document.
func (s *Session) Image(id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Images().Resolve(id)
}

// Render yields display segments. The sequence reads the live document,
// so do not edit the session while ranging over it.
func (s *Session) Render() iter.Seq[document.Segment] {
	return s.doc.Render()
}

func (s *Session) InsertText(offset int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.InsertText(&s.toggles, offset, text)
}

func (s *Session) DeleteText(start, end int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.doc.DeleteText(start, end); err != nil {
		return err
	}
	s.sel = document.Selection{}
	return nil
}

func (s *Session) InsertImage(offset int, blob []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.InsertImage(&s.toggles, offset, blob)
}

// Paste inserts clip at offset as an image or as text.
func (s *Session) Paste(offset int, clip Clip) error {
	if len(clip.Image) > 0 {
		_, err := s.InsertImage(offset, clip.Image)
		return err
	}
	return s.InsertText(offset, clip.Text)
}

// Select marks [start, end) as the current selection.
func (s *Session) Select(start, end int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if start < 0 || start > end || end > s.doc.Len() {
		return fmt.Errorf("%w: selection [%d, %d), length %d", domain.ErrOutOfRange, start, end, s.doc.Len())
	}
	s.sel = document.Selection{Start: start, End: end}
	return nil
}

func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel = document.Selection{}
}

func (s *Session) ToggleBold() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.ToggleBold(&s.toggles, s.sel)
}

func (s *Session) ToggleItalic() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.ToggleItalic(&s.toggles, s.sel)
}

func (s *Session) ToggleUnderline() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.ToggleUnderline(&s.toggles, s.sel)
}

// SetFontSize formats the selection, or with no selection changes the
// workspace default size, which every open session then uses.
func (s *Session) SetFontSize(n int) error {
	s.mu.Lock()
	if !s.sel.Empty() {
		defer s.mu.Unlock()
		_, err := s.doc.SetFontSize(&s.toggles, s.sel, n)
		return err
	}
	s.mu.Unlock()

	if err := s.ws.updateSettings(func(st *models.Settings) { st.FontSize = n }); err != nil {
		return err
	}
	s.mu.Lock()
	s.toggles.Size = n
	s.mu.Unlock()
	return nil
}

// SetFontFamily behaves like SetFontSize for the font family.
func (s *Session) SetFontFamily(name string) error {
	s.mu.Lock()
	if !s.sel.Empty() {
		defer s.mu.Unlock()
		_, err := s.doc.SetFontFamily(&s.toggles, s.sel, name)
		return err
	}
	s.mu.Unlock()

	if err := s.ws.updateSettings(func(st *models.Settings) { st.FontFamily = name }); err != nil {
		return err
	}
	s.mu.Lock()
	s.toggles.Family = name
	s.mu.Unlock()
	return nil
}

// Save writes the document under title. The first save creates the note;
// later saves overwrite it. Blank titles or content are rejected before
// the store is touched.
func (s *Session) Save(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := codec.Serialize(s.doc, title)
	if err != nil {
		metrics.TrackSave("failed")
		return err
	}
	if err := models.Validate(rec); err != nil {
		metrics.TrackSave("invalid")
		return err
	}

	now := s.ws.now()
	rec.UpdatedAt = now

	if s.state == Unsaved {
		id, err := s.ws.store.CreateNote(rec)
		if err != nil {
			s.ws.storeFailed("create note", err)
			metrics.TrackSave("failed")
			return err
		}
		s.noteID = id
		s.state = Saved
		metrics.TrackSave("created")
	} else {
		rec.ID = s.noteID
		if err := s.ws.store.UpdateNote(rec); err != nil {
			s.ws.storeFailed("update note", err)
			metrics.TrackSave("failed")
			return err
		}
		metrics.TrackSave("updated")
	}

	s.title = title
	s.updatedAt = now
	s.ws.log.Info("note saved", "note_id", s.noteID, "tab", s.id, "chars", s.doc.Len(), "images", s.doc.Images().Len())
	return nil
}

// Delete removes the stored note and closes the session.
func (s *Session) Delete() error {
	s.mu.Lock()
	if s.state == Unsaved {
		s.mu.Unlock()
		return ErrNotSaved
	}
	id := s.noteID
	err := s.ws.store.DeleteNote(id)
	s.mu.Unlock()

	if err != nil {
		s.ws.storeFailed("delete note", err)
		return err
	}
	s.ws.log.Info("note deleted", "note_id", id, "tab", s.id)
	return s.ws.Close(s.id)
}
