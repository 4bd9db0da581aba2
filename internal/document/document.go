package document

import (
	"fmt"
	"slices"
	"strings"

	"writeit/internal/domain"
)

// Defaults are the document-wide font settings used where no size or
// family range applies.
type Defaults struct {
	Size   int
	Family string
}

// Selection is a half-open span of selected characters. An empty
// selection means nothing is selected.
type Selection struct {
	Start int
	End   int
}

func (s Selection) Empty() bool {
	return s.Start >= s.End
}

// Document is a text buffer with formatting ranges and inline images.
// Offsets count characters (runes), not bytes.
//
// A Document is owned by one editing session and is not safe for
// concurrent use.
type Document struct {
	text     []rune
	styles   *StyleTable
	images   *Assets
	defaults Defaults
}

func New(d Defaults) *Document {
	return &Document{
		styles:   NewStyleTable(),
		images:   NewAssets(),
		defaults: d,
	}
}

func (d *Document) Text() string { return string(d.text) }
func (d *Document) Len() int { return len(d.text) }
func (d *Document) Styles() *StyleTable { return d.styles }
func (d *Document) Images() *Assets { return d.images }
func (d *Document) Defaults() Defaults { return d.defaults }
func (d *Document) SetDefaults(def Defaults) { d.defaults = def }

// InsertText inserts s at offset and formats the inserted span from
// toggles. A nil toggles inserts unformatted text.
func (d *Document) InsertText(toggles *Toggles, offset int, s string) error {
	if offset < 0 || offset > len(d.text) {
		return fmt.Errorf("%w: insert at %d, length %d", domain.ErrOutOfRange, offset, len(d.text))
	}
	runes := []rune(s)
	if len(runes) == 0 {
		return nil
	}
	d.text = slices.Insert(d.text, offset, runes...)
	d.styles.ShiftAfterInsert(offset, len(runes))
	if toggles != nil {
		toggles.Apply(d.styles, d.defaults, offset, offset+len(runes))
	}
	return nil
}

// DeleteText removes [start, end). Images whose markers are removed stay
// in the asset store.
func (d *Document) DeleteText(start, end int) error {
	if start < 0 || start > end || end > len(d.text) {
		return fmt.Errorf("%w: delete [%d,%d), length %d", domain.ErrOutOfRange, start, end, len(d.text))
	}
	if start == end {
		return nil
	}
	d.text = slices.Delete(d.text, start, end)
	d.styles.ShiftAfterDelete(start, end)
	return nil
}

// InsertImage stores blob and inserts its marker at offset. The marker is
// part of the text and is replaced by the image only when rendering.
func (d *Document) InsertImage(toggles *Toggles, offset int, blob []byte) (string, error) {
	if offset < 0 || offset > len(d.text) {
		return "", fmt.Errorf("%w: image at %d, length %d", domain.ErrOutOfRange, offset, len(d.text))
	}
	id, err := d.images.Insert(blob)
	if err != nil {
		return "", err
	}
	if err := d.InsertText(toggles, offset, MarkerText(id)); err != nil {
		return "", err
	}
	return id, nil
}

// ToggleBold flips the bold flag. With a selection the selection is bolded
// or un-bolded to match the new flag; without one only typing mode changes.
func (d *Document) ToggleBold(toggles *Toggles, sel Selection) error {
	return d.toggle(&toggles.Bold, BoldKind, sel)
}

func (d *Document) ToggleItalic(toggles *Toggles, sel Selection) error {
	return d.toggle(&toggles.Italic, ItalicKind, sel)
}

func (d *Document) ToggleUnderline(toggles *Toggles, sel Selection) error {
	return d.toggle(&toggles.Underline, UnderlineKind, sel)
}

func (d *Document) toggle(flag *bool, kind Kind, sel Selection) error {
	if err := d.checkSelection(sel); err != nil {
		return err
	}
	*flag = !*flag
	if sel.Empty() {
		return nil
	}
	if *flag {
		d.styles.Add(kind, sel.Start, sel.End)
	} else {
		d.styles.Remove(kind, sel.Start, sel.End)
	}
	return nil
}

// SetFontSize tags the selection with size n, or changes the default size
// when nothing is selected. It reports whether the default changed.
func (d *Document) SetFontSize(toggles *Toggles, sel Selection, n int) (bool, error) {
	if n <= 0 {
		return false, fmt.Errorf("%w: font size %d", domain.ErrValidation, n)
	}
	if err := d.checkSelection(sel); err != nil {
		return false, err
	}
	toggles.Size = n
	if sel.Empty() {
		d.defaults.Size = n
		return true, nil
	}
	d.styles.Add(SizeKind(n), sel.Start, sel.End)
	return false, nil
}

// SetFontFamily is SetFontSize for the font family.
func (d *Document) SetFontFamily(toggles *Toggles, sel Selection, name string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, fmt.Errorf("%w: empty font family", domain.ErrValidation)
	}
	if err := d.checkSelection(sel); err != nil {
		return false, err
	}
	toggles.Family = name
	if sel.Empty() {
		d.defaults.Family = name
		return true, nil
	}
	d.styles.Add(FamilyKind(name), sel.Start, sel.End)
	return false, nil
}

func (d *Document) checkSelection(sel Selection) error {
	if sel.Empty() {
		return nil
	}
	if sel.Start < 0 || sel.End > len(d.text) {
		return fmt.Errorf("%w: selection [%d,%d), length %d", domain.ErrOutOfRange, sel.Start, sel.End, len(d.text))
	}
	return nil
}

// StyleAt resolves the formatting of the character at offset.
func (d *Document) StyleAt(offset int) Style {
	return d.styles.Resolve(offset, d.defaults)
}
