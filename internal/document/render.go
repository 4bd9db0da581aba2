package document

import (
	"iter"
	"strings"
)

const (
	markerPrefix = "[IMAGE:"
	markerSuffix = ']'
)

// MarkerText is the literal token that stands for image id in the text.
func MarkerText(id string) string {
	return markerPrefix + id + string(markerSuffix)
}

// Marker is one occurrence of an image token in the text.
type Marker struct {
	ID    string
	Start int
	End   int
}

// Markers scans the text left to right for non-overlapping image tokens.
// There is no escaping: typed text of the same shape is a marker too.
func (d *Document) Markers() []Marker {
	return FindMarkers(d.text)
}

func FindMarkers(text []rune) []Marker {
	prefix := []rune(markerPrefix)
	var markers []Marker
	for i := 0; i+len(prefix) < len(text); {
		if !hasPrefixAt(text, i, prefix) {
			i++
			continue
		}
		j := i + len(prefix)
		for j < len(text) && text[j] >= '0' && text[j] <= '9' {
			j++
		}
		if j == i+len(prefix) || j >= len(text) || text[j] != markerSuffix {
			i++
			continue
		}
		markers = append(markers, Marker{
			ID:    string(text[i+len(prefix) : j]),
			Start: i,
			End:   j + 1,
		})
		i = j + 1
	}
	return markers
}

func hasPrefixAt(text []rune, at int, prefix []rune) bool {
	if at+len(prefix) > len(text) {
		return false
	}
	for k, r := range prefix {
		if text[at+k] != r {
			return false
		}
	}
	return true
}

// Segment is one piece of rendered output: either a run of characters
// sharing a resolved style, or an image standing in for its marker.
type Segment struct {
	Start   int
	End     int
	Text    string
	Style   Style
	ImageID string
	Image   []byte
}

func (s Segment) IsImage() bool {
	return s.ImageID != ""
}

// Render yields the display segments of the document. The sequence is lazy
// and can be iterated again; each pass reads the document as it is then.
// Markers whose image is missing render as plain text.
func (d *Document) Render() iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		pos := 0
		for _, m := range d.Markers() {
			blob, err := d.images.Resolve(m.ID)
			if err != nil {
				continue
			}
			if !d.renderText(pos, m.Start, yield) {
				return
			}
			if !yield(Segment{Start: m.Start, End: m.End, ImageID: m.ID, Image: blob}) {
				return
			}
			pos = m.End
		}
		d.renderText(pos, len(d.text), yield)
	}
}

func (d *Document) renderText(from, to int, yield func(Segment) bool) bool {
	for from < to {
		style := d.StyleAt(from)
		next := from + 1
		for next < to && d.StyleAt(next) == style {
			next++
		}
		if !yield(Segment{Start: from, End: next, Text: string(d.text[from:next]), Style: style}) {
			return false
		}
		from = next
	}
	return true
}

// PlainText returns the text with every resolvable marker replaced by
// placeholder.
func (d *Document) PlainText(placeholder string) string {
	var b strings.Builder
	for seg := range d.Render() {
		if seg.IsImage() {
			b.WriteString(placeholder)
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}
