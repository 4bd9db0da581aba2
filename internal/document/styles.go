package document

import (
	"cmp"
	"fmt"
	"slices"
)

// Attr is the attribute family of a style kind.
type Attr int

const (
	Bold Attr = iota
	Italic
	Underline
	Size
	Family
)

func (a Attr) String() string {
	switch a {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case Underline:
		return "underline"
	case Size:
		return "size"
	case Family:
		return "family"
	default:
		return fmt.Sprintf("attr(%d)", int(a))
	}
}

// exclusive attributes carry one value per character.
func (a Attr) exclusive() bool {
	return a == Size || a == Family
}

// Kind is a style attribute together with its value, if any.
// Kinds are comparable and are used as map keys.
type Kind struct {
	Attr   Attr
	Size   int
	Family string
}

var (
	BoldKind      = Kind{Attr: Bold}
	ItalicKind    = Kind{Attr: Italic}
	UnderlineKind = Kind{Attr: Underline}
)

func SizeKind(n int) Kind { return Kind{Attr: Size, Size: n} }

func FamilyKind(name string) Kind { return Kind{Attr: Family, Family: name} }

func (k Kind) String() string {
	switch k.Attr {
	case Size:
		return fmt.Sprintf("size(%d)", k.Size)
	case Family:
		return fmt.Sprintf("family(%s)", k.Family)
	default:
		return k.Attr.String()
	}
}

func compareKinds(a, b Kind) int {
	return cmp.Or(
		cmp.Compare(a.Attr, b.Attr),
		cmp.Compare(a.Size, b.Size),
		cmp.Compare(a.Family, b.Family),
	)
}

// Span is a half-open interval of character offsets.
type Span struct {
	Start int
	End   int
}

type styleRange struct {
	kind  Kind
	start int
	end   int
	seq   uint64
}

func (r styleRange) covers(offset int) bool {
	return r.start <= offset && offset < r.end
}

// Style is the resolved formatting of a single character.
type Style struct {
	Bold      bool   `json:"bold"`
	Italic    bool   `json:"italic"`
	Underline bool   `json:"underline"`
	Size      int    `json:"size"`
	Family    string `json:"family"`
}

// StyleTable tracks which style kinds apply to which character spans.
//
// Every stored range carries a sequence number taken at the time it was
// added. Where two values of Size (or of Family) would cover the same
// character, the later one wins: Add carves the new span out of the other
// values of that attribute, and Resolve picks the highest sequence number.
type StyleTable struct {
	ranges []styleRange
	seq    uint64
}

func NewStyleTable() *StyleTable {
	return &StyleTable{}
}

// Add applies kind over [start, end). Overlapping or adjacent ranges of the
// same kind are coalesced. Empty spans are ignored.
func (t *StyleTable) Add(kind Kind, start, end int) {
	if start >= end {
		return
	}
	if kind.Attr.exclusive() {
		t.carve(func(r styleRange) bool {
			return r.kind.Attr == kind.Attr && r.kind != kind
		}, start, end)
	}

	kept := t.ranges[:0]
	for _, r := range t.ranges {
		if r.kind == kind && r.start <= end && r.end >= start {
			start = min(start, r.start)
			end = max(end, r.end)
			continue
		}
		kept = append(kept, r)
	}
	t.seq++
	t.ranges = append(kept, styleRange{kind: kind, start: start, end: end, seq: t.seq})
}

// Remove clears kind from [start, end), splitting ranges as needed.
func (t *StyleTable) Remove(kind Kind, start, end int) {
	if start >= end {
		return
	}
	t.carve(func(r styleRange) bool { return r.kind == kind }, start, end)
}

// RemoveAttr clears every value of attr from [start, end).
func (t *StyleTable) RemoveAttr(attr Attr, start, end int) {
	if start >= end {
		return
	}
	t.carve(func(r styleRange) bool { return r.kind.Attr == attr }, start, end)
}

func (t *StyleTable) carve(match func(styleRange) bool, start, end int) {
	out := make([]styleRange, 0, len(t.ranges)+1)
	for _, r := range t.ranges {
		if !match(r) || r.end <= start || r.start >= end {
			out = append(out, r)
			continue
		}
		if r.start < start {
			left := r
			left.end = start
			out = append(out, left)
		}
		if r.end > end {
			right := r
			right.start = end
			out = append(out, right)
		}
	}
	t.ranges = out
}

// ShiftAfterInsert moves ranges for count characters inserted at at.
// Ranges starting at or after at move right; a range straddling at grows.
// A range ending exactly at at is left alone.
func (t *StyleTable) ShiftAfterInsert(at, count int) {
	if count <= 0 {
		return
	}
	for i := range t.ranges {
		r := &t.ranges[i]
		switch {
		case r.start >= at:
			r.start += count
			r.end += count
		case r.end > at:
			r.end += count
		}
	}
}

// ShiftAfterDelete rebases ranges after [start, end) was removed from the
// text. Ranges inside the removed interval are dropped, ranges crossing one
// of its boundaries are clipped.
func (t *StyleTable) ShiftAfterDelete(start, end int) {
	n := end - start
	if n <= 0 {
		return
	}
	rebase := func(p int) int {
		switch {
		case p <= start:
			return p
		case p >= end:
			return p - n
		default:
			return start
		}
	}
	kept := t.ranges[:0]
	for _, r := range t.ranges {
		r.start, r.end = rebase(r.start), rebase(r.end)
		if r.start < r.end {
			kept = append(kept, r)
		}
	}
	t.ranges = kept
}

// Active returns the kinds covering offset, oldest first.
func (t *StyleTable) Active(offset int) []Kind {
	var covering []styleRange
	for _, r := range t.ranges {
		if r.covers(offset) {
			covering = append(covering, r)
		}
	}
	slices.SortFunc(covering, func(a, b styleRange) int { return cmp.Compare(a.seq, b.seq) })

	kinds := make([]Kind, len(covering))
	for i, r := range covering {
		kinds[i] = r.kind
	}
	return kinds
}

// Resolve returns the effective style at offset. Size and family fall back
// to the defaults when no range covers the offset.
func (t *StyleTable) Resolve(offset int, d Defaults) Style {
	s := Style{Size: d.Size, Family: d.Family}
	var sizeSeq, familySeq uint64
	for _, r := range t.ranges {
		if !r.covers(offset) {
			continue
		}
		switch r.kind.Attr {
		case Bold:
			s.Bold = true
		case Italic:
			s.Italic = true
		case Underline:
			s.Underline = true
		case Size:
			if r.seq > sizeSeq {
				sizeSeq, s.Size = r.seq, r.kind.Size
			}
		case Family:
			if r.seq > familySeq {
				familySeq, s.Family = r.seq, r.kind.Family
			}
		}
	}
	return s
}

// Ranges returns the spans of kind ordered by start.
func (t *StyleTable) Ranges(kind Kind) []Span {
	var spans []Span
	for _, r := range t.ranges {
		if r.kind == kind {
			spans = append(spans, Span{Start: r.start, End: r.end})
		}
	}
	slices.SortFunc(spans, func(a, b Span) int {
		return cmp.Or(cmp.Compare(a.Start, b.Start), cmp.Compare(a.End, b.End))
	})
	return spans
}

// Kinds returns every distinct kind present, ordered by attribute and value.
func (t *StyleTable) Kinds() []Kind {
	seen := make(map[Kind]struct{})
	var kinds []Kind
	for _, r := range t.ranges {
		if _, ok := seen[r.kind]; ok {
			continue
		}
		seen[r.kind] = struct{}{}
		kinds = append(kinds, r.kind)
	}
	slices.SortFunc(kinds, compareKinds)
	return kinds
}

// Len is the number of stored ranges.
func (t *StyleTable) Len() int {
	return len(t.ranges)
}

// MaxEnd is the largest end offset of any stored range, or 0.
func (t *StyleTable) MaxEnd() int {
	end := 0
	for _, r := range t.ranges {
		end = max(end, r.end)
	}
	return end
}
