package codec

import (
	"cmp"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"writeit/internal/document"
	"writeit/internal/domain"
	"writeit/internal/models"
)

// Pair is a [start, end] character span as stored in the formatting JSON.
type Pair [2]int

// Formatting is the stored shape of a document's style ranges.
type Formatting struct {
	Bold       []Pair            `json:"bold"`
	Italic     []Pair            `json:"italic"`
	Underline  []Pair            `json:"underline"`
	FontSize   map[string][]Pair `json:"font_size"`
	FontFamily map[string][]Pair `json:"font_family"`
}

// rawFormatting decodes pairs loosely so that their shape can be checked.
type rawFormatting struct {
	Bold       [][]int            `json:"bold"`
	Italic     [][]int            `json:"italic"`
	Underline  [][]int            `json:"underline"`
	FontSize   map[string][][]int `json:"font_size"`
	FontFamily map[string][][]int `json:"font_family"`
}

// Serialize converts doc into the stored record fields. Timestamps and id
// are left for the caller.
func Serialize(doc *document.Document, title string) (models.NoteRecord, error) {
	images := make(map[string]string, doc.Images().Len())
	for _, id := range doc.Images().IDs() {
		blob, err := doc.Images().Resolve(id)
		if err != nil {
			return models.NoteRecord{}, err
		}
		images[id] = base64.StdEncoding.EncodeToString(blob)
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return models.NoteRecord{}, fmt.Errorf("encode images: %w", err)
	}

	formattingJSON, err := json.Marshal(FormattingOf(doc.Styles()))
	if err != nil {
		return models.NoteRecord{}, fmt.Errorf("encode formatting: %w", err)
	}

	return models.NoteRecord{
		Title:      title,
		Content:    doc.Text(),
		Images:     string(imagesJSON),
		Formatting: string(formattingJSON),
	}, nil
}

// FormattingOf walks the table once per kind and collects its spans.
func FormattingOf(tbl *document.StyleTable) Formatting {
	f := Formatting{
		Bold:       []Pair{},
		Italic:     []Pair{},
		Underline:  []Pair{},
		FontSize:   map[string][]Pair{},
		FontFamily: map[string][]Pair{},
	}
	for _, kind := range tbl.Kinds() {
		pairs := toPairs(tbl.Ranges(kind))
		switch kind.Attr {
		case document.Bold:
			f.Bold = pairs
		case document.Italic:
			f.Italic = pairs
		case document.Underline:
			f.Underline = pairs
		case document.Size:
			f.FontSize[strconv.Itoa(kind.Size)] = pairs
		case document.Family:
			f.FontFamily[kind.Family] = pairs
		}
	}
	return f
}

func toPairs(spans []document.Span) []Pair {
	pairs := make([]Pair, len(spans))
	for i, s := range spans {
		pairs[i] = Pair{s.Start, s.End}
	}
	return pairs
}

// Deserialize rebuilds a document from a stored record. The returned
// document is always usable and holds rec.Content verbatim. When the images
// or formatting side table is malformed, that table is skipped and the
// error, wrapping domain.ErrCorruptFormat, is returned alongside the
// document.
func Deserialize(rec models.NoteRecord, defaults document.Defaults) (*document.Document, error) {
	doc := document.New(defaults)
	if err := doc.InsertText(nil, 0, rec.Content); err != nil {
		return nil, err
	}

	var errs []error
	if err := restoreImages(doc, rec.Images); err != nil {
		errs = append(errs, err)
	}
	if err := restoreFormatting(doc, rec.Formatting); err != nil {
		errs = append(errs, err)
	}
	return doc, errors.Join(errs...)
}

func isEmptyTable(raw string) bool {
	switch strings.TrimSpace(raw) {
	case "", "{}", "null":
		return true
	}
	return false
}

func restoreImages(doc *document.Document, raw string) error {
	if isEmptyTable(raw) {
		return nil
	}
	var encoded map[string]string
	if err := json.Unmarshal([]byte(raw), &encoded); err != nil {
		return fmt.Errorf("%w: images: %v", domain.ErrCorruptFormat, err)
	}

	blobs := make(map[string][]byte, len(encoded))
	for id, data := range encoded {
		blob, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return fmt.Errorf("%w: image %q: %v", domain.ErrCorruptFormat, id, err)
		}
		blobs[id] = blob
	}
	for id, blob := range blobs {
		doc.Images().Put(id, blob)
	}
	doc.Images().Reindex()
	return nil
}

type application struct {
	kind  document.Kind
	spans []document.Span
}

func restoreFormatting(doc *document.Document, raw string) error {
	if isEmptyTable(raw) {
		return nil
	}
	var f rawFormatting
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return fmt.Errorf("%w: formatting: %v", domain.ErrCorruptFormat, err)
	}

	// Everything is checked before anything is applied so a bad row
	// leaves the table empty rather than half restored.
	var plan []application
	add := func(kind document.Kind, pairs [][]int) error {
		spans, err := toSpans(pairs, doc.Len())
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrCorruptFormat, kind, err)
		}
		plan = append(plan, application{kind: kind, spans: spans})
		return nil
	}

	for _, b := range []struct {
		kind  document.Kind
		pairs [][]int
	}{
		{document.BoldKind, f.Bold},
		{document.ItalicKind, f.Italic},
		{document.UnderlineKind, f.Underline},
	} {
		if err := add(b.kind, b.pairs); err != nil {
			return err
		}
	}

	sizes := make([]int, 0, len(f.FontSize))
	sizePairs := make(map[int][][]int, len(f.FontSize))
	for key, pairs := range f.FontSize {
		n, err := strconv.Atoi(key)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: font size %q", domain.ErrCorruptFormat, key)
		}
		sizes = append(sizes, n)
		sizePairs[n] = append(sizePairs[n], pairs...)
	}
	slices.Sort(sizes)
	for _, n := range slices.Compact(sizes) {
		if err := add(document.SizeKind(n), sizePairs[n]); err != nil {
			return err
		}
	}

	for _, family := range slices.SortedFunc(maps.Keys(f.FontFamily), cmp.Compare[string]) {
		if strings.TrimSpace(family) == "" {
			return fmt.Errorf("%w: empty font family", domain.ErrCorruptFormat)
		}
		if err := add(document.FamilyKind(family), f.FontFamily[family]); err != nil {
			return err
		}
	}

	for _, a := range plan {
		for _, s := range a.spans {
			doc.Styles().Add(a.kind, s.Start, s.End)
		}
	}
	return nil
}

func toSpans(pairs [][]int, length int) ([]document.Span, error) {
	spans := make([]document.Span, 0, len(pairs))
	for _, p := range pairs {
		if len(p) != 2 {
			return nil, fmt.Errorf("pair %v is not [start, end]", p)
		}
		if p[0] < 0 || p[0] > p[1] || p[1] > length {
			return nil, fmt.Errorf("pair %v outside text of length %d", p, length)
		}
		spans = append(spans, document.Span{Start: p[0], End: p[1]})
	}
	return spans, nil
}
