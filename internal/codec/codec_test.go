package codec

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"math/rand/v2"
	"testing"

	"writeit/internal/document"
	"writeit/internal/domain"
	"writeit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaults = document.Defaults{Size: 12, Family: "Arial"}

func pngBlob(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func requireSameDocument(t *testing.T, want, got *document.Document) {
	t.Helper()
	require.Equal(t, want.Text(), got.Text())
	for i := 0; i < want.Len(); i++ {
		require.Equal(t, want.StyleAt(i), got.StyleAt(i), "style at offset %d", i)
	}
	require.Equal(t, want.Images().IDs(), got.Images().IDs())
	for _, id := range want.Images().IDs() {
		a, _ := want.Images().Resolve(id)
		b, _ := got.Images().Resolve(id)
		require.Equal(t, a, b)
	}
}

func TestSerializeShape(t *testing.T) {
	doc := document.New(defaults)
	toggles := document.NewToggles(defaults)
	toggles.Bold = true
	require.NoError(t, doc.InsertText(&toggles, 0, "bold"))
	toggles.Bold = false
	toggles.Size = 18
	require.NoError(t, doc.InsertText(&toggles, 4, "big"))

	rec, err := Serialize(doc, "title")
	require.NoError(t, err)
	assert.Equal(t, "title", rec.Title)
	assert.Equal(t, "boldbig", rec.Content)
	assert.Equal(t, "{}", rec.Images)
	assert.JSONEq(t, `{
		"bold": [[0, 4]],
		"italic": [],
		"underline": [],
		"font_size": {"18": [[4, 7]]},
		"font_family": {}
	}`, rec.Formatting)
}

func TestSerializeImagesAsBase64(t *testing.T) {
	doc := document.New(defaults)
	blob := pngBlob(t, 2, 2)
	id, err := doc.InsertImage(nil, 0, blob)
	require.NoError(t, err)

	rec, err := Serialize(doc, "t")
	require.NoError(t, err)

	var images map[string][]byte
	require.NoError(t, json.Unmarshal([]byte(rec.Images), &images))
	assert.Equal(t, map[string][]byte{id: blob}, images)
	assert.Equal(t, "[IMAGE:0]", rec.Content)
}

func TestRoundTripAfterEdits(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	words := []string{"alpha ", "beta", " gamma", "δέλτα", "\n", "x"}

	for round := 0; round < 25; round++ {
		doc := document.New(defaults)
		toggles := document.NewToggles(defaults)

		for step := 0; step < 40; step++ {
			n := doc.Len()
			switch rng.IntN(8) {
			case 0, 1, 2:
				require.NoError(t, doc.InsertText(&toggles, rng.IntN(n+1), words[rng.IntN(len(words))]))
			case 3:
				if n > 0 {
					a := rng.IntN(n)
					require.NoError(t, doc.DeleteText(a, a+rng.IntN(n-a)+1))
				}
			case 4:
				sel := randomSelection(rng, n)
				switch rng.IntN(3) {
				case 0:
					require.NoError(t, doc.ToggleBold(&toggles, sel))
				case 1:
					require.NoError(t, doc.ToggleItalic(&toggles, sel))
				default:
					require.NoError(t, doc.ToggleUnderline(&toggles, sel))
				}
			case 5:
				_, err := doc.SetFontSize(&toggles, randomSelection(rng, n), []int{8, 12, 14, 18, 24}[rng.IntN(5)])
				require.NoError(t, err)
			case 6:
				_, err := doc.SetFontFamily(&toggles, randomSelection(rng, n), []string{"Arial", "Courier", "Georgia"}[rng.IntN(3)])
				require.NoError(t, err)
			case 7:
				_, err := doc.InsertImage(&toggles, rng.IntN(n+1), pngBlob(t, 3, 2))
				require.NoError(t, err)
			}
		}

		rec, err := Serialize(doc, "t")
		require.NoError(t, err)
		loaded, err := Deserialize(rec, doc.Defaults())
		require.NoError(t, err)
		requireSameDocument(t, doc, loaded)
	}
}

func randomSelection(rng *rand.Rand, n int) document.Selection {
	if n == 0 || rng.IntN(3) == 0 {
		return document.Selection{}
	}
	a := rng.IntN(n)
	return document.Selection{Start: a, End: a + rng.IntN(n-a) + 1}
}

func TestDeserializeRestoresImageCounter(t *testing.T) {
	rec := models.NoteRecord{
		Content: "x[IMAGE:4]y",
		Images:  `{"4": "` + encode(pngBlob(t, 1, 1)) + `", "1": "` + encode(pngBlob(t, 1, 1)) + `"}`,
	}
	doc, err := Deserialize(rec, defaults)
	require.NoError(t, err)

	assert.Equal(t, "5", doc.Images().Next())
	assert.Equal(t, []document.Marker{{ID: "4", Start: 1, End: 10}}, doc.Markers())

	id, err := doc.InsertImage(nil, 0, pngBlob(t, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, "5", id)
}

func TestDeserializeAppliesFamiliesAfterSizes(t *testing.T) {
	rec := models.NoteRecord{
		Content:    "abcdef",
		Formatting: `{"bold":[[0,2]],"font_size":{"14":[[0,6]],"10":[[2,4]]},"font_family":{"Times":[[0,3]],"Courier":[[1,5]]}}`,
	}
	doc, err := Deserialize(rec, defaults)
	require.NoError(t, err)

	assert.True(t, doc.StyleAt(1).Bold)
	assert.False(t, doc.StyleAt(2).Bold)
	// sizes apply in ascending order, so 14 overrides 10
	assert.Equal(t, 14, doc.StyleAt(3).Size)
	// families apply in lexical order, so Times overrides Courier
	assert.Equal(t, "Times", doc.StyleAt(1).Family)
	assert.Equal(t, "Courier", doc.StyleAt(4).Family)
	assert.Equal(t, "Arial", doc.StyleAt(5).Family)
}

func TestDeserializeCorruptFormattingKeepsText(t *testing.T) {
	rec := models.NoteRecord{
		Content:    "still here",
		Images:     "{}",
		Formatting: "not-json",
	}
	doc, err := Deserialize(rec, defaults)
	assert.ErrorIs(t, err, domain.ErrCorruptFormat)
	require.NotNil(t, doc)
	assert.Equal(t, "still here", doc.Text())
	assert.Equal(t, 0, doc.Styles().Len())
}

func TestDeserializeRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name       string
		formatting string
	}{
		{"wrong top-level type", `[1, 2]`},
		{"pair too long", `{"bold": [[0, 1, 2]]}`},
		{"pair reversed", `{"italic": [[3, 1]]}`},
		{"pair past end", `{"underline": [[0, 99]]}`},
		{"non-numeric size", `{"font_size": {"big": [[0, 1]]}}`},
		{"zero size", `{"font_size": {"0": [[0, 1]]}}`},
		{"blank family", `{"font_family": {" ": [[0, 1]]}}`},
		{"string offsets", `{"bold": [["1.0", "1.4"]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Deserialize(models.NoteRecord{
				Content:    "abcd",
				Formatting: tt.formatting,
			}, defaults)
			assert.ErrorIs(t, err, domain.ErrCorruptFormat)
			assert.Equal(t, "abcd", doc.Text())
			assert.Equal(t, 0, doc.Styles().Len())
		})
	}
}

func TestDeserializeCorruptImagesKeepsFormatting(t *testing.T) {
	rec := models.NoteRecord{
		Content:    "[IMAGE:0] caption",
		Images:     `{"0": "%%% not base64"}`,
		Formatting: `{"bold": [[10, 17]]}`,
	}
	doc, err := Deserialize(rec, defaults)
	assert.ErrorIs(t, err, domain.ErrCorruptFormat)
	assert.Equal(t, 0, doc.Images().Len())
	assert.Equal(t, []document.Span{{Start: 10, End: 17}}, doc.Styles().Ranges(document.BoldKind))
}

func TestDeserializeEmptyTables(t *testing.T) {
	for _, raw := range []string{"", "{}", "null", "  "} {
		doc, err := Deserialize(models.NoteRecord{Content: "a", Images: raw, Formatting: raw}, defaults)
		require.NoError(t, err, "raw %q", raw)
		assert.Equal(t, 0, doc.Styles().Len())
		assert.Equal(t, 0, doc.Images().Len())
	}
}

func encode(b []byte) string {
	out, _ := json.Marshal(b)
	return string(out[1 : len(out)-1])
}
