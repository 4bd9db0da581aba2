package document

// Toggles is the typing mode of an editing session: the formatting that
// newly typed characters receive. It changes only through explicit toggle
// and font actions, never by inspecting the text around the cursor.
type Toggles struct {
	Bold      bool
	Italic    bool
	Underline bool
	Size      int
	Family    string
}

// NewToggles returns typing mode with every flag off and the default font.
func NewToggles(d Defaults) Toggles {
	return Toggles{Size: d.Size, Family: d.Family}
}

// Apply tags [start, end) with every kind the toggles currently select.
// Size and family are only tagged when they differ from the defaults.
func (t Toggles) Apply(tbl *StyleTable, d Defaults, start, end int) {
	if start >= end {
		return
	}
	if t.Bold {
		tbl.Add(BoldKind, start, end)
	}
	if t.Italic {
		tbl.Add(ItalicKind, start, end)
	}
	if t.Underline {
		tbl.Add(UnderlineKind, start, end)
	}
	if t.Size != d.Size {
		tbl.Add(SizeKind(t.Size), start, end)
	}
	if t.Family != d.Family {
		tbl.Add(FamilyKind(t.Family), start, end)
	}
}
