package canvas

// Patch carries a partial set of element fields to merge into an existing
// element. Nil fields are left untouched.
type Patch struct {
	Content         *string
	ListStyle       *ListStyle
	FontSize        *float64
	FontFamily      *string
	FontWeight      *string
	FontStyle       *string
	TextDecoration  *string
	TextAlign       *string
	Color           *string
	BackgroundColor *string
	X               *float64
	Y               *float64
	Width           *float64
	Height          *float64
	LineHeight      *float64
}

func (p Patch) apply(el Element) Element {
	if p.Content != nil {
		el.Content = *p.Content
	}
	if p.ListStyle != nil {
		el.ListStyle = *p.ListStyle
	}
	if p.FontSize != nil {
		el.FontSize = *p.FontSize
	}
	if p.FontFamily != nil {
		el.FontFamily = *p.FontFamily
	}
	if p.FontWeight != nil {
		el.FontWeight = *p.FontWeight
	}
	if p.FontStyle != nil {
		el.FontStyle = *p.FontStyle
	}
	if p.TextDecoration != nil {
		el.TextDecoration = *p.TextDecoration
	}
	if p.TextAlign != nil {
		el.TextAlign = *p.TextAlign
	}
	if p.Color != nil {
		el.Color = *p.Color
	}
	if p.BackgroundColor != nil {
		el.BackgroundColor = *p.BackgroundColor
	}
	if p.X != nil {
		el.X = *p.X
	}
	if p.Y != nil {
		el.Y = *p.Y
	}
	if p.Width != nil {
		el.Width = *p.Width
	}
	if p.Height != nil {
		el.Height = *p.Height
	}
	if p.LineHeight != nil {
		el.LineHeight = *p.LineHeight
	}
	return el
}

// FindByID performs a depth-first search over the tree, including nested
// children, and returns a copy of the first element with the given id.
// Ids are unique across the document, so the first match is the only match.
func FindByID(els []Element, id string) (Element, bool) {
	for _, el := range els {
		if el.ID == id {
			return el, true
		}
		if len(el.Children) > 0 {
			if found, ok := FindByID(el.Children, id); ok {
				return found, true
			}
		}
	}
	return Element{}, false
}

// UpdateByID returns a new tree in which the element with the given id has
// the patch merged in, wherever it is nested. Siblings and subtrees not on
// the path to the match keep their original backing. A missing id is a
// no-op: the input tree is returned unchanged.
func UpdateByID(els []Element, id string, patch Patch) []Element {
	updated, found := updateTree(els, id, patch)
	if !found {
		return els
	}
	return updated
}

func updateTree(els []Element, id string, patch Patch) ([]Element, bool) {
	for i, el := range els {
		if el.ID == id {
			out := make([]Element, len(els))
			copy(out, els)
			out[i] = patch.apply(el)
			return out, true
		}
		if len(el.Children) > 0 {
			if children, ok := updateTree(el.Children, id, patch); ok {
				out := make([]Element, len(els))
				copy(out, els)
				out[i].Children = children
				return out, true
			}
		}
	}
	return els, false
}

// DeleteByID returns a new tree with the element of the given id removed,
// whether it sits at the top level or inside a section. A missing id is a
// no-op.
func DeleteByID(els []Element, id string) []Element {
	deleted, found := deleteTree(els, id)
	if !found {
		return els
	}
	return deleted
}

func deleteTree(els []Element, id string) ([]Element, bool) {
	for i, el := range els {
		if el.ID == id {
			out := make([]Element, 0, len(els)-1)
			out = append(out, els[:i]...)
			out = append(out, els[i+1:]...)
			return out, true
		}
		if len(el.Children) > 0 {
			if children, ok := deleteTree(el.Children, id); ok {
				out := make([]Element, len(els))
				copy(out, els)
				out[i].Children = children
				return out, true
			}
		}
	}
	return els, false
}

// DeleteMany removes the top-level elements whose ids appear in ids. Group
// deletion deliberately does not descend into section children.
func DeleteMany(els []Element, ids []string) []Element {
	if len(ids) == 0 {
		return els
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		if !drop[el.ID] {
			out = append(out, el)
		}
	}
	return out
}

// CollectIDs returns every id in the tree, including nested children, in
// depth-first order.
func CollectIDs(els []Element) []string {
	var ids []string
	for _, el := range els {
		ids = append(ids, el.ID)
		if len(el.Children) > 0 {
			ids = append(ids, CollectIDs(el.Children)...)
		}
	}
	return ids
}

// Clamp constrains v to [lo, hi]. When hi < lo (element larger than the
// page) the lower bound wins.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// ClampPosition constrains an element origin so the element stays fully on
// the page, per axis.
func ClampPosition(x, y, width, height float64) (float64, float64) {
	return Clamp(x, 0, PageWidth-width), Clamp(y, 0, PageHeight-height)
}
