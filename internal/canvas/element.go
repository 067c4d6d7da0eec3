// Package canvas defines the positional resume document model: a page-sized
// coordinate space holding absolutely positioned elements, and the pure tree
// transforms used to mutate it.
package canvas

import (
	"fmt"

	"github.com/google/uuid"
)

// Page dimensions in page-space units. Element geometry is clamped to these
// bounds regardless of zoom level.
const (
	PageWidth  = 800
	PageHeight = 1200
)

// Kind identifies what an element's content means. The set is closed;
// an unknown kind is a programming error, not a runtime condition.
type Kind string

const (
	KindHeading   Kind = "heading"
	KindText      Kind = "text"
	KindParagraph Kind = "paragraph"
	KindList      Kind = "list"
	KindSection   Kind = "section"
)

// Kinds lists every element kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindHeading, KindText, KindParagraph, KindList, KindSection}
}

// Valid reports whether k is one of the supported element kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindHeading, KindText, KindParagraph, KindList, KindSection:
		return true
	}
	return false
}

// ListStyle selects the marker rendered in front of each list item.
// The wire values match the backend contract ("bullet" / "number").
type ListStyle string

const (
	ListBullet   ListStyle = "bullet"
	ListNumbered ListStyle = "number"
)

// Element is a placeable unit of document content. Geometry is stored in
// page-space units, unscaled by zoom. Children are only populated for
// section elements and keep absolute page coordinates, not coordinates
// relative to the parent box.
type Element struct {
	ID              string    `json:"id"`
	Kind            Kind      `json:"type"`
	Content         string    `json:"content"`
	ListStyle       ListStyle `json:"listType,omitempty"`
	FontSize        float64   `json:"fontSize,omitempty"`
	FontFamily      string    `json:"fontFamily,omitempty"`
	FontWeight      string    `json:"fontWeight,omitempty"`
	FontStyle       string    `json:"fontStyle,omitempty"`
	TextDecoration  string    `json:"textDecoration,omitempty"`
	TextAlign       string    `json:"textAlign,omitempty"`
	Color           string    `json:"color,omitempty"`
	BackgroundColor string    `json:"backgroundColor,omitempty"`
	X               float64   `json:"x"`
	Y               float64   `json:"y"`
	Width           float64   `json:"width"`
	Height          float64   `json:"height"`
	LineHeight      float64   `json:"lineHeight,omitempty"`
	Children        []Element `json:"children,omitempty"`
}

// Document is the aggregate root exchanged with the backend. Elements are
// ordered by z-order: later elements paint over earlier ones.
type Document struct {
	Background string    `json:"background"`
	Layout     string    `json:"layout"`
	Elements   []Element `json:"elements"`
}

// NewElement returns a fresh element of the given kind with a unique id and
// kind-specific defaults. It panics on an unknown kind; callers hold the
// closed-enum invariant.
func NewElement(kind Kind) Element {
	el := Element{
		ID:              fmt.Sprintf("%s_%s", kind, uuid.NewString()),
		Kind:            kind,
		FontSize:        14,
		FontFamily:      "Arial",
		FontWeight:      "normal",
		FontStyle:       "normal",
		TextDecoration:  "none",
		TextAlign:       "left",
		Color:           "#000000",
		BackgroundColor: "transparent",
		X:               100,
		Y:               100,
		Width:           300,
		Height:          40,
		LineHeight:      1.4,
	}

	switch kind {
	case KindText:
		el.Content = "Double click to edit text"
	case KindHeading:
		el.Content = "Heading"
		el.FontSize = 24
		el.FontWeight = "bold"
		el.Height = 50
	case KindParagraph:
		el.Content = "Lorem ipsum dolor sit amet..."
		el.Width = 400
		el.Height = 80
	case KindList:
		el.Content = "Item 1\nItem 2\nItem 3"
		el.ListStyle = ListBullet
		el.Height = 80
	case KindSection:
		el.BackgroundColor = "#f0f0f0"
		el.Width = 200
		el.Height = 100
		el.Children = []Element{}
	default:
		panic(fmt.Sprintf("canvas: unknown element kind %q", kind))
	}

	return el
}

// Clone returns a deep copy of the element, including nested children.
func (e Element) Clone() Element {
	out := e
	if e.Children != nil {
		out.Children = make([]Element, len(e.Children))
		for i, c := range e.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := d
	out.Elements = cloneTree(d.Elements)
	return out
}

func cloneTree(els []Element) []Element {
	if els == nil {
		return nil
	}
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = el.Clone()
	}
	return out
}
