// Package render maps a canvas document to absolutely positioned HTML,
// purely as a function of the document and the view state. It holds no
// state of its own.
package render

import (
	"fmt"
	"html"
	"strings"

	"resumecanvas/internal/canvas"
)

// On-screen page box in CSS pixels (A4 at 96dpi) and the grid spacing in
// page units.
const (
	pagePixelWidth  = 794
	pagePixelHeight = 1123
	gridSpacing     = 20
)

// View captures everything about the current editing session that affects
// rendering besides the document itself. With EditorChrome false the output
// carries no selection borders, grid, or hover affordances; that is the
// form handed to the export pipeline.
type View struct {
	Zoom         int
	ShowGrid     bool
	SelectedID   string
	SelectedIDs  []string
	DraggingID   string
	EditorChrome bool
}

// DefaultView is the view used outside an editing session: 100% zoom, no
// grid, no chrome.
func DefaultView() View {
	return View{Zoom: 100}
}

// Page renders the document into the scaled canvas wrapper: an outer
// scroll area, the zoom transform anchored top-center, and the page box
// with every element positioned absolutely inside it.
func Page(doc *canvas.Document, view View) string {
	zoom := view.Zoom
	if zoom == 0 {
		zoom = 100
	}

	var b strings.Builder
	b.WriteString(`<div class="canvas-area" style="`)
	if view.ShowGrid && view.EditorChrome {
		fmt.Fprintf(&b,
			"background-image:linear-gradient(to right, #e2e8f0 1px, transparent 1px),linear-gradient(to bottom, #e2e8f0 1px, transparent 1px);background-size:%dpx %dpx;",
			gridSpacing, gridSpacing)
	}
	b.WriteString(`">`)

	fmt.Fprintf(&b, `<div style="transform:scale(%g);transform-origin:top center;">`, float64(zoom)/100)

	background := NormalizeColor(doc.Background, FallbackBackground)
	fmt.Fprintf(&b,
		`<div class="resume-page" style="position:relative;background:%s;width:%dpx;min-height:%dpx;overflow:visible;">`,
		background, pagePixelWidth, pagePixelHeight)

	for _, el := range doc.Elements {
		writeElement(&b, el, view)
	}

	b.WriteString(`</div></div></div>`)
	return b.String()
}

func writeElement(b *strings.Builder, el canvas.Element, view View) {
	fmt.Fprintf(b, `<div data-id="%s" data-kind="%s" style="%s">`,
		html.EscapeString(el.ID), el.Kind, elementStyle(el, view))

	if el.Kind == canvas.KindSection {
		// Children keep absolute page coordinates; the section box does not
		// re-anchor them.
		for _, child := range el.Children {
			writeElement(b, child, view)
		}
	} else {
		writeContent(b, el)
	}

	b.WriteString(`</div>`)
}

// elementStyle computes the inline style for one element from its stored
// geometry and style fields.
func elementStyle(el canvas.Element, view View) string {
	var s strings.Builder

	fmt.Fprintf(&s, "position:absolute;left:%gpx;top:%gpx;width:%gpx;min-height:%gpx;",
		el.X, el.Y, el.Width, el.Height)

	if el.FontSize > 0 {
		fmt.Fprintf(&s, "font-size:%gpx;", el.FontSize)
	}
	if el.FontFamily != "" {
		fmt.Fprintf(&s, "font-family:%s;", el.FontFamily)
	}
	if el.FontWeight != "" {
		fmt.Fprintf(&s, "font-weight:%s;", el.FontWeight)
	}
	if el.FontStyle != "" {
		fmt.Fprintf(&s, "font-style:%s;", el.FontStyle)
	}
	if el.TextDecoration != "" {
		fmt.Fprintf(&s, "text-decoration:%s;", el.TextDecoration)
	}
	if el.TextAlign != "" {
		fmt.Fprintf(&s, "text-align:%s;", el.TextAlign)
	}
	if el.Color != "" {
		fmt.Fprintf(&s, "color:%s;", NormalizeColor(el.Color, FallbackText))
	}
	if el.BackgroundColor != "" && el.BackgroundColor != "transparent" {
		fmt.Fprintf(&s, "background-color:%s;", NormalizeColor(el.BackgroundColor, FallbackBackground))
	}
	if el.LineHeight > 0 {
		fmt.Fprintf(&s, "line-height:%g;", el.LineHeight)
	}

	s.WriteString("margin:0;padding:8px 12px;white-space:pre-wrap;word-wrap:break-word;overflow:visible;box-sizing:border-box;border-radius:4px;")

	if view.EditorChrome {
		if view.SelectedID == el.ID || containsID(view.SelectedIDs, el.ID) {
			s.WriteString("border:2px solid #3b82f6;")
		} else {
			s.WriteString("border:1px solid transparent;")
		}
		if view.DraggingID == el.ID {
			s.WriteString("cursor:grabbing;")
		} else {
			s.WriteString("cursor:move;")
		}
		s.WriteString("user-select:none;")
	}

	return s.String()
}

func writeContent(b *strings.Builder, el canvas.Element) {
	switch el.Kind {
	case canvas.KindList:
		b.WriteString(`<div>`)
		index := 0
		for _, item := range strings.Split(el.Content, "\n") {
			if strings.TrimSpace(item) == "" {
				continue
			}
			index++
			marker := "•"
			if el.ListStyle == canvas.ListNumbered {
				marker = fmt.Sprintf("%d.", index)
			}
			fmt.Fprintf(b,
				`<div style="display:flex;align-items:flex-start;margin-bottom:4px;"><span style="margin-right:8px;">%s</span><span>%s</span></div>`,
				marker, html.EscapeString(item))
		}
		b.WriteString(`</div>`)
	case canvas.KindHeading:
		fmt.Fprintf(b, `<h1 style="margin:0;font-size:%gpx;">%s</h1>`, el.FontSize, html.EscapeString(el.Content))
	case canvas.KindParagraph:
		fmt.Fprintf(b, `<p style="margin:0;font-size:%gpx;">%s</p>`, el.FontSize, html.EscapeString(el.Content))
	default:
		b.WriteString(html.EscapeString(el.Content))
	}
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
