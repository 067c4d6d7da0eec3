// Package export turns a canvas document into printable or downloadable
// artifacts. Two strategies exist: a printable HTML document that defers
// pagination and rasterization to the platform print flow, and a direct
// PDF writer that draws the element tree onto a fixed A4 page. Both render
// without any editor chrome and neither mutates the document.
package export

import (
	"fmt"
	"io"
	"strings"

	"resumecanvas/internal/canvas"
	"resumecanvas/internal/errors"
	"resumecanvas/internal/render"

	"github.com/jung-kurt/gofpdf"
)

// A4 page metrics in millimeters and the conversion from page units.
const (
	pageWidthMM  = 210.0
	pageHeightMM = 297.0
	marginMM     = 10.0

	// Font sizes are stored in CSS pixels; PDF fonts take points.
	pxToPt = 72.0 / 96.0
	ptToMM = 25.4 / 72.0
)

// Options tunes the PDF writer. The zero value is usable.
type Options struct {
	Title  string
	Author string
}

// PDF draws the document onto a single A4 page and writes the finished PDF
// to w. Every color passes through normalization first; the writer only
// understands 8-bit RGB.
func PDF(w io.Writer, doc *canvas.Document, opts Options) error {
	snapshot := doc.Clone()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	if opts.Author != "" {
		pdf.SetAuthor(opts.Author, true)
	}
	pdf.AddPage()

	scale := (pageWidthMM - 2*marginMM) / canvas.PageWidth

	if r, g, b, ok := render.ParseRGB(render.NormalizeColor(snapshot.Background, render.FallbackBackground)); ok {
		pdf.SetFillColor(r, g, b)
		pdf.Rect(0, 0, pageWidthMM, pageHeightMM, "F")
	}

	for _, el := range snapshot.Elements {
		drawElement(pdf, el, scale)
	}

	if pdf.Err() {
		return errors.NewExportError(errors.ErrCodeExportFailed,
			"pdf generation failed", pdf.Error())
	}
	if err := pdf.Output(w); err != nil {
		return errors.NewExportError(errors.ErrCodeExportFailed,
			"failed to write pdf output", err)
	}
	return nil
}

func drawElement(pdf *gofpdf.Fpdf, el canvas.Element, scale float64) {
	x := marginMM + el.X*scale
	y := marginMM + el.Y*scale
	width := el.Width * scale
	height := el.Height * scale

	if el.BackgroundColor != "" && el.BackgroundColor != "transparent" {
		if r, g, b, ok := render.ParseRGB(render.NormalizeColor(el.BackgroundColor, render.FallbackBackground)); ok {
			pdf.SetFillColor(r, g, b)
			pdf.Rect(x, y, width, height, "F")
		}
	}

	if el.Kind == canvas.KindSection {
		// Children carry absolute page coordinates, so they are drawn in
		// the page frame rather than relative to the section box.
		for _, child := range el.Children {
			drawElement(pdf, child, scale)
		}
		return
	}

	if strings.TrimSpace(el.Content) == "" {
		return
	}

	size := el.FontSize
	if size <= 0 {
		size = 14
	}
	pdf.SetFont(fontFamily(el.FontFamily), fontStyle(el), size*pxToPt)

	r, g, b, ok := render.ParseRGB(render.NormalizeColor(el.Color, render.FallbackText))
	if !ok {
		r, g, b = 0, 0, 0
	}
	pdf.SetTextColor(r, g, b)

	lineHeight := el.LineHeight
	if lineHeight <= 0 {
		lineHeight = 1.4
	}
	lineMM := size * pxToPt * ptToMM * lineHeight

	pdf.SetXY(x, y)
	if el.Kind == canvas.KindList {
		drawList(pdf, el, x, width, lineMM)
		return
	}
	pdf.MultiCell(width, lineMM, el.Content, "", textAlign(el.TextAlign), false)
}

func drawList(pdf *gofpdf.Fpdf, el canvas.Element, x, width, lineMM float64) {
	index := 0
	for _, item := range strings.Split(el.Content, "\n") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		index++
		marker := "-"
		if el.ListStyle == canvas.ListNumbered {
			marker = fmt.Sprintf("%d.", index)
		}
		pdf.SetX(x)
		pdf.MultiCell(width, lineMM, fmt.Sprintf("%s %s", marker, item), "", "L", false)
	}
}

// fontFamily maps CSS font families onto the core PDF fonts.
func fontFamily(family string) string {
	switch strings.ToLower(strings.TrimSpace(strings.Split(family, ",")[0])) {
	case "times", "times new roman", "georgia", "serif":
		return "Times"
	case "courier", "courier new", "monospace":
		return "Courier"
	default:
		return "Helvetica"
	}
}

func fontStyle(el canvas.Element) string {
	var style string
	if el.FontWeight == "bold" {
		style += "B"
	}
	if el.FontStyle == "italic" {
		style += "I"
	}
	if el.TextDecoration == "underline" {
		style += "U"
	}
	return style
}

func textAlign(align string) string {
	switch align {
	case "center":
		return "C"
	case "right":
		return "R"
	case "justify":
		return "J"
	default:
		return "L"
	}
}
