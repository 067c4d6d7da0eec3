package export

import (
	"fmt"
	"html"
	"io"

	"resumecanvas/internal/canvas"
	"resumecanvas/internal/errors"
	"resumecanvas/internal/render"
)

// printStyles pins the page size and forces exact color printing so the
// browser's "save as PDF" output matches the on-screen canvas.
const printStyles = `@page { size: A4; margin: 0.5in; }
body { margin: 0; -webkit-print-color-adjust: exact; print-color-adjust: exact; background: #fff;
  font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; }
.canvas-area { display: flex; justify-content: center; }`

// PrintHTML writes a self-contained printable HTML document to w. The
// canvas is rendered at 100% zoom with editor chrome disabled, so the
// output never shows selection borders or the grid overlay.
func PrintHTML(w io.Writer, doc *canvas.Document, title string) error {
	if title == "" {
		title = "Resume"
	}

	snapshot := doc.Clone()
	markup := render.Page(&snapshot, render.DefaultView())

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>%s</style>
</head>
<body>%s</body>
</html>
`, html.EscapeString(title), printStyles, markup)

	if _, err := io.WriteString(w, page); err != nil {
		return errors.NewExportError(errors.ErrCodeExportFailed,
			"failed to write printable document", err)
	}
	return nil
}
