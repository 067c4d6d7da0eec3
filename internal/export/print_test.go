package export

import (
	"bytes"
	"strings"
	"testing"

	"resumecanvas/internal/canvas"
)

func TestPrintHTML(t *testing.T) {
	doc := exportDoc()

	var buf bytes.Buffer
	if err := PrintHTML(&buf, &doc, "My Resume"); err != nil {
		t.Fatalf("PrintHTML: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "@page { size: A4;") {
		t.Error("printable output must pin the page size")
	}
	if !strings.Contains(out, "<title>My Resume</title>") {
		t.Error("title missing from printable output")
	}
	if !strings.Contains(out, "print-color-adjust: exact") {
		t.Error("printable output must force exact color printing")
	}
	// Rendered without editor chrome
	if strings.Contains(out, "border:2px solid #3b82f6;") {
		t.Error("selection borders must not appear in printable output")
	}
	if strings.Contains(out, "background-size:20px 20px;") {
		t.Error("grid overlay must not appear in printable output")
	}
}

func TestPrintHTMLDefaultTitle(t *testing.T) {
	doc := canvas.Document{}

	var buf bytes.Buffer
	if err := PrintHTML(&buf, &doc, ""); err != nil {
		t.Fatalf("PrintHTML: %v", err)
	}
	if !strings.Contains(buf.String(), "<title>Resume</title>") {
		t.Error("empty title must fall back to Resume")
	}
}

func TestPrintHTMLEscapesTitle(t *testing.T) {
	doc := canvas.Document{}

	var buf bytes.Buffer
	if err := PrintHTML(&buf, &doc, `<b>Resume</b>`); err != nil {
		t.Fatalf("PrintHTML: %v", err)
	}
	if strings.Contains(buf.String(), "<title><b>") {
		t.Error("title must be HTML-escaped")
	}
}
