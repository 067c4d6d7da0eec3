package export

import (
	"fmt"
	"io"
	"sort"

	"resumecanvas/internal/canvas"
)

// Exporter writes one output representation of a document.
type Exporter interface {
	Export(w io.Writer, doc *canvas.Document) error
	ContentType() string
	Extension() string
}

// Registry maps format names to exporters.
type Registry struct {
	exporters map[string]Exporter
}

// NewRegistry creates a registry with the built-in formats registered.
func NewRegistry(opts Options) *Registry {
	r := &Registry{exporters: make(map[string]Exporter)}
	r.Register("pdf", pdfExporter{opts: opts})
	r.Register("html", htmlExporter{title: opts.Title})
	return r
}

// Register adds or replaces an exporter for a format name.
func (r *Registry) Register(format string, e Exporter) {
	r.exporters[format] = e
}

// Get returns the exporter for a format name.
func (r *Registry) Get(format string) (Exporter, error) {
	e, ok := r.exporters[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format '%s'. Supported formats: %v",
			format, r.SupportedFormats())
	}
	return e, nil
}

// SupportedFormats lists registered format names in stable order.
func (r *Registry) SupportedFormats() []string {
	formats := make([]string, 0, len(r.exporters))
	for name := range r.exporters {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats
}

type pdfExporter struct {
	opts Options
}

func (e pdfExporter) Export(w io.Writer, doc *canvas.Document) error {
	return PDF(w, doc, e.opts)
}

func (e pdfExporter) ContentType() string { return "application/pdf" }
func (e pdfExporter) Extension() string   { return "pdf" }

type htmlExporter struct {
	title string
}

func (e htmlExporter) Export(w io.Writer, doc *canvas.Document) error {
	return PrintHTML(w, doc, e.title)
}

func (e htmlExporter) ContentType() string { return "text/html; charset=utf-8" }
func (e htmlExporter) Extension() string   { return "html" }
