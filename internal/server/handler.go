package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"resumecanvas/internal/canvas"
	"resumecanvas/internal/editor"
	"resumecanvas/internal/export"
	"resumecanvas/internal/observability"
	"resumecanvas/internal/render"
	"resumecanvas/internal/share"

	"go.opentelemetry.io/otel/attribute"
)

// createSessionHandler opens an editor session from a backend document ID
// or an inline document
func (s *Server) createSessionHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumecanvas.api")
		ctx, span := tracer.Start(ctx, "api.session.create")
		defer span.End()

		var req CreateSessionRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if req.ID == "" && req.Data == nil {
			err := fmt.Errorf("missing document source")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing document source", "either id or data field is required", http.StatusBadRequest)
			return
		}

		var doc canvas.Document
		documentID := req.ID
		if req.Data != nil {
			doc = *req.Data
		} else {
			loaded, err := s.Backend.Load(ctx, req.ID)
			if err != nil {
				span.RecordError(err)
				span.SetAttributes(attribute.String("error.type", "load"))
				om.GetMetrics().RecordBusinessMetric(ctx, "session_created", false,
					attribute.String("source", "backend"))
				writeAppErrorResponse(w, s.Logger, err)
				return
			}
			doc = *loaded
		}

		sid := s.Sessions.Create(doc, documentID)

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("session.id", sid),
			attribute.Int("document.elements", len(doc.Elements)),
		)
		om.GetMetrics().RecordBusinessMetric(ctx, "session_created", true,
			attribute.Bool("inline", req.Data != nil))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(CreateSessionResponse{SessionID: sid}); err != nil {
			span.RecordError(err)
		}
	}
}

// getSessionHandler returns the full session state
func (s *Server) getSessionHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tracer := om.Tracer("resumecanvas.api")
		_, span := tracer.Start(r.Context(), "api.session.get")
		defer span.End()

		sid := r.PathValue("sid")
		session, _, err := s.Sessions.Get(sid)
		if err != nil {
			span.RecordError(err)
			writeAppErrorResponse(w, s.Logger, err)
			return
		}

		span.SetAttributes(attribute.String("session.id", sid))
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(sessionResponse(sid, session.Snapshot())); err != nil {
			span.RecordError(err)
		}
	}
}

// deleteSessionHandler discards a session and its unsaved edits
func (s *Server) deleteSessionHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tracer := om.Tracer("resumecanvas.api")
		_, span := tracer.Start(r.Context(), "api.session.delete")
		defer span.End()

		sid := r.PathValue("sid")
		s.Sessions.Delete(sid)

		span.SetAttributes(attribute.String("session.id", sid))
		w.WriteHeader(http.StatusNoContent)
	}
}

// opsHandler applies one editor operation to a session and returns the
// resulting state
func (s *Server) opsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumecanvas.api")
		ctx, span := tracer.Start(ctx, "api.session.ops")
		defer span.End()

		sid := r.PathValue("sid")
		session, _, err := s.Sessions.Get(sid)
		if err != nil {
			span.RecordError(err)
			writeAppErrorResponse(w, s.Logger, err)
			return
		}

		var req OpRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("session.id", sid),
			attribute.String("operation", req.Op),
		)

		metrics := om.GetMetrics()
		err = metrics.TrackOperation(ctx, req.Op, func(ctx context.Context) error {
			return applyOp(session, req)
		})
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Unknown operation", err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(sessionResponse(sid, session.Snapshot())); err != nil {
			span.RecordError(err)
		}
	}
}

// applyOp dispatches one wire operation onto the session state machine
func applyOp(session *editor.Session, req OpRequest) error {
	switch req.Op {
	case "add":
		kind := canvas.Kind(req.Kind)
		if !kind.Valid() {
			return fmt.Errorf("unknown element kind: %q", req.Kind)
		}
		session.AddElement(kind)
	case "click":
		session.Click(req.ID)
	case "shift_click":
		session.ShiftClick(req.ID)
	case "canvas_click":
		session.CanvasClick()
	case "toggle_group_select":
		session.ToggleGroupSelect()
	case "begin_drag":
		if req.Pointer == nil {
			return fmt.Errorf("begin_drag requires a pointer")
		}
		session.BeginDrag(req.ID, *req.Pointer)
	case "drag":
		if req.Pointer == nil {
			return fmt.Errorf("drag requires a pointer")
		}
		session.Drag(*req.Pointer)
	case "end_drag":
		session.EndDrag()
	case "start_text_edit":
		session.StartTextEdit(req.ID)
	case "set_scratch":
		session.SetScratch(req.Content)
	case "save_text_edit":
		session.SaveTextEdit()
	case "cancel_text_edit":
		session.CancelTextEdit()
	case "delete_selected":
		session.DeleteSelected()
	case "delete_group":
		session.DeleteGroup()
	case "toggle_bold":
		session.ToggleBold()
	case "toggle_italic":
		session.ToggleItalic()
	case "toggle_underline":
		session.ToggleUnderline()
	case "set_background":
		session.SetBackground(req.Color)
	case "clear_background":
		session.ClearBackground()
	case "set_list_style":
		style := canvas.ListStyle(req.ListStyle)
		if style != canvas.ListBullet && style != canvas.ListNumbered {
			return fmt.Errorf("unknown list style: %q", req.ListStyle)
		}
		session.SetListStyle(style)
	case "zoom_in":
		session.ZoomIn()
	case "zoom_out":
		session.ZoomOut()
	case "toggle_grid":
		session.ToggleGrid()
	case "reset":
		session.Reset()
	default:
		return fmt.Errorf("unknown operation: %q", req.Op)
	}
	return nil
}

// renderHandler returns the canvas HTML for the current session state
func (s *Server) renderHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tracer := om.Tracer("resumecanvas.api")
		_, span := tracer.Start(r.Context(), "api.session.render")
		defer span.End()

		sid := r.PathValue("sid")
		session, _, err := s.Sessions.Get(sid)
		if err != nil {
			span.RecordError(err)
			writeAppErrorResponse(w, s.Logger, err)
			return
		}

		snap := session.Snapshot()
		view := render.View{
			Zoom:         snap.Zoom,
			ShowGrid:     snap.ShowGrid,
			SelectedID:   snap.SelectedID,
			SelectedIDs:  snap.SelectedIDs,
			DraggingID:   snap.DraggingID,
			EditorChrome: true,
		}

		span.SetAttributes(
			attribute.String("session.id", sid),
			attribute.Int("zoom", snap.Zoom),
		)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write([]byte(render.Page(&snap.Document, view))); err != nil {
			span.RecordError(err)
		}
	}
}

// exportHandler streams the session document in the requested format
// (?format=pdf|html, default from config)
func (s *Server) exportHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumecanvas.api")
		ctx, span := tracer.Start(ctx, "api.session.export")
		defer span.End()

		sid := r.PathValue("sid")
		session, _, err := s.Sessions.Get(sid)
		if err != nil {
			span.RecordError(err)
			writeAppErrorResponse(w, s.Logger, err)
			return
		}

		format := r.URL.Query().Get("format")
		if format == "" {
			format = s.AppConfig.App.DefaultFormat
		}

		exporter, err := s.Exports.Get(format)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Unsupported format", err.Error(), http.StatusBadRequest)
			return
		}

		doc := session.Document()

		span.SetAttributes(
			attribute.String("session.id", sid),
			attribute.String("format", format),
		)

		w.Header().Set("Content-Type", exporter.ContentType())
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=resume.%s", exporter.Extension()))

		metrics := om.GetMetrics()
		if err := exporter.Export(w, &doc); err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "document_exported", false,
				attribute.String("format", format))
			s.Logger.LogError(err, "Document export failed", "session_id", sid, "format", format)
			return
		}

		metrics.RecordBusinessMetric(ctx, "document_exported", true,
			attribute.String("format", format))
	}
}

// printHandler returns a standalone printable HTML document
func (s *Server) printHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tracer := om.Tracer("resumecanvas.api")
		_, span := tracer.Start(r.Context(), "api.session.print")
		defer span.End()

		sid := r.PathValue("sid")
		session, _, err := s.Sessions.Get(sid)
		if err != nil {
			span.RecordError(err)
			writeAppErrorResponse(w, s.Logger, err)
			return
		}

		doc := session.Document()

		span.SetAttributes(attribute.String("session.id", sid))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := export.PrintHTML(w, &doc, s.AppConfig.Export.Title); err != nil {
			span.RecordError(err)
			s.Logger.LogError(err, "Printable export failed", "session_id", sid)
		}
	}
}

// saveHandler flushes the session document to the backend
func (s *Server) saveHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumecanvas.api")
		ctx, span := tracer.Start(ctx, "api.session.save")
		defer span.End()

		sid := r.PathValue("sid")
		session, documentID, err := s.Sessions.Get(sid)
		if err != nil {
			span.RecordError(err)
			writeAppErrorResponse(w, s.Logger, err)
			return
		}

		if documentID == "" {
			err := fmt.Errorf("session has no backend document")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Nowhere to save", "session was opened from an inline document", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("session.id", sid),
			attribute.String("document.id", documentID),
		)

		metrics := om.GetMetrics()
		err = metrics.TrackOperation(ctx, "save", func(ctx context.Context) error {
			return session.Save(ctx, s.Backend, documentID)
		})
		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "document_saved", false)
			writeAppErrorResponse(w, s.Logger, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "document_saved", true)
		span.SetAttributes(attribute.Bool("success", true))

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]bool{"ok": true}); err != nil {
			span.RecordError(err)
		}
	}
}

// shareHandler encodes the session document into a share link
func (s *Server) shareHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumecanvas.api")
		ctx, span := tracer.Start(ctx, "api.session.share")
		defer span.End()

		sid := r.PathValue("sid")
		session, _, err := s.Sessions.Get(sid)
		if err != nil {
			span.RecordError(err)
			writeAppErrorResponse(w, s.Logger, err)
			return
		}

		link, err := share.EncodeLink(s.AppConfig.Share.BaseURL, session.Document())
		if err != nil {
			span.RecordError(err)
			om.GetMetrics().RecordBusinessMetric(ctx, "share_link_created", false)
			writeAppErrorResponse(w, s.Logger, err)
			return
		}

		om.GetMetrics().RecordBusinessMetric(ctx, "share_link_created", true)
		span.SetAttributes(
			attribute.String("session.id", sid),
			attribute.Int("link.length", len(link)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(ShareResponse{URL: link}); err != nil {
			span.RecordError(err)
		}
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			// If rate limited, record metric
			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
