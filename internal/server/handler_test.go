package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resumecanvas/internal/canvas"
	"resumecanvas/internal/config"
	"resumecanvas/internal/editor"
	"resumecanvas/internal/errors"
	"resumecanvas/internal/observability"
)

func newTestServer(t *testing.T, backendURL string, apiKeys []string, rateLimit *config.RateLimitConfig) (*Server, http.Handler) {
	t.Helper()

	logger, err := errors.New("error")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	appCfg := &config.Config{
		Backend: config.BackendConfig{
			BaseURL:    backendURL,
			Timeout:    5 * time.Second,
			MaxRetries: 1,
		},
		App: config.AppConfig{
			DefaultFormat:    "pdf",
			SupportedFormats: []string{"pdf", "html"},
			MaxFileSize:      1 << 20,
		},
		Export: config.ExportConfig{Title: "Resume"},
		Share:  config.ShareConfig{BaseURL: "http://localhost:8080"},
	}

	srv := NewServer(appCfg, ServerConfig{
		Version:        "test",
		APIKeys:        apiKeys,
		MaxRequestSize: 1 << 20,
		SessionTTL:     time.Hour,
		RateLimit:      rateLimit,
	}, logger)
	t.Cleanup(srv.Sessions.Close)
	if srv.RateLimiter != nil {
		t.Cleanup(srv.RateLimiter.Close)
	}

	om, err := observability.NewObservabilityManager(
		observability.ObservabilityConfig{Enabled: false}, appCfg)
	if err != nil {
		t.Fatalf("failed to create observability manager: %v", err)
	}

	return srv, srv.setupRoutes(om)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) SessionResponse {
	t.Helper()

	var resp SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode session response: %v", err)
	}
	return resp
}

func createInlineSession(t *testing.T, h http.Handler) string {
	t.Helper()

	doc := canvas.Document{
		Elements: []canvas.Element{canvas.NewElement(canvas.KindText)},
	}
	rec := doJSON(t, h, http.MethodPost, "/sessions", CreateSessionRequest{Data: &doc})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp CreateSessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	if resp.SessionID == "" {
		t.Fatal("create session returned empty session ID")
	}
	return resp.SessionID
}

func TestCreateAndGetSession(t *testing.T) {
	_, h := newTestServer(t, "http://backend.invalid", nil, nil)

	sid := createInlineSession(t, h)

	rec := doJSON(t, h, http.MethodGet, "/sessions/"+sid, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get session status = %d, want %d", rec.Code, http.StatusOK)
	}

	resp := decodeSession(t, rec)
	if resp.SessionID != sid {
		t.Errorf("sessionId = %q, want %q", resp.SessionID, sid)
	}
	if resp.State != "idle" {
		t.Errorf("state = %q, want %q", resp.State, "idle")
	}
	if resp.Zoom != 100 {
		t.Errorf("zoom = %d, want 100", resp.Zoom)
	}
	if len(resp.Document.Elements) != 1 {
		t.Errorf("document has %d elements, want 1", len(resp.Document.Elements))
	}
}

func TestCreateSessionMissingSource(t *testing.T) {
	_, h := newTestServer(t, "http://backend.invalid", nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/sessions", CreateSessionRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateSessionRequiresJSONContentType(t *testing.T) {
	_, h := newTestServer(t, "http://backend.invalid", nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"data":{}}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	_, h := newTestServer(t, "http://backend.invalid", nil, nil)

	rec := doJSON(t, h, http.MethodGet, "/sessions/no-such-session", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestDeleteSession(t *testing.T) {
	_, h := newTestServer(t, "http://backend.invalid", nil, nil)

	sid := createInlineSession(t, h)

	rec := doJSON(t, h, http.MethodDelete, "/sessions/"+sid, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	rec = doJSON(t, h, http.MethodGet, "/sessions/"+sid, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestOpsFlow(t *testing.T) {
	_, h := newTestServer(t, "http://backend.invalid", nil, nil)
	sid := createInlineSession(t, h)
	opsPath := "/sessions/" + sid + "/ops"

	// Adding an element selects it and marks the session dirty
	rec := doJSON(t, h, http.MethodPost, opsPath, OpRequest{Op: "add", Kind: "heading"})
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeSession(t, rec)
	if resp.State != "selected" {
		t.Errorf("state after add = %q, want %q", resp.State, "selected")
	}
	if resp.SelectedID == "" {
		t.Error("add did not select the new element")
	}
	if !resp.Unsaved {
		t.Error("add did not mark the session unsaved")
	}
	if len(resp.Document.Elements) != 2 {
		t.Errorf("document has %d elements after add, want 2", len(resp.Document.Elements))
	}

	// Clicking the page background deselects
	rec = doJSON(t, h, http.MethodPost, opsPath, OpRequest{Op: "canvas_click"})
	resp = decodeSession(t, rec)
	if resp.State != "idle" || resp.SelectedID != "" {
		t.Errorf("state after canvas_click = %q selected %q, want idle and empty", resp.State, resp.SelectedID)
	}

	rec = doJSON(t, h, http.MethodPost, opsPath, OpRequest{Op: "zoom_in"})
	resp = decodeSession(t, rec)
	if resp.Zoom != 125 {
		t.Errorf("zoom after zoom_in = %d, want 125", resp.Zoom)
	}

	rec = doJSON(t, h, http.MethodPost, opsPath, OpRequest{Op: "toggle_grid"})
	resp = decodeSession(t, rec)
	if !resp.ShowGrid {
		t.Error("toggle_grid did not enable the grid")
	}
}

func TestOpsDragMovesElement(t *testing.T) {
	_, h := newTestServer(t, "http://backend.invalid", nil, nil)
	sid := createInlineSession(t, h)
	opsPath := "/sessions/" + sid + "/ops"

	rec := doJSON(t, h, http.MethodGet, "/sessions/"+sid, nil)
	id := decodeSession(t, rec).Document.Elements[0].ID

	doJSON(t, h, http.MethodPost, opsPath, OpRequest{Op: "click", ID: id})
	doJSON(t, h, http.MethodPost, opsPath, OpRequest{
		Op: "begin_drag", ID: id, Pointer: &editor.Pointer{X: 400, Y: 400},
	})
	rec = doJSON(t, h, http.MethodPost, opsPath, OpRequest{
		Op: "drag", Pointer: &editor.Pointer{X: 420, Y: 410},
	})
	resp := decodeSession(t, rec)
	if resp.State != "dragging" {
		t.Errorf("state during drag = %q, want %q", resp.State, "dragging")
	}

	rec = doJSON(t, h, http.MethodPost, opsPath, OpRequest{Op: "end_drag"})
	resp = decodeSession(t, rec)
	moved := resp.Document.Elements[0]
	if moved.X != 120 || moved.Y != 110 {
		t.Errorf("element position = (%g, %g), want (120, 110)", moved.X, moved.Y)
	}
}

func TestOpsUnknownOperation(t *testing.T) {
	_, h := newTestServer(t, "http://backend.invalid", nil, nil)
	sid := createInlineSession(t, h)

	rec := doJSON(t, h, http.MethodPost, "/sessions/"+sid+"/ops", OpRequest{Op: "teleport"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestOpsUnknownElementKind(t *testing.T) {
	_, h := newTestServer(t, "http://backend.invalid", nil, nil)
	sid := createInlineSession(t, h)

	rec := doJSON(t, h, http.MethodPost, "/sessions/"+sid+"/ops", OpRequest{Op: "add", Kind: "table"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSaveInlineSessionRejected(t *testing.T) {
	_, h := newTestServer(t, "http://backend.invalid", nil, nil)
	sid := createInlineSession(t, h)

	rec := doJSON(t, h, http.MethodPost, "/sessions/"+sid+"/save", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}

func TestSaveBackendSession(t *testing.T) {
	var saved int
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/resume/pdfview/doc-1":
			doc := canvas.Document{
				Elements: []canvas.Element{canvas.NewElement(canvas.KindText)},
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"data": doc})
		case r.Method == http.MethodPut && r.URL.Path == "/resume/update/doc-1":
			saved++
			_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
		default:
			http.NotFound(w, r)
		}
	}))
	defer backend.Close()

	_, h := newTestServer(t, backend.URL, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/sessions", CreateSessionRequest{ID: "doc-1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session status = %d: %s", rec.Code, rec.Body.String())
	}
	var created CreateSessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	sid := created.SessionID

	// Nothing changed yet, so there is nothing to flush
	rec = doJSON(t, h, http.MethodPost, "/sessions/"+sid+"/save", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("save without edits status = %d, want %d", rec.Code, http.StatusConflict)
	}

	doJSON(t, h, http.MethodPost, "/sessions/"+sid+"/ops", OpRequest{Op: "add", Kind: "text"})

	rec = doJSON(t, h, http.MethodPost, "/sessions/"+sid+"/save", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body.String())
	}
	if saved != 1 {
		t.Errorf("backend received %d saves, want 1", saved)
	}

	rec = doJSON(t, h, http.MethodGet, "/sessions/"+sid, nil)
	if resp := decodeSession(t, rec); resp.Unsaved {
		t.Error("session still marked unsaved after successful save")
	}
}

func TestRenderHandler(t *testing.T) {
	_, h := newTestServer(t, "http://backend.invalid", nil, nil)
	sid := createInlineSession(t, h)

	rec := doJSON(t, h, http.MethodGet, "/sessions/"+sid+"/render", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("render status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "transform:scale(1)") {
		t.Error("render output missing zoom transform")
	}
	if !strings.Contains(body, "Double click to edit text") {
		t.Error("render output missing element content")
	}
}

func TestExportHandlerPDF(t *testing.T) {
	_, h := newTestServer(t, "http://backend.invalid", nil, nil)
	sid := createInlineSession(t, h)

	rec := doJSON(t, h, http.MethodGet, "/sessions/"+sid+"/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q, want application/pdf", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename=resume.pdf" {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("export output is not a PDF document")
	}
}

func TestExportHandlerUnsupportedFormat(t *testing.T) {
	_, h := newTestServer(t, "http://backend.invalid", nil, nil)
	sid := createInlineSession(t, h)

	rec := doJSON(t, h, http.MethodGet, "/sessions/"+sid+"/export?format=docx", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestPrintHandler(t *testing.T) {
	_, h := newTestServer(t, "http://backend.invalid", nil, nil)
	sid := createInlineSession(t, h)

	rec := doJSON(t, h, http.MethodGet, "/sessions/"+sid+"/print", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("print status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "@page { size: A4;") {
		t.Error("print output missing print page styles")
	}
}

func TestShareHandler(t *testing.T) {
	_, h := newTestServer(t, "http://backend.invalid", nil, nil)
	sid := createInlineSession(t, h)

	rec := doJSON(t, h, http.MethodPost, "/sessions/"+sid+"/share", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("share status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp ShareResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode share response: %v", err)
	}
	if !strings.HasPrefix(resp.URL, "http://localhost:8080/resume/share?data=") {
		t.Errorf("share URL = %q, want share link under configured base", resp.URL)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, h := newTestServer(t, "http://backend.invalid", []string{"secret-key-123"}, nil)

	doc := canvas.Document{}
	payload, _ := json.Marshal(CreateSessionRequest{Data: &doc})

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{"missing key", "", "", http.StatusUnauthorized},
		{"invalid key", "X-API-Key", "wrong-key", http.StatusUnauthorized},
		{"valid key", "X-API-Key", "secret-key-123", http.StatusCreated},
		{"valid bearer", "Authorization", "Bearer secret-key-123", http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHealthUnprotected(t *testing.T) {
	_, h := newTestServer(t, "http://backend.invalid", []string{"secret-key-123"}, nil)

	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", resp["status"])
	}
	if resp["service"] != "resumecanvas" {
		t.Errorf("service = %v, want resumecanvas", resp["service"])
	}
}

func TestStatsHandler(t *testing.T) {
	_, h := newTestServer(t, "http://backend.invalid", nil, nil)
	createInlineSession(t, h)

	rec := doJSON(t, h, http.MethodGet, "/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode stats response: %v", err)
	}
	sessions, ok := resp["sessions"].(map[string]any)
	if !ok || sessions["active"] != float64(1) {
		t.Errorf("sessions = %v, want 1 active", resp["sessions"])
	}
}

func TestRateLimitExceeded(t *testing.T) {
	rl := &config.RateLimitConfig{
		Enabled:        true,
		RequestsPerMin: 60,
		BurstCapacity:  2,
		ByIP:           true,
		Window:         time.Minute,
	}
	_, h := newTestServer(t, "http://backend.invalid", nil, rl)

	var last int
	for range 3 {
		rec := doJSON(t, h, http.MethodGet, "/sessions/no-such-session", nil)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want %d", last, http.StatusTooManyRequests)
	}
}
