package server

import (
	stderrors "errors"
	"testing"
	"time"

	"resumecanvas/internal/canvas"
	"resumecanvas/internal/errors"
)

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()

	logger, err := errors.New("error")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	st := NewSessionStore(time.Hour, logger)
	t.Cleanup(st.Close)
	return st
}

func storeDoc() canvas.Document {
	return canvas.Document{
		Elements: []canvas.Element{canvas.NewElement(canvas.KindText)},
	}
}

func TestSessionStoreCreateAndGet(t *testing.T) {
	st := newTestStore(t)

	sid := st.Create(storeDoc(), "doc-42")
	if sid == "" {
		t.Fatal("Create returned empty session ID")
	}

	session, documentID, err := st.Get(sid)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if session == nil {
		t.Fatal("Get returned nil session")
	}
	if documentID != "doc-42" {
		t.Errorf("documentID = %q, want %q", documentID, "doc-42")
	}
	if got := len(session.Document().Elements); got != 1 {
		t.Errorf("session document has %d elements, want 1", got)
	}
}

func TestSessionStoreGetUnknown(t *testing.T) {
	st := newTestStore(t)

	_, _, err := st.Get("no-such-session")
	if err == nil {
		t.Fatal("expected error for unknown session")
	}

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeSessionNotFound {
		t.Errorf("error code = %q, want %q", appErr.Code, errors.ErrCodeSessionNotFound)
	}
	if appErr.Context["session_id"] != "no-such-session" {
		t.Errorf("session_id context = %v, want %q", appErr.Context["session_id"], "no-such-session")
	}
}

func TestSessionStoreDelete(t *testing.T) {
	st := newTestStore(t)

	sid := st.Create(storeDoc(), "")
	st.Delete(sid)

	if _, _, err := st.Get(sid); err == nil {
		t.Error("expected error after Delete")
	}

	// Deleting a missing session is a no-op
	st.Delete(sid)
	st.Delete("never-existed")
}

func TestSessionStoreCount(t *testing.T) {
	st := newTestStore(t)

	if st.Count() != 0 {
		t.Fatalf("empty store Count = %d, want 0", st.Count())
	}

	a := st.Create(storeDoc(), "")
	st.Create(storeDoc(), "doc-1")
	if st.Count() != 2 {
		t.Errorf("Count = %d, want 2", st.Count())
	}

	st.Delete(a)
	if st.Count() != 1 {
		t.Errorf("Count after delete = %d, want 1", st.Count())
	}
}

func TestSessionStoreEvictsIdle(t *testing.T) {
	logger, err := errors.New("error")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	st := NewSessionStore(time.Millisecond, logger)
	defer st.Close()

	sid := st.Create(storeDoc(), "")
	time.Sleep(5 * time.Millisecond)
	st.evictIdle()

	if _, _, err := st.Get(sid); err == nil {
		t.Error("expected idle session to be evicted")
	}
	if st.Count() != 0 {
		t.Errorf("Count after eviction = %d, want 0", st.Count())
	}
}

func TestSessionStoreSessionsAreIndependent(t *testing.T) {
	st := newTestStore(t)

	a := st.Create(storeDoc(), "")
	b := st.Create(storeDoc(), "")

	sa, _, err := st.Get(a)
	if err != nil {
		t.Fatalf("Get(a) failed: %v", err)
	}
	sa.ZoomIn()

	sb, _, err := st.Get(b)
	if err != nil {
		t.Fatalf("Get(b) failed: %v", err)
	}
	if sb.Snapshot().Zoom != 100 {
		t.Errorf("zooming session a changed session b: zoom = %d", sb.Snapshot().Zoom)
	}
}
