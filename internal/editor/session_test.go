package editor

import (
	"context"
	"testing"

	"resumecanvas/internal/canvas"
	"resumecanvas/internal/errors"
)

func testDocument() canvas.Document {
	return canvas.Document{
		Background: "#ffffff",
		Elements: []canvas.Element{
			{ID: "a", Kind: canvas.KindText, Content: "alpha", X: 100, Y: 100, Width: 300, Height: 40},
			{ID: "b", Kind: canvas.KindText, Content: "beta", X: 200, Y: 300, Width: 300, Height: 40},
		},
	}
}

type fakeSaver struct {
	calls int
	err   error
	saved *canvas.Document
}

func (f *fakeSaver) Save(_ context.Context, _ string, doc *canvas.Document) error {
	f.calls++
	f.saved = doc
	return f.err
}

func TestNewSessionInitialState(t *testing.T) {
	s := NewSession(testDocument())

	snap := s.Snapshot()
	if snap.State != StateIdle {
		t.Errorf("state = %q, want idle", snap.State)
	}
	if snap.Zoom != 100 {
		t.Errorf("zoom = %d, want 100", snap.Zoom)
	}
	if snap.Unsaved {
		t.Error("fresh session must not report unsaved changes")
	}
}

func TestSessionDoesNotAliasCallerDocument(t *testing.T) {
	doc := testDocument()
	s := NewSession(doc)

	doc.Elements[0].Content = "mutated"
	if got := s.Document().Elements[0].Content; got != "alpha" {
		t.Errorf("session aliases caller document: content = %q", got)
	}
}

func TestClickSelection(t *testing.T) {
	s := NewSession(testDocument())

	s.Click("a")
	if s.State() != StateSelected {
		t.Errorf("state after click = %q, want selected", s.State())
	}

	s.CanvasClick()
	if s.State() != StateIdle {
		t.Errorf("state after canvas click = %q, want idle", s.State())
	}
}

func TestGroupSelectionLifecycle(t *testing.T) {
	s := NewSession(testDocument())

	s.ToggleGroupSelect()
	if !s.GroupSelect() {
		t.Fatal("group select mode should be on")
	}

	s.ShiftClick("a")
	s.ShiftClick("b")
	snap := s.Snapshot()
	if len(snap.SelectedIDs) != 2 {
		t.Fatalf("selectedIds = %v, want two entries", snap.SelectedIDs)
	}
	if snap.State != StateGroupSelected {
		t.Errorf("state = %q, want groupSelected", snap.State)
	}

	// Shift-clicking a member again removes it
	s.ShiftClick("a")
	snap = s.Snapshot()
	if len(snap.SelectedIDs) != 1 || snap.SelectedIDs[0] != "b" {
		t.Errorf("selectedIds after toggle = %v, want [b]", snap.SelectedIDs)
	}

	// Leaving group mode clears the group selection
	s.ToggleGroupSelect()
	snap = s.Snapshot()
	if len(snap.SelectedIDs) != 0 {
		t.Errorf("selectedIds after leaving group mode = %v, want empty", snap.SelectedIDs)
	}
}

func TestShiftClickOutsideGroupModeActsAsClick(t *testing.T) {
	s := NewSession(testDocument())

	s.ShiftClick("a")
	snap := s.Snapshot()
	if snap.SelectedID != "a" || len(snap.SelectedIDs) != 0 {
		t.Errorf("shift-click outside group mode: selectedId=%q selectedIds=%v", snap.SelectedID, snap.SelectedIDs)
	}
}

func TestDragScalesByZoom(t *testing.T) {
	s := NewSession(testDocument())

	// At 50% zoom a screen delta maps to twice the page delta
	s.ZoomOut()
	s.ZoomOut()
	if s.Zoom() != 50 {
		t.Fatalf("zoom = %d, want 50", s.Zoom())
	}

	s.BeginDrag("a", Pointer{X: 400, Y: 400})
	if s.State() != StateDragging {
		t.Fatalf("state = %q, want dragging", s.State())
	}
	s.Drag(Pointer{X: 410, Y: 405})

	el, _ := canvas.FindByID(s.Document().Elements, "a")
	if el.X != 120 || el.Y != 110 {
		t.Errorf("position = (%g, %g), want (120, 110)", el.X, el.Y)
	}

	s.EndDrag()
	if s.State() == StateDragging {
		t.Error("drag session must be released on end")
	}
}

func TestDragClampsToPage(t *testing.T) {
	s := NewSession(testDocument())

	s.BeginDrag("a", Pointer{X: 0, Y: 0})
	s.Drag(Pointer{X: -5000, Y: 9000})

	el, _ := canvas.FindByID(s.Document().Elements, "a")
	if el.X != 0 {
		t.Errorf("x = %g, want clamped to 0", el.X)
	}
	if el.Y != canvas.PageHeight-el.Height {
		t.Errorf("y = %g, want clamped to %g", el.Y, canvas.PageHeight-el.Height)
	}
}

func TestGroupDragMovesAllMembers(t *testing.T) {
	s := NewSession(testDocument())

	s.ToggleGroupSelect()
	s.ShiftClick("a")
	s.ShiftClick("b")

	s.BeginDrag("a", Pointer{X: 100, Y: 100})
	s.Drag(Pointer{X: 150, Y: 120})
	s.EndDrag()

	els := s.Document().Elements
	a, _ := canvas.FindByID(els, "a")
	b, _ := canvas.FindByID(els, "b")
	if a.X != 150 || a.Y != 120 {
		t.Errorf("a = (%g, %g), want (150, 120)", a.X, a.Y)
	}
	if b.X != 250 || b.Y != 320 {
		t.Errorf("b = (%g, %g), want (250, 320)", b.X, b.Y)
	}
}

func TestDragWithoutSessionIsNoOp(t *testing.T) {
	s := NewSession(testDocument())

	s.Drag(Pointer{X: 500, Y: 500})
	if s.HasUnsavedChanges() {
		t.Error("drag without a drag session must not touch the document")
	}
}

func TestTextEditLifecycle(t *testing.T) {
	s := NewSession(testDocument())

	s.StartTextEdit("a")
	snap := s.Snapshot()
	if snap.State != StateEditingText || snap.Scratch != "alpha" {
		t.Fatalf("after start: state=%q scratch=%q", snap.State, snap.Scratch)
	}

	s.SetScratch("rewritten")
	s.SaveTextEdit()

	el, _ := canvas.FindByID(s.Document().Elements, "a")
	if el.Content != "rewritten" {
		t.Errorf("content = %q, want rewritten", el.Content)
	}
	if s.State() == StateEditingText {
		t.Error("session should leave editing state after save")
	}
}

func TestCancelTextEditDiscardsScratch(t *testing.T) {
	s := NewSession(testDocument())

	s.StartTextEdit("a")
	s.SetScratch("discarded")
	s.CancelTextEdit()

	el, _ := canvas.FindByID(s.Document().Elements, "a")
	if el.Content != "alpha" {
		t.Errorf("content = %q, want alpha", el.Content)
	}
	if s.HasUnsavedChanges() {
		t.Error("cancelled edit must not mark the document unsaved")
	}
}

func TestStartTextEditUnknownIDIsNoOp(t *testing.T) {
	s := NewSession(testDocument())

	s.StartTextEdit("missing")
	if s.State() == StateEditingText {
		t.Error("editing state entered for unknown id")
	}
}

func TestAddElementSelectsIt(t *testing.T) {
	s := NewSession(testDocument())

	id := s.AddElement(canvas.KindHeading)
	snap := s.Snapshot()
	if snap.SelectedID != id {
		t.Errorf("selectedId = %q, want %q", snap.SelectedID, id)
	}
	if len(snap.Document.Elements) != 3 {
		t.Errorf("elements = %d, want 3", len(snap.Document.Elements))
	}
	if !snap.Unsaved {
		t.Error("adding an element must mark the document unsaved")
	}
}

func TestDeleteSelected(t *testing.T) {
	s := NewSession(testDocument())

	s.Click("a")
	s.DeleteSelected()

	snap := s.Snapshot()
	if len(snap.Document.Elements) != 1 {
		t.Errorf("elements = %d, want 1", len(snap.Document.Elements))
	}
	if snap.SelectedID != "" {
		t.Errorf("selection should clear after delete, got %q", snap.SelectedID)
	}
}

func TestDeleteGroup(t *testing.T) {
	s := NewSession(testDocument())

	s.ToggleGroupSelect()
	s.ShiftClick("a")
	s.ShiftClick("b")
	s.DeleteGroup()

	snap := s.Snapshot()
	if len(snap.Document.Elements) != 0 {
		t.Errorf("elements = %d, want 0", len(snap.Document.Elements))
	}
	if len(snap.SelectedIDs) != 0 {
		t.Errorf("group selection should clear, got %v", snap.SelectedIDs)
	}
}

func TestToggleBoldFlips(t *testing.T) {
	s := NewSession(testDocument())

	s.Click("a")
	s.ToggleBold()
	el, _ := canvas.FindByID(s.Document().Elements, "a")
	if el.FontWeight != "bold" {
		t.Fatalf("fontWeight = %q, want bold", el.FontWeight)
	}

	s.ToggleBold()
	el, _ = canvas.FindByID(s.Document().Elements, "a")
	if el.FontWeight != "normal" {
		t.Errorf("fontWeight = %q, want normal", el.FontWeight)
	}
}

func TestClearBackground(t *testing.T) {
	s := NewSession(testDocument())

	s.Click("a")
	s.SetBackground("#ff0000")
	s.ClearBackground()

	el, _ := canvas.FindByID(s.Document().Elements, "a")
	if el.BackgroundColor != "transparent" {
		t.Errorf("background = %q, want transparent", el.BackgroundColor)
	}
}

func TestZoomBounds(t *testing.T) {
	s := NewSession(testDocument())

	for range 20 {
		s.ZoomIn()
	}
	if s.Zoom() != ZoomMax {
		t.Errorf("zoom = %d, want %d", s.Zoom(), ZoomMax)
	}

	for range 20 {
		s.ZoomOut()
	}
	if s.Zoom() != ZoomMin {
		t.Errorf("zoom = %d, want %d", s.Zoom(), ZoomMin)
	}
}

func TestResetRestoresBaseline(t *testing.T) {
	s := NewSession(testDocument())

	s.Click("a")
	s.DeleteSelected()
	s.AddElement(canvas.KindList)
	s.Reset()

	snap := s.Snapshot()
	if len(snap.Document.Elements) != 2 {
		t.Errorf("elements after reset = %d, want 2", len(snap.Document.Elements))
	}
	if snap.Unsaved {
		t.Error("reset must clear the unsaved flag")
	}
	if snap.State != StateIdle {
		t.Errorf("state after reset = %q, want idle", snap.State)
	}
}

func TestSaveNothingToSave(t *testing.T) {
	s := NewSession(testDocument())
	saver := &fakeSaver{}

	err := s.Save(context.Background(), saver, "doc-1")
	if err == nil {
		t.Fatal("expected NOTHING_TO_SAVE error")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeNothingToSave {
		t.Errorf("err = %v, want code %s", err, errors.ErrCodeNothingToSave)
	}
	if saver.calls != 0 {
		t.Errorf("backend called %d times, want 0", saver.calls)
	}
}

func TestSaveAdvancesBaseline(t *testing.T) {
	s := NewSession(testDocument())
	saver := &fakeSaver{}

	s.AddElement(canvas.KindText)
	if err := s.Save(context.Background(), saver, "doc-1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if saver.calls != 1 {
		t.Fatalf("backend called %d times, want 1", saver.calls)
	}
	if s.HasUnsavedChanges() {
		t.Error("unsaved flag should clear after a successful save")
	}

	// Reset now returns to the saved state, not the original document
	s.Reset()
	if len(s.Document().Elements) != 3 {
		t.Errorf("elements after reset = %d, want 3", len(s.Document().Elements))
	}
}

func TestSaveFailureKeepsEdits(t *testing.T) {
	s := NewSession(testDocument())
	saver := &fakeSaver{err: errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "backend down", nil)}

	s.AddElement(canvas.KindText)
	err := s.Save(context.Background(), saver, "doc-1")
	if err == nil {
		t.Fatal("expected save failure")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeSaveFailed {
		t.Errorf("err = %v, want code %s", err, errors.ErrCodeSaveFailed)
	}
	if !s.HasUnsavedChanges() {
		t.Error("failed save must preserve the unsaved flag for retry")
	}
	if len(s.Document().Elements) != 3 {
		t.Error("failed save must preserve in-memory edits")
	}
}
