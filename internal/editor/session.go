// Package editor owns one editing session per document: selection state,
// drag sessions, text editing, zoom and grid view state, and the
// unsaved-changes lifecycle. The session is the single source of truth for
// the document while it is being edited; every mutation goes through the
// pure tree transforms in the canvas package.
package editor

import (
	"context"
	"sync"

	"resumecanvas/internal/canvas"
	"resumecanvas/internal/errors"
)

// State names the current interaction mode of a session.
type State string

const (
	StateIdle          State = "idle"
	StateSelected      State = "selected"
	StateGroupSelected State = "groupSelected"
	StateDragging      State = "dragging"
	StateEditingText   State = "editingText"
)

// Zoom limits in percent. Zoom moves in fixed steps so the scale transform
// stays on friendly fractions.
const (
	ZoomMin  = 25
	ZoomMax  = 200
	ZoomStep = 25
)

// Pointer is a pointer position in screen pixels.
type Pointer struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// dragStart records where one element sat when a drag began. Deltas are
// always computed against these starting values rather than incrementally,
// so rounding error cannot compound across move events.
type dragStart struct {
	id   string
	x, y float64
}

// dragSession is the scoped resource acquired on pointer-down and released
// unconditionally on pointer-up.
type dragSession struct {
	pointer Pointer
	starts  []dragStart
}

// Saver persists a document to the backend. Implemented by client.Client.
type Saver interface {
	Save(ctx context.Context, id string, doc *canvas.Document) error
}

// Session holds the in-memory editing state for one document. All methods
// are safe for use from HTTP handlers; internally the session is
// single-owner and mutations are atomic under one lock.
type Session struct {
	mu sync.Mutex

	baseline canvas.Document // reset target; advances on successful save
	doc      canvas.Document

	selectedID  string
	selectedIDs []string
	groupSelect bool

	drag       *dragSession
	draggingID string

	editing bool
	scratch string

	zoom     int
	showGrid bool

	unsaved bool
	saving  bool
}

// NewSession starts a session over the given document. The document is
// deep-copied; the caller's value is never aliased.
func NewSession(doc canvas.Document) *Session {
	return &Session{
		baseline: doc.Clone(),
		doc:      doc.Clone(),
		zoom:     100,
	}
}

// Snapshot is a read-only view of session state for rendering and API
// responses.
type Snapshot struct {
	Document    canvas.Document
	State       State
	SelectedID  string
	SelectedIDs []string
	GroupSelect bool
	DraggingID  string
	Editing     bool
	Scratch     string
	Zoom        int
	ShowGrid    bool
	Unsaved     bool
	Saving      bool
}

// Snapshot returns a consistent copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(s.selectedIDs))
	copy(ids, s.selectedIDs)

	return Snapshot{
		Document:    s.doc.Clone(),
		State:       s.stateLocked(),
		SelectedID:  s.selectedID,
		SelectedIDs: ids,
		GroupSelect: s.groupSelect,
		DraggingID:  s.draggingID,
		Editing:     s.editing,
		Scratch:     s.scratch,
		Zoom:        s.zoom,
		ShowGrid:    s.showGrid,
		Unsaved:     s.unsaved,
		Saving:      s.saving,
	}
}

// Document returns a deep copy of the working document.
func (s *Session) Document() canvas.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// State reports the current interaction state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	switch {
	case s.drag != nil:
		return StateDragging
	case s.editing:
		return StateEditingText
	case len(s.selectedIDs) > 0:
		return StateGroupSelected
	case s.selectedID != "":
		return StateSelected
	default:
		return StateIdle
	}
}

// HasUnsavedChanges reports whether the working document has diverged from
// the baseline since the last save or reset.
func (s *Session) HasUnsavedChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsaved
}

func (s *Session) touch(elements []canvas.Element) {
	s.doc.Elements = elements
	s.unsaved = true
}

// Click selects a single element, clearing any group selection. Clicking an
// id that does not exist still moves selection to it; tree operations on a
// stale id degrade to no-ops by design.
func (s *Session) Click(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = id
	s.selectedIDs = nil
}

// ShiftClick toggles membership of id in the group selection while group
// mode is active. Outside group mode it behaves like a plain click.
func (s *Session) ShiftClick(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.groupSelect {
		s.selectedID = id
		s.selectedIDs = nil
		return
	}
	for i, existing := range s.selectedIDs {
		if existing == id {
			s.selectedIDs = append(s.selectedIDs[:i:i], s.selectedIDs[i+1:]...)
			return
		}
	}
	s.selectedIDs = append(s.selectedIDs, id)
}

// CanvasClick clears both selections: click on empty canvas.
func (s *Session) CanvasClick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = ""
	s.selectedIDs = nil
}

// ToggleGroupSelect flips group-select mode. Entering or leaving the mode
// always clears the group selection so no stale markers survive.
func (s *Session) ToggleGroupSelect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupSelect = !s.groupSelect
	s.selectedIDs = nil
}

// GroupSelect reports whether group-select mode is active.
func (s *Session) GroupSelect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groupSelect
}

// BeginDrag starts a drag session at the given pointer position. The
// clicked element moves alone unless group mode is active and the element
// is part of the current group selection, in which case the whole group
// moves together. Starting positions are captured once, up front.
func (s *Session) BeginDrag(id string, p Pointer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.groupSelect {
		s.selectedID = id
	}

	var moveIDs []string
	if s.groupSelect && contains(s.selectedIDs, id) {
		moveIDs = s.selectedIDs
	} else {
		moveIDs = []string{id}
	}

	starts := make([]dragStart, 0, len(moveIDs))
	for _, mid := range moveIDs {
		if el, ok := canvas.FindByID(s.doc.Elements, mid); ok {
			starts = append(starts, dragStart{id: el.ID, x: el.X, y: el.Y})
		}
	}
	if len(starts) == 0 {
		return
	}

	s.drag = &dragSession{pointer: p, starts: starts}
	s.draggingID = id
}

// Drag applies the current pointer position to every element captured at
// drag start. Screen deltas are divided by the zoom ratio so movement maps
// 1:1 onto page units at any zoom level, and each element is clamped to the
// page bounds independently per axis.
func (s *Session) Drag(p Pointer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drag == nil {
		return
	}

	ratio := float64(s.zoom) / 100
	deltaX := (p.X - s.drag.pointer.X) / ratio
	deltaY := (p.Y - s.drag.pointer.Y) / ratio

	elements := s.doc.Elements
	for _, start := range s.drag.starts {
		el, ok := canvas.FindByID(elements, start.id)
		if !ok {
			continue
		}
		x, y := canvas.ClampPosition(start.x+deltaX, start.y+deltaY, el.Width, el.Height)
		elements = canvas.UpdateByID(elements, start.id, canvas.Patch{X: &x, Y: &y})
	}
	s.touch(elements)
}

// EndDrag discards the drag session and returns to the selection state that
// was active before the drag. Teardown is unconditional; it runs even when
// no move event ever arrived.
func (s *Session) EndDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag = nil
	s.draggingID = ""
}

// StartTextEdit enters text editing for the given element, capturing its
// current content into the scratch buffer. A double-click on an unknown id
// is a no-op.
func (s *Session) StartTextEdit(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := canvas.FindByID(s.doc.Elements, id)
	if !ok {
		return
	}
	s.selectedID = id
	s.editing = true
	s.scratch = el.Content
}

// SetScratch replaces the scratch buffer while editing.
func (s *Session) SetScratch(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing {
		s.scratch = content
	}
}

// SaveTextEdit commits the scratch buffer to the edited element's content
// and returns to the selected state.
func (s *Session) SaveTextEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editing {
		return
	}
	content := s.scratch
	s.touch(canvas.UpdateByID(s.doc.Elements, s.selectedID, canvas.Patch{Content: &content}))
	s.editing = false
	s.scratch = ""
}

// CancelTextEdit discards the scratch buffer and returns to the selected
// state without touching the document.
func (s *Session) CancelTextEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = false
	s.scratch = ""
}

// AddElement appends a freshly created element of the given kind at its
// default position and selects it. The new element's id is returned.
func (s *Session) AddElement(kind canvas.Kind) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	el := canvas.NewElement(kind)
	s.touch(append(s.doc.Elements, el))
	s.selectedID = el.ID
	s.selectedIDs = nil
	return el.ID
}

// DeleteSelected removes the single selected element, wherever it nests.
func (s *Session) DeleteSelected() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selectedID == "" {
		return
	}
	s.touch(canvas.DeleteByID(s.doc.Elements, s.selectedID))
	s.selectedID = ""
}

// DeleteGroup removes every element in the group selection. Group deletion
// operates on top-level elements only.
func (s *Session) DeleteGroup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.selectedIDs) == 0 {
		return
	}
	s.touch(canvas.DeleteMany(s.doc.Elements, s.selectedIDs))
	s.selectedIDs = nil
	s.selectedID = ""
}

// ToggleBold flips the selected element's font weight between bold and the
// normal default.
func (s *Session) ToggleBold() {
	s.toggleStyle(
		func(el canvas.Element) bool { return el.FontWeight == "bold" },
		func(on bool) canvas.Patch {
			v := "bold"
			if on {
				v = "normal"
			}
			return canvas.Patch{FontWeight: &v}
		},
	)
}

// ToggleItalic flips the selected element's font style.
func (s *Session) ToggleItalic() {
	s.toggleStyle(
		func(el canvas.Element) bool { return el.FontStyle == "italic" },
		func(on bool) canvas.Patch {
			v := "italic"
			if on {
				v = "normal"
			}
			return canvas.Patch{FontStyle: &v}
		},
	)
}

// ToggleUnderline flips the selected element's text decoration.
func (s *Session) ToggleUnderline() {
	s.toggleStyle(
		func(el canvas.Element) bool { return el.TextDecoration == "underline" },
		func(on bool) canvas.Patch {
			v := "underline"
			if on {
				v = "none"
			}
			return canvas.Patch{TextDecoration: &v}
		},
	)
}

func (s *Session) toggleStyle(isOn func(canvas.Element) bool, patch func(on bool) canvas.Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selectedID == "" {
		return
	}
	el, ok := canvas.FindByID(s.doc.Elements, s.selectedID)
	if !ok {
		return
	}
	s.touch(canvas.UpdateByID(s.doc.Elements, s.selectedID, patch(isOn(el))))
}

// SetBackground sets the selected element's background color.
func (s *Session) SetBackground(color string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selectedID == "" {
		return
	}
	s.touch(canvas.UpdateByID(s.doc.Elements, s.selectedID, canvas.Patch{BackgroundColor: &color}))
}

// ClearBackground sets the selected element's background to transparent.
// This is a distinct action from picking white.
func (s *Session) ClearBackground() {
	s.SetBackground("transparent")
}

// SetListStyle switches the selected list element's marker style. Content
// is untouched; only the marker interpretation changes.
func (s *Session) SetListStyle(style canvas.ListStyle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selectedID == "" {
		return
	}
	s.touch(canvas.UpdateByID(s.doc.Elements, s.selectedID, canvas.Patch{ListStyle: &style}))
}

// ZoomIn raises zoom by one step up to the maximum.
func (s *Session) ZoomIn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.zoom+ZoomStep <= ZoomMax {
		s.zoom += ZoomStep
	}
}

// ZoomOut lowers zoom by one step down to the minimum.
func (s *Session) ZoomOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.zoom-ZoomStep >= ZoomMin {
		s.zoom -= ZoomStep
	}
}

// Zoom reports the current zoom percentage.
func (s *Session) Zoom() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

// ToggleGrid flips the decorative grid overlay.
func (s *Session) ToggleGrid() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showGrid = !s.showGrid
}

// Reset discards all in-memory changes and restores the baseline document:
// the originally loaded one, or the state as of the last successful save.
// All selection state is cleared.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = s.baseline.Clone()
	s.selectedID = ""
	s.selectedIDs = nil
	s.drag = nil
	s.draggingID = ""
	s.editing = false
	s.scratch = ""
	s.unsaved = false
}

// Save flushes the working document to the backend. It refuses to start
// while another save is in flight and is a no-op when there is nothing to
// save. On success the baseline advances to the just-saved state; on
// failure the in-memory edits are preserved untouched so the user can
// retry.
func (s *Session) Save(ctx context.Context, backend Saver, documentID string) error {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return errors.NewDocumentError(errors.ErrCodeSaveInFlight,
			"a save is already in flight for this document", nil)
	}
	if !s.unsaved {
		s.mu.Unlock()
		return errors.NewDocumentError(errors.ErrCodeNothingToSave,
			"no unsaved changes", nil)
	}
	s.saving = true
	doc := s.doc.Clone()
	s.mu.Unlock()

	err := backend.Save(ctx, documentID, &doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeSaveFailed,
			"failed to save document", err).WithContext("document_id", documentID)
	}
	s.baseline = doc
	s.unsaved = false
	return nil
}

func contains(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
