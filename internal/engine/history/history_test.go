package history

import (
	"testing"
	"time"

	"github.com/dshills/textloom/internal/engine/change"
	"github.com/dshills/textloom/internal/engine/selection"
	"github.com/dshills/textloom/internal/engine/text"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// edit builds a change with its inverse and returns the edited document.
func edit(t *testing.T, doc text.Text, from, to int, insert string) (change.Set, change.Set, text.Text) {
	t.Helper()
	fwd, err := change.Of(doc.Len(), change.Spec{From: from, To: to, Insert: text.FromString(insert)})
	if err != nil {
		t.Fatalf("change.Of: %v", err)
	}
	inv, err := fwd.Invert(doc)
	if err != nil {
		t.Fatalf("Invert: %v", err)
	}
	next, err := fwd.Apply(doc)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return fwd, inv, next
}

func record(t *testing.T, h *History, doc text.Text, from, to int, insert, origin string, at time.Time) text.Text {
	t.Helper()
	fwd, inv, next := edit(t, doc, from, to, insert)
	if err := h.RecordChange(fwd, inv, selection.At(from), origin, at, true); err != nil {
		t.Fatalf("RecordChange: %v", err)
	}
	return next
}

func TestUndoRedo(t *testing.T) {
	h := New(Config{})
	doc := text.FromString("hello")
	doc2 := record(t, h, doc, 5, 5, " world", "input", t0)

	if h.UndoDepth() != 1 || h.RedoDepth() != 0 {
		t.Fatalf("depths = %d/%d, want 1/0", h.UndoDepth(), h.RedoDepth())
	}

	res, ok := h.Undo(doc2, selection.At(11))
	if !ok {
		t.Fatal("Undo returned false")
	}
	if res.Doc.String() != "hello" {
		t.Errorf("undone doc = %q, want %q", res.Doc.String(), "hello")
	}
	if !res.Selection.Eq(selection.At(5)) {
		t.Errorf("undone selection = %v, want cursor at 5", res.Selection)
	}
	if res.SelectionOnly {
		t.Error("change step reported as selection-only")
	}
	if h.UndoDepth() != 0 || h.RedoDepth() != 1 {
		t.Fatalf("depths after undo = %d/%d, want 0/1", h.UndoDepth(), h.RedoDepth())
	}

	res, ok = h.Redo(res.Doc, res.Selection)
	if !ok {
		t.Fatal("Redo returned false")
	}
	if res.Doc.String() != "hello world" {
		t.Errorf("redone doc = %q, want %q", res.Doc.String(), "hello world")
	}
	// Redo restores the selection captured when the step was undone.
	if !res.Selection.Eq(selection.At(11)) {
		t.Errorf("redone selection = %v, want cursor at 11", res.Selection)
	}
}

func TestUndoEmpty(t *testing.T) {
	h := New(Config{})
	doc := text.FromString("abc")
	if _, ok := h.Undo(doc, selection.At(0)); ok {
		t.Error("Undo on empty history returned true")
	}
	if _, ok := h.Redo(doc, selection.At(0)); ok {
		t.Error("Redo on empty history returned true")
	}
}

func TestGroupMerging(t *testing.T) {
	h := New(Config{})
	doc := text.FromString("abc")
	doc = record(t, h, doc, 3, 3, "1", "input", t0)
	doc = record(t, h, doc, 4, 4, "2", "input", t0.Add(100*time.Millisecond))

	if doc.String() != "abc12" {
		t.Fatalf("doc = %q", doc.String())
	}
	if h.UndoDepth() != 1 {
		t.Fatalf("UndoDepth() = %d, want 1 merged step", h.UndoDepth())
	}

	res, ok := h.Undo(doc, selection.At(5))
	if !ok {
		t.Fatal("Undo returned false")
	}
	if res.Doc.String() != "abc" {
		t.Errorf("undone doc = %q, want %q", res.Doc.String(), "abc")
	}
}

func TestPreserveItems(t *testing.T) {
	h := New(Config{PreserveItems: true})
	doc := text.FromString("abc")
	doc = record(t, h, doc, 3, 3, "1", "input", t0)
	doc = record(t, h, doc, 4, 4, "2", "input", t0.Add(100*time.Millisecond))

	if h.UndoDepth() != 2 {
		t.Fatalf("UndoDepth() = %d, want 2 unmerged steps", h.UndoDepth())
	}
	res, ok := h.Undo(doc, selection.At(5))
	if !ok {
		t.Fatal("Undo returned false")
	}
	if res.Doc.String() != "abc1" {
		t.Errorf("first undo = %q, want %q", res.Doc.String(), "abc1")
	}
}

func TestNewGroupDelay(t *testing.T) {
	h := New(Config{NewGroupDelay: time.Second})
	doc := text.FromString("abc")
	doc = record(t, h, doc, 3, 3, "1", "input", t0)
	doc = record(t, h, doc, 4, 4, "2", "input", t0.Add(2*time.Second))

	if h.UndoDepth() != 2 {
		t.Errorf("UndoDepth() = %d, want 2 separate steps", h.UndoDepth())
	}
	res, ok := h.Undo(doc, selection.At(5))
	if !ok {
		t.Fatal("Undo returned false")
	}
	if res.Doc.String() != "abc1" {
		t.Errorf("first undo = %q, want %q", res.Doc.String(), "abc1")
	}
}

func TestDifferentOriginsSplit(t *testing.T) {
	h := New(Config{})
	doc := text.FromString("abc")
	doc = record(t, h, doc, 3, 3, "1", "input", t0)
	record(t, h, doc, 4, 4, "2", "paste", t0.Add(time.Millisecond))

	if h.UndoDepth() != 2 {
		t.Errorf("UndoDepth() = %d, want 2", h.UndoDepth())
	}
}

func TestCloseHistory(t *testing.T) {
	h := New(Config{})
	doc := text.FromString("abc")
	doc = record(t, h, doc, 3, 3, "1", "input", t0)
	h.CloseHistory()
	record(t, h, doc, 4, 4, "2", "input", t0.Add(time.Millisecond))

	if h.UndoDepth() != 2 {
		t.Errorf("UndoDepth() = %d, want 2 after CloseHistory", h.UndoDepth())
	}
}

func TestRedoClearedByNewChange(t *testing.T) {
	h := New(Config{})
	doc := text.FromString("abc")
	doc2 := record(t, h, doc, 3, 3, "1", "input", t0)
	res, ok := h.Undo(doc2, selection.At(4))
	if !ok {
		t.Fatal("Undo returned false")
	}
	if h.RedoDepth() != 1 {
		t.Fatalf("RedoDepth() = %d, want 1", h.RedoDepth())
	}
	record(t, h, res.Doc, 0, 0, "x", "input", t0.Add(time.Minute))
	if h.RedoDepth() != 0 {
		t.Errorf("RedoDepth() = %d, want 0 after new change", h.RedoDepth())
	}
}

func TestMinDepthPruning(t *testing.T) {
	h := New(Config{MinDepth: 3})
	doc := text.FromString("")
	for i := 0; i < 10; i++ {
		doc = record(t, h, doc, doc.Len(), doc.Len(), "x", "input", t0)
		h.CloseHistory()
	}
	if h.UndoDepth() != 3 {
		t.Errorf("UndoDepth() = %d, want 3", h.UndoDepth())
	}
}

func TestSelectionStepsPruned(t *testing.T) {
	h := New(Config{MinDepth: 3})
	// Alternating origins keep the moves from joining.
	origins := [2]string{"keyboard", "mouse"}
	for i := 0; i < 20; i++ {
		h.RecordSelection(selection.At(i), origins[i%2], t0.Add(time.Duration(i)*time.Millisecond))
	}
	if len(h.done) != 3 {
		t.Errorf("stack holds %d items, want 3", len(h.done))
	}
}

func TestSelectionSteps(t *testing.T) {
	h := New(Config{})
	doc := text.FromString("abcdef")
	h.RecordSelection(selection.At(2), "select", t0)

	// Plain undo has nothing document-changing to do.
	if _, ok := h.Undo(doc, selection.At(4)); ok {
		t.Error("Undo over selection-only history returned true")
	}

	res, ok := h.UndoSelection(doc, selection.At(4))
	if !ok {
		t.Fatal("UndoSelection returned false")
	}
	if !res.SelectionOnly {
		t.Error("selection step not marked SelectionOnly")
	}
	if !res.Selection.Eq(selection.At(2)) {
		t.Errorf("restored selection = %v, want cursor at 2", res.Selection)
	}
	if !res.Doc.Eq(doc) {
		t.Error("selection step changed the document")
	}

	res, ok = h.RedoSelection(doc, res.Selection)
	if !ok {
		t.Fatal("RedoSelection returned false")
	}
	if !res.Selection.Eq(selection.At(4)) {
		t.Errorf("redone selection = %v, want cursor at 4", res.Selection)
	}
}

func TestSelectionJoining(t *testing.T) {
	h := New(Config{})
	// Same shape: joined into the first step.
	h.RecordSelection(selection.At(1), "select", t0)
	h.RecordSelection(selection.At(5), "select", t0.Add(time.Millisecond))

	doc := text.FromString("abcdef")
	res, ok := h.UndoSelection(doc, selection.At(9))
	if !ok {
		t.Fatal("UndoSelection returned false")
	}
	if !res.Selection.Eq(selection.At(1)) {
		t.Errorf("joined selection step = %v, want cursor at 1", res.Selection)
	}
	if _, ok := h.UndoSelection(doc, res.Selection); ok {
		t.Error("second UndoSelection returned true, want single joined step")
	}
}

func TestSelectionOriginsSplit(t *testing.T) {
	h := New(Config{})
	// Same shape but different devices: the moves stay separate steps.
	h.RecordSelection(selection.At(1), "keyboard", t0)
	h.RecordSelection(selection.At(5), "mouse", t0.Add(time.Millisecond))

	doc := text.FromString("abcdef")
	res, ok := h.UndoSelection(doc, selection.At(9))
	if !ok {
		t.Fatal("first UndoSelection returned false")
	}
	if !res.Selection.Eq(selection.At(5)) {
		t.Errorf("first restored selection = %v, want cursor at 5", res.Selection)
	}
	res, ok = h.UndoSelection(doc, res.Selection)
	if !ok {
		t.Fatal("second UndoSelection returned false, want separate steps per origin")
	}
	if !res.Selection.Eq(selection.At(1)) {
		t.Errorf("second restored selection = %v, want cursor at 1", res.Selection)
	}
}

func TestSelectionJoinPredicate(t *testing.T) {
	h := New(Config{JoinSelections: func(aOrigin, bOrigin string, a, b selection.Selection) bool { return false }})
	h.RecordSelection(selection.At(1), "select", t0)
	h.RecordSelection(selection.At(5), "select", t0.Add(time.Millisecond))

	doc := text.FromString("abcdef")
	if res, ok := h.UndoSelection(doc, selection.At(9)); !ok || !res.Selection.Eq(selection.At(5)) {
		t.Fatalf("first UndoSelection = %v, %v", res.Selection, ok)
	}
	if res, ok := h.UndoSelection(doc, selection.At(5)); !ok || !res.Selection.Eq(selection.At(1)) {
		t.Fatalf("second UndoSelection = %v, %v", res.Selection, ok)
	}
}

func TestUndoSkipsSelectionSteps(t *testing.T) {
	h := New(Config{})
	doc := text.FromString("abc")
	doc2 := record(t, h, doc, 3, 3, "!", "input", t0)
	h.RecordSelection(selection.At(0), "select", t0.Add(time.Millisecond))

	res, ok := h.Undo(doc2, selection.At(4))
	if !ok {
		t.Fatal("Undo returned false")
	}
	if res.Doc.String() != "abc" {
		t.Errorf("undone doc = %q, want %q", res.Doc.String(), "abc")
	}

	// The skipped selection step moved to the redo side with the change.
	res, ok = h.Redo(res.Doc, res.Selection)
	if !ok {
		t.Fatal("Redo returned false")
	}
	if res.Doc.String() != "abc!" {
		t.Errorf("redone doc = %q, want %q", res.Doc.String(), "abc!")
	}
}

func TestAbsorbRemoteChange(t *testing.T) {
	h := New(Config{})
	doc := text.FromString("hello")
	doc2 := record(t, h, doc, 5, 5, " world", "input", t0)

	// A change excluded from history: stored steps remap around it.
	remote, err := change.Of(doc2.Len(), change.Spec{From: 0, To: 0, Insert: text.FromString("X")})
	if err != nil {
		t.Fatalf("change.Of: %v", err)
	}
	remoteInv, err := remote.Invert(doc2)
	if err != nil {
		t.Fatalf("Invert: %v", err)
	}
	doc3, err := remote.Apply(doc2)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := h.RecordChange(remote, remoteInv, selection.At(0), "remote", t0.Add(time.Millisecond), false); err != nil {
		t.Fatalf("RecordChange excluded: %v", err)
	}

	if h.UndoDepth() != 1 {
		t.Fatalf("UndoDepth() = %d, want 1", h.UndoDepth())
	}

	// Undo reverts only the local edit; the remote insert stays.
	res, ok := h.Undo(doc3, selection.At(doc3.Len()))
	if !ok {
		t.Fatal("Undo returned false")
	}
	if res.Doc.String() != "Xhello" {
		t.Errorf("undone doc = %q, want %q", res.Doc.String(), "Xhello")
	}

	res, ok = h.Redo(res.Doc, res.Selection)
	if !ok {
		t.Fatal("Redo returned false")
	}
	if res.Doc.String() != "Xhello world" {
		t.Errorf("redone doc = %q, want %q", res.Doc.String(), "Xhello world")
	}
}

func TestAbsorbRemapsRedoStack(t *testing.T) {
	h := New(Config{})
	doc := text.FromString("hello")
	doc2 := record(t, h, doc, 5, 5, " world", "input", t0)
	res, ok := h.Undo(doc2, selection.At(11))
	if !ok {
		t.Fatal("Undo returned false")
	}
	cur := res.Doc // "hello"

	remote, err := change.Of(cur.Len(), change.Spec{From: 0, To: 0, Insert: text.FromString("X")})
	if err != nil {
		t.Fatalf("change.Of: %v", err)
	}
	remoteInv, err := remote.Invert(cur)
	if err != nil {
		t.Fatalf("Invert: %v", err)
	}
	cur, err = remote.Apply(cur)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := h.RecordChange(remote, remoteInv, selection.At(0), "remote", t0, false); err != nil {
		t.Fatalf("RecordChange excluded: %v", err)
	}

	res, ok = h.Redo(cur, selection.At(0))
	if !ok {
		t.Fatal("Redo returned false")
	}
	if res.Doc.String() != "Xhello world" {
		t.Errorf("redone doc = %q, want %q", res.Doc.String(), "Xhello world")
	}
}

func TestAbsorbDropsFullyDeletedSteps(t *testing.T) {
	h := New(Config{})
	doc := text.FromString("abcdef")
	doc2 := record(t, h, doc, 3, 3, "XY", "input", t0) // "abcXYdef"

	// The remote change deletes the region the stored step edited.
	remote, err := change.Of(doc2.Len(), change.Spec{From: 1, To: 7})
	if err != nil {
		t.Fatalf("change.Of: %v", err)
	}
	remoteInv, err := remote.Invert(doc2)
	if err != nil {
		t.Fatalf("Invert: %v", err)
	}
	if err := h.RecordChange(remote, remoteInv, selection.At(0), "remote", t0, false); err != nil {
		t.Fatalf("RecordChange excluded: %v", err)
	}
	if h.UndoDepth() != 0 {
		t.Errorf("UndoDepth() = %d, want 0 after step was deleted", h.UndoDepth())
	}
}

func TestUndoAfterMergeRestoresOriginal(t *testing.T) {
	h := New(Config{})
	doc := text.FromString("the quick fox")
	d1 := record(t, h, doc, 4, 9, "slow", "input", t0)
	d2 := record(t, h, d1, 0, 3, "a", "input", t0.Add(50*time.Millisecond))

	if d2.String() != "a slow fox" {
		t.Fatalf("doc = %q", d2.String())
	}
	res, ok := h.Undo(d2, selection.At(0))
	if !ok {
		t.Fatal("Undo returned false")
	}
	if !res.Doc.Eq(doc) {
		t.Errorf("undone doc = %q, want %q", res.Doc.String(), doc.String())
	}
}
