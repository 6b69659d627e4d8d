package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/textloom/internal/engine/change"
	"github.com/dshills/textloom/internal/engine/history"
	"github.com/dshills/textloom/internal/engine/rangeset"
	"github.com/dshills/textloom/internal/engine/selection"
	"github.com/dshills/textloom/internal/engine/text"
)

// Edit describes one modification: delete [From, To) and insert
// content there.
type Edit struct {
	From   int
	To     int
	Insert string
}

// snapshot is a retained document state.
type snapshot struct {
	doc      text.Text
	revision uint64
	taken    time.Time
}

// SnapshotInfo describes a retained snapshot.
type SnapshotInfo struct {
	ID       uuid.UUID
	Revision uint64
	Taken    time.Time
	Len      int
}

// Document is the facade over the document model: content, selection,
// undo history, position-tracked layers and snapshots behind one
// thread-safe API.
//
// All operations are safe for concurrent use.
type Document struct {
	mu sync.RWMutex

	doc  text.Text
	sel  selection.Selection
	hist *history.History

	// layers are named range sets remapped through every edit.
	layers map[string]*rangeset.Set

	revision  uint64
	snapshots map[uuid.UUID]snapshot

	histCfg  history.Config
	readOnly bool
	now      func() time.Time
}

// New creates a Document with the given options.
func New(opts ...Option) *Document {
	d := &Document{
		doc:       text.Empty,
		layers:    make(map[string]*rangeset.Set),
		snapshots: make(map[uuid.UUID]snapshot),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.hist = history.New(d.histCfg)
	return d
}

// ============================================================================
// Read Operations
// ============================================================================

// Text returns the full document content.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc.String()
}

// Doc returns the current document value. The value is immutable and
// stays valid across later edits.
func (d *Document) Doc() text.Text {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc
}

// Len returns the document length in bytes.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc.Len()
}

// Lines returns the number of lines.
func (d *Document) Lines() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc.Lines()
}

// Line returns the line with the given 1-based number.
func (d *Document) Line(n int) (text.Line, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc.Line(n)
}

// LineAt returns the line containing the given byte position.
func (d *Document) LineAt(pos int) (text.Line, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc.LineAt(pos)
}

// Slice returns the content in [from, to).
func (d *Document) Slice(from, to int) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc.SliceString(from, to)
}

// Revision returns a counter that increments on every content change.
func (d *Document) Revision() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.revision
}

// Selection returns the current selection.
func (d *Document) Selection() selection.Selection {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sel
}

// ============================================================================
// Write Operations
// ============================================================================

// Apply performs edits as one undo-recorded change. Edits address the
// document before the call and must not overlap. The returned change
// can remap caller-held positions.
func (d *Document) Apply(origin string, edits ...Edit) (change.Set, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readOnly {
		return change.Set{}, ErrReadOnly
	}
	return d.applyLocked(origin, edits, true)
}

// ApplyExternal performs edits without recording them for undo, the
// way an edit synced from elsewhere should behave. Stored undo steps
// are remapped so they still revert only local work.
func (d *Document) ApplyExternal(edits ...Edit) (change.Set, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readOnly {
		return change.Set{}, ErrReadOnly
	}
	return d.applyLocked("", edits, false)
}

func (d *Document) applyLocked(origin string, edits []Edit, record bool) (change.Set, error) {
	specs := make([]change.Spec, len(edits))
	for i, e := range edits {
		specs[i] = change.Spec{From: e.From, To: e.To, Insert: text.FromString(e.Insert)}
	}
	chg, err := change.Of(d.doc.Len(), specs...)
	if err != nil {
		return change.Set{}, err
	}
	if chg.Empty() {
		return chg, nil
	}
	inv, err := chg.Invert(d.doc)
	if err != nil {
		return change.Set{}, err
	}
	newDoc, err := chg.Apply(d.doc)
	if err != nil {
		return change.Set{}, err
	}

	before := d.sel
	if err := d.hist.RecordChange(chg, inv, before, origin, d.now(), record); err != nil {
		return change.Set{}, err
	}
	d.doc = newDoc
	d.sel = d.sel.Map(chg.Desc())
	d.mapLayersLocked(chg.Desc())
	d.revision++
	return chg, nil
}

// SetSelection moves the selection, recording the move as an undoable
// selection step. Range ends must lie inside the document.
func (d *Document) SetSelection(sel selection.Selection, origin string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range sel.Ranges {
		if r.From() < 0 || r.To() > d.doc.Len() {
			return text.ErrPosOutOfRange
		}
	}
	if sel.Eq(d.sel) {
		return nil
	}
	d.hist.RecordSelection(d.sel, origin, d.now())
	d.sel = sel
	return nil
}

// ============================================================================
// Undo / Redo
// ============================================================================

// Undo reverts the most recent change step. Returns false when there is
// nothing to undo.
func (d *Document) Undo() bool {
	return d.step(func(h *history.History, doc text.Text, sel selection.Selection) (history.Result, bool) {
		return h.Undo(doc, sel)
	})
}

// Redo reapplies the most recently undone change step.
func (d *Document) Redo() bool {
	return d.step(func(h *history.History, doc text.Text, sel selection.Selection) (history.Result, bool) {
		return h.Redo(doc, sel)
	})
}

// UndoSelection reverts the most recent step of any kind, including
// pure selection moves.
func (d *Document) UndoSelection() bool {
	return d.step(func(h *history.History, doc text.Text, sel selection.Selection) (history.Result, bool) {
		return h.UndoSelection(doc, sel)
	})
}

// RedoSelection reapplies the most recently undone step of any kind.
func (d *Document) RedoSelection() bool {
	return d.step(func(h *history.History, doc text.Text, sel selection.Selection) (history.Result, bool) {
		return h.RedoSelection(doc, sel)
	})
}

func (d *Document) step(move func(*history.History, text.Text, selection.Selection) (history.Result, bool)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readOnly {
		return false
	}
	res, ok := move(d.hist, d.doc, d.sel)
	if !ok {
		return false
	}
	if !res.SelectionOnly {
		d.mapLayersLocked(res.Changes.Desc())
		d.revision++
	}
	d.doc = res.Doc
	d.sel = res.Selection
	return true
}

// CloseHistory ends the current undo group.
func (d *Document) CloseHistory() {
	d.hist.CloseHistory()
}

// UndoDepth returns the number of change steps available to undo.
func (d *Document) UndoDepth() int {
	return d.hist.UndoDepth()
}

// RedoDepth returns the number of change steps available to redo.
func (d *Document) RedoDepth() int {
	return d.hist.RedoDepth()
}

// ============================================================================
// Layers
// ============================================================================

// SetLayer installs a named range set, replacing any previous one.
// The layer is remapped through every subsequent edit.
func (d *Document) SetLayer(name string, ranges []rangeset.Range) error {
	set, err := rangeset.Of(ranges, false)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.layers[name] = set
	return nil
}

// UpdateLayer revises a named layer.
func (d *Document) UpdateLayer(name string, u rangeset.Update) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	set, ok := d.layers[name]
	if !ok {
		return ErrLayerNotFound
	}
	updated, err := set.Update(u)
	if err != nil {
		return err
	}
	d.layers[name] = updated
	return nil
}

// Layer returns a named layer's current range set.
func (d *Document) Layer(name string) (*rangeset.Set, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	set, ok := d.layers[name]
	return set, ok
}

// RemoveLayer drops a named layer.
func (d *Document) RemoveLayer(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.layers, name)
}

// LayerNames returns the installed layer names in order.
func (d *Document) LayerNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.layers))
	for name := range d.layers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// mapLayersLocked repositions every layer through a change. A layer
// that fails to map is left as it was.
func (d *Document) mapLayersLocked(desc change.Desc) {
	for name, set := range d.layers {
		mapped, err := set.Map(desc)
		if err != nil {
			continue
		}
		d.layers[name] = mapped
	}
}
