// Package history tracks document edits for undo and redo. Edits close
// in time with the same origin merge into one step; selection changes
// may be recorded as their own steps; changes excluded from history are
// absorbed by remapping every stored step.
package history

import (
	"sync"
	"time"

	"github.com/dshills/textloom/internal/engine/change"
	"github.com/dshills/textloom/internal/engine/selection"
	"github.com/dshills/textloom/internal/engine/text"
)

const (
	// DefaultMinDepth is the number of undo steps kept when pruning.
	DefaultMinDepth = 100

	// DefaultNewGroupDelay is the pause that closes an undo group.
	DefaultNewGroupDelay = 500 * time.Millisecond
)

// JoinPredicate decides whether two consecutive selection-only steps
// collapse into one. It receives each step's origin alongside its
// selection.
type JoinPredicate func(aOrigin, bOrigin string, a, b selection.Selection) bool

// DefaultJoinSelections joins selections from the same origin with the
// same shape: the same range count and an equally empty primary range.
func DefaultJoinSelections(aOrigin, bOrigin string, a, b selection.Selection) bool {
	return aOrigin == bOrigin &&
		len(a.Ranges) == len(b.Ranges) && a.Main().Empty() == b.Main().Empty()
}

// Config tunes history behavior. The zero value selects the defaults.
type Config struct {
	// MinDepth is the number of steps kept before old ones are pruned.
	MinDepth int

	// NewGroupDelay is the idle time after which a new edit starts a
	// fresh undo step instead of merging into the previous one.
	NewGroupDelay time.Duration

	// JoinSelections overrides DefaultJoinSelections.
	JoinSelections JoinPredicate

	// PreserveItems keeps every recorded change as its own step,
	// disabling time-based merging. Useful when steps are inspected or
	// rebased individually.
	PreserveItems bool
}

func (c Config) withDefaults() Config {
	if c.MinDepth <= 0 {
		c.MinDepth = DefaultMinDepth
	}
	if c.NewGroupDelay <= 0 {
		c.NewGroupDelay = DefaultNewGroupDelay
	}
	if c.JoinSelections == nil {
		c.JoinSelections = DefaultJoinSelections
	}
	return c
}

// item is one undo step. Change steps carry the forward change and its
// inverse, composed across merged edits. Selection steps carry only the
// selection to restore.
type item struct {
	isChange  bool
	fwd       change.Set
	inv       change.Set
	selBefore selection.Selection
	selAfter  selection.Selection
	origin    string
	time      time.Time
}

// Result is the outcome of an undo or redo step.
type Result struct {
	// Doc is the document after the step.
	Doc text.Text

	// Selection is the selection to restore.
	Selection selection.Selection

	// Changes is the change that was applied, for remapping any state
	// keyed on document positions. Empty for selection-only steps.
	Changes change.Set

	// SelectionOnly marks a step that moved the selection without
	// touching the document.
	SelectionOnly bool
}

// History holds the undo and redo stacks. Safe for concurrent use.
type History struct {
	mu     sync.Mutex
	cfg    Config
	done   []*item
	undone []*item
	open   bool // top done item still accepts merges
}

// New returns an empty history.
func New(cfg Config) *History {
	return &History{cfg: cfg.withDefaults()}
}

// RecordChange stores an applied change. fwd maps the previous document
// to the current one; inv restores it. before is the selection prior to
// the edit. With addToHistory false the change is not recorded but
// every stored step is remapped so undo and redo stay valid.
func (h *History) RecordChange(fwd, inv change.Set, before selection.Selection, origin string, at time.Time, addToHistory bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !addToHistory {
		return h.absorb(fwd)
	}

	h.undone = nil
	if top := h.top(); !h.cfg.PreserveItems && h.open && top != nil && top.isChange &&
		top.origin == origin && at.Sub(top.time) < h.cfg.NewGroupDelay {
		merged, err := top.fwd.Compose(fwd)
		if err != nil {
			return err
		}
		mergedInv, err := inv.Compose(top.inv)
		if err != nil {
			return err
		}
		top.fwd, top.inv, top.time = merged, mergedInv, at
		return nil
	}

	h.done = append(h.done, &item{
		isChange:  true,
		fwd:       fwd,
		inv:       inv,
		selBefore: before,
		origin:    origin,
		time:      at,
	})
	h.open = true
	h.prune()
	return nil
}

// RecordSelection stores a selection move as its own step. Consecutive
// moves the join predicate accepts collapse into the earliest one.
func (h *History) RecordSelection(sel selection.Selection, origin string, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if top := h.top(); top != nil && !top.isChange && h.cfg.JoinSelections(top.origin, origin, top.selBefore, sel) {
		return
	}
	h.done = append(h.done, &item{selBefore: sel, origin: origin, time: at})
	h.prune()
}

// CloseHistory ends the current undo group; the next change starts a
// fresh step regardless of timing.
func (h *History) CloseHistory() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.open = false
}

// UndoDepth returns the number of document-changing steps available to
// undo.
func (h *History) UndoDepth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return changeDepth(h.done)
}

// RedoDepth returns the number of document-changing steps available to
// redo.
func (h *History) RedoDepth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return changeDepth(h.undone)
}

func changeDepth(items []*item) int {
	n := 0
	for _, it := range items {
		if it.isChange {
			n++
		}
	}
	return n
}

// Undo reverts the most recent change step. Selection-only steps above
// it move to the redo stack. Returns false when there is nothing to
// undo or doc does not match the recorded state.
func (h *History) Undo(doc text.Text, cur selection.Selection) (Result, bool) {
	return h.move(doc, cur, true, false)
}

// Redo reapplies the most recently undone change step.
func (h *History) Redo(doc text.Text, cur selection.Selection) (Result, bool) {
	return h.move(doc, cur, false, false)
}

// UndoSelection reverts the most recent step of any kind, including
// pure selection moves.
func (h *History) UndoSelection(doc text.Text, cur selection.Selection) (Result, bool) {
	return h.move(doc, cur, true, true)
}

// RedoSelection reapplies the most recently undone step of any kind.
func (h *History) RedoSelection(doc text.Text, cur selection.Selection) (Result, bool) {
	return h.move(doc, cur, false, true)
}

func (h *History) move(doc text.Text, cur selection.Selection, undo, withSelection bool) (Result, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	from, to := &h.done, &h.undone
	if !undo {
		from, to = &h.undone, &h.done
	}

	idx := -1
	for i := len(*from) - 1; i >= 0; i-- {
		if (*from)[i].isChange || withSelection {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Result{}, false
	}
	it := (*from)[idx]

	if !it.isChange {
		*from = (*from)[:idx]
		restored := it.selBefore
		it.selBefore = cur
		*to = append(*to, it)
		return Result{Doc: doc, Selection: restored, SelectionOnly: true}, true
	}

	apply := it.inv
	if !undo {
		apply = it.fwd
	}
	newDoc, err := apply.Apply(doc)
	if err != nil {
		return Result{}, false
	}

	// Selection-only items above the change step ride along.
	for i := len(*from) - 1; i > idx; i-- {
		*to = append(*to, (*from)[i])
	}
	*from = (*from)[:idx]

	restored := it.selBefore
	if !undo {
		restored = it.selAfter
	}
	if undo {
		it.selAfter = cur
	} else {
		it.selBefore = cur
	}
	*to = append(*to, it)
	h.open = false
	return Result{Doc: newDoc, Selection: restored, Changes: apply}, true
}

func (h *History) top() *item {
	if len(h.done) == 0 {
		return nil
	}
	return h.done[len(h.done)-1]
}

// prune drops the oldest steps beyond the configured depth. Items of
// every kind count, so runs of selection-only steps cannot grow the
// stack without bound.
func (h *History) prune() {
	for len(h.done) > h.cfg.MinDepth {
		h.done = h.done[1:]
	}
}

// absorb remaps every stored step through a change that bypasses
// history, threading the change down each stack so steps keep applying
// to the documents they will meet.
func (h *History) absorb(remote change.Set) error {
	h.open = false

	mapStack := func(items []*item, invOuter bool) ([]*item, error) {
		r := remote
		kept := make([]*item, 0, len(items))
		for i := len(items) - 1; i >= 0; i-- {
			it := items[i]
			if !it.isChange {
				it.selBefore = it.selBefore.Map(r.Desc())
				kept = append(kept, it)
				continue
			}
			outerDesc := it.inv.Desc()
			if !invOuter {
				outerDesc = it.fwd.Desc()
			}
			rNext, err := r.MapDesc(outerDesc, false)
			if err != nil {
				return nil, err
			}
			if err := it.remap(r, rNext, invOuter); err != nil {
				return nil, err
			}
			r = rNext
			// A step mapped to a no-op on either side can no longer be
			// undone or redone coherently.
			if !it.fwd.Empty() && !it.inv.Empty() {
				kept = append(kept, it)
			}
		}
		// Restore oldest-first order.
		for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
			kept[i], kept[j] = kept[j], kept[i]
		}
		return kept, nil
	}

	done, err := mapStack(h.done, true)
	if err != nil {
		return err
	}
	undone, err := mapStack(h.undone, false)
	if err != nil {
		return err
	}
	h.done, h.undone = done, undone
	return nil
}

// remap rebases one change step. r is the bypassing change in the
// step's outer document; rNext is the same change rebased into the
// step's inner document. invOuter marks stacks where the inverse faces
// the outer document (the undo stack).
func (it *item) remap(r, rNext change.Set, invOuter bool) error {
	outer, inner := &it.inv, &it.fwd
	if !invOuter {
		outer, inner = &it.fwd, &it.inv
	}
	newOuter, err := outer.MapDesc(r.Desc(), true)
	if err != nil {
		return err
	}
	newInner, err := inner.MapDesc(rNext.Desc(), true)
	if err != nil {
		return err
	}
	*outer, *inner = newOuter, newInner
	if invOuter {
		it.selAfter = it.selAfter.Map(r.Desc())
		it.selBefore = it.selBefore.Map(rNext.Desc())
	} else {
		it.selBefore = it.selBefore.Map(r.Desc())
		it.selAfter = it.selAfter.Map(rNext.Desc())
	}
	return nil
}
