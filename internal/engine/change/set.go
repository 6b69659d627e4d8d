package change

import (
	"fmt"

	"github.com/dshills/textloom/internal/engine/text"
)

// Spec describes one edit: delete [From, To) and insert content there.
// From == To inserts without deleting; a zero Insert deletes without
// inserting.
type Spec struct {
	From   int
	To     int
	Insert text.Text
}

// Set is a change with its inserted content. The zero value is the
// empty change over an empty document.
type Set struct {
	desc     Desc
	inserted []text.Text // aligned with desc.sections; zero for non-inserts
}

// Desc returns the change's shape without its content.
func (s Set) Desc() Desc {
	return s.desc
}

// Length returns the length of the document the change applies to.
func (s Set) Length() int { return s.desc.Length() }

// NewLength returns the length of the document the change produces.
func (s Set) NewLength() int { return s.desc.NewLength() }

// Empty reports whether the change makes no modifications.
func (s Set) Empty() bool { return s.desc.Empty() }

// MapPos maps a position through the change. See Desc.MapPos.
func (s Set) MapPos(pos, assoc int, mode MapMode) (int, error) {
	return s.desc.MapPos(pos, assoc, mode)
}

// String returns the change shape in debug form.
func (s Set) String() string { return s.desc.String() }

// Of builds a change over a document of the given length from a set of
// edit specs. Specs may arrive in any order but must not overlap; all
// positions address the original document.
func Of(length int, specs ...Spec) (Set, error) {
	if length < 0 {
		return Set{}, fmt.Errorf("document length %d: %w", length, ErrBadSpec)
	}
	if len(specs) == 0 {
		return identity(length), nil
	}
	parts := make([]Set, 0, len(specs))
	for _, sp := range specs {
		one, err := single(length, sp)
		if err != nil {
			return Set{}, err
		}
		parts = append(parts, one)
	}
	// Balanced reduction keeps combine near-linear for many specs.
	for len(parts) > 1 {
		merged := parts[:0]
		for i := 0; i < len(parts); i += 2 {
			if i+1 == len(parts) {
				merged = append(merged, parts[i])
				break
			}
			c, err := Combine(parts[i], parts[i+1])
			if err != nil {
				return Set{}, err
			}
			merged = append(merged, c)
		}
		parts = merged
	}
	return parts[0], nil
}

func identity(length int) Set {
	var b setBuilder
	b.keep(length)
	return b.finish()
}

func single(length int, sp Spec) (Set, error) {
	if sp.From < 0 || sp.From > sp.To || sp.To > length {
		return Set{}, fmt.Errorf("edit [%d, %d) in document of length %d: %w",
			sp.From, sp.To, length, ErrBadSpec)
	}
	var b setBuilder
	b.keep(sp.From)
	b.del(sp.To - sp.From)
	b.insert(sp.Insert)
	b.keep(length - sp.To)
	return b.finish(), nil
}

// Apply produces the document that results from this change.
func (s Set) Apply(doc text.Text) (text.Text, error) {
	if doc.Len() != s.Length() {
		return text.Text{}, fmt.Errorf("applying change of length %d to document of length %d: %w",
			s.Length(), doc.Len(), ErrLengthMismatch)
	}
	out := text.Empty
	posA := 0
	for i, sec := range s.desc.sections {
		switch sec.kind {
		case Keep:
			piece, err := doc.Slice(posA, posA+sec.length)
			if err != nil {
				return text.Text{}, err
			}
			out = out.Append(piece)
			posA += sec.length
		case Delete:
			posA += sec.length
		case Insert:
			out = out.Append(s.inserted[i])
		}
	}
	return out, nil
}

// Invert returns the change that undoes this one. doc must be the
// document the change was applied to, so deleted content can be
// recovered.
func (s Set) Invert(doc text.Text) (Set, error) {
	if doc.Len() != s.Length() {
		return Set{}, fmt.Errorf("inverting change of length %d against document of length %d: %w",
			s.Length(), doc.Len(), ErrLengthMismatch)
	}
	var b setBuilder
	posA := 0
	for _, sec := range s.desc.sections {
		switch sec.kind {
		case Keep:
			b.keep(sec.length)
			posA += sec.length
		case Delete:
			piece, err := doc.Slice(posA, posA+sec.length)
			if err != nil {
				return Set{}, err
			}
			b.insert(piece)
			posA += sec.length
		case Insert:
			b.del(sec.length)
		}
	}
	return b.finish(), nil
}

// Compose flattens this change followed by other into a single change
// over the original document. other must apply to this change's output.
func (s Set) Compose(other Set) (Set, error) {
	if s.NewLength() != other.Length() {
		return Set{}, fmt.Errorf("composing change producing length %d with change over length %d: %w",
			s.NewLength(), other.Length(), ErrLengthMismatch)
	}
	ra, rb := newReader(s), newReader(other)
	var b setBuilder
	for {
		// Deletions in the first change touch content the second never
		// sees; pass them straight through.
		if !ra.done() && ra.kind() == Delete {
			b.del(ra.rem())
			ra.take(ra.rem())
			continue
		}
		if !rb.done() && rb.kind() == Insert {
			b.insert(rb.takeText(rb.rem()))
			continue
		}
		if ra.done() && rb.done() {
			break
		}
		if ra.done() || rb.done() {
			return Set{}, fmt.Errorf("composing misaligned changes: %w", ErrLengthMismatch)
		}
		n := ra.rem()
		if rb.rem() < n {
			n = rb.rem()
		}
		switch {
		case ra.kind() == Keep && rb.kind() == Keep:
			b.keep(n)
			ra.take(n)
			rb.take(n)
		case ra.kind() == Keep && rb.kind() == Delete:
			b.del(n)
			ra.take(n)
			rb.take(n)
		case ra.kind() == Insert && rb.kind() == Keep:
			b.insert(ra.takeText(n))
			rb.take(n)
		case ra.kind() == Insert && rb.kind() == Delete:
			// Inserted then deleted again; it never existed.
			ra.take(n)
			rb.take(n)
		}
	}
	return b.finish(), nil
}

// Combine merges two changes over the same document into one. The
// changes must not overlap; inserts from s sort before inserts from
// other at the same position.
func Combine(s, other Set) (Set, error) {
	if s.Length() != other.Length() {
		return Set{}, fmt.Errorf("combining changes over lengths %d and %d: %w",
			s.Length(), other.Length(), ErrLengthMismatch)
	}
	ra, rb := newReader(s), newReader(other)
	var b setBuilder
	for {
		if !ra.done() && ra.kind() == Insert {
			if !rb.done() && rb.kind() == Delete && rb.off > 0 {
				return Set{}, fmt.Errorf("insert inside deleted range: %w", ErrOverlap)
			}
			b.insert(ra.takeText(ra.rem()))
			continue
		}
		if !rb.done() && rb.kind() == Insert {
			if !ra.done() && ra.kind() == Delete && ra.off > 0 {
				return Set{}, fmt.Errorf("insert inside deleted range: %w", ErrOverlap)
			}
			b.insert(rb.takeText(rb.rem()))
			continue
		}
		if ra.done() && rb.done() {
			break
		}
		if ra.done() || rb.done() {
			return Set{}, fmt.Errorf("combining misaligned changes: %w", ErrLengthMismatch)
		}
		n := ra.rem()
		if rb.rem() < n {
			n = rb.rem()
		}
		switch {
		case ra.kind() == Keep && rb.kind() == Keep:
			b.keep(n)
		case ra.kind() == Delete && rb.kind() == Delete:
			return Set{}, fmt.Errorf("deletions overlap: %w", ErrOverlap)
		default:
			b.del(n)
		}
		ra.take(n)
		rb.take(n)
	}
	return b.finish(), nil
}

// MapDesc rebases this change over other, producing a change that
// applies to other's output document. When before is true, content this
// change inserts sorts before content other inserts at the same
// position.
func (s Set) MapDesc(other Desc, before bool) (Set, error) {
	if s.Length() != other.Length() {
		return Set{}, fmt.Errorf("mapping change over length %d through change over length %d: %w",
			s.Length(), other.Length(), ErrLengthMismatch)
	}
	ra, rb := newReader(s), newDescReader(other)
	var b setBuilder
	for {
		aIns := !ra.done() && ra.kind() == Insert
		bIns := !rb.done() && rb.kind() == Insert
		if aIns && (before || !bIns) {
			b.insert(ra.takeText(ra.rem()))
			continue
		}
		if bIns {
			// The other change's insertion becomes untouched content.
			b.keep(rb.rem())
			rb.take(rb.rem())
			continue
		}
		if ra.done() && rb.done() {
			break
		}
		if ra.done() || rb.done() {
			return Set{}, fmt.Errorf("mapping misaligned changes: %w", ErrLengthMismatch)
		}
		n := ra.rem()
		if rb.rem() < n {
			n = rb.rem()
		}
		switch {
		case ra.kind() == Keep && rb.kind() == Keep:
			b.keep(n)
		case ra.kind() == Delete && rb.kind() == Keep:
			b.del(n)
		}
		// Content the other change deleted drops out entirely.
		ra.take(n)
		rb.take(n)
	}
	return b.finish(), nil
}

// ChangedRange is one contiguous modified region, in both coordinate
// spaces.
type ChangedRange struct {
	FromA, ToA int // replaced range in the original document
	FromB, ToB int // replacement range in the new document
	Inserted   text.Text
}

// ChangedRanges returns the modified regions of the change in order,
// with adjacent delete and insert runs merged.
func (s Set) ChangedRanges() []ChangedRange {
	var out []ChangedRange
	posA, posB := 0, 0
	open := false
	var cur ChangedRange
	flush := func() {
		if open {
			out = append(out, cur)
			open = false
		}
	}
	for i, sec := range s.desc.sections {
		if sec.kind == Keep {
			flush()
			posA += sec.length
			posB += sec.length
			continue
		}
		if !open {
			cur = ChangedRange{FromA: posA, ToA: posA, FromB: posB, ToB: posB, Inserted: text.Empty}
			open = true
		}
		if sec.kind == Delete {
			posA += sec.length
			cur.ToA = posA
		} else {
			cur.Inserted = cur.Inserted.Append(s.inserted[i])
			posB += sec.length
			cur.ToB = posB
		}
	}
	flush()
	return out
}

// reader consumes a change section by section, tracking a partial
// offset into the current section.
type reader struct {
	sections []section
	inserted []text.Text
	i        int
	off      int
}

func newReader(s Set) *reader {
	return &reader{sections: s.desc.sections, inserted: s.inserted}
}

func newDescReader(d Desc) *reader {
	return &reader{sections: d.sections}
}

func (r *reader) done() bool {
	return r.i >= len(r.sections)
}

func (r *reader) kind() Kind {
	return r.sections[r.i].kind
}

// rem returns the unconsumed length of the current section.
func (r *reader) rem() int {
	return r.sections[r.i].length - r.off
}

func (r *reader) take(n int) {
	r.off += n
	if r.off >= r.sections[r.i].length {
		r.i++
		r.off = 0
	}
}

// takeText consumes n bytes of the current insert section and returns
// that slice of its content.
func (r *reader) takeText(n int) text.Text {
	t := r.inserted[r.i]
	piece, err := t.Slice(r.off, r.off+n)
	if err != nil {
		panic("change: insert slice out of bounds")
	}
	r.take(n)
	return piece
}

// setBuilder assembles sections, coalescing adjacent runs of the same
// kind and dropping empty ones.
type setBuilder struct {
	sections []section
	inserted []text.Text
}

func (b *setBuilder) keep(n int) {
	if n <= 0 {
		return
	}
	if last := len(b.sections) - 1; last >= 0 && b.sections[last].kind == Keep {
		b.sections[last].length += n
		return
	}
	b.sections = append(b.sections, section{kind: Keep, length: n})
	b.inserted = append(b.inserted, text.Text{})
}

func (b *setBuilder) del(n int) {
	if n <= 0 {
		return
	}
	if last := len(b.sections) - 1; last >= 0 && b.sections[last].kind == Delete {
		b.sections[last].length += n
		return
	}
	b.sections = append(b.sections, section{kind: Delete, length: n})
	b.inserted = append(b.inserted, text.Text{})
}

func (b *setBuilder) insert(t text.Text) {
	n := t.Len()
	if n == 0 {
		return
	}
	if last := len(b.sections) - 1; last >= 0 && b.sections[last].kind == Insert {
		b.sections[last].length += n
		b.inserted[last] = b.inserted[last].Append(t)
		return
	}
	b.sections = append(b.sections, section{kind: Insert, length: n})
	b.inserted = append(b.inserted, t)
}

func (b *setBuilder) finish() Set {
	return Set{desc: Desc{sections: b.sections}, inserted: b.inserted}
}
