// Package change describes document edits as run-length section
// sequences and implements the position-mapping algebra over them.
//
// A Desc is the shape of an edit: an ordered list of sections, each a
// (kind, length) run with kind keep, delete, or insert. A Set is a
// Desc plus the inserted content. The sum of non-insert section
// lengths equals the pre-edit document length; the sum of non-delete
// lengths equals the post-edit length.
//
// Sets are immutable: every operation returns a new value.
package change

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by change operations.
var (
	// ErrLengthMismatch indicates a change was applied to or combined
	// with a document or change of the wrong length.
	ErrLengthMismatch = errors.New("change length mismatch")

	// ErrOverlap indicates two supposedly disjoint edits overlap.
	ErrOverlap = errors.New("overlapping changes")

	// ErrPosOutOfRange indicates a mapped position is outside the
	// change's input document.
	ErrPosOutOfRange = errors.New("position out of range")

	// ErrBadSpec indicates a malformed edit spec.
	ErrBadSpec = errors.New("malformed edit spec")
)

// Kind identifies a section's effect on the document.
type Kind uint8

const (
	// Keep passes a run of the old document through unchanged.
	Keep Kind = iota

	// Delete removes a run of the old document.
	Delete

	// Insert adds new content at this point.
	Insert
)

// String returns the section kind name.
func (k Kind) String() string {
	switch k {
	case Keep:
		return "keep"
	case Delete:
		return "del"
	case Insert:
		return "ins"
	default:
		return "unknown"
	}
}

// section is one (kind, length) run.
type section struct {
	kind   Kind
	length int
}

// MapMode selects how a mapped position behaves with respect to an
// overlapping deletion.
type MapMode uint8

const (
	// MapModeSimple maps every position to a real position, collapsing
	// deleted positions onto the deletion point.
	MapModeSimple MapMode = iota

	// MapModeTrackDel reports a position strictly inside a deleted
	// run as deleted.
	MapModeTrackDel

	// MapModeTrackBefore reports a position as deleted when the
	// character before it was deleted.
	MapModeTrackBefore

	// MapModeTrackAfter reports a position as deleted when the
	// character after it was deleted.
	MapModeTrackAfter
)

// Deleted is returned by MapPos for positions removed by the change
// under the non-simple map modes.
const Deleted = -1

// Desc is the shape of a change without its inserted content.
// The zero value is the empty change over an empty document.
type Desc struct {
	sections []section
}

// Length returns the length of the document the change applies to.
func (d Desc) Length() int {
	n := 0
	for _, s := range d.sections {
		if s.kind != Insert {
			n += s.length
		}
	}
	return n
}

// NewLength returns the length of the document the change produces.
func (d Desc) NewLength() int {
	n := 0
	for _, s := range d.sections {
		if s.kind != Delete {
			n += s.length
		}
	}
	return n
}

// Empty reports whether the change makes no modifications.
func (d Desc) Empty() bool {
	for _, s := range d.sections {
		if s.kind != Keep {
			return false
		}
	}
	return true
}

// String returns a compact debug form, e.g. "keep(3) del(2) ins(4)".
func (d Desc) String() string {
	if len(d.sections) == 0 {
		return "empty"
	}
	var sb strings.Builder
	for i, s := range d.sections {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s(%d)", s.kind, s.length)
	}
	return sb.String()
}

// Eq reports whether two descs have identical sections.
func (d Desc) Eq(other Desc) bool {
	if len(d.sections) != len(other.sections) {
		return false
	}
	for i, s := range d.sections {
		if other.sections[i] != s {
			return false
		}
	}
	return true
}

// MapPos maps a position in the change's input document to the
// corresponding position in its output document.
//
// assoc breaks the tie at an insertion point: negative sticks before
// the inserted content, non-negative after it. mode decides how
// positions overlapping a deletion report; under the tracking modes
// the result is Deleted (-1) when the relevant adjacency was removed.
//
// For a fixed change, assoc and mode, mapping is monotonic in pos.
func (d Desc) MapPos(pos, assoc int, mode MapMode) (int, error) {
	if pos < 0 || pos > d.Length() {
		return 0, fmt.Errorf("mapping %d through change of length %d: %w",
			pos, d.Length(), ErrPosOutOfRange)
	}

	posA, posB := 0, 0
	for _, s := range d.sections {
		switch s.kind {
		case Keep:
			if pos < posA+s.length {
				return posB + (pos - posA), nil
			}
			posA += s.length
			posB += s.length
		case Insert:
			if posA == pos && assoc < 0 {
				return posB, nil
			}
			posB += s.length
		case Delete:
			endA := posA + s.length
			switch mode {
			case MapModeTrackDel:
				if pos > posA && pos < endA {
					return Deleted, nil
				}
			case MapModeTrackBefore:
				if pos > posA && pos <= endA {
					return Deleted, nil
				}
			case MapModeTrackAfter:
				if pos >= posA && pos < endA {
					return Deleted, nil
				}
			}
			if pos < endA {
				return posB, nil
			}
			posA = endA
		}
	}
	return posB + (pos - posA), nil
}

// Map is MapPos with simple mode, for callers that only shift
// positions. It never fails for in-range positions; out-of-range
// positions are clamped to the mapped document end.
func (d Desc) Map(pos, assoc int) int {
	mapped, err := d.MapPos(pos, assoc, MapModeSimple)
	if err != nil {
		return d.NewLength()
	}
	return mapped
}

// TouchesRange reports whether the change modifies the document
// anywhere in [from, to], including edits at the range boundaries.
func (d Desc) TouchesRange(from, to int) bool {
	posA := 0
	for _, s := range d.sections {
		switch s.kind {
		case Keep:
			posA += s.length
		case Insert:
			if posA >= from && posA <= to {
				return true
			}
		case Delete:
			endA := posA + s.length
			if endA >= from && posA <= to {
				return true
			}
			posA = endA
		}
		if posA > to {
			return false
		}
	}
	return false
}
