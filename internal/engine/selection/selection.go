// Package selection models cursor state: one or more anchored ranges
// over a document, with a primary range. Values are immutable.
package selection

import (
	"fmt"

	"github.com/dshills/textloom/internal/engine/change"
)

// Range is one selected span. Anchor is the fixed end, Head the moving
// end; Head may precede Anchor for backwards selections. Anchor equal
// to Head is a cursor.
type Range struct {
	Anchor int
	Head   int
}

// Cursor returns an empty range at pos.
func Cursor(pos int) Range {
	return Range{Anchor: pos, Head: pos}
}

// From returns the lower end of the range.
func (r Range) From() int {
	if r.Head < r.Anchor {
		return r.Head
	}
	return r.Anchor
}

// To returns the upper end of the range.
func (r Range) To() int {
	if r.Head > r.Anchor {
		return r.Head
	}
	return r.Anchor
}

// Empty reports whether the range is a cursor.
func (r Range) Empty() bool {
	return r.Anchor == r.Head
}

// Map shifts the range through a change. Both ends stick before
// content inserted at their position.
func (r Range) Map(desc change.Desc) Range {
	return Range{
		Anchor: desc.Map(r.Anchor, -1),
		Head:   desc.Map(r.Head, -1),
	}
}

// String returns the range in debug form.
func (r Range) String() string {
	if r.Empty() {
		return fmt.Sprintf("%d", r.Head)
	}
	return fmt.Sprintf("%d-%d", r.Anchor, r.Head)
}

// Selection is a set of ranges with one designated primary.
// The zero value is a single cursor at the document start.
type Selection struct {
	Ranges  []Range
	Primary int
}

// Single returns a selection of one range.
func Single(anchor, head int) Selection {
	return Selection{Ranges: []Range{{Anchor: anchor, Head: head}}}
}

// At returns a single-cursor selection at pos.
func At(pos int) Selection {
	return Single(pos, pos)
}

// Main returns the primary range.
func (s Selection) Main() Range {
	if len(s.Ranges) == 0 {
		return Range{}
	}
	if s.Primary < 0 || s.Primary >= len(s.Ranges) {
		return s.Ranges[0]
	}
	return s.Ranges[s.Primary]
}

// Map shifts every range through a change.
func (s Selection) Map(desc change.Desc) Selection {
	if len(s.Ranges) == 0 || desc.Empty() {
		return s
	}
	mapped := make([]Range, len(s.Ranges))
	for i, r := range s.Ranges {
		mapped[i] = r.Map(desc)
	}
	return Selection{Ranges: mapped, Primary: s.Primary}
}

// Eq reports whether two selections are identical.
func (s Selection) Eq(other Selection) bool {
	if s.Primary != other.Primary || len(s.Ranges) != len(other.Ranges) {
		return false
	}
	for i, r := range s.Ranges {
		if other.Ranges[i] != r {
			return false
		}
	}
	return true
}
