package rangeset

import "github.com/dshills/textloom/internal/engine/change"

// Marker is the standard range value: a named tag over a span or at a
// point. Span markers are exclusive on both sides, so content inserted
// at a boundary falls outside the mark. Point markers stick before
// content inserted at their position.
type Marker struct {
	name      string
	startSide int
	endSide   int
	point     bool
}

// NewMark returns a span marker with the given name.
func NewMark(name string) *Marker {
	return &Marker{name: name, startSide: 1, endSide: -1}
}

// NewPoint returns a point marker with the given name.
func NewPoint(name string) *Marker {
	return &Marker{name: name, startSide: -1, endSide: -1, point: true}
}

// Name returns the marker's tag.
func (m *Marker) Name() string { return m.name }

// StartSide implements Value.
func (m *Marker) StartSide() int { return m.startSide }

// EndSide implements Value.
func (m *Marker) EndSide() int { return m.endSide }

// Point implements Value.
func (m *Marker) Point() bool { return m.point }

// Eq implements Value. Markers compare by tag and shape, so separately
// constructed markers with the same name are interchangeable.
func (m *Marker) Eq(other Value) bool {
	o, ok := other.(*Marker)
	return ok && *o == *m
}

// Range returns a range carrying this marker.
func (m *Marker) Range(from, to int) Range {
	return Range{From: from, To: to, Value: m}
}

func assoc(side int) int {
	if side <= 0 {
		return -1
	}
	return 1
}

// Map implements Value. Point markers inside deleted content are
// dropped; span markers are dropped when their whole extent was
// deleted and clipped otherwise.
func (m *Marker) Map(mp Mapping, from, to int) (Range, bool) {
	fa, ta := assoc(m.startSide), assoc(m.endSide)
	if m.point {
		del, err := mp.MapPos(from, fa, change.MapModeTrackDel)
		if err != nil || del == change.Deleted {
			return Range{}, false
		}
		pos, err := mp.MapPos(from, fa, change.MapModeSimple)
		if err != nil {
			return Range{}, false
		}
		return Range{From: pos, To: pos, Value: m}, true
	}
	nf, err := mp.MapPos(from, fa, change.MapModeSimple)
	if err != nil {
		return Range{}, false
	}
	nt, err := mp.MapPos(to, ta, change.MapModeSimple)
	if err != nil {
		return Range{}, false
	}
	if nf >= nt && from < to {
		// Collapsed by deletion.
		return Range{}, false
	}
	if nt < nf {
		nt = nf
	}
	return Range{From: nf, To: nt, Value: m}, true
}
