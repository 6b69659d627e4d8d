package rangeset

import "sort"

// SpanIterator receives the flattened form of one or more sets: a
// partition of the iterated window into spans, each with the values
// covering it, with point values reported separately.
type SpanIterator interface {
	// Span reports one window segment and the span values covering it.
	// The active slice is reused between calls.
	Span(from, to int, active []Value)

	// Point reports a point value at its (clipped) position. Points at
	// a boundary are reported before the span that follows them.
	Point(from, to int, value Value)
}

// IterSpans walks sets over the window [from, to], partitioning it at
// every range boundary. ignore, when set, excludes values from the
// walk entirely.
func IterSpans(sets []*Set, from, to int, it SpanIterator, ignore func(Value) bool) {
	var spans, points []Range
	for _, s := range sets {
		var overlapping []Range
		if s != nil {
			s.root.collect(from, to, nil, &overlapping)
		}
		for _, r := range overlapping {
			if ignore != nil && ignore(r.Value) {
				continue
			}
			if r.Value.Point() {
				points = append(points, r)
			} else {
				spans = append(spans, r)
			}
		}
	}

	cuts := make([]int, 0, 2+2*len(spans)+len(points))
	cuts = append(cuts, from, to)
	for _, r := range spans {
		cuts = append(cuts, clip(r.From, from, to), clip(r.To, from, to))
	}
	for _, r := range points {
		cuts = append(cuts, clip(r.From, from, to))
	}
	sort.Ints(cuts)
	cuts = dedupe(cuts)

	sort.SliceStable(points, func(i, j int) bool {
		return cmpRange(points[i], points[j]) < 0
	})

	var active []Value
	pi := 0
	for i, pos := range cuts {
		for pi < len(points) && clip(points[pi].From, from, to) == pos {
			p := points[pi]
			it.Point(clip(p.From, from, to), clip(p.To, from, to), p.Value)
			pi++
		}
		if i == len(cuts)-1 {
			break
		}
		next := cuts[i+1]
		active = active[:0]
		for _, r := range spans {
			if r.From <= pos && r.To >= next {
				active = append(active, r.Value)
			}
		}
		it.Span(pos, next, active)
	}
}

func clip(p, lo, hi int) int {
	if p < lo {
		return lo
	}
	if p > hi {
		return hi
	}
	return p
}

func dedupe(sorted []int) []int {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
