package rangeset

import "sort"

// Compare reports where two sets decorate the window [from, to]
// differently. fn receives each maximal differing region; adjacent
// differing segments are merged so the reported regions are minimal in
// count and cover exactly the disagreeing positions. Subtrees the two
// sets share by reference decorate both sides identically and are
// skipped without descending.
func Compare(a, b *Set, from, to int, fn func(from, to int)) {
	aNodes, bNodes := a.nodes(), b.nodes()
	var ar, br []Range
	if a != nil {
		a.root.collect(from, to, bNodes, &ar)
	}
	if b != nil {
		b.root.collect(from, to, aNodes, &br)
	}

	cuts := make([]int, 0, 2+2*len(ar)+2*len(br))
	cuts = append(cuts, from, to)
	for _, rs := range [][]Range{ar, br} {
		for _, r := range rs {
			cuts = append(cuts, clip(r.From, from, to), clip(r.To, from, to))
		}
	}
	sort.Ints(cuts)
	cuts = dedupe(cuts)

	open := false
	var curFrom, curTo int
	report := func(f, t int) {
		if open && f <= curTo {
			if t > curTo {
				curTo = t
			}
			return
		}
		if open {
			fn(curFrom, curTo)
		}
		curFrom, curTo, open = f, t, true
	}

	for i, pos := range cuts {
		if !sameValues(pointsAt(ar, pos), pointsAt(br, pos)) {
			report(pos, pos)
		}
		if i == len(cuts)-1 {
			break
		}
		next := cuts[i+1]
		if !sameValues(covering(ar, pos, next), covering(br, pos, next)) {
			report(pos, next)
		}
	}
	if open {
		fn(curFrom, curTo)
	}
}

func covering(ranges []Range, pos, next int) []Value {
	var vals []Value
	for _, r := range ranges {
		if !r.Value.Point() && r.From <= pos && r.To >= next {
			vals = append(vals, r.Value)
		}
	}
	return vals
}

func pointsAt(ranges []Range, pos int) []Value {
	var vals []Value
	for _, r := range ranges {
		if r.Value.Point() && r.From == pos {
			vals = append(vals, r.Value)
		}
	}
	return vals
}

// sameValues matches two value lists as multisets under Eq.
func sameValues(xs, ys []Value) bool {
	if len(xs) != len(ys) {
		return false
	}
	used := make([]bool, len(ys))
outer:
	for _, x := range xs {
		for i, y := range ys {
			if !used[i] && x.Eq(y) {
				used[i] = true
				continue outer
			}
		}
		return false
	}
	return true
}
