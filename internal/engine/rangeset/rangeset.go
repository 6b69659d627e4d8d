// Package rangeset maintains sorted sets of tagged ranges over a
// document and keeps them in place across edits. A set is a balanced
// tree: leaves hold a bounded run of locally sorted ranges, branches
// hold children with cached extent and size, so depth stays bounded
// regardless of input ordering. Sets are immutable; every operation
// returns a new set reusing untouched subtrees by reference.
package rangeset

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dshills/textloom/internal/engine/change"
)

// Errors returned by range set operations.
var (
	// ErrInvalidRange indicates a range with negative or inverted bounds.
	ErrInvalidRange = errors.New("invalid range")
)

// Mapping shifts positions through a document change.
// change.Desc implements it.
type Mapping interface {
	MapPos(pos, assoc int, mode change.MapMode) (int, error)
}

// Value is the payload attached to a range. Sides order coincident
// boundaries: lower sides sort first. Point values represent widgets
// or markers that occupy a position rather than decorate a span.
type Value interface {
	StartSide() int
	EndSide() int
	Point() bool
	Eq(other Value) bool

	// Map repositions a range carrying this value through a change.
	// The second result is false when the range did not survive.
	Map(m Mapping, from, to int) (Range, bool)
}

// Range is a value attached to a span of the document.
type Range struct {
	From  int
	To    int
	Value Value
}

// cmpRange orders ranges by position, breaking ties on sides.
func cmpRange(a, b Range) int {
	if a.From != b.From {
		return a.From - b.From
	}
	if d := a.Value.StartSide() - b.Value.StartSide(); d != 0 {
		return d
	}
	if a.To != b.To {
		return a.To - b.To
	}
	return a.Value.EndSide() - b.Value.EndSide()
}

const (
	// maxLeafRanges caps the ranges held by one leaf.
	maxLeafRanges = 16
	// maxFanout caps the children of one branch.
	maxFanout = 8
)

// node is one tree node. Leaves carry a sorted run of ranges; branches
// carry children in range order. start and length describe the span of
// range start positions inside the subtree, maxTo the furthest range
// end, size the subtree's range count. Sibling start spans never
// overlap, so the child lengths of a branch sum to at most its own.
type node struct {
	children []*node
	ranges   []Range

	start  int
	length int
	maxTo  int
	size   int
}

func (n *node) leaf() bool { return n.children == nil }

func newLeaf(ranges []Range) *node {
	n := &node{
		ranges: ranges,
		start:  ranges[0].From,
		length: ranges[len(ranges)-1].From - ranges[0].From,
		size:   len(ranges),
	}
	for _, r := range ranges {
		if r.To > n.maxTo {
			n.maxTo = r.To
		}
	}
	return n
}

func newBranch(children []*node) *node {
	first, last := children[0], children[len(children)-1]
	n := &node{
		children: children,
		start:    first.start,
		length:   last.start + last.length - first.start,
	}
	for _, c := range children {
		n.size += c.size
		if c.maxTo > n.maxTo {
			n.maxTo = c.maxTo
		}
	}
	return n
}

// buildLeaves chunks sorted ranges into leaves.
func buildLeaves(ranges []Range) []*node {
	leaves := make([]*node, 0, (len(ranges)+maxLeafRanges-1)/maxLeafRanges)
	for len(ranges) > 0 {
		n := len(ranges)
		if n > maxLeafRanges {
			n = maxLeafRanges
		}
		leaves = append(leaves, newLeaf(ranges[:n:n]))
		ranges = ranges[n:]
	}
	return leaves
}

// buildTree balances an ordered node list into one root.
func buildTree(children []*node) *node {
	if len(children) == 0 {
		return nil
	}
	for len(children) > 1 {
		next := make([]*node, 0, (len(children)+maxFanout-1)/maxFanout)
		for len(children) > 0 {
			n := len(children)
			if n > maxFanout {
				n = maxFanout
			}
			if n == 1 {
				next = append(next, children[0])
			} else {
				next = append(next, newBranch(children[:n:n]))
			}
			children = children[n:]
		}
		children = next
	}
	return children[0]
}

// first returns the lowest-sorting range in the subtree.
func (n *node) first() Range {
	for !n.leaf() {
		n = n.children[0]
	}
	return n.ranges[0]
}

// last returns the highest-sorting range in the subtree.
func (n *node) last() Range {
	for !n.leaf() {
		n = n.children[len(n.children)-1]
	}
	return n.ranges[len(n.ranges)-1]
}

// walk visits every range in order until fn returns false.
func (n *node) walk(fn func(Range) bool) bool {
	if n == nil {
		return true
	}
	if n.leaf() {
		for _, r := range n.ranges {
			if !fn(r) {
				return false
			}
		}
		return true
	}
	for _, c := range n.children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

// Set is an immutable sorted collection of ranges.
type Set struct {
	root *node
}

// Empty is the set with no ranges.
var Empty = &Set{}

// Of builds a set from the given ranges. When sorted is false the
// input is sorted first; the input slice is never retained.
func Of(ranges []Range, sorted bool) (*Set, error) {
	if len(ranges) == 0 {
		return Empty, nil
	}
	owned := make([]Range, len(ranges))
	copy(owned, ranges)
	for _, r := range owned {
		if r.From < 0 || r.To < r.From {
			return nil, fmt.Errorf("range [%d, %d): %w", r.From, r.To, ErrInvalidRange)
		}
		if r.Value == nil {
			return nil, fmt.Errorf("range [%d, %d) without value: %w", r.From, r.To, ErrInvalidRange)
		}
	}
	if !sorted {
		sort.SliceStable(owned, func(i, j int) bool {
			return cmpRange(owned[i], owned[j]) < 0
		})
	}
	return &Set{root: buildTree(buildLeaves(owned))}, nil
}

// fromNodes assembles a set from an ordered node list.
func fromNodes(children []*node) *Set {
	root := buildTree(children)
	if root == nil {
		return Empty
	}
	return &Set{root: root}
}

// Size returns the number of ranges in the set.
func (s *Set) Size() int {
	if s == nil || s.root == nil {
		return 0
	}
	return s.root.size
}

// Ranges returns the set content in order as a fresh slice.
func (s *Set) Ranges() []Range {
	if s.Size() == 0 {
		return nil
	}
	out := make([]Range, 0, s.root.size)
	s.root.walk(func(r Range) bool {
		out = append(out, r)
		return true
	})
	return out
}

// topChildren returns the root's child list, treating a leaf root as a
// single child.
func (s *Set) topChildren() []*node {
	if s == nil || s.root == nil {
		return nil
	}
	if s.root.leaf() {
		return []*node{s.root}
	}
	return s.root.children
}

// Update describes a set revision: ranges to add and a predicate for
// existing ranges to keep.
type Update struct {
	// Add holds new ranges; Sorted marks them as already ordered.
	Add    []Range
	Sorted bool

	// Filter, when set, decides which existing ranges stay.
	Filter func(from, to int, value Value) bool

	// FilterFrom and FilterTo restrict the filter to ranges touching
	// [FilterFrom, FilterTo]. The window applies only when
	// FilterWindow is set; otherwise the filter sees every range.
	FilterWindow bool
	FilterFrom   int
	FilterTo     int
}

// Update returns a revised set. Subtrees the filter window and the
// added ranges do not reach are reused by reference, so callers may
// compare child identity to skip downstream work.
func (s *Set) Update(u Update) (*Set, error) {
	if u.Filter == nil && len(u.Add) == 0 {
		return s, nil
	}
	addSet, err := Of(u.Add, u.Sorted)
	if err != nil {
		return nil, err
	}
	adds := addSet.Ranges()

	inWindow := func(from, to int) bool {
		if !u.FilterWindow {
			return true
		}
		return to >= u.FilterFrom && from <= u.FilterTo
	}
	filterTouches := func(c *node) bool {
		return u.Filter != nil && inWindow(c.start, c.maxTo)
	}

	var next []*node
	var pending []Range
	flush := func() {
		if len(pending) > 0 {
			next = append(next, buildLeaves(pending)...)
			pending = nil
		}
	}

	ai := 0
	for _, c := range s.topChildren() {
		first := c.first()
		for ai < len(adds) && cmpRange(adds[ai], first) < 0 {
			pending = append(pending, adds[ai])
			ai++
		}
		last := c.last()
		touched := filterTouches(c) || (ai < len(adds) && cmpRange(adds[ai], last) <= 0)
		if !touched {
			flush()
			next = append(next, c)
			continue
		}
		// Flatten the touched child, filtering and merging adds in
		// order. Existing ranges win ties so update order is stable.
		c.walk(func(r Range) bool {
			if u.Filter != nil && inWindow(r.From, r.To) && !u.Filter(r.From, r.To, r.Value) {
				return true
			}
			for ai < len(adds) && cmpRange(adds[ai], r) < 0 {
				pending = append(pending, adds[ai])
				ai++
			}
			pending = append(pending, r)
			return true
		})
		for ai < len(adds) && cmpRange(adds[ai], last) <= 0 {
			pending = append(pending, adds[ai])
			ai++
		}
	}
	pending = append(pending, adds[ai:]...)
	flush()
	return fromNodes(next), nil
}

// Map repositions every range through a change. Ranges whose value
// reports them deleted are dropped. Subtrees wholly before the first
// modification keep their positions and are reused by reference.
func (s *Set) Map(m Mapping) (*Set, error) {
	if s.Size() == 0 {
		return s, nil
	}
	desc, isDesc := m.(change.Desc)
	if isDesc && desc.Empty() {
		return s, nil
	}

	children := s.topChildren()
	var reused []*node
	i := 0
	if isDesc {
		for ; i < len(children); i++ {
			if desc.TouchesRange(0, children[i].maxTo) {
				break
			}
			reused = append(reused, children[i])
		}
	}

	var rest []Range
	for ; i < len(children); i++ {
		children[i].walk(func(r Range) bool {
			rest = append(rest, r)
			return true
		})
	}

	mapped := make([]Range, 0, len(rest))
	for _, r := range rest {
		nr, ok := r.Value.Map(m, r.From, r.To)
		if !ok {
			continue
		}
		if nr.Value == nil {
			nr.Value = r.Value
		}
		if nr.From < 0 || nr.To < nr.From {
			return nil, fmt.Errorf("mapped range [%d, %d): %w", nr.From, nr.To, ErrInvalidRange)
		}
		mapped = append(mapped, nr)
	}
	// Mixed sides can reorder coincident boundaries.
	sort.SliceStable(mapped, func(i, j int) bool {
		return cmpRange(mapped[i], mapped[j]) < 0
	})
	return fromNodes(append(reused, buildLeaves(mapped)...)), nil
}

// Between calls fn for every range overlapping [from, to], in order.
// Subtrees outside the window are skipped; iteration stops when fn
// returns false.
func (s *Set) Between(from, to int, fn func(from, to int, value Value) bool) {
	if s == nil {
		return
	}
	s.root.between(from, to, fn)
}

func (n *node) between(from, to int, fn func(from, to int, value Value) bool) bool {
	if n == nil || n.start > to || n.maxTo < from {
		return true
	}
	if n.leaf() {
		for _, r := range n.ranges {
			if r.From > to {
				return true
			}
			if r.To < from {
				continue
			}
			if !fn(r.From, r.To, r.Value) {
				return false
			}
		}
		return true
	}
	for _, c := range n.children {
		if !c.between(from, to, fn) {
			return false
		}
	}
	return true
}

// collect appends the ranges overlapping [from, to], skipping subtrees
// wholly outside the window and subtrees whose pointer the skip set
// names.
func (n *node) collect(from, to int, skip map[*node]bool, out *[]Range) {
	if n == nil || n.start > to || n.maxTo < from || skip[n] {
		return
	}
	if n.leaf() {
		for _, r := range n.ranges {
			if r.From > to {
				return
			}
			if r.To >= from {
				*out = append(*out, r)
			}
		}
		return
	}
	for _, c := range n.children {
		c.collect(from, to, skip, out)
	}
}

// nodes records every subtree pointer under s.
func (s *Set) nodes() map[*node]bool {
	set := make(map[*node]bool)
	var visit func(*node)
	visit = func(n *node) {
		if n == nil {
			return
		}
		set[n] = true
		for _, c := range n.children {
			visit(c)
		}
	}
	if s != nil {
		visit(s.root)
	}
	return set
}
