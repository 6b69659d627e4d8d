package text

// Tree structure constants.
const (
	// baseLeafLen is the preferred byte length of a leaf.
	baseLeafLen = 512

	// maxLeafLen is the maximum byte length of a leaf before splitting.
	// Leaves stay within [baseLeafLen, maxLeafLen] except at document
	// ends or when a single line exceeds the bound.
	maxLeafLen = 2 * baseLeafLen

	// maxLeafLines is the maximum number of lines stored in one leaf.
	maxLeafLines = 32

	// maxChildren is the maximum children per branch node.
	maxChildren = 8

	// minChildren is the minimum children per branch node (except root).
	minChildren = 4
)

// node is a node in the document tree.
// Leaf nodes (height == 0) hold complete line strings with no embedded
// line breaks. Branch nodes (height > 0) hold children of uniform
// height; one implicit line break separates adjacent children, exactly
// as one separates adjacent lines within a leaf.
type node struct {
	height uint8
	length int // byte length, counting implicit breaks
	breaks int // number of line breaks in the subtree

	lines    []string // leaf payload
	children []*node  // branch payload
}

// newLeaf creates a leaf from the given lines.
// The slice is owned by the leaf after the call.
func newLeaf(lines []string) *node {
	length := len(lines) - 1
	for _, ln := range lines {
		length += len(ln)
	}
	return &node{
		height: 0,
		length: length,
		breaks: len(lines) - 1,
		lines:  lines,
	}
}

// newBranch creates a branch over children of uniform height.
func newBranch(children []*node) *node {
	length := len(children) - 1
	breaks := len(children) - 1
	for _, c := range children {
		length += c.length
		breaks += c.breaks
	}
	return &node{
		height:   children[0].height + 1,
		length:   length,
		breaks:   breaks,
		children: children,
	}
}

func (n *node) isLeaf() bool {
	return n.height == 0
}

// leafFromLines packs lines into size-bounded leaves and builds a
// balanced subtree over them. Used for construction and for re-packing
// the region around an edit.
func buildFromLines(lines []string) *node {
	if len(lines) <= maxLeafLines {
		length := len(lines) - 1
		for _, ln := range lines {
			length += len(ln)
		}
		if length <= maxLeafLen {
			return newLeaf(lines)
		}
	}

	var leaves []*node
	start, curLen := 0, 0
	for i, ln := range lines {
		if i > start && (curLen+len(ln)+1 > baseLeafLen || i-start >= maxLeafLines) {
			leaves = append(leaves, newLeaf(lines[start:i:i]))
			start, curLen = i, 0
		}
		curLen += len(ln)
		if i > start {
			curLen++
		}
	}
	leaves = append(leaves, newLeaf(lines[start:]))

	return buildFromNodes(leaves)
}

// buildFromNodes builds a balanced tree over nodes of uniform height.
func buildFromNodes(nodes []*node) *node {
	for len(nodes) > 1 {
		parents := make([]*node, 0, (len(nodes)+maxChildren-1)/maxChildren)
		for i := 0; i < len(nodes); {
			take := maxChildren
			if rem := len(nodes) - i; rem <= take {
				take = rem
			} else if rem < take+minChildren {
				// Avoid leaving a trailing undersized branch.
				take = rem - minChildren
			}
			end := i + take
			parents = append(parents, newBranch(nodes[i:end:end]))
			i = end
		}
		nodes = parents
	}
	return nodes[0]
}

// wrap raises a node to the target height via single-child branches.
func wrap(n *node, height uint8) *node {
	for n.height < height {
		n = newBranch([]*node{n})
	}
	return n
}

// split splits the subtree at the given byte position.
// Left holds content in [0, pos), right holds [pos, length).
// A position equal to the offset of an implicit line break puts the
// break into the right half.
func (n *node) split(pos int) (*node, *node) {
	if n.isLeaf() {
		l, r := splitLines(n.lines, pos)
		return newLeaf(l), newLeaf(r)
	}

	off := 0
	for i, c := range n.children {
		end := off + c.length
		if pos <= end {
			cl, cr := c.split(pos - off)
			return assemble(n.children[:i], cl), assembleRight(cr, n.children[i+1:])
		}
		off = end + 1
	}
	// pos == length lands in the last child via pos <= end.
	panic("text: split position out of node bounds")
}

// splitLines splits a leaf line array at a byte position.
func splitLines(lines []string, pos int) (left, right []string) {
	off := 0
	for i, ln := range lines {
		end := off + len(ln)
		if pos <= end {
			k := pos - off
			left = make([]string, i+1)
			copy(left, lines[:i])
			left[i] = ln[:k]
			right = make([]string, 0, len(lines)-i)
			right = append(right, ln[k:])
			right = append(right, lines[i+1:]...)
			return left, right
		}
		off = end + 1
	}
	panic("text: split position out of leaf bounds")
}

// assemble joins uniform-height siblings with a trailing partial node.
// Siblings are reused by reference; only the partial side is rebuilt.
func assemble(siblings []*node, part *node) *node {
	if len(siblings) == 0 {
		return part
	}
	h := siblings[0].height
	kids := make([]*node, 0, len(siblings)+1)
	kids = append(kids, siblings...)
	kids = append(kids, wrap(part, h))
	return buildFromNodes(kids)
}

// assembleRight is assemble with the partial node leading.
func assembleRight(part *node, siblings []*node) *node {
	if len(siblings) == 0 {
		return part
	}
	h := siblings[0].height
	kids := make([]*node, 0, len(siblings)+1)
	kids = append(kids, wrap(part, h))
	kids = append(kids, siblings...)
	return buildFromNodes(kids)
}

// appendNode concatenates two subtrees as raw content: the last line of
// a and the first line of b merge into a single line. Structure outside
// the seam is reused by reference.
func appendNode(a, b *node) *node {
	if a.isLeaf() && b.isLeaf() {
		return appendLeaves(a, b)
	}

	if a.height >= b.height {
		last := len(a.children) - 1
		merged := appendNode(a.children[last], b)
		return spliceChildren(a.children[:last], merged, nil, a.height-1)
	}

	merged := appendNode(a, b.children[0])
	return spliceChildren(nil, merged, b.children[1:], b.height-1)
}

// appendLeaves merges two leaves at the seam line.
func appendLeaves(a, b *node) *node {
	lines := make([]string, 0, len(a.lines)+len(b.lines)-1)
	lines = append(lines, a.lines[:len(a.lines)-1]...)
	lines = append(lines, a.lines[len(a.lines)-1]+b.lines[0])
	lines = append(lines, b.lines[1:]...)
	return buildFromLines(lines)
}

// spliceChildren rebuilds a branch level around a merged seam node.
// The merged node may have grown one level taller than its siblings,
// in which case its children splice in flat.
func spliceChildren(before []*node, merged *node, after []*node, h uint8) *node {
	kids := make([]*node, 0, len(before)+len(after)+maxChildren)
	kids = append(kids, before...)
	switch {
	case merged.height == h:
		kids = append(kids, merged)
	case merged.height == h+1:
		kids = append(kids, merged.children...)
	default:
		kids = append(kids, wrap(merged, h))
	}
	kids = append(kids, after...)
	return buildFromNodes(kids)
}
