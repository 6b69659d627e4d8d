package text

import (
	"fmt"
	"sync"
)

// lineCacheSize is the number of recently resolved lines kept per
// document. Sequential access patterns (typing, cursor motion) hit the
// cache instead of re-descending the tree.
const lineCacheSize = 12

// Line describes one line of a document.
type Line struct {
	Number int    // 1-based line number
	From   int    // byte offset of the line start
	To     int    // byte offset of the line end, excluding the break
	Text   string // line content without the break
}

// Len returns the line length in bytes.
func (l Line) Len() int {
	return l.To - l.From
}

// lineCache is a small ring of recently resolved lines.
// It is shared by every copy of one Text value; hits avoid a tree
// descent for repeated nearby lookups.
type lineCache struct {
	mu    sync.Mutex
	lines [lineCacheSize]Line
	used  int
	next  int
}

func newLineCache() *lineCache {
	return &lineCache{}
}

func (c *lineCache) byNumber(n int) (Line, bool) {
	if c == nil {
		return Line{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < c.used; i++ {
		if c.lines[i].Number == n {
			return c.lines[i], true
		}
	}
	return Line{}, false
}

func (c *lineCache) byPos(pos int) (Line, bool) {
	if c == nil {
		return Line{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < c.used; i++ {
		if l := c.lines[i]; l.From <= pos && pos <= l.To {
			return l, true
		}
	}
	return Line{}, false
}

func (c *lineCache) store(l Line) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines[c.next] = l
	c.next = (c.next + 1) % lineCacheSize
	if c.used < lineCacheSize {
		c.used++
	}
}

// LineAt returns the line containing the given byte position.
// A position at the end of a line (before its break) belongs to that
// line; the document end belongs to the last line.
func (t Text) LineAt(pos int) (Line, error) {
	if err := t.checkPos(pos); err != nil {
		return Line{}, err
	}
	if l, ok := t.cache.byPos(pos); ok {
		return l, nil
	}
	l := lineAtNode(t.rootNode(), pos, 0, 1)
	t.cache.store(l)
	return l, nil
}

// Line returns the line with the given 1-based number.
func (t Text) Line(n int) (Line, error) {
	if n < 1 || n > t.Lines() {
		return Line{}, fmt.Errorf("line %d of %d: %w", n, t.Lines(), ErrLineOutOfRange)
	}
	if l, ok := t.cache.byNumber(n); ok {
		return l, nil
	}
	l := lineNumNode(t.rootNode(), n, 0, 1)
	t.cache.store(l)
	return l, nil
}

// lineAtNode descends by cumulative byte length.
func lineAtNode(n *node, pos, off, lineNo int) Line {
	for !n.isLeaf() {
		for _, c := range n.children {
			end := off + c.length
			if pos <= end {
				n = c
				break
			}
			off = end + 1
			lineNo += c.breaks + 1
		}
	}
	for i, ln := range n.lines {
		end := off + len(ln)
		if pos <= end {
			return Line{Number: lineNo + i, From: off, To: end, Text: ln}
		}
		off = end + 1
	}
	panic("text: position out of leaf bounds")
}

// lineNumNode descends by cumulative line count.
func lineNumNode(n *node, num, off, lineNo int) Line {
	for !n.isLeaf() {
		for _, c := range n.children {
			if num <= lineNo+c.breaks {
				n = c
				break
			}
			off += c.length + 1
			lineNo += c.breaks + 1
		}
	}
	for i, ln := range n.lines {
		if lineNo+i == num {
			return Line{Number: num, From: off, To: off + len(ln), Text: ln}
		}
		off += len(ln) + 1
	}
	panic("text: line number out of leaf bounds")
}
