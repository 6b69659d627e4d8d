package text

// lineWalker walks the leaf lines of a subtree in order, forward or
// reverse, without materializing the document.
type lineWalker struct {
	stack   []walkFrame
	reverse bool
}

type walkFrame struct {
	n   *node
	idx int // next child or line index to visit
}

func newLineWalker(root *node, reverse bool) *lineWalker {
	w := &lineWalker{
		stack:   make([]walkFrame, 0, 8),
		reverse: reverse,
	}
	w.push(root)
	return w
}

func (w *lineWalker) push(n *node) {
	idx := 0
	if w.reverse {
		if n.isLeaf() {
			idx = len(n.lines) - 1
		} else {
			idx = len(n.children) - 1
		}
	}
	w.stack = append(w.stack, walkFrame{n: n, idx: idx})
}

// next returns the next line string, or false when exhausted.
func (w *lineWalker) next() (string, bool) {
	for len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]
		if top.n.isLeaf() {
			if w.reverse {
				if top.idx >= 0 {
					ln := top.n.lines[top.idx]
					top.idx--
					return ln, true
				}
			} else if top.idx < len(top.n.lines) {
				ln := top.n.lines[top.idx]
				top.idx++
				return ln, true
			}
			w.stack = w.stack[:len(w.stack)-1]
			continue
		}
		if w.reverse {
			if top.idx >= 0 {
				child := top.n.children[top.idx]
				top.idx--
				w.push(child)
				continue
			}
		} else if top.idx < len(top.n.children) {
			child := top.n.children[top.idx]
			top.idx++
			w.push(child)
			continue
		}
		w.stack = w.stack[:len(w.stack)-1]
	}
	return "", false
}

// Iter iterates document content in chunks. Each chunk is either a run
// of line text or a single line break; chunks never split a UTF-8
// sequence. Empty lines produce only their surrounding breaks.
type Iter struct {
	walker  *lineWalker
	queue   [2]string
	qlen    int
	started bool
	value   string
	isBreak bool
}

// Iter returns a forward chunk iterator over the whole document.
func (t Text) Iter() *Iter {
	return &Iter{walker: newLineWalker(t.rootNode(), false)}
}

// IterRange returns a chunk iterator over [from, to). When from > to,
// iteration runs in reverse over [to, from). Range ends that fall
// inside a multi-byte UTF-8 sequence are moved back to the preceding
// boundary so no chunk carries a partial rune.
func (t Text) IterRange(from, to int) (*Iter, error) {
	reverse := from > to
	if reverse {
		from, to = to, from
	}
	if err := t.checkRange(from, to); err != nil {
		return nil, err
	}
	from = t.snapRuneBoundary(from)
	to = t.snapRuneBoundary(to)
	part, err := t.Slice(from, to)
	if err != nil {
		return nil, err
	}
	return &Iter{walker: newLineWalker(part.rootNode(), reverse)}, nil
}

// Next advances to the next chunk. Returns false when done.
func (it *Iter) Next() bool {
	for {
		if it.qlen > 0 {
			it.value = it.queue[0]
			it.queue[0] = it.queue[1]
			it.qlen--
			it.isBreak = it.value == "\n"
			return true
		}
		ln, ok := it.walker.next()
		if !ok {
			return false
		}
		if it.started {
			it.queue[it.qlen] = "\n"
			it.qlen++
		}
		it.started = true
		if ln != "" {
			it.queue[it.qlen] = ln
			it.qlen++
		}
	}
}

// Value returns the current chunk.
func (it *Iter) Value() string {
	return it.value
}

// LineBreak reports whether the current chunk is a line break.
func (it *Iter) LineBreak() bool {
	return it.isBreak
}

// LineIter iterates the lines of a document in order.
type LineIter struct {
	walker *lineWalker
	num    int
	text   string
}

// IterLines returns an iterator over every line of the document.
func (t Text) IterLines() *LineIter {
	return &LineIter{walker: newLineWalker(t.rootNode(), false)}
}

// Next advances to the next line. Returns false when done.
func (it *LineIter) Next() bool {
	ln, ok := it.walker.next()
	if !ok {
		return false
	}
	it.num++
	it.text = ln
	return true
}

// Text returns the current line content, without its break.
func (it *LineIter) Text() string {
	return it.text
}

// Number returns the current 1-based line number.
func (it *LineIter) Number() int {
	return it.num
}

// snapRuneBoundary moves a position back to the nearest UTF-8 boundary.
// Positions at line breaks or line starts are already boundaries.
func (t Text) snapRuneBoundary(pos int) int {
	line, err := t.LineAt(pos)
	if err != nil {
		return pos
	}
	for pos > line.From && pos < line.To && continuation(line.Text[pos-line.From]) {
		pos--
	}
	return pos
}

func continuation(b byte) bool {
	return b&0xC0 == 0x80
}
