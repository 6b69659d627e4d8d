package text

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by text operations. Out-of-range arguments are always
// reported; positions are never silently clamped.
var (
	// ErrPosOutOfRange indicates a byte position outside the document.
	ErrPosOutOfRange = errors.New("position out of range")

	// ErrLineOutOfRange indicates a line number outside the document.
	ErrLineOutOfRange = errors.New("line number out of range")

	// ErrLineBreak indicates a line string contains a line break.
	ErrLineBreak = errors.New("line contains line break")

	// ErrNoLines indicates construction from an empty line sequence.
	ErrNoLines = errors.New("document must have at least one line")
)

// Text is an immutable document: a balanced tree of line strings.
// Operations return new Text values sharing untouched subtrees with the
// original; a Text is never modified in place, so values may be freely
// shared across concurrent readers.
//
// Positions are byte offsets into the UTF-8 content, where each line
// break counts as one byte. Every document has at least one line; the
// empty document is a single empty line.
type Text struct {
	root  *node
	cache *lineCache
}

// Empty is the empty document: one empty line, length zero.
var Empty = Text{root: newLeaf([]string{""})}

// Of builds a document from an ordered sequence of lines.
// No line may contain a line break, and at least one line is required.
func Of(lines []string) (Text, error) {
	if len(lines) == 0 {
		return Text{}, ErrNoLines
	}
	for i, ln := range lines {
		if strings.ContainsAny(ln, "\n\r") {
			return Text{}, fmt.Errorf("line %d: %w", i, ErrLineBreak)
		}
	}
	owned := make([]string, len(lines))
	copy(owned, lines)
	return Text{root: buildFromLines(owned), cache: newLineCache()}, nil
}

// FromString builds a document from a string, splitting on line breaks.
// CRLF and lone CR are normalized to LF.
func FromString(s string) Text {
	if strings.ContainsRune(s, '\r') {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
	}
	t, _ := Of(strings.Split(s, "\n"))
	return t
}

// Len returns the document length in bytes, counting line breaks.
func (t Text) Len() int {
	if t.root == nil {
		return 0
	}
	return t.root.length
}

// Lines returns the number of lines. Never less than one.
func (t Text) Lines() int {
	if t.root == nil {
		return 1
	}
	return t.root.breaks + 1
}

// String returns the full document content.
func (t Text) String() string {
	if t.root == nil {
		return ""
	}
	var sb strings.Builder
	sb.Grow(t.root.length)
	writeNode(&sb, t.root)
	return sb.String()
}

func writeNode(sb *strings.Builder, n *node) {
	if n.isLeaf() {
		for i, ln := range n.lines {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(ln)
		}
		return
	}
	for i, c := range n.children {
		if i > 0 {
			sb.WriteByte('\n')
		}
		writeNode(sb, c)
	}
}

// Slice returns the document content in [from, to) as a new Text.
// Untouched subtrees are shared with the receiver.
func (t Text) Slice(from, to int) (Text, error) {
	if err := t.checkRange(from, to); err != nil {
		return Text{}, err
	}
	if from == 0 && to == t.Len() {
		return t, nil
	}
	_, rest := t.rootNode().split(from)
	mid, _ := rest.split(to - from)
	return Text{root: mid, cache: newLineCache()}, nil
}

// SliceString returns the content in [from, to) as a string.
func (t Text) SliceString(from, to int) (string, error) {
	s, err := t.Slice(from, to)
	if err != nil {
		return "", err
	}
	return s.String(), nil
}

// Replace returns a new document with [from, to) replaced by insert.
// The prefix and suffix trees are reused by reference; only leaves
// adjacent to the edit are re-packed.
func (t Text) Replace(from, to int, insert Text) (Text, error) {
	if err := t.checkRange(from, to); err != nil {
		return Text{}, err
	}
	left, _ := t.rootNode().split(from)
	_, right := t.rootNode().split(to)
	root := appendNode(appendNode(left, insert.rootNode()), right)
	return Text{root: root, cache: newLineCache()}, nil
}

// Append returns the concatenation of two documents. The seam joins
// the receiver's last line with the argument's first line.
func (t Text) Append(other Text) Text {
	return Text{
		root:  appendNode(t.rootNode(), other.rootNode()),
		cache: newLineCache(),
	}
}

// Eq reports whether two documents hold identical content.
func (t Text) Eq(other Text) bool {
	if t.root == other.root {
		return true
	}
	if t.Len() != other.Len() || t.Lines() != other.Lines() {
		return false
	}
	a, b := t.IterLines(), other.IterLines()
	for a.Next() {
		if !b.Next() || a.Text() != b.Text() {
			return false
		}
	}
	return !b.Next()
}

// ToLines returns the document as a fresh slice of line strings.
func (t Text) ToLines() []string {
	lines := make([]string, 0, t.Lines())
	it := t.IterLines()
	for it.Next() {
		lines = append(lines, it.Text())
	}
	return lines
}

func (t Text) rootNode() *node {
	if t.root == nil {
		return Empty.root
	}
	return t.root
}

func (t Text) checkRange(from, to int) error {
	if from < 0 || from > to || to > t.Len() {
		return fmt.Errorf("range [%d, %d) in document of length %d: %w",
			from, to, t.Len(), ErrPosOutOfRange)
	}
	return nil
}

func (t Text) checkPos(pos int) error {
	if pos < 0 || pos > t.Len() {
		return fmt.Errorf("position %d in document of length %d: %w",
			pos, t.Len(), ErrPosOutOfRange)
	}
	return nil
}
