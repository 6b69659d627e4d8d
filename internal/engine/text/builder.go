package text

import "strings"

// Builder incrementally assembles a document from streamed content.
// The zero value is ready to use. Line breaks in written content split
// lines; everything else extends the current line.
type Builder struct {
	leaves []*node
	lines  []string
	curLen int
	tail   string // current, still-open line
}

// WriteString appends content to the document under construction.
func (b *Builder) WriteString(s string) {
	if strings.ContainsRune(s, '\r') {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
	}
	for {
		nl := strings.IndexByte(s, '\n')
		if nl < 0 {
			b.tail += s
			return
		}
		b.closeLine(b.tail + s[:nl])
		b.tail = ""
		s = s[nl+1:]
	}
}

// WriteLine appends one complete line. The line must not contain a
// break; content written via WriteString beforehand joins it.
func (b *Builder) WriteLine(ln string) error {
	if strings.ContainsAny(ln, "\n\r") {
		return ErrLineBreak
	}
	b.closeLine(b.tail + ln)
	b.tail = ""
	return nil
}

func (b *Builder) closeLine(ln string) {
	b.lines = append(b.lines, ln)
	b.curLen += len(ln) + 1
	if b.curLen >= baseLeafLen || len(b.lines) >= maxLeafLines {
		b.leaves = append(b.leaves, newLeaf(b.lines))
		b.lines = nil
		b.curLen = 0
	}
}

// Build finalizes and returns the document. The builder may be reused
// afterwards; it restarts empty.
func (b *Builder) Build() Text {
	lines := append(b.lines, b.tail)
	b.leaves = append(b.leaves, newLeaf(lines))
	root := buildFromNodes(b.leaves)
	b.leaves, b.lines, b.curLen, b.tail = nil, nil, 0, ""
	return Text{root: root, cache: newLineCache()}
}
