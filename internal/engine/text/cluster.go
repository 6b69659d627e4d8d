package text

import "github.com/rivo/uniseg"

// NextClusterBreak returns the nearest grapheme cluster boundary
// strictly after pos. Line breaks are single-byte clusters of their
// own. At the document end, the end position is returned.
func (t Text) NextClusterBreak(pos int) (int, error) {
	if err := t.checkPos(pos); err != nil {
		return 0, err
	}
	if pos == t.Len() {
		return pos, nil
	}
	line, err := t.LineAt(pos)
	if err != nil {
		return 0, err
	}
	if pos == line.To {
		// Stepping over the line break.
		return pos + 1, nil
	}
	rest := line.Text[pos-line.From:]
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(rest, -1)
	return pos + len(cluster), nil
}

// PrevClusterBreak returns the nearest grapheme cluster boundary
// strictly before pos. At the document start, zero is returned.
func (t Text) PrevClusterBreak(pos int) (int, error) {
	if err := t.checkPos(pos); err != nil {
		return 0, err
	}
	if pos == 0 {
		return 0, nil
	}
	line, err := t.LineAt(pos)
	if err != nil {
		return 0, err
	}
	if pos == line.From {
		// Stepping over the preceding line break.
		return pos - 1, nil
	}
	// Walk clusters from the line start; the last boundary before pos wins.
	prefix := line.Text[:pos-line.From]
	at := 0
	state := -1
	for len(prefix) > 0 {
		var cluster string
		cluster, prefix, _, state = uniseg.FirstGraphemeClusterInString(prefix, state)
		if at+len(cluster) >= pos-line.From {
			return line.From + at, nil
		}
		at += len(cluster)
	}
	return line.From + at, nil
}

// ClusterBreak snaps pos to a grapheme cluster boundary. Forward
// snapping moves to the next boundary at or after pos; otherwise to
// the previous boundary at or before pos.
func (t Text) ClusterBreak(pos int, forward bool) (int, error) {
	if err := t.checkPos(pos); err != nil {
		return 0, err
	}
	line, err := t.LineAt(pos)
	if err != nil {
		return 0, err
	}
	rel := pos - line.From
	at := 0
	state := -1
	rest := line.Text
	for len(rest) > 0 && at < rel {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if at+len(cluster) > rel {
			if forward {
				return line.From + at + len(cluster), nil
			}
			return line.From + at, nil
		}
		at += len(cluster)
	}
	return pos, nil
}
