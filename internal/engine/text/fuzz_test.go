package text

import (
	"strings"
	"testing"
)

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// FuzzReplace checks Replace against plain string splicing.
func FuzzReplace(f *testing.F) {
	f.Add("hello\nworld", 2, 7, "XYZ")
	f.Add("", 0, 0, "abc")
	f.Add("one\ntwo\nthree", 3, 4, "")
	f.Add("héllo", 0, 2, "\n\n")
	f.Add(strings.Repeat("line\n", 200), 100, 600, "mid\nsection")

	f.Fuzz(func(t *testing.T, s string, from, to int, ins string) {
		s = normalize(s)
		ins = normalize(ins)
		doc := FromString(s)
		if doc.String() != s {
			t.Fatalf("FromString round trip: got %q, want %q", doc.String(), s)
		}
		if from < 0 || to < from || to > len(s) {
			if _, err := doc.Replace(from, to, FromString(ins)); err == nil {
				t.Fatalf("Replace(%d, %d) on length %d: expected error", from, to, len(s))
			}
			return
		}
		got, err := doc.Replace(from, to, FromString(ins))
		if err != nil {
			t.Fatalf("Replace(%d, %d): %v", from, to, err)
		}
		want := s[:from] + ins + s[to:]
		if got.String() != want {
			t.Fatalf("Replace(%d, %d, %q) on %q = %q, want %q", from, to, ins, s, got.String(), want)
		}
		if wantLines := strings.Count(want, "\n") + 1; got.Lines() != wantLines {
			t.Fatalf("Lines() = %d, want %d", got.Lines(), wantLines)
		}
	})
}

// FuzzSlice checks Slice and line lookup against the string form.
func FuzzSlice(f *testing.F) {
	f.Add("a\nb\nc", 1, 4)
	f.Add("", 0, 0)
	f.Add(strings.Repeat("x", 3000), 500, 2500)

	f.Fuzz(func(t *testing.T, s string, from, to int) {
		s = normalize(s)
		doc := FromString(s)
		if from < 0 || to < from || to > len(s) {
			if _, err := doc.Slice(from, to); err == nil {
				t.Fatalf("Slice(%d, %d) on length %d: expected error", from, to, len(s))
			}
			return
		}
		got, err := doc.SliceString(from, to)
		if err != nil {
			t.Fatalf("SliceString(%d, %d): %v", from, to, err)
		}
		if want := s[from:to]; got != want {
			t.Fatalf("SliceString(%d, %d) = %q, want %q", from, to, got, want)
		}

		line, err := doc.LineAt(from)
		if err != nil {
			t.Fatalf("LineAt(%d): %v", from, err)
		}
		if line.From > from || from > line.To {
			t.Fatalf("LineAt(%d) = [%d, %d]", from, line.From, line.To)
		}
		if idx := strings.IndexByte(line.Text, '\n'); idx >= 0 {
			t.Fatalf("line %d contains a break", line.Number)
		}
	})
}
