package change

import (
	"testing"

	"github.com/dshills/textloom/internal/engine/text"
)

func clampPos(p, length int) int {
	if length == 0 {
		return 0
	}
	p %= length + 1
	if p < 0 {
		p += length + 1
	}
	return p
}

func clampRange(from, to, length int) (int, int) {
	from = clampPos(from, length)
	to = clampPos(to, length)
	if from > to {
		from, to = to, from
	}
	return from, to
}

// FuzzChangeLaws drives random edit pairs through the algebra and
// checks the round-trip, inverse and composition laws hold.
func FuzzChangeLaws(f *testing.F) {
	f.Add("hello\nworld", 2, 7, "XYZ", 0, 3, "ab\ncd")
	f.Add("", 0, 0, "first", 0, 2, "")
	f.Add("one\ntwo\nthree", 4, 4, "\n", 1, 10, "z")

	f.Fuzz(func(t *testing.T, s string, from1, to1 int, ins1 string, from2, to2 int, ins2 string) {
		d := text.FromString(s)
		from1, to1 = clampRange(from1, to1, d.Len())
		c1, err := Of(d.Len(), Spec{From: from1, To: to1, Insert: text.FromString(ins1)})
		if err != nil {
			t.Fatalf("Of: %v", err)
		}
		d1, err := c1.Apply(d)
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}

		// Round trip against string splicing.
		want := d.String()[:from1] + text.FromString(ins1).String() + d.String()[to1:]
		if d1.String() != want {
			t.Fatalf("apply = %q, want %q", d1.String(), want)
		}

		// Inverse restores the original document.
		inv, err := c1.Invert(d)
		if err != nil {
			t.Fatalf("Invert: %v", err)
		}
		back, err := inv.Apply(d1)
		if err != nil {
			t.Fatalf("inverse Apply: %v", err)
		}
		if !back.Eq(d) {
			t.Fatalf("inverse round trip = %q, want %q", back.String(), d.String())
		}

		// Composition equals sequential application.
		from2, to2 = clampRange(from2, to2, d1.Len())
		c2, err := Of(d1.Len(), Spec{From: from2, To: to2, Insert: text.FromString(ins2)})
		if err != nil {
			t.Fatalf("Of second: %v", err)
		}
		d2, err := c2.Apply(d1)
		if err != nil {
			t.Fatalf("Apply second: %v", err)
		}
		composed, err := c1.Compose(c2)
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		viaComposed, err := composed.Apply(d)
		if err != nil {
			t.Fatalf("composed Apply: %v", err)
		}
		if !viaComposed.Eq(d2) {
			t.Fatalf("composed = %q, sequential = %q", viaComposed.String(), d2.String())
		}

		// Mapping stays monotonic and in range.
		prev := 0
		for pos := 0; pos <= d.Len(); pos++ {
			mapped, err := c1.MapPos(pos, 1, MapModeSimple)
			if err != nil {
				t.Fatalf("MapPos(%d): %v", pos, err)
			}
			if mapped < 0 || mapped > d1.Len() {
				t.Fatalf("MapPos(%d) = %d outside [0, %d]", pos, mapped, d1.Len())
			}
			if mapped < prev {
				t.Fatalf("MapPos(%d) = %d < previous %d", pos, mapped, prev)
			}
			prev = mapped
		}
	})
}
