package engine

import (
	"time"

	"github.com/dshills/textloom/internal/engine/history"
	"github.com/dshills/textloom/internal/engine/text"
)

// Option configures a Document during creation.
type Option func(*Document)

// WithContent sets the initial content from a string.
func WithContent(content string) Option {
	return func(d *Document) {
		d.doc = text.FromString(content)
	}
}

// WithText sets the initial content from an existing document value.
func WithText(t text.Text) Option {
	return func(d *Document) {
		d.doc = t
	}
}

// WithHistoryConfig tunes undo grouping and depth.
func WithHistoryConfig(cfg history.Config) Option {
	return func(d *Document) {
		d.histCfg = cfg
	}
}

// WithReadOnly creates a read-only document.
// Write operations will return ErrReadOnly.
func WithReadOnly() Option {
	return func(d *Document) {
		d.readOnly = true
	}
}

// WithClock overrides the time source used for undo grouping.
func WithClock(now func() time.Time) Option {
	return func(d *Document) {
		if now != nil {
			d.now = now
		}
	}
}
