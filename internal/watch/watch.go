// Package watch notifies about external changes to watched files.
//
// It wraps fsnotify with per-path debouncing: rapid save sequences from
// editors (write, rename, chmod) are coalesced into a single event so a
// consumer reloads each file once.
package watch

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

var (
	// ErrClosed is returned when using a closed watcher.
	ErrClosed = errors.New("watcher is closed")
	// ErrAlreadyWatching is returned when adding a path twice.
	ErrAlreadyWatching = errors.New("path is already being watched")
	// ErrNotWatching is returned when removing an unwatched path.
	ErrNotWatching = errors.New("path is not being watched")
)

// Op is a bitmask of file operations observed within one debounce window.
type Op uint8

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

// Has reports whether op includes o.
func (op Op) Has(o Op) bool { return op&o == o }

func (op Op) String() string {
	switch {
	case op.Has(OpRemove):
		return "REMOVE"
	case op.Has(OpRename):
		return "RENAME"
	case op.Has(OpCreate):
		return "CREATE"
	case op.Has(OpWrite):
		return "WRITE"
	case op.Has(OpChmod):
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

// Event is a coalesced change to a watched file.
type Event struct {
	Path string
	Op   Op
	Time time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the coalescing window. Default 100ms.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithBufferSize sets the event channel capacity. Default 64.
func WithBufferSize(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.buf = n
		}
	}
}

// pending tracks a path waiting out its debounce window.
type pending struct {
	timer *time.Timer
	ops   Op
	last  time.Time
}

// Watcher watches individual files and delivers debounced change events.
type Watcher struct {
	fsw   *fsnotify.Watcher
	delay time.Duration
	buf   int

	mu      sync.Mutex
	paths   map[string]bool
	pending map[string]*pending
	closed  bool

	events  chan Event
	errs    chan error
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New creates a started watcher.
func New(opts ...Option) (*Watcher, error) {
	w := &Watcher{
		delay:   100 * time.Millisecond,
		buf:     64,
		paths:   make(map[string]bool),
		pending: make(map[string]*pending),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.fsw = fsw
	w.events = make(chan Event, w.buf)
	w.errs = make(chan error, w.buf)

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Add starts watching a file. The file must exist.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if w.paths[abs] {
		return ErrAlreadyWatching
	}
	if err := w.fsw.Add(abs); err != nil {
		return err
	}
	w.paths[abs] = true
	return nil
}

// Remove stops watching a file.
func (w *Watcher) Remove(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if !w.paths[abs] {
		return ErrNotWatching
	}
	delete(w.paths, abs)
	if p, ok := w.pending[abs]; ok {
		p.timer.Stop()
		delete(w.pending, abs)
	}
	return w.fsw.Remove(abs)
}

// Paths returns the watched paths in no particular order.
func (w *Watcher) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.paths))
	for p := range w.paths {
		out = append(out, p)
	}
	return out
}

// Events returns the debounced event channel. It is closed by Close.
func (w *Watcher) Events() <-chan Event { return w.events }

// Errors returns the error channel. It is closed by Close.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Close stops the watcher and closes both channels.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	close(w.events)
	close(w.errs)
	return err
}

// Flush fires all pending events immediately.
func (w *Watcher) Flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path, p := range w.pending {
		p.timer.Stop()
		paths = append(paths, path)
	}
	w.mu.Unlock()

	for _, path := range paths {
		w.fire(path)
	}
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(Event{Path: ev.Name, Op: mapOp(ev.Op), Time: time.Now()})
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			case <-w.closeCh:
			default:
			}
		}
	}
}

// handle coalesces an event into the pending window for its path.
func (w *Watcher) handle(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if p, ok := w.pending[ev.Path]; ok {
		p.ops |= ev.Op
		p.last = ev.Time
		p.timer.Reset(w.delay)
		return
	}
	p := &pending{ops: ev.Op, last: ev.Time}
	path := ev.Path
	p.timer = time.AfterFunc(w.delay, func() {
		w.fire(path)
	})
	w.pending[path] = p
}

func (w *Watcher) fire(path string) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if !ok {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	ev := Event{Path: path, Op: p.ops, Time: p.last}
	w.mu.Unlock()

	select {
	case w.events <- ev:
	case <-w.closeCh:
	default:
		// Channel full, drop event
	}
}

func mapOp(op fsnotify.Op) Op {
	var out Op
	if op.Has(fsnotify.Create) {
		out |= OpCreate
	}
	if op.Has(fsnotify.Write) {
		out |= OpWrite
	}
	if op.Has(fsnotify.Remove) {
		out |= OpRemove
	}
	if op.Has(fsnotify.Rename) {
		out |= OpRename
	}
	if op.Has(fsnotify.Chmod) {
		out |= OpChmod
	}
	return out
}
