package engine

import (
	"sort"

	"github.com/google/uuid"

	"github.com/dshills/textloom/internal/engine/change"
	"github.com/dshills/textloom/internal/engine/text"
)

// Snapshot retains the current document state and returns its ID.
// Snapshots share storage with the live document; retaining one is
// cheap regardless of document size.
func (d *Document) Snapshot() uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := uuid.New()
	d.snapshots[id] = snapshot{doc: d.doc, revision: d.revision, taken: d.now()}
	return id
}

// Snapshots lists retained snapshots, oldest first.
func (d *Document) Snapshots() []SnapshotInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	infos := make([]SnapshotInfo, 0, len(d.snapshots))
	for id, s := range d.snapshots {
		infos = append(infos, SnapshotInfo{
			ID:       id,
			Revision: s.revision,
			Taken:    s.taken,
			Len:      s.doc.Len(),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].Taken.Equal(infos[j].Taken) {
			return infos[i].Taken.Before(infos[j].Taken)
		}
		return infos[i].Revision < infos[j].Revision
	})
	return infos
}

// DropSnapshot releases a snapshot.
func (d *Document) DropSnapshot(id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.snapshots[id]; !ok {
		return ErrSnapshotNotFound
	}
	delete(d.snapshots, id)
	return nil
}

// RestoreSnapshot replaces the document content with a snapshot's,
// expressed as a single minimal edit so undo history, selection and
// layers stay coherent.
func (d *Document) RestoreSnapshot(id uuid.UUID, origin string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readOnly {
		return ErrReadOnly
	}
	snap, ok := d.snapshots[id]
	if !ok {
		return ErrSnapshotNotFound
	}
	from, to, insert := trimDiff(d.doc.String(), snap.doc.String())
	if from == to && insert == "" {
		return nil
	}
	_, err := d.applyLocked(origin, []Edit{{From: from, To: to, Insert: insert}}, true)
	return err
}

// DiffSnapshot returns the regions where a snapshot differs from the
// current document. Coordinates A address the current document,
// coordinates B the snapshot.
func (d *Document) DiffSnapshot(id uuid.UUID) ([]change.ChangedRange, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	snap, ok := d.snapshots[id]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	from, to, insert := trimDiff(d.doc.String(), snap.doc.String())
	chg, err := change.Of(d.doc.Len(), change.Spec{From: from, To: to, Insert: text.FromString(insert)})
	if err != nil {
		return nil, err
	}
	return chg.ChangedRanges(), nil
}

// trimDiff reduces a full-content replacement to the changed middle by
// stripping the common prefix and suffix.
func trimDiff(old, new string) (from, to int, insert string) {
	prefix := 0
	for prefix < len(old) && prefix < len(new) && old[prefix] == new[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(old)-prefix && suffix < len(new)-prefix &&
		old[len(old)-1-suffix] == new[len(new)-1-suffix] {
		suffix++
	}
	return prefix, len(old) - suffix, new[prefix : len(new)-suffix]
}
