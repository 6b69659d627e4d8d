// Package engine provides the document model for Textloom.
//
// The engine package serves as the main facade, combining the immutable
// document, selection state, undo/redo history, position-tracked range
// layers and snapshots into a unified, thread-safe API.
//
// # Architecture
//
// The facade is built on several sub-packages:
//
//   - text: immutable balanced-tree document with cheap structural sharing
//   - change: run-length edit descriptions and the position-mapping algebra
//   - selection: anchored selection ranges mapped through changes
//   - rangeset: sorted tagged ranges kept in place across edits
//   - history: undo/redo stacks with grouping and external-edit absorption
//
// # Thread Safety
//
// All Document operations are thread-safe. A read-write mutex allows
// concurrent reads while serializing writes; the underlying values are
// immutable, so anything returned stays valid after later edits.
//
// # Basic Usage
//
// Create a document and perform edits:
//
//	// Create a new document
//	d := engine.New(engine.WithContent("Hello, World!"))
//
//	// Replace text
//	d.Apply("input", engine.Edit{From: 7, To: 12, Insert: "Go"})
//
//	// Read content
//	content := d.Text() // "Hello, Go!"
//
//	// Undo the replacement
//	d.Undo() // "Hello, World!"
//
// # Layers
//
// Named range sets follow the content they tag through every edit:
//
//	d.SetLayer("errors", []rangeset.Range{
//		rangeset.NewMark("typo").Range(7, 9),
//	})
//	d.Apply("input", engine.Edit{From: 0, To: 0, Insert: ">> "})
//	// the "typo" mark now covers 10-12
//
// # External Edits
//
// Edits synced from elsewhere bypass undo history while keeping it
// valid:
//
//	d.ApplyExternal(engine.Edit{From: 0, To: 0, Insert: "remote "})
//	d.Undo() // reverts the latest local edit, not the remote one
package engine
