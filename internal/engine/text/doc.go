// Package text implements the immutable document type.
//
// A document is a balanced tree whose leaves hold whole lines; line
// breaks exist implicitly between adjacent lines and are never stored.
// All operations return new values that share untouched subtrees with
// their input, so edits are cheap and old versions stay valid.
//
// Positions are byte offsets into the UTF-8 form of the document, with
// each line break counting as one byte. Out-of-range positions are
// reported as errors, never clamped.
package text
