// Package engine keeps per-section frames and the underlying document in
// sync without feedback loops.
//
// One Engine instance owns one document. Local edits from frames are
// debounced, committed against a fresh parse of the current document text,
// and written through the store as a targeted line-range replace. The write
// is bracketed by a guard flag so the store's own change notification is
// recognized as an echo and dropped; external changes re-parse the document
// and fan new section content out to every attached frame.
//
// The guard is plain state on the engine instance, never shared or global,
// so engines for different documents are independent and independently
// testable.
package engine
