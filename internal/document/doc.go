// Package document owns the storage side of the synchronization engine.
//
// The document is the single source of truth: an ordered sequence of text
// lines identified by its path. Store is the engine's narrow view of it:
// read the whole text, write the whole text, replace a line range, and
// subscribe to external-change notifications. FileStore backs that contract
// with a real (or in-memory) file system plus a debounced fsnotify watcher;
// MemStore is a purely in-memory host with synchronous change delivery for
// tests.
package document
