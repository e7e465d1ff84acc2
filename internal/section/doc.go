// Package section segments a flat markdown document into named,
// line-addressed regions.
//
// A region starts at a strict level-1 heading ("# Title") and runs to the
// next level-1 heading or the end of the document. Deeper headings (##, ###)
// are ordinary content. Parsing is pure and total: any input string yields a
// registry, never an error. The registry is always recomputed from scratch so
// it can never drift from the document text it was derived from.
package section
