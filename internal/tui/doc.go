// Package tui renders a board as a terminal dashboard.
//
// Each valid block of the active board becomes a bordered frame showing its
// section's content, scaled from the 24-column grid to the terminal size.
// Frames are read-only views: the sync engine pushes content into them and
// never sees local edits from here.
package tui
