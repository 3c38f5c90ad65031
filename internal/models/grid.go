package models

// RawGrid is a table extracted from a document: ordered rows of text cells.
// The first row is a candidate header. No shape or type guarantees; cells may
// be empty and rows may be ragged.
type RawGrid [][]string

// PageGrid is a RawGrid tagged with the 1-based page it was extracted from.
type PageGrid struct {
	Page int
	Grid RawGrid
}
