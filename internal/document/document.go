// Package document provides the structure-preserving walkers over the
// supported container formats.
//
// A walker parses one document, yields its text-bearing units in order,
// accepts replacement text for exactly those units, and serializes the
// document back with everything outside the targeted units untouched.
package document

import (
	"path/filepath"
	"strings"

	"github.com/matsunana829/waka-kana-conv/core/errors"
)

// Kind identifies a container format.
type Kind int

const (
	// KindText is a flat plain-text document.
	KindText Kind = iota
	// KindCSV is a comma-separated table with a header row.
	KindCSV
	// KindXLSX is a spreadsheet workbook; the first sheet is walked.
	KindXLSX
	// KindTree is tree-structured markup (XML).
	KindTree
	// KindDocx is a word-processor document walked by paragraph.
	KindDocx
)

// String returns the format name used in error messages.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindCSV:
		return "csv"
	case KindXLSX:
		return "xlsx"
	case KindTree:
		return "xml"
	case KindDocx:
		return "docx"
	}
	return "unknown"
}

// TextUnit is one extracted text span and the location it reinjects to.
// Location is human-readable and unambiguous within the document.
type TextUnit struct {
	Location string
	Text     string
}

// Walker is the per-format extract/reinject capability. A walker holds one
// parsed document; Extract is called once, Reinject receives the same units
// (in the same order) with replacement text, and Bytes serializes the
// document. With unmodified text, Bytes round-trips the structure.
type Walker interface {
	// Extract yields the ordered text units for the target field. The
	// target is a tag name (tree), a column name (table), and is ignored
	// by the text and paragraph walkers. An empty matched-unit set is not
	// an error, but a missing column or tag is.
	Extract(target string) ([]TextUnit, error)
	// Reinject writes replacement text back to the extracted locations.
	// The units must be the slice returned by Extract, texts possibly
	// replaced.
	Reinject(units []TextUnit) error
	// Bytes serializes the document in its native format.
	Bytes() ([]byte, error)
}

// New parses data as the given kind and returns its walker.
func New(kind Kind, data []byte) (Walker, error) {
	switch kind {
	case KindText:
		return newTextWalker(data), nil
	case KindCSV:
		return newCSVWalker(data)
	case KindXLSX:
		return newXLSXWalker(data)
	case KindTree:
		return newTreeWalker(data)
	case KindDocx:
		return newDocxWalker(data)
	}
	return nil, errors.NewFormat(kind.String(), "", "unsupported container format")
}

// DetectKind maps a filename extension to its container kind.
func DetectKind(name string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return KindText, nil
	case ".csv":
		return KindCSV, nil
	case ".xlsx":
		return KindXLSX, nil
	case ".xml":
		return KindTree, nil
	case ".docx":
		return KindDocx, nil
	}
	return 0, errors.NewFormat("input", name, "unsupported file extension")
}
