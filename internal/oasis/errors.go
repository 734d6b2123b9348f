package oasis

import (
	"fmt"

	"github.com/rotisserie/eris"
)

var (
	// ErrMissingField marks a required element or text value that is absent.
	ErrMissingField = eris.New("missing required field")

	// ErrMalformedDocument marks a document that is not well-formed XML.
	ErrMalformedDocument = eris.New("malformed document")
)

// ExtractionError rejects a whole document. Element names the missing or
// malformed element, if any.
type ExtractionError struct {
	Document string
	Element  string
	Err      error
}

func (e *ExtractionError) Error() string {
	switch {
	case e.Element != "":
		return fmt.Sprintf("oasis: extract %s: element %s: %v", e.Document, e.Element, e.Err)
	default:
		return fmt.Sprintf("oasis: extract %s: %v", e.Document, e.Err)
	}
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
