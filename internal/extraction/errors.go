// Package extraction loads source documents and splits resume text
// into named sections.
package extraction

import "fmt"

// UnsupportedTypeError indicates a file type the extractor cannot read
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Type)
}

// ExtractError represents a failure reading or converting a document
type ExtractError struct {
	Message string
	Cause   error
}

func (e *ExtractError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction error: %s", e.Message)
}

func (e *ExtractError) Unwrap() error {
	return e.Cause
}
