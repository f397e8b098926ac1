// Package pdfclean post-processes compiled PDFs, dropping a blank
// first page when the blankness heuristic says so.
package pdfclean

import "fmt"

// Error represents a general post-processing error
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pdf clean error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("pdf clean error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// EmptyDocumentError indicates the source PDF has zero pages, which
// means upstream compilation is broken. This is fatal; no output is
// produced.
type EmptyDocumentError struct {
	Path string
}

func (e *EmptyDocumentError) Error() string {
	return fmt.Sprintf("generated PDF is empty: %s", e.Path)
}
