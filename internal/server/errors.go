// Package server provides the HTTP API for the resume tailor.
package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// ErrUnsupportedMediaType indicates an upload with a disallowed content type
type ErrUnsupportedMediaType struct {
	ContentType string
}

func (e *ErrUnsupportedMediaType) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.ContentType)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrRunNotFound indicates a run record was not found
type ErrRunNotFound struct {
	RunID uuid.UUID
}

func (e *ErrRunNotFound) Error() string {
	return fmt.Sprintf("run not found: %s", e.RunID)
}

// ErrArtifactNotFound indicates a requested download does not exist
type ErrArtifactNotFound struct {
	Filename string
}

func (e *ErrArtifactNotFound) Error() string {
	return fmt.Sprintf("artifact not found: %s", e.Filename)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case *ErrValidation:
		return http.StatusBadRequest
	case *ErrRunNotFound, *ErrArtifactNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
