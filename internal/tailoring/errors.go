// Package tailoring runs the LLM rewrite passes that adapt a resume to
// a job description.
package tailoring

import "fmt"

// RewriteError represents a failure of the draft rewrite call
type RewriteError struct {
	Message string
	Cause   error
}

func (e *RewriteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rewrite error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("rewrite error: %s", e.Message)
}

func (e *RewriteError) Unwrap() error {
	return e.Cause
}

// InsertError represents a failure of the template-insertion call
type InsertError struct {
	Message string
	Cause   error
}

func (e *InsertError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template insertion error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("template insertion error: %s", e.Message)
}

func (e *InsertError) Unwrap() error {
	return e.Cause
}

// SchemaError represents section-rewrite output that failed JSON schema
// validation
type SchemaError struct {
	Details []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("section rewrite returned invalid JSON: %v", e.Details)
}
