package model

import "fmt"

// ValidationError reports rejected input. Reason is safe to show to the user.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Invalid builds a ValidationError from a format string.
func Invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an operation against an unknown id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %q not found", e.Kind, e.ID) }

// ConflictError reports a mutation blocked by dependent state, such as
// deleting a contact that undelivered links still reference.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// StoreError wraps a failed persistence call. Callers decide whether to
// retry; nothing in the core does.
type StoreError struct {
	Op     string
	Bucket string
	Err    error
}

func (e *StoreError) Error() string {
	if e.Bucket == "" {
		return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store: %s bucket %q: %v", e.Op, e.Bucket, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
