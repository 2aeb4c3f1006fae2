package item

import (
	"errors"
	"fmt"
	"strings"
)

// ProviderError wraps a failed model call: transport, auth, quota or a
// per-call timeout.
type ProviderError struct {
	Op  string // "generate" or "audit"
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: model call failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// MalformedResponseError means the response held no parseable JSON object.
// Raw keeps the full response text for diagnostics.
type MalformedResponseError struct {
	Op  string
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed model response: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// SchemaViolationError means the JSON parsed but broke the structural
// contract.
type SchemaViolationError struct {
	Op      string
	Raw     string
	Reasons []string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("%s: response violates schema: %s", e.Op, strings.Join(e.Reasons, "; "))
}

// Error kinds reported by Kind.
const (
	KindProvider  = "provider"
	KindMalformed = "malformed"
	KindSchema    = "schema"
)

// Kind classifies err as one of the Kind* constants, or "" for anything
// else.
func Kind(err error) string {
	var (
		pe *ProviderError
		me *MalformedResponseError
		se *SchemaViolationError
	)
	switch {
	case errors.As(err, &pe):
		return KindProvider
	case errors.As(err, &me):
		return KindMalformed
	case errors.As(err, &se):
		return KindSchema
	}
	return ""
}

// RawResponse returns the model text attached to a malformed or
// schema-violating response error.
func RawResponse(err error) (string, bool) {
	var me *MalformedResponseError
	if errors.As(err, &me) {
		return me.Raw, true
	}
	var se *SchemaViolationError
	if errors.As(err, &se) {
		return se.Raw, true
	}
	return "", false
}
