package ai

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for callers and the HTTP layer.
type Kind string

const (
	KindSourceUnavailable   Kind = "source_unavailable"
	KindMalformedRecord     Kind = "malformed_record"
	KindSchemaViolation     Kind = "schema_violation"
	KindProviderUnavailable Kind = "provider_unavailable"
	KindProviderFailure     Kind = "provider_error"
)

// Capability names which part of the system failed.
type Capability string

const (
	CapabilityFestivalLookup Capability = "festival_lookup"
	CapabilityGeneration     Capability = "generation"
)

// Error represents an AI service error. Message is safe to show to API
// clients; Cause is kept for logs only.
type Error struct {
	Kind       Kind
	Capability Capability
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind so errors.Is(err, ErrSchemaViolation) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Capability == "" || t.Capability == e.Capability)
}

var (
	ErrSchemaViolation     = &Error{Kind: KindSchemaViolation}
	ErrProviderUnavailable = &Error{Kind: KindProviderUnavailable}
	ErrProviderFailure     = &Error{Kind: KindProviderFailure}
	ErrMalformedRecord     = &Error{Kind: KindMalformedRecord}
	ErrSourceUnavailable   = &Error{Kind: KindSourceUnavailable}
)

func schemaViolation(format string, args ...any) *Error {
	return &Error{
		Kind:       KindSchemaViolation,
		Capability: CapabilityGeneration,
		Message:    fmt.Sprintf(format, args...),
	}
}

func providerUnavailable(provider string, cause error) *Error {
	return &Error{
		Kind:       KindProviderUnavailable,
		Capability: CapabilityGeneration,
		Message:    fmt.Sprintf("%s provider is not available", provider),
		Cause:      cause,
	}
}

func providerFailure(provider string, cause error) *Error {
	return &Error{
		Kind:       KindProviderFailure,
		Capability: CapabilityGeneration,
		Message:    fmt.Sprintf("%s provider failed to generate a response", provider),
		Cause:      cause,
	}
}

// KindOf reports the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
