package siws

import (
	"fmt"
)

// ErrorKind identifies why a message was rejected.
type ErrorKind string

const (
	InvalidDomain         ErrorKind = "INVALID_DOMAIN"
	InvalidURI            ErrorKind = "INVALID_URI"
	InvalidMessageVersion ErrorKind = "INVALID_MESSAGE_VERSION"
	InvalidNonce          ErrorKind = "INVALID_NONCE"
	InvalidTimeFormat     ErrorKind = "INVALID_TIME_FORMAT"
	MalformedMessage      ErrorKind = "MALFORMED_MESSAGE"
	DomainMismatch        ErrorKind = "DOMAIN_MISMATCH"
	NonceMismatch         ErrorKind = "NONCE_MISMATCH"
	ExpiredMessage        ErrorKind = "EXPIRED_MESSAGE"
	InvalidSignature      ErrorKind = "INVALID_SIGNATURE"
)

// Error is returned by the validator and the parser, and carried by failed
// verification results.
type Error struct {
	Kind     ErrorKind `json:"kind"`
	Field    string    `json:"field,omitempty"`
	Expected string    `json:"expected,omitempty"`
	Actual   string    `json:"actual,omitempty"`
	Reason   string    `json:"reason,omitempty"`
}

func (e *Error) Error() string {
	msg := "siws: " + string(e.Kind)

	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}

	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	if e.Expected != "" || e.Actual != "" {
		msg += fmt.Sprintf(": expected %q got %q", e.Expected, e.Actual)
	}

	return msg
}

// Is matches any *Error of the same kind, so the sentinels below can be used
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind == e.Kind
}

// Sentinels, one per kind.
var (
	ErrInvalidDomain         = &Error{Kind: InvalidDomain}
	ErrInvalidURI            = &Error{Kind: InvalidURI}
	ErrInvalidMessageVersion = &Error{Kind: InvalidMessageVersion}
	ErrInvalidNonce          = &Error{Kind: InvalidNonce}
	ErrInvalidTimeFormat     = &Error{Kind: InvalidTimeFormat}
	ErrMalformedMessage      = &Error{Kind: MalformedMessage}
	ErrDomainMismatch        = &Error{Kind: DomainMismatch}
	ErrNonceMismatch         = &Error{Kind: NonceMismatch}
	ErrExpiredMessage        = &Error{Kind: ExpiredMessage}
	ErrInvalidSignature      = &Error{Kind: InvalidSignature}
)

func errMalformed(line int, reason string) *Error {
	return &Error{
		Kind:   MalformedMessage,
		Reason: fmt.Sprintf("line %d: %s", line+1, reason),
	}
}

func errLineBreak(field, value string) *Error {
	return &Error{
		Kind:   MalformedMessage,
		Field:  field,
		Reason: "value must be a single line",
		Actual: value,
	}
}

func errTimeFormat(field, value string) *Error {
	return &Error{
		Kind:     InvalidTimeFormat,
		Field:    field,
		Expected: "ISO-8601 timestamp",
		Actual:   value,
	}
}
