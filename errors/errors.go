package errors

import (
	// Go Internal Packages
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error by the stage of the producer that raised it.
type Kind uint8

const (
	Other      Kind = iota // Unclassified error
	Invalid                // Missing or malformed configuration
	Connection             // Broker unreachable or credentials rejected
	Publish                // Broker rejected a batch or the network failed mid-publish
	Generation             // Record could not be generated or encoded
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "configuration error"
	case Connection:
		return "connection error"
	case Publish:
		return "publish error"
	case Generation:
		return "generation error"
	}
	return "unknown error"
}

// Error is the error type returned by every package of the producer.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// E builds an *Error of the given kind wrapping err (which may be nil).
func E(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the outermost *Error in err's chain, or Other.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Is and New are re-exported so callers need a single errors import.
func Is(err, target error) bool { return errors.Is(err, target) }

func New(text string) error { return errors.New(text) }

// ValidationErrors collects field level problems and reports them as one error.
type ValidationErrors map[string][]string

func ValidationErrs() ValidationErrors {
	return ValidationErrors{}
}

// Add records a problem for the given field.
func (ve ValidationErrors) Add(field, msg string) {
	ve[field] = append(ve[field], msg)
}

// Err returns nil when nothing was added.
func (ve ValidationErrors) Err() error {
	if len(ve) == 0 {
		return nil
	}
	return ve
}

func (ve ValidationErrors) Error() string {
	fields := make([]string, 0, len(ve))
	for field := range ve {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(ve[field], ", ")))
	}
	return strings.Join(parts, "; ")
}
