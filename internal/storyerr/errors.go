package storyerr

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrInvalidFormat = errors.New("invalid format")
	ErrInvariant     = errors.New("invariant violation")
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrScript        = errors.New("script error")
	ErrTimeout       = errors.New("timeout")
	ErrConfiguration = errors.New("configuration error")
	ErrUnavailable   = errors.New("unavailable")
)

// Error carries classification plus the operation context of a failure.
type Error struct {
	Kind      error
	Component string
	Op        string
	Subject   string
	Message   string
	Err       error
}

// Wrap builds an error tagged with marker for later classification. The
// marker should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) *Error {
	if marker == nil {
		marker = ErrUnavailable
	}
	return &Error{
		Kind:      marker,
		Component: strings.TrimSpace(component),
		Op:        strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
	}
}

// WithSubject records the scene id, asset name, or item id the error refers to.
func (e *Error) WithSubject(subject string) *Error {
	e.Subject = strings.TrimSpace(subject)
	return e
}

func (e *Error) Error() string {
	parts := make([]string, 0, 6)
	parts = append(parts, e.Kind.Error())
	if e.Component != "" {
		parts = append(parts, e.Component)
	}
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Subject != "" {
		parts = append(parts, strconv.Quote(e.Subject))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes both the marker and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Kind returns the first known marker found in err's chain, or nil.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, marker := range []error{
		ErrInvalidFormat,
		ErrInvariant,
		ErrNotFound,
		ErrValidation,
		ErrTimeout,
		ErrScript,
		ErrConfiguration,
		ErrUnavailable,
	} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

// OpOf returns the operation recorded on the outermost *Error in err's chain.
func OpOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Op
	}
	return ""
}

// SubjectOf returns the subject recorded on the outermost *Error in err's chain.
func SubjectOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Subject
	}
	return ""
}
