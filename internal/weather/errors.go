package weather

import (
	"context"
	"errors"
	"strings"
)

// Kind classifies failures of a weather source.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindInvalidLocation
	KindAPI
	KindInvalidData
	KindSourceUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network_error"
	case KindInvalidLocation:
		return "invalid_location"
	case KindAPI:
		return "api_error"
	case KindInvalidData:
		return "invalid_data"
	case KindSourceUnavailable:
		return "source_unavailable"
	default:
		return "unknown"
	}
}

// SourceError is the error type returned by weather sources. Two source
// errors match under errors.Is when their kinds are equal.
type SourceError struct {
	Kind    Kind
	Message string
	Err     error
}

var (
	ErrNetwork           = &SourceError{Kind: KindNetwork}
	ErrInvalidLocation   = &SourceError{Kind: KindInvalidLocation}
	ErrInvalidData       = &SourceError{Kind: KindInvalidData}
	ErrSourceUnavailable = &SourceError{Kind: KindSourceUnavailable}
)

// APIError reports an error returned by the upstream API.
func APIError(message string) *SourceError {
	return &SourceError{Kind: KindAPI, Message: message}
}

// Wrap attaches a cause to a source error of the given kind.
func Wrap(kind Kind, err error) *SourceError {
	return &SourceError{Kind: kind, Err: err}
}

func (e *SourceError) Error() string {
	switch e.Kind {
	case KindNetwork:
		return "network connection failed"
	case KindInvalidLocation:
		return "invalid location"
	case KindAPI:
		return "API error: " + e.Message
	case KindInvalidData:
		return "invalid weather data"
	case KindSourceUnavailable:
		return "weather source unavailable"
	default:
		return "unknown weather source error"
	}
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func (e *SourceError) Is(target error) bool {
	t, ok := target.(*SourceError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// InvalidReadingError is returned by NewReading with every violated invariant.
type InvalidReadingError struct {
	Reasons []string
}

func (e *InvalidReadingError) Error() string {
	return "invalid reading: " + strings.Join(e.Reasons, ", ")
}

// Is lets an invalid reading match ErrInvalidData.
func (e *InvalidReadingError) Is(target error) bool {
	t, ok := target.(*SourceError)
	return ok && t.Kind == KindInvalidData
}

// Message converts any error into the text shown to the user. Source errors
// keep their own description even when wrapped.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var se *SourceError
	if errors.As(err, &se) {
		return se.Error()
	}

	var ire *InvalidReadingError
	if errors.As(err, &ire) {
		return ire.Error()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "weather request timed out"
	}
	if errors.Is(err, context.Canceled) {
		return ErrNetwork.Error()
	}

	return err.Error()
}

// KindOf returns the source error kind of err, or 0 when err is not one.
// An abandoned request counts as a network failure.
func KindOf(err error) Kind {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, ErrInvalidData) {
		return KindInvalidData
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	return 0
}
