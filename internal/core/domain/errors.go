package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrSourceUnavailable    = errors.New("message source unavailable")
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")
	ErrSynthesisFailed      = errors.New("answer synthesis failed")
	ErrTemporary            = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ErrorKind returns the stable tag for a pipeline error, for callers that map
// errors onto transport-level responses.
func ErrorKind(err error) string {
	switch {
	case IsKind(err, ErrInvalidInput):
		return "invalid_input"
	case IsKind(err, ErrSourceUnavailable):
		return "source_unavailable"
	case IsKind(err, ErrEmbeddingUnavailable):
		return "embedding_unavailable"
	case IsKind(err, ErrSynthesisFailed):
		return "synthesis_failed"
	case IsKind(err, ErrTemporary):
		return "temporary"
	default:
		return "internal"
	}
}
