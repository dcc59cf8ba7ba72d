package domain

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Adapters match on these to pick transport
// status codes; use cases wrap them around the underlying cause.
var (
	ErrNoteNotFound     = errors.New("note not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrEmbedding        = errors.New("embedding failure")
	ErrIndexUnavailable = errors.New("vector index unavailable")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError attaches an error kind and operation context to err while
// keeping both reachable through errors.Is.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
