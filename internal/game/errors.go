package game

import (
	"fmt"

	"github.com/pkg/errors"
)

// Configuration errors returned by NewEngine
var (
	ErrMissingSurface = errors.New("game: render surface is required")
	ErrMissingLevel   = errors.New("game: level is required")
	ErrMissingDebug   = errors.New("game: debug metrics are required")
	ErrMissingInput   = errors.New("game: input source is required")
	ErrMissingHost    = errors.New("game: frame host is required")
)

// ErrNonFinitePosition is reported by entities whose position went NaN/Inf
var ErrNonFinitePosition = errors.New("game: non-finite position")

// EntityError wraps a failed entity update with the entity kind and slot.
type EntityError struct {
	Kind  Kind
	Index int
	Err   error
}

func newEntityError(kind Kind, index int, err error) *EntityError {
	return &EntityError{Kind: kind, Index: index, Err: errors.WithStack(err)}
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("entity %s[%d] update failed: %v", e.Kind, e.Index, e.Err)
}

func (e *EntityError) Unwrap() error { return e.Err }
