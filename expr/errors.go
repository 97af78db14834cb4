package expr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")
	ErrUnsupported     = errors.New("not supported by platform")
)

// InvalidArgument is returned by the factory for arguments it cannot build an expression from
type InvalidArgument struct {
	Msg string
}

func (e *InvalidArgument) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidArgument, e.Msg)
}

func (e *InvalidArgument) Is(target error) bool {
	return target == ErrInvalidArgument
}

// InvalidState is returned when the factory is used with a value in the wrong state,
// e.g. an example that is not an entity
type InvalidState struct {
	Msg string
}

func (e *InvalidState) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidState, e.Msg)
}

func (e *InvalidState) Is(target error) bool {
	return target == ErrInvalidState
}

var errNotAList = errors.New("expected a slice, an array or a sub query")
