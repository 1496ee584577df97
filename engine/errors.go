package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrMogiFull is returned when a 13th race would be added.
	ErrMogiFull = errors.New("mogi already has 12 races")
	// ErrNotComplete is returned when finalize runs with fewer than 12 races.
	ErrNotComplete = errors.New("need 12 races to finalize")
	// ErrNotFound is returned when a mogi or track does not exist or is not
	// owned by the caller.
	ErrNotFound = errors.New("not found")
)

// ValidationError rejects malformed user input before anything is written.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}
