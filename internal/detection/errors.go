package detection

import (
	"errors"
	"fmt"
)

// ErrInvariant is matched by every error reporting broken internal bookkeeping.
// It signals a bug, not a bad frame: the frame must be abandoned rather than
// processed with corrupt data. Use errors.Is to tell it apart from ordinary
// failures.
var ErrInvariant = errors.New("detection invariant violated")

// InvariantError describes a pixel count mismatch between a component record
// and the label grid.
type InvariantError struct {
	Label    int
	Stage    string
	Expected int
	Actual   int
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: component %d: expected %d pixels, found %d",
		e.Stage, e.Label, e.Expected, e.Actual)
}

// Is makes errors.Is(err, ErrInvariant) true for every InvariantError.
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariant
}
