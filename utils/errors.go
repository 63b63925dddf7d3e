package utils

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every package of the module. Callers test with
// errors.Is; the packages wrap these with context using fmt.Errorf("%w").
var (
	// ErrNullArgument reports a required argument that is absent.
	ErrNullArgument = errors.New("required argument is nil")
	// ErrInvalidParameterRange reports an eta/xsi outside [0,1] where the
	// operation requires it in range.
	ErrInvalidParameterRange = errors.New("parameter not in range 0 <= p <= 1")
	// ErrSingularSystem reports a degenerate Newton step (zero-area or
	// otherwise degenerate patch).
	ErrSingularSystem = errors.New("singular linear system")
	// ErrNotConverged reports an optimizer that hit its iteration cap. The
	// last iterate is still returned alongside it.
	ErrNotConverged = errors.New("optimizer did not converge")
	// ErrNonFinite reports an objective that produced NaN or Inf.
	ErrNonFinite = errors.New("objective evaluation is not finite")
	// ErrPointNotOnComponent reports a point farther from every segment than
	// the allowed deviation. It is an expected outcome, not a bug.
	ErrPointNotOnComponent = errors.New("point is not part of the component")
	// ErrEmptyComponent reports a segment chain without segments.
	ErrEmptyComponent = errors.New("component does not contain any segments")
	// ErrIndexOutOfRange reports a bad index into a segment chain.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrUnknownSegment reports a segment UID that does not belong to a chain.
	ErrUnknownSegment = errors.New("segment does not belong to component")
	// ErrNoIntersection reports lines, or a line and a plane, that do not
	// meet where the operation needs them to.
	ErrNoIntersection = errors.New("no intersection")
	// ErrDegenerateGeometry reports a zero length edge or chord where a
	// direction is required.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)

// CheckUnit returns ErrInvalidParameterRange, annotated with the parameter
// name, when v is outside [0,1] or NaN.
func CheckUnit(name string, v float64) error {
	if !(v >= 0 && v <= 1) {
		return fmt.Errorf("%s = %g: %w", name, v, ErrInvalidParameterRange)
	}
	return nil
}

// CheckIndex returns ErrIndexOutOfRange when i is not a valid index into a
// sequence of length n.
func CheckIndex(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("index %d with length %d: %w", i, n, ErrIndexOutOfRange)
	}
	return nil
}
