package simplex

import (
	"errors"
	"fmt"
	"runtime"
)

// Error kinds returned by the packages of this module. Use errors.Is to
// check for a kind; the message carries the function name and line where
// the error was created.
var (
	// ErrInvalidArgument is returned for malformed input: wrong dimensions,
	// too few points, operands of mismatched dimension or an intrinsic
	// dimension the operation does not handle.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInternal flags an inconsistency that points to a broken precondition
	// upstream, such as an unbounded polytope or an open boundary mesh.
	ErrInternal = errors.New("internal inconsistency")
	// ErrNotSupported is returned when no backend exists for the requested
	// operation in the given dimension.
	ErrNotSupported = errors.New("not supported")
)

// ErrMsg returns an error of the given kind annotated with the calling
// function name and line number.
func ErrMsg(kind error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	pc, _, line, ok := runtime.Caller(1)
	if !ok {
		return fmt.Errorf("?: %s: %w", msg, kind)
	}
	fn := runtime.FuncForPC(pc)
	return fmt.Errorf("%s line %d: %s: %w", fn.Name(), line, msg, kind)
}
