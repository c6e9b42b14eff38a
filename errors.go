package tripline

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrClosed is returned when a session (or something owned by one) is used
// after Close.
var ErrClosed = errors.New("session closed")

// ConnError indicates the engine could not be reached or its resources could
// not be allocated. Callers are expected to abort the whole run.
type ConnError struct {
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("connecting to engine: %v", e.Err)
}

// IsConn reports whether err (or its cause) is a ConnError.
func IsConn(err error) bool {
	_, ok := errors.Cause(err).(*ConnError)
	return ok
}

// SchemaError indicates input data which does not parse under the expected
// or inferred schema.
type SchemaError struct {
	Field string
	Value string
	Err   error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("field %s: unparseable value %q: %v", e.Field, e.Value, e.Err)
}

// IsSchema reports whether err (or its cause) is a SchemaError.
func IsSchema(err error) bool {
	_, ok := errors.Cause(err).(*SchemaError)
	return ok
}

// FilterError indicates a predicate which references a column the table does
// not have. It is detected before any row is tested.
type FilterError struct {
	Column string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("predicate references missing column %q", e.Column)
}

// IsFilter reports whether err (or its cause) is a FilterError.
func IsFilter(err error) bool {
	_, ok := errors.Cause(err).(*FilterError)
	return ok
}
