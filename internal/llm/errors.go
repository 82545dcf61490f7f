package llm

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable is matched (errors.Is) by every failure of an embedding or
// linguistic-parse backend to initialise or run.
var ErrModelUnavailable = errors.New("model unavailable")

// ModelError carries the backend, operation and underlying cause of a model failure.
type ModelError struct {
	Model string
	Op    string
	Cause error
}

func (e *ModelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("model unavailable: %s: %s: %v", e.Model, e.Op, e.Cause)
	}
	return fmt.Sprintf("model unavailable: %s: %s", e.Model, e.Op)
}

func (e *ModelError) Unwrap() error {
	return e.Cause
}

// Is makes every ModelError match ErrModelUnavailable.
func (e *ModelError) Is(target error) bool {
	return target == ErrModelUnavailable
}

// AsModelError wraps err in a ModelError unless it already is one.
func AsModelError(model, op string, err error) error {
	if err == nil {
		return nil
	}
	var me *ModelError
	if errors.As(err, &me) {
		return err
	}
	return &ModelError{Model: model, Op: op, Cause: err}
}
