package batch

import (
	"errors"
	"fmt"
)

// ErrInvalidSelector wraps selector validation failures.
var ErrInvalidSelector = errors.New("invalid selector")

// OrchestratorError is a systemic failure that aborts the whole batch
// before any item is attempted.
type OrchestratorError struct {
	Op  string
	Err error
}

func (e *OrchestratorError) Error() string {
	return fmt.Sprintf("batch aborted: %s: %v", e.Op, e.Err)
}

func (e *OrchestratorError) Unwrap() error {
	return e.Err
}

// IsOrchestratorError reports whether err aborted a whole batch.
func IsOrchestratorError(err error) bool {
	var oe *OrchestratorError
	return errors.As(err, &oe)
}
