package agent

import (
	"errors"
	"fmt"
)

var (
	ErrBudgetExhausted      = errors.New("iteration budget exhausted")
	ErrToolInvocationFailed = errors.New("tool invocation failed")
	ErrUpstreamService      = errors.New("upstream service error")
)

// Error is returned by Run when the agent ends in the Failed state. Kind is
// one of the sentinel errors above.
type Error struct {
	Kind error
	Step int
	Tool string
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("agent: %s at step %d", e.Kind, e.Step)
	if e.Tool != "" {
		msg += fmt.Sprintf(" (tool %s)", e.Tool)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
