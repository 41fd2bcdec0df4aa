package verify

import (
	"errors"
	"fmt"
)

// Kind classifies a failed step.
type Kind string

const (
	KindLaunch     Kind = "launch"
	KindNavigation Kind = "navigation"
	KindElement    Kind = "element"
	KindScreenshot Kind = "screenshot"
	KindCleanup    Kind = "cleanup"
)

// StepError reports which step of a run failed.
type StepError struct {
	Step string
	Kind Kind
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s (%s): %v", e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep returns the step name carried by err, or "" if err is not a StepError.
func FailedStep(err error) string {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step
	}
	return ""
}
