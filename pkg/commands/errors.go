package commands

import (
	"fmt"
)

// ExitCoder lets an error choose the process exitcode; main consults the
// chain of wrapped errors for it.
type ExitCoder interface {
	ExitCode() int
}

// ErrArgs signals that the verb was invoked with invalid arguments; main
// reacts by printing the usage text.
type ErrArgs struct {
	Err error
}

func (err ErrArgs) Error() string {
	return fmt.Sprintf("invalid arguments: %v", err.Err)
}

func (err ErrArgs) Unwrap() error {
	return err.Err
}

// SilentError is an error which was already reported to the user by the verb
// itself; main only sets the exitcode for it.
type SilentError struct {
	Err error
}

func (err SilentError) Error() string {
	return err.Err.Error()
}

func (err SilentError) Unwrap() error {
	return err.Err
}
