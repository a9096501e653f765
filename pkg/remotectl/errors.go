package remotectl

import (
	"fmt"
)

// ErrConnect implements "error", for the description see Error.
type ErrConnect struct {
	Err  error
	Addr string
}

func (err ErrConnect) Error() string {
	return fmt.Sprintf("unable to connect to '%s': %v", err.Addr, err.Err)
}

func (err ErrConnect) Unwrap() error {
	return err.Err
}

// ErrNotConnected implements "error", for the description see Error.
type ErrNotConnected struct{}

func (err ErrNotConnected) Error() string {
	return "not connected, Connect was not called (or failed)"
}

// ErrRunCommand implements "error", for the description see Error.
type ErrRunCommand struct {
	Err     error
	Command string
}

func (err ErrRunCommand) Error() string {
	return fmt.Sprintf("unable to run '%s': %v", err.Command, err.Err)
}

func (err ErrRunCommand) Unwrap() error {
	return err.Err
}

// ErrCopyFile implements "error", for the description see Error.
type ErrCopyFile struct {
	Err        error
	LocalPath  string
	RemotePath string
}

func (err ErrCopyFile) Error() string {
	return fmt.Sprintf("unable to copy '%s' to '%s': %v", err.LocalPath, err.RemotePath, err.Err)
}

func (err ErrCopyFile) Unwrap() error {
	return err.Err
}

// ErrDetectBoard implements "error", for the description see Error.
type ErrDetectBoard struct {
	Err error
}

func (err ErrDetectBoard) Error() string {
	return fmt.Sprintf("unable to detect the board: %v", err.Err)
}

func (err ErrDetectBoard) Unwrap() error {
	return err.Err
}

// ErrNoModel implements "error", for the description see Error.
type ErrNoModel struct{}

func (err ErrNoModel) Error() string {
	return "the ubus response does not contain a model"
}
