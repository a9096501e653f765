package fileserver

import "fmt"

// ErrServe implements "error", for the description see Error.
type ErrServe struct {
	Err error
}

// Error implements interface "error".
func (err ErrServe) Error() string {
	return fmt.Sprintf("the file server stopped serving: %v", err.Err)
}

// Unwrap is used by errors.Is and errors.As.
func (err ErrServe) Unwrap() error {
	return err.Err
}
