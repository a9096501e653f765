package unpack

import "fmt"

// ErrUnknownFormat implements "error", for the description see Error.
type ErrUnknownFormat struct {
	Name string
}

// Error implements interface "error".
func (err ErrUnknownFormat) Error() string {
	return fmt.Sprintf("file '%s' has no known compression suffix", err.Name)
}

// ErrUnpack implements "error", for the description see Error.
type ErrUnpack struct {
	Err  error
	Name string
}

// Error implements interface "error".
func (err ErrUnpack) Error() string {
	return fmt.Sprintf("unable to unpack '%s': %v", err.Name, err.Err)
}

// Unwrap is used by errors.Is and errors.As.
func (err ErrUnpack) Unwrap() error {
	return err.Err
}
