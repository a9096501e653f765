package labconfig

import (
	"fmt"
)

// ErrReadConfig implements "error", for the description see Error.
type ErrReadConfig struct {
	Err  error
	Path string
}

func (err ErrReadConfig) Error() string {
	return fmt.Sprintf("unable to read lab config '%s': %v", err.Path, err.Err)
}

func (err ErrReadConfig) Unwrap() error {
	return err.Err
}

// ErrParseConfig implements "error", for the description see Error.
type ErrParseConfig struct {
	Err  error
	Path string
}

func (err ErrParseConfig) Error() string {
	return fmt.Sprintf("unable to parse lab config '%s': %v", err.Path, err.Err)
}

func (err ErrParseConfig) Unwrap() error {
	return err.Err
}

// ErrRouterNotFound implements "error", for the description see Error.
type ErrRouterNotFound struct {
	Name string
}

func (err ErrRouterNotFound) Error() string {
	return fmt.Sprintf("router '%s' is not part of the lab inventory", err.Name)
}
