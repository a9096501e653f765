package manifest

import (
	"fmt"
)

// ErrFieldCount implements "error", for the description see Error.
type ErrFieldCount struct {
	Line   int
	Fields int
}

func (err ErrFieldCount) Error() string {
	return fmt.Sprintf("manifest line %d has %d whitespace-delimited fields, expected at least %d",
		err.Line, err.Fields, minFields)
}

// ErrMarkerMissing implements "error", for the description see Error.
type ErrMarkerMissing struct {
	Line   int
	Name   string
	Marker string
}

func (err ErrMarkerMissing) Error() string {
	return fmt.Sprintf("manifest line %d: image name '%s' does not contain '%s'",
		err.Line, err.Name, err.Marker)
}

// ErrImageName implements "error", for the description see Error.
type ErrImageName struct {
	Line int
	Err  error
}

func (err ErrImageName) Error() string {
	return fmt.Sprintf("manifest line %d: %v", err.Line, err.Err)
}

func (err ErrImageName) Unwrap() error {
	return err.Err
}
