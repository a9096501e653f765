package journal

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrOpen implements "error", for the description see Error.
type ErrOpen struct {
	Err error
}

func (err ErrOpen) Error() string {
	return fmt.Sprintf("unable to open the journal database: %v", err.Err)
}

func (err ErrOpen) Unwrap() error {
	return err.Err
}

// ErrPing implements "error", for the description see Error.
type ErrPing struct {
	Err error
}

func (err ErrPing) Error() string {
	return fmt.Sprintf("unable to ping the journal database: %v", err.Err)
}

func (err ErrPing) Unwrap() error {
	return err.Err
}

// ErrInsert implements "error", for the description see Error.
type ErrInsert struct {
	Err       error
	ImageName string
}

func (err ErrInsert) Error() string {
	return fmt.Sprintf("unable to insert the journal record for '%s': %v", err.ImageName, err.Err)
}

func (err ErrInsert) Unwrap() error {
	return err.Err
}

// ErrAlreadyRecorded implements "error", for the description see Error.
type ErrAlreadyRecorded struct {
	Err   error
	JobID *uuid.UUID
}

func (err ErrAlreadyRecorded) Error() string {
	return fmt.Sprintf("an outcome for job %v is already journaled: %v", err.JobID, err.Err)
}

func (err ErrAlreadyRecorded) Unwrap() error {
	return err.Err
}

// ErrQuery implements "error", for the description see Error.
type ErrQuery struct {
	Err   error
	Query string
}

func (err ErrQuery) Error() string {
	return fmt.Sprintf("unable to query the journal ('%s'): %v", err.Query, err.Err)
}

func (err ErrQuery) Unwrap() error {
	return err.Err
}
