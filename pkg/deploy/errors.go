package deploy

import (
	"fmt"
	"time"
)

// ErrNotVerified implements "error", for the description see Error.
type ErrNotVerified struct {
	Err       error
	ImageName string
}

// Error implements interface "error".
func (err ErrNotVerified) Error() string {
	if err.Err == nil {
		return fmt.Sprintf("firmware image '%s' has no verified download on record", err.ImageName)
	}
	return fmt.Sprintf("firmware image '%s' is not verified: %v", err.ImageName, err.Err)
}

// Unwrap is used by errors.Is and errors.As.
func (err ErrNotVerified) Unwrap() error {
	return err.Err
}

// ErrStage implements "error", for the description see Error.
type ErrStage struct {
	Err       error
	ImageName string
}

// Error implements interface "error".
func (err ErrStage) Error() string {
	return fmt.Sprintf("unable to stage '%s' on the device: %v", err.ImageName, err.Err)
}

// Unwrap is used by errors.Is and errors.As.
func (err ErrStage) Unwrap() error {
	return err.Err
}

// ErrFlash implements "error", for the description see Error.
type ErrFlash struct {
	Err       error
	ImageName string
}

// Error implements interface "error".
func (err ErrFlash) Error() string {
	return fmt.Sprintf("flashing '%s' failed: %v", err.ImageName, err.Err)
}

// Unwrap is used by errors.Is and errors.As.
func (err ErrFlash) Unwrap() error {
	return err.Err
}

// ErrReleaseMismatch implements "error", for the description see Error.
type ErrReleaseMismatch struct {
	ImageName string
	Expected  string
	Got       string
}

// Error implements interface "error".
func (err ErrReleaseMismatch) Error() string {
	return fmt.Sprintf("the device runs release '%s' after flashing '%s', expected '%s'",
		err.Got, err.ImageName, err.Expected)
}

// ErrStillReachable implements "error", for the description see Error.
type ErrStillReachable struct {
	Waited time.Duration
}

// Error implements interface "error".
func (err ErrStillReachable) Error() string {
	return fmt.Sprintf("the device is still reachable %s after sysupgrade, it never went down for the flash", err.Waited)
}

// ErrNotBack implements "error", for the description see Error.
type ErrNotBack struct {
	Waited time.Duration
}

// Error implements interface "error".
func (err ErrNotBack) Error() string {
	return fmt.Sprintf("the device did not come back within %s after the flash", err.Waited)
}
