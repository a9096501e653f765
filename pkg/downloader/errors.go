package downloader

import (
	"fmt"
)

// ErrMkdir implements "error", for the description see Error.
type ErrMkdir struct {
	Err  error
	Path string
}

func (err ErrMkdir) Error() string {
	return fmt.Sprintf("unable to create the storage directory '%s': %v", err.Path, err.Err)
}

func (err ErrMkdir) Unwrap() error {
	return err.Err
}

// ErrWriteFile implements "error", for the description see Error.
type ErrWriteFile struct {
	Err  error
	Path string
}

func (err ErrWriteFile) Error() string {
	return fmt.Sprintf("unable to write the image file '%s': %v", err.Path, err.Err)
}

func (err ErrWriteFile) Unwrap() error {
	return err.Err
}

// ErrHashMismatch implements "error", for the description see Error.
type ErrHashMismatch struct {
	Name     string
	Expected string
	Actual   string
}

func (err ErrHashMismatch) Error() string {
	return fmt.Sprintf("downloaded image '%s' hashes to %s, manifest promises %s",
		err.Name, err.Actual, err.Expected)
}

// ErrUnknownDigest implements "error", for the description see Error.
type ErrUnknownDigest struct {
	Hash string
}

func (err ErrUnknownDigest) Error() string {
	return fmt.Sprintf("expected hash '%s' has no recognizable digest width (hex of SHA-256/384/512 expected)", err.Hash)
}
