package fetcher

import (
	"fmt"
)

// ErrParseURL means the fetch URL did not survive url.Parse.
type ErrParseURL struct {
	Err error
	URL string
}

func (err ErrParseURL) Error() string {
	return fmt.Sprintf("'%s' is not a valid URL: %v", err.URL, err.Err)
}

func (err ErrParseURL) Unwrap() error {
	return err.Err
}

// ErrUnknownScheme means the URL is valid but not something this transport
// speaks (only http/https are).
type ErrUnknownScheme struct {
	Scheme string
	URL    string
}

func (err ErrUnknownScheme) Error() string {
	return fmt.Sprintf("unknown scheme '%s' in URL '%s'", err.Scheme, err.URL)
}

// ErrStatusCode means the server answered with something other than 200.
type ErrStatusCode struct {
	Code int
}

func (err ErrStatusCode) Error() string {
	return fmt.Sprintf("invalid status code: %d", err.Code)
}

// ErrHTTPMakeRequest implements "error", for the description see Error.
type ErrHTTPMakeRequest struct {
	Err error
	URL string
}

func (err ErrHTTPMakeRequest) Error() string {
	return fmt.Sprintf("unable to construct a request for '%s': %v", err.URL, err.Err)
}

func (err ErrHTTPMakeRequest) Unwrap() error {
	return err.Err
}

// ErrHTTPGet implements "error", for the description see Error.
type ErrHTTPGet struct {
	Err error
	URL string
}

func (err ErrHTTPGet) Error() string {
	return fmt.Sprintf("GET '%s' failed: %v", err.URL, err.Err)
}

func (err ErrHTTPGet) Unwrap() error {
	return err.Err
}

// ErrHTTPGetBody implements "error", for the description see Error.
type ErrHTTPGetBody struct {
	Err error
	URL string
}

func (err ErrHTTPGetBody) Error() string {
	return fmt.Sprintf("unable to read the response body of '%s': %v", err.URL, err.Err)
}

func (err ErrHTTPGetBody) Unwrap() error {
	return err.Err
}
