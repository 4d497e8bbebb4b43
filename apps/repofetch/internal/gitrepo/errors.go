package gitrepo

import (
	"errors"
	"fmt"
)

// ErrUnsupportedEncoding is wrapped by DecodeError for unknown content encodings.
var ErrUnsupportedEncoding = errors.New("unsupported content encoding")

// NetworkError is returned when a request fails in transport or with a non-2xx status.
type NetworkError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError is returned when a response body is not the expected JSON.
type ParseError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DecodeError is returned when blob content cannot be decoded.
type DecodeError struct {
	SHA      string
	Encoding string
	Err      error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode blob %s (encoding %q): %v", e.SHA, e.Encoding, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// PathNotFoundError is returned when a remote path is absent from the loaded tree.
type PathNotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("path %q does not exist in repo", e.Path)
}

// IOError is returned for local filesystem failures.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// DepthExceededError is returned when a recursive fetch goes deeper than the configured cap.
type DepthExceededError struct {
	Path  string
	Limit int
}

// Error implements the error interface.
func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("path %q exceeds max depth %d", e.Path, e.Limit)
}

// IsIOClass reports whether err is a local I/O failure or a missing remote path.
// These are the failures the CLI reports as "Failed: <message>".
func IsIOClass(err error) bool {
	var ioErr *IOError
	var nf *PathNotFoundError
	return errors.As(err, &ioErr) || errors.As(err, &nf)
}
