package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork reports a request that failed or returned a non-success status.
	ErrNetwork = errors.New("network error")
	// ErrParse reports source text that is not in the expected loose syntax.
	ErrParse = errors.New("parse error")
)

// StatusError is returned for non-success HTTP responses. It matches
// ErrNetwork under errors.Is.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Is makes a StatusError match ErrNetwork.
func (e *StatusError) Is(target error) bool {
	return target == ErrNetwork
}

// IsNotFound reports whether err is a 404 StatusError.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
