// Package httperror carries an HTTP status code alongside an error message so
// handlers can return it as a plain error.
package httperror

import (
	"fmt"
	"net/http"
)

// HTTPError is an error with the HTTP status it should be answered with.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e HTTPError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// New returns an HTTPError with a formatted message.
func New(statusCode int, format string, args ...any) HTTPError {
	return HTTPError{StatusCode: statusCode, Message: fmt.Sprintf(format, args...)}
}
