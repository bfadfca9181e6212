package essent

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnexpectedResponse is wrapped by every error caused by a response body
// that is missing an element the client needs.
var ErrUnexpectedResponse = errors.New("unexpected essent response")

// StatusError is returned when the API responds with a non-2xx status. Essent
// doesn't distinguish between bad credentials, an expired session or a
// malformed request so neither does this error.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("essent %s %s: status %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsStatus reports whether err is a StatusError with the given status code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

func missing(element string) error {
	return fmt.Errorf("%w: missing %s", ErrUnexpectedResponse, element)
}
