package httpclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/circleci/restclass/o11y"
)

// HTTPError represents an error in an HTTP call when the response status code is not 2XX
type HTTPError struct {
	method string
	route  string
	code   int
	body   []byte
}

var _ error = (*HTTPError)(nil)

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("the response from %s %s was %d (%s)",
		e.method, e.route, e.code, http.StatusText(e.code))
}

// Code returns the status code recorded in this error.
func (e *HTTPError) Code() int {
	return e.code
}

// Body returns the raw response body, truncated to 1MiB.
func (e *HTTPError) Body() []byte {
	return e.body
}

// Is reports 4XX responses as o11y warnings, they are expected answers rather than
// failures of the call.
func (e *HTTPError) Is(target error) bool {
	if o11y.IsWarningNoUnwrap(target) {
		return e.code >= 400 && e.code < 500
	}
	return false
}

// HasStatusCode tests err for HTTPError and returns true if any of the codes
// match the stored code.
func HasStatusCode(err error, codes ...int) bool {
	e := &HTTPError{}
	if errors.As(err, &e) {
		for _, code := range codes {
			if e.code == code {
				return true
			}
		}
	}
	return false
}

// IsRequestProblem checks the err for HTTPError and returns true if the stored status code
// is in the 4xx range
func IsRequestProblem(err error) bool {
	e := &HTTPError{}
	if errors.As(err, &e) {
		return e.code >= 400 && e.code < 500
	}
	return false
}

func IsNoContent(err error) bool {
	return errors.Is(err, ErrNoContent)
}
