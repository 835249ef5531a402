package weberr

import "errors"

type responseError struct {
	error
	body   interface{}
	status int
}

func (e *responseError) Response() (interface{}, int) { return e.body, e.status }

func (e *responseError) Unwrap() error { return e.error }

// Response extracts the HTTP body and status attached to err by
// WithResponse. The third return is false when err carries none.
func Response(err error) (interface{}, int, bool) {
	var re interface {
		Response() (interface{}, int)
	}
	if errors.As(err, &re) {
		body, status := re.Response()
		return body, status, true
	}
	return nil, 0, false
}
