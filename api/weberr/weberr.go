// Package weberr wraps errors with the information needed to render them as
// HTTP responses and to enrich the error log, without the handlers having to
// know about either concern.
package weberr

type Opt func(error) error

// Wrap applies each option to err in order.
func Wrap(err error, opts ...Opt) error {
	for _, opt := range opts {
		err = opt(err)
	}
	return err
}

// WithResponse attaches a response body and status code to the error.
func WithResponse(body interface{}, status int) Opt {
	return func(err error) error {
		return &responseError{error: err, body: body, status: status}
	}
}

// WithFields attaches structured log fields to the error.
func WithFields(fields map[string]interface{}) Opt {
	return func(err error) error {
		return &fieldsError{error: err, fields: fields}
	}
}
