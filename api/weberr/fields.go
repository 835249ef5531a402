package weberr

import "errors"

type fieldsError struct {
	error
	fields map[string]interface{}
}

func (e *fieldsError) Fields() map[string]interface{} { return e.fields }

func (e *fieldsError) Unwrap() error { return e.error }

// Fields extracts the log fields attached to err by WithFields. The second
// return is false when err carries none.
func Fields(err error) (map[string]interface{}, bool) {
	var fe interface {
		Fields() map[string]interface{}
	}
	if errors.As(err, &fe) {
		return fe.Fields(), true
	}
	return nil, false
}
