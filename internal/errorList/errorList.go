// Package errorList aggregates multiple validation errors into one.
//
// Node constructors validate all of their inputs before failing, so that a
// caller assembling a large replacement list learns about every bad range at
// once instead of fixing them one by one.
package errorList

import (
	"fmt"
)

// ErrorList wraps multiple errors as a single error.
type ErrorList []error

func (errs ErrorList) Error() string {
	switch len(errs) {
	case 0:
		return "<no errors>"
	case 1:
		return errs[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", errs[0].Error(), len(errs[1:]))
}

// ErrOrNil returns nil if ErrorList is empty, or the error otherwise.
func (errs ErrorList) ErrOrNil() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Append an error to the list.
//
// If err is an instance of ErrorList, the lists are concatenated together,
// otherwise err is appended at the end of the list. If err is nil, the list
// is returned unmodified.
func (errs ErrorList) Append(err error) ErrorList {
	if err == nil {
		return errs
	}
	if err, ok := err.(ErrorList); ok {
		return append(errs, err...)
	}
	return append(errs, err)
}

// Unwrap exposes the aggregated errors to errors.Is and errors.As.
func (errs ErrorList) Unwrap() []error {
	return errs
}
