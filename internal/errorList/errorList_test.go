package errorList

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrOrNil(t *testing.T) {
	var errs ErrorList
	if got := errs.ErrOrNil(); got != nil {
		t.Errorf("Got: empty list ErrOrNil() = %v. Want: nil.", got)
	}
	errs = errs.Append(errors.New("boom"))
	if got := errs.ErrOrNil(); got == nil {
		t.Errorf("Got: non-empty list ErrOrNil() = nil. Want: an error.")
	}
}

func TestAppend(t *testing.T) {
	var errs ErrorList
	errs = errs.Append(nil)
	if len(errs) != 0 {
		t.Errorf("Got: %d errors after appending nil. Want: 0.", len(errs))
	}

	errs = errs.Append(errors.New("first"))
	errs = errs.Append(ErrorList{errors.New("second"), errors.New("third")})
	if len(errs) != 3 {
		t.Errorf("Got: %d errors after appending a list. Want: 3 (concatenated).", len(errs))
	}
}

func TestErrorsIs(t *testing.T) {
	sentinel := errors.New("sentinel")
	var errs ErrorList
	errs = errs.Append(errors.New("other"))
	errs = errs.Append(fmt.Errorf("wrapped: %w", sentinel))

	if !errors.Is(errs.ErrOrNil(), sentinel) {
		t.Errorf("Got: errors.Is() = false for an aggregated error. Want: true.")
	}
}
