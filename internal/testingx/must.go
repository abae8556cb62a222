// Package testingx provides helpers for use with the testing package.
package testingx

import "testing"

// Must provides a concise way to handle a returned error in test setup that
// "should never happen"©.
//
// This function can be used for test fixtures that can be presumed to be
// correct, but technically may return an error, such as constructing a
// replace source with literal ranges. It MUST NOT be used to check for test
// case conditions themselves because it provides a generic, nondescript test
// error message.
//
//	mustSource := testingx.Must[*sources.ReplaceSource](t)
//	src := mustSource(sources.NewReplaceSource(base, replacements))
func Must[T any](t *testing.T) func(v T, err error) T {
	return func(v T, err error) T {
		if err != nil {
			t.Fatalf("Got: unexpected error: %s. Want: no error.", err)
		}
		return v
	}
}
