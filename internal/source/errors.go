// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a point lookup for an id the provider does not know.
	ErrNotFound = errors.New("record not found")

	// ErrMalformedRecord reports a record without a provider id.
	ErrMalformedRecord = errors.New("malformed record")
)

// FetchError is a failed provider call: a transport error, or an HTTP status
// other than 200 after the retry budget was spent.
type FetchError struct {
	Source   string
	Endpoint string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: HTTP %d", e.Source, e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s %s: %v", e.Source, e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
