package resolver

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when an upstream response is missing an
// expected field or cannot be decoded
var ErrMalformedResponse = errors.New("malformed upstream response")

// UpstreamError is returned when a provider API answers with a non-success
// HTTP status
type UpstreamError struct {
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Status)
}
