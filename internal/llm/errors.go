package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited maps HTTP 429 from the completion endpoint.
	ErrRateLimited = errors.New("completion rate limited")
	// ErrTimeout covers the request deadline expiring before a response.
	ErrTimeout = errors.New("completion request timed out")
	// ErrConnection covers transport-level failures reaching the endpoint.
	ErrConnection = errors.New("completion endpoint unreachable")
)

// StatusError reports a non-success HTTP status outside the sentinel cases,
// carrying whatever message the endpoint returned.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("completion failed: status %d", e.Code)
	}
	return fmt.Sprintf("completion failed: status %d: %s", e.Code, e.Message)
}
