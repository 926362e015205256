package reddit

import (
	"errors"
	"fmt"
)

// Sentinel errors callers branch on with errors.Is.
var (
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("forbidden")
	ErrRateLimited = errors.New("rate limited")
	ErrPostLocked  = errors.New("post is locked")
)

// APIError is a non-2xx platform response with no sentinel mapping.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("reddit API error %d: %s", e.StatusCode, e.Message)
}
