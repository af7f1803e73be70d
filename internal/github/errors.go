package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v41/github"
)

var (
	// ErrIssueNotFound reports a 404 from the issue endpoint: the issue
	// does not exist or the repository is private.
	ErrIssueNotFound = errors.New("issue not found")

	// ErrUnavailable reports a network-level failure or timeout reaching
	// the GitHub API.
	ErrUnavailable = errors.New("github api unreachable")
)

// RateLimitError reports an exhausted GitHub rate limit, primary or
// secondary. ResetAt is when the quota is restored.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github rate limit exceeded, resets at %s", e.ResetAt.UTC().Format(time.RFC3339))
}

// APIError reports a GitHub HTTP error that is neither a 404 nor a rate
// limit. The upstream status code is preserved for the response mapping.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api error: status %d: %s", e.StatusCode, e.Message)
}

// mapError converts go-github errors into the package's error kinds.
// Callers that treat 404 as a soft failure intercept ErrIssueNotFound.
func mapError(err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &RateLimitError{ResetAt: rateErr.Rate.Reset.Time}
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		resetAt := time.Now()
		if abuseErr.RetryAfter != nil {
			resetAt = resetAt.Add(*abuseErr.RetryAfter)
		}
		return &RateLimitError{ResetAt: resetAt}
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		if respErr.Response.StatusCode == http.StatusNotFound {
			return ErrIssueNotFound
		}
		return &APIError{
			StatusCode: respErr.Response.StatusCode,
			Message:    respErr.Message,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out", ErrUnavailable)
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
