package intervals

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUpstream matches every FetchError and ValidationError.
	ErrUpstream           = errors.New("intervals upstream error")
	ErrMissingCredentials = errors.New("missing intervals api key or athlete id")
)

type Feed string

const (
	FeedActivities Feed = "activities"
	FeedEvents     Feed = "events"
	FeedWellness   Feed = "wellness"
	FeedPowerCurve Feed = "power-curves"
)

// FetchError is returned when the provider answers with a non-2xx status.
type FetchError struct {
	Feed       Feed
	StatusCode int
	Body       string
}

func (e *FetchError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s fetch failed: %d", e.Feed, e.StatusCode)
	}
	return fmt.Sprintf("%s fetch failed: %d: %s", e.Feed, e.StatusCode, e.Body)
}

func (e *FetchError) Is(target error) bool {
	return target == ErrUpstream
}

// ValidationError is returned when a response body does not match the feed schema.
type ValidationError struct {
	Feed    Feed
	Details []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s response invalid: %s", e.Feed, strings.Join(e.Details, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrUpstream
}
