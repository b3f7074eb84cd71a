package intervals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/2beens/healthdash/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultBaseURL = "https://intervals.icu/api/v1"

	maxResponseBytes = 32 << 20
	maxErrorBodyLen  = 256
)

// Client reads training data for a single athlete from Intervals.icu.
// It does not retry; a failed call is reported to the caller as is.
type Client struct {
	baseURL    string
	apiKey     string
	athleteID  string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, athleteID string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		athleteID:  athleteID,
		httpClient: httpClient,
	}
}

// FetchActivities returns completed activities between oldest and newest (YYYY-MM-DD, inclusive).
func (c *Client) FetchActivities(ctx context.Context, oldest, newest string) (_ []Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "intervals.fetch.activities")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	var activities []Activity
	if err := c.get(ctx, FeedActivities, "/activities", rangeQuery(oldest, newest), &activities); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("count", len(activities)))
	return activities, nil
}

// FetchEvents returns calendar events between oldest and newest, of every category.
func (c *Client) FetchEvents(ctx context.Context, oldest, newest string) (_ []Event, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "intervals.fetch.events")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	var events []Event
	if err := c.get(ctx, FeedEvents, "/events", rangeQuery(oldest, newest), &events); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("count", len(events)))
	return events, nil
}

func (c *Client) FetchWellness(ctx context.Context, oldest, newest string) (_ []Wellness, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "intervals.fetch.wellness")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	var wellness []Wellness
	if err := c.get(ctx, FeedWellness, "/wellness", rangeQuery(oldest, newest), &wellness); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("count", len(wellness)))
	return wellness, nil
}

// FetchPowerCurve returns the all-time ride power curve.
func (c *Client) FetchPowerCurve(ctx context.Context) (_ *PowerCurve, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "intervals.fetch.powercurve")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	query := url.Values{}
	query.Set("type", "Ride")
	query.Set("curves", "all")

	curve := &PowerCurve{}
	if err := c.get(ctx, FeedPowerCurve, "/power-curves", query, curve); err != nil {
		return nil, err
	}
	return curve, nil
}

func (c *Client) get(ctx context.Context, feed Feed, path string, query url.Values, target any) error {
	if c.apiKey == "" || c.athleteID == "" {
		return ErrMissingCredentials
	}

	reqURL := fmt.Sprintf("%s/athlete/%s%s", c.baseURL, url.PathEscape(c.athleteID), path)
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", feed, err)
	}
	req.SetBasicAuth("API_KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", feed, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warnf("close %s response body: %s", feed, err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", feed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{
			Feed:       feed,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(body)), maxErrorBodyLen),
		}
	}

	if err := validate(feed, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		return &ValidationError{Feed: feed, Details: []string{err.Error()}}
	}

	log.Tracef("intervals: fetched %s (%d bytes)", feed, len(body))
	return nil
}

func rangeQuery(oldest, newest string) url.Values {
	query := url.Values{}
	query.Set("oldest", oldest)
	query.Set("newest", newest)
	return query
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
