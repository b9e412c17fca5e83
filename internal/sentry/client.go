// Copyright (c) 2026 Musatech
// Sentry Monitoring - Sentry event export pipeline
// This source code is licensed under the MIT license found in the LICENSE file.

// Package sentry talks to the Sentry web API and flattens the returned
// events into the domain model. Only the project events endpoint is used:
// GET /api/0/projects/{organization}/{project}/events/?full=true
package sentry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Musatech/sentry-monitoring/internal/logging"
	"github.com/Musatech/sentry-monitoring/internal/model"
)

// DefaultBaseURL is the hosted Sentry API endpoint.
const DefaultBaseURL = "https://sentry.io"

// defaultTimeout bounds a single page request.
const defaultTimeout = 30 * time.Second

// defaultMaxPages caps cursor pagination so a runaway feed cannot wedge an
// export run.
const defaultMaxPages = 50

// APIError is returned when Sentry answers with a non-2xx status. It
// carries the response body, which Sentry uses for structured error detail.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sentry: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client fetches events for a single Sentry project.
type Client struct {
	baseURL      string
	organization string
	project      string
	token        string
	maxPages     int
	httpClient   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a self-hosted Sentry instance.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMaxPages caps how many pages of the event feed are fetched.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// NewClient creates a Client for the given organization, project and
// bearer token.
func NewClient(organization, project, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		organization: organization,
		project:      project,
		token:        token,
		maxPages:     defaultMaxPages,
		httpClient:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiEvent mirrors the subset of the Sentry event payload we consume.
type apiEvent struct {
	GroupID     string  `json:"groupID"`
	EventID     string  `json:"eventID"`
	ProjectID   string  `json:"projectID"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Message     string  `json:"message"`
	Platform    string  `json:"platform"`
	Culprit     string  `json:"culprit"`
	DateCreated string  `json:"dateCreated"`
	Entries     []Entry `json:"entries"`
}

// Entry is one event entry (threads, exception, breadcrumbs, ...).
type Entry struct {
	Type string    `json:"type"`
	Data EntryData `json:"data"`
}

// EntryData holds the entry values; for thread-like entries each value can
// carry a stacktrace.
type EntryData struct {
	Values []ThreadValue `json:"values"`
}

// ThreadValue is one element of an entry's values list.
type ThreadValue struct {
	Stacktrace Stacktrace `json:"stacktrace"`
}

// Stacktrace is a list of frames, oldest first.
type Stacktrace struct {
	Frames []Frame `json:"frames"`
}

// Frame carries the captured local variables of one stack frame.
type Frame struct {
	Vars map[string]any `json:"vars"`
}

// ListEvents fetches the full event feed for the configured project,
// following the Link-header cursor until Sentry reports no more results
// or maxPages is reached.
func (c *Client) ListEvents(ctx context.Context) ([]model.Event, error) {
	url := fmt.Sprintf("%s/api/0/projects/%s/%s/events/?full=true",
		c.baseURL, c.organization, c.project)

	var events []model.Event
	for page := 0; page < c.maxPages && url != ""; page++ {
		batch, next, err := c.fetchPage(ctx, url)
		if err != nil {
			return nil, err
		}
		events = append(events, batch...)
		if next == url {
			// A server echoing the same cursor would loop forever.
			break
		}
		url = next
	}
	return events, nil
}

// fetchPage requests one page of events and returns the flattened batch
// plus the URL of the next page, if any.
func (c *Client) fetchPage(ctx context.Context, url string) ([]model.Event, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("sentry: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("sentry: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("sentry: reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var raw []apiEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, "", fmt.Errorf("sentry: decoding events: %w", err)
	}

	events := make([]model.Event, 0, len(raw))
	for _, ev := range raw {
		flat, err := flattenEvent(ev)
		if err != nil {
			logging.Warnf("skipping event %s: %v", ev.EventID, err)
			continue
		}
		events = append(events, flat)
	}

	return events, nextPageURL(resp.Header.Get("Link")), nil
}

// sentryDateLayout is the timestamp format of dateCreated in the events
// feed.
const sentryDateLayout = "2006-01-02T15:04:05Z"

// flattenEvent converts a raw API event to the domain model, pulling the
// collect payload out of the stack frames.
func flattenEvent(ev apiEvent) (model.Event, error) {
	created, err := time.Parse(sentryDateLayout, ev.DateCreated)
	if err != nil {
		// Some installations include fractional seconds.
		created, err = time.Parse(time.RFC3339Nano, ev.DateCreated)
		if err != nil {
			return model.Event{}, fmt.Errorf("bad dateCreated %q: %w", ev.DateCreated, err)
		}
	}

	return model.Event{
		GroupID:   ev.GroupID,
		EventID:   ev.EventID,
		ProjectID: ev.ProjectID,
		Type:      ev.Type,
		Title:     ev.Title,
		Message:   ev.Message,
		Platform:  ev.Platform,
		Culprit:   ev.Culprit,
		CreatedAt: created.UTC(),
		Collect:   CollectInfoFromEntries(ev.Entries),
	}, nil
}

// nextPageURL parses a Sentry Link header and returns the URL of the next
// page, or "" when the header reports no further results. Sentry marks the
// next link with rel="next" and results="true".
func nextPageURL(header string) string {
	if header == "" {
		return ""
	}
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if !strings.Contains(part, `rel="next"`) || !strings.Contains(part, `results="true"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start < 0 || end <= start {
			continue
		}
		return part[start+1 : end]
	}
	return ""
}
