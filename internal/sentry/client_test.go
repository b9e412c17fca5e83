package sentry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const eventJSON = `{
	"groupID": "g1",
	"eventID": "e1",
	"projectID": "p1",
	"type": "error",
	"title": "boom",
	"message": "it broke",
	"platform": "python",
	"culprit": "handler",
	"dateCreated": "2026-03-01T12:30:45Z",
	"entries": [
		{"type": "threads", "data": {"values": [
			{"stacktrace": {"frames": [
				{"vars": {"body": {"id": "'77'", "material": "'metal'", "packaging": "'can'"}}}
			]}}
		]}}
	]
}`

func TestListEvents_SinglePage(t *testing.T) {
	var gotAuth, gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		fmt.Fprintf(w, "[%s]", eventJSON)
	}))
	defer srv.Close()

	c := NewClient("acme", "collector", "tok123", WithBaseURL(srv.URL))
	events, err := c.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}

	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/api/0/projects/acme/collector/events/" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "full=true" {
		t.Errorf("query = %q", gotQuery)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.EventID != "e1" || ev.GroupID != "g1" || ev.Title != "boom" {
		t.Errorf("unexpected event: %+v", ev)
	}
	if got := ev.CreatedAt.Format("2006-01-02 15:04:05.000000"); got != "2026-03-01 12:30:45.000000" {
		t.Errorf("created_at = %q", got)
	}
	if ev.Collect.ID != "77" || ev.Collect.Material != "metal" || ev.Collect.Packaging != "can" {
		t.Errorf("unexpected collect info: %+v", ev.Collect)
	}
}

func TestListEvents_FollowsPagination(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/api/0/projects/acme/collector/events/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "" {
			next := srv.URL + "/api/0/projects/acme/collector/events/?full=true&cursor=0:100:0"
			w.Header().Set("Link",
				fmt.Sprintf(`<%s>; rel="previous"; results="false", <%s>; rel="next"; results="true"; cursor="0:100:0"`,
					srv.URL, next))
			fmt.Fprintf(w, "[%s]", eventJSON)
			return
		}
		// Final page: next link present but exhausted.
		w.Header().Set("Link", `<http://x>; rel="next"; results="false"; cursor="0:200:0"`)
		fmt.Fprint(w, "[]")
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient("acme", "collector", "tok", WithBaseURL(srv.URL))
	events, err := c.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event across pages, got %d", len(events))
	}
}

func TestListEvents_MaxPagesCapsTraversal(t *testing.T) {
	var pages int
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		next := srv.URL + fmt.Sprintf("/api/0/projects/a/b/events/?cursor=0:%d:0", pages)
		w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next"; results="true"; cursor="c"`, next))
		fmt.Fprint(w, "[]")
	}))
	defer srv.Close()

	c := NewClient("a", "b", "t", WithBaseURL(srv.URL), WithMaxPages(3))
	if _, err := c.ListEvents(context.Background()); err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if pages != 3 {
		t.Errorf("fetched %d pages, want 3", pages)
	}
}

func TestListEvents_HTTPErrorIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "Invalid token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("a", "b", "bad", WithBaseURL(srv.URL))
	_, err := c.ListEvents(context.Background())
	if err == nil {
		t.Fatal("expected error for 401")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", apiErr.StatusCode)
	}
}

func TestListEvents_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{not json")
	}))
	defer srv.Close()

	c := NewClient("a", "b", "t", WithBaseURL(srv.URL))
	if _, err := c.ListEvents(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestListEvents_SkipsEventsWithBadTimestamp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"eventID": "bad", "dateCreated": "not-a-date"}, %s]`, eventJSON)
	}))
	defer srv.Close()

	c := NewClient("a", "b", "t", WithBaseURL(srv.URL))
	events, err := c.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].EventID != "e1" {
		t.Fatalf("expected only the valid event, got %+v", events)
	}
}

func TestNextPageURL(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"empty", "", ""},
		{
			"results true",
			`<https://s/prev>; rel="previous"; results="false", <https://s/next?cursor=1>; rel="next"; results="true"; cursor="1"`,
			"https://s/next?cursor=1",
		},
		{
			"results false",
			`<https://s/next>; rel="next"; results="false"; cursor="2"`,
			"",
		},
		{"garbage", "not-a-link-header", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := nextPageURL(tc.header); got != tc.want {
				t.Errorf("nextPageURL(%q) = %q, want %q", tc.header, got, tc.want)
			}
		})
	}
}
