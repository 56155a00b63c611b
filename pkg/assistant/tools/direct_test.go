package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestWeatherExecutor_FormatsReport(t *testing.T) {
	var gotQuery, gotUnits, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUnits = r.URL.Query().Get("units")
		gotKey = r.URL.Query().Get("appid")
		fmt.Fprint(w, `{"main":{"temp":72.4,"feels_like":70.6,"humidity":45},"weather":[{"description":"clear sky"}]}`)
	}))
	defer srv.Close()

	e := NewWeatherExecutor("key123", "Denver", WithWeatherBaseURL(srv.URL))
	got := e.Execute(context.Background(), map[string]any{"location": "Austin"})

	want := "Weather in Austin: 72°F (feels like 71°F), clear sky, 45% humidity"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if gotQuery != "Austin" || gotUnits != "imperial" || gotKey != "key123" {
		t.Errorf("request params q=%q units=%q appid=%q", gotQuery, gotUnits, gotKey)
	}
}

func TestWeatherExecutor_DefaultLocation(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		fmt.Fprint(w, `{"main":{"temp":50,"feels_like":50,"humidity":80},"weather":[{"description":"mist"}]}`)
	}))
	defer srv.Close()

	e := NewWeatherExecutor("key123", "Denver", WithWeatherBaseURL(srv.URL))
	e.Execute(context.Background(), map[string]any{})
	if gotQuery != "Denver" {
		t.Errorf("default location = %q, want Denver", gotQuery)
	}
}

func TestWeatherExecutor_Unconfigured(t *testing.T) {
	e := NewWeatherExecutor("", "Denver")
	got := e.Execute(context.Background(), map[string]any{"location": "Austin"})
	if got != "Weather service not configured. Add OPENWEATHER_API_KEY to .env" {
		t.Errorf("got %q", got)
	}
}

func TestWeatherExecutor_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewWeatherExecutor("key123", "Denver", WithWeatherBaseURL(srv.URL))
	got := e.Execute(context.Background(), map[string]any{"location": "Nowhereville"})
	if got != "Couldn't get weather for Nowhereville" {
		t.Errorf("got %q", got)
	}
}

func TestWeatherExecutor_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused

	e := NewWeatherExecutor("key123", "Denver", WithWeatherBaseURL(srv.URL))
	got := e.Execute(context.Background(), map[string]any{"location": "Austin"})
	if !strings.HasPrefix(got, "Weather error: ") {
		t.Errorf("got %q", got)
	}
}

func TestClockExecutor_SpokenFormat(t *testing.T) {
	fixed := time.Date(2024, time.March, 18, 15, 4, 0, 0, time.UTC)
	e := NewClockExecutor("UTC", func() time.Time { return fixed })

	got := e.Execute(context.Background(), map[string]any{})
	want := "It's 03:04 PM on Monday, March 18, 2024"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestClockExecutor_TimezoneArgument(t *testing.T) {
	fixed := time.Date(2024, time.March, 18, 15, 0, 0, 0, time.UTC)
	e := NewClockExecutor("UTC", func() time.Time { return fixed })

	got := e.Execute(context.Background(), map[string]any{"timezone": "America/New_York"})
	want := "It's 11:00 AM on Monday, March 18, 2024"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestClockExecutor_BadZoneDoesNotFail(t *testing.T) {
	fixed := time.Date(2024, time.March, 18, 15, 0, 0, 0, time.UTC)
	e := NewClockExecutor("Atlantis/Nowhere", func() time.Time { return fixed })

	got := e.Execute(context.Background(), map[string]any{})
	if !strings.HasPrefix(got, "It's ") || !strings.Contains(got, "2024") {
		t.Errorf("bad zone must still produce a time, got %q", got)
	}
}

func TestWebFetchExecutor_StripsAndTruncates(t *testing.T) {
	page := "<html><head><script>var junk = 1;</script><style>body{color:red}</style></head><body>" +
		"<h1>Title</h1><p>" + strings.Repeat("word ", 1500) + "</p></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	e := NewWebFetchExecutor(nil)
	got := e.Execute(context.Background(), map[string]any{"url": srv.URL})

	prefix := fmt.Sprintf("Content from %s: ", srv.URL)
	if !strings.HasPrefix(got, prefix) || !strings.HasSuffix(got, "...") {
		t.Fatalf("got %q", got)
	}
	content := strings.TrimSuffix(strings.TrimPrefix(got, prefix), "...")
	if len(content) > fetchResultLimit {
		t.Errorf("content length %d exceeds %d", len(content), fetchResultLimit)
	}
	if strings.Contains(content, "<") || strings.Contains(content, "junk") || strings.Contains(content, "color:red") {
		t.Errorf("markup not stripped: %q", content[:80])
	}
	if !strings.Contains(content, "Title") {
		t.Errorf("visible text missing: %q", content[:80])
	}
}

func TestWebFetchExecutor_TruncatesOnRuneBoundary(t *testing.T) {
	// 3-byte runes so the byte limit lands mid-character.
	page := "<body>" + strings.Repeat("€", 1200) + "</body>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	e := NewWebFetchExecutor(nil)
	got := e.Execute(context.Background(), map[string]any{"url": srv.URL})

	prefix := fmt.Sprintf("Content from %s: ", srv.URL)
	content := strings.TrimSuffix(strings.TrimPrefix(got, prefix), "...")
	if !utf8.ValidString(content) {
		t.Fatalf("truncated content is not valid UTF-8")
	}
	if len(content) != 1998 {
		t.Errorf("content length = %d, want 1998 (last whole rune before the cap)", len(content))
	}
}

func TestWebFetchExecutor_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	e := NewWebFetchExecutor(nil)
	got := e.Execute(context.Background(), map[string]any{"url": srv.URL})
	want := fmt.Sprintf("Failed to fetch %s: HTTP 403", srv.URL)
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWebFetchExecutor_BadURL(t *testing.T) {
	e := NewWebFetchExecutor(nil)
	got := e.Execute(context.Background(), map[string]any{"url": "::not a url::"})
	if !strings.HasPrefix(got, "Error fetching URL: ") {
		t.Errorf("got %q", got)
	}
}
