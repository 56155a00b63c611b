// Package ytmusic implements a minimal YouTube Music client used as a
// fallback when Spotify is not connected. YouTube Music has no remote
// playback API, so the client covers search and lookup; the frontend
// plays the returned video itself.
package ytmusic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/neonpi/anton/pkg/music"
)

// DefaultBaseURL is the InnerTube API endpoint.
const DefaultBaseURL = "https://music.youtube.com/youtubei/v1"

// Client talks to the YouTube Music InnerTube API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu             sync.Mutex
	authed         bool
	authHeaders    map[string]string
	currentVideoID string
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL sets the InnerTube base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client for API requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a YouTube Music client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsAvailable reports whether the client can be used at all.
func (c *Client) IsAvailable() bool {
	return c != nil
}

// IsAuthenticated reports whether browser auth headers are loaded.
func (c *Client) IsAuthenticated() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authed
}

// LoadAuth loads browser auth headers from a JSON file and reports
// whether anything was loaded. A missing file leaves the client in
// unauthenticated mode, which still supports search and lookup.
func (c *Client) LoadAuth(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.logger.Info("youtube music running unauthenticated (limited features)")
			return false
		}
		c.logger.Warn("youtube music auth load failed", "path", path, "error", err)
		return false
	}

	var headers map[string]string
	if err := json.Unmarshal(data, &headers); err != nil {
		c.logger.Warn("youtube music auth file unreadable", "path", path, "error", err)
		return false
	}

	c.mu.Lock()
	c.authHeaders = headers
	c.authed = true
	c.mu.Unlock()

	c.logger.Info("youtube music loaded existing authentication")
	return true
}

// Search returns up to five song hits for a query.
func (c *Client) Search(ctx context.Context, query string) []music.SongInfo {
	results, err := c.searchSongs(ctx, query)
	if err != nil {
		c.logger.Warn("youtube music search failed", "query", query, "error", err)
		return nil
	}
	return results
}

// SongInfo returns the best hit for a query, or nil when nothing
// matched.
func (c *Client) SongInfo(ctx context.Context, query string) *music.SongInfo {
	results := c.Search(ctx, query)
	if len(results) == 0 {
		return nil
	}
	return &results[0]
}

// Play finds a song and returns playback info for the frontend.
func (c *Client) Play(ctx context.Context, query string) music.PlayResult {
	info := c.SongInfo(ctx, query)
	if info == nil {
		return music.PlayResult{Error: fmt.Sprintf("Couldn't find: %s", query)}
	}

	c.mu.Lock()
	c.currentVideoID = info.VideoID
	c.mu.Unlock()

	return music.PlayResult{
		Success:    true,
		Message:    fmt.Sprintf("Found: %s by %s", info.Title, info.Artist),
		VideoID:    info.VideoID,
		Title:      info.Title,
		Artist:     info.Artist,
		Thumbnail:  info.Thumbnail,
		YouTubeURL: "https://music.youtube.com/watch?v=" + info.VideoID,
	}
}

// NowPlaying returns a snapshot for the last played video, or nil when
// nothing was played through this client.
func (c *Client) NowPlaying(ctx context.Context) *music.NowPlaying {
	c.mu.Lock()
	videoID := c.currentVideoID
	c.mu.Unlock()

	if videoID == "" {
		return nil
	}

	details, err := c.playerDetails(ctx, videoID)
	if err != nil || details == nil {
		return nil
	}

	lengthSeconds, _ := strconv.Atoi(details.LengthSeconds)
	return &music.NowPlaying{
		IsPlaying:  true,
		TrackName:  nameOr(details.Title, "Unknown"),
		ArtistName: nameOr(details.Author, "Unknown"),
		ImageURL:   lastThumbnail(details.Thumbnail.Thumbnails),
		DurationMS: lengthSeconds * 1000,
		ProgressMS: 0,
		Source:     "youtube_music",
	}
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
