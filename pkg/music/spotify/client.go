// Package spotify implements a client for the Spotify Web API with
// OAuth token management and playback control.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/neonpi/anton/pkg/music"
)

const (
	// DefaultAPIBaseURL is the Spotify Web API endpoint.
	DefaultAPIBaseURL = "https://api.spotify.com/v1"

	// DefaultAccountsBaseURL is the Spotify OAuth endpoint.
	DefaultAccountsBaseURL = "https://accounts.spotify.com"

	// DefaultCachePath is where the OAuth token is persisted.
	DefaultCachePath = ".spotify_cache"
)

// Scopes lists the OAuth scopes required for playback control.
var Scopes = []string{
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
	"playlist-read-private",
	"user-library-read",
}

// Client talks to the Spotify Web API. Command methods return
// speakable text so results can go straight to the voice pipeline.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string
	cachePath    string
	apiBaseURL   string
	accountsURL  string
	httpClient   *http.Client
	logger       *slog.Logger

	mu             sync.Mutex
	token          *token
	lastNowPlaying *music.NowPlaying

	sleep func(time.Duration)
}

// Option configures the Client.
type Option func(*Client)

// WithAPIBaseURL sets the Web API base URL.
func WithAPIBaseURL(url string) Option {
	return func(c *Client) {
		c.apiBaseURL = url
	}
}

// WithAccountsBaseURL sets the OAuth base URL.
func WithAccountsBaseURL(url string) Option {
	return func(c *Client) {
		c.accountsURL = url
	}
}

// WithCachePath sets the token cache file path.
func WithCachePath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.cachePath = path
		}
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

// New creates a Spotify client.
func New(clientID, clientSecret, redirectURI string, opts ...Option) *Client {
	c := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		cachePath:    DefaultCachePath,
		apiBaseURL:   DefaultAPIBaseURL,
		accountsURL:  DefaultAccountsBaseURL,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		logger:       slog.Default(),
		sleep:        time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsAuthenticated reports whether a token is loaded.
func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != nil
}

// Play searches for content and starts playback. An empty query
// resumes whatever was playing.
func (c *Client) Play(ctx context.Context, query, contentType string) string {
	if err := c.ensureToken(ctx); err != nil {
		if errors.Is(err, errNotConnected) {
			return "Not connected to Spotify. Please authenticate first."
		}
		return fmt.Sprintf("Spotify error: %v", err)
	}

	if contentType == "" {
		contentType = "track"
	}

	if query != "" {
		item, err := c.search(ctx, query, contentType)
		if err != nil {
			return playbackErrorText("playing", err)
		}
		if item == nil {
			return fmt.Sprintf("Couldn't find %s: %s", contentType, query)
		}

		// Tracks play by URI list; albums, artists and playlists play
		// as a context.
		if contentType == "track" {
			err = c.startPlayback(ctx, []string{item.URI}, "")
		} else {
			err = c.startPlayback(ctx, nil, item.URI)
		}
		if err != nil {
			return playbackErrorText("playing", err)
		}
		return fmt.Sprintf("Now playing: %s", item.Name)
	}

	if err := c.startPlayback(ctx, nil, ""); err != nil {
		return playbackErrorText("playing", err)
	}
	return "Resuming playback"
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context) string {
	if err := c.ensureToken(ctx); err != nil {
		if errors.Is(err, errNotConnected) {
			return "Not connected to Spotify."
		}
		return fmt.Sprintf("Error pausing: %v", err)
	}

	if err := c.pausePlayback(ctx); err != nil {
		return playbackErrorText("pausing", err)
	}
	return "Paused"
}

// Resume resumes playback.
func (c *Client) Resume(ctx context.Context) string {
	if err := c.ensureToken(ctx); err != nil {
		if errors.Is(err, errNotConnected) {
			return "Not connected to Spotify."
		}
		return fmt.Sprintf("Error resuming: %v", err)
	}

	if err := c.startPlayback(ctx, nil, ""); err != nil {
		return playbackErrorText("resuming", err)
	}
	return "Resumed"
}

// Skip moves to the next track and reports what is now playing.
func (c *Client) Skip(ctx context.Context) string {
	if err := c.ensureToken(ctx); err != nil {
		if errors.Is(err, errNotConnected) {
			return "Not connected to Spotify."
		}
		return fmt.Sprintf("Error skipping: %v", err)
	}

	if err := c.nextTrack(ctx); err != nil {
		return playbackErrorText("skipping", err)
	}

	// Give the player a moment to switch tracks.
	c.sleep(500 * time.Millisecond)
	if now := c.NowPlaying(ctx); now != nil && now.TrackName != "" {
		return fmt.Sprintf("Skipped to: %s", now.TrackName)
	}
	return "Skipped to next track"
}

// Previous moves back a track and reports what is now playing.
func (c *Client) Previous(ctx context.Context) string {
	if err := c.ensureToken(ctx); err != nil {
		if errors.Is(err, errNotConnected) {
			return "Not connected to Spotify."
		}
		return fmt.Sprintf("Error: %v", err)
	}

	if err := c.previousTrack(ctx); err != nil {
		return playbackErrorText("", err)
	}

	c.sleep(500 * time.Millisecond)
	if now := c.NowPlaying(ctx); now != nil && now.TrackName != "" {
		return fmt.Sprintf("Playing: %s", now.TrackName)
	}
	return "Playing previous track"
}

// SetVolume sets playback volume, clamped to 0-100.
func (c *Client) SetVolume(ctx context.Context, volume int) string {
	if err := c.ensureToken(ctx); err != nil {
		if errors.Is(err, errNotConnected) {
			return "Not connected to Spotify."
		}
		return fmt.Sprintf("Error setting volume: %v", err)
	}

	volume = max(0, min(100, volume))
	if err := c.setVolume(ctx, volume); err != nil {
		return playbackErrorText("setting volume", err)
	}
	return fmt.Sprintf("Volume set to %d%%", volume)
}

// NowPlaying returns the current playback snapshot. On API errors the
// last known snapshot is returned so the UI keeps showing something.
func (c *Client) NowPlaying(ctx context.Context) *music.NowPlaying {
	if err := c.ensureToken(ctx); err != nil {
		return nil
	}

	playback, err := c.currentPlayback(ctx)
	if err != nil {
		c.logger.Warn("spotify now playing failed", "error", err)
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.lastNowPlaying
	}

	if playback == nil || playback.Item == nil {
		return nil
	}

	item := playback.Item
	np := &music.NowPlaying{
		IsPlaying:  playback.IsPlaying,
		ProgressMS: playback.ProgressMS,
		DurationMS: item.DurationMS,
		IsPodcast:  item.Type == "episode",
	}

	if np.IsPodcast {
		np.EpisodeName = nameOr(item.Name, "Unknown Episode")
		np.ShowName = "Unknown Show"
		if item.Show != nil {
			np.ShowName = nameOr(item.Show.Name, "Unknown Show")
		}
		np.Description = item.Description
		np.ImageURL = firstImage(item.Images)
	} else {
		np.TrackName = nameOr(item.Name, "Unknown Track")
		np.ArtistName = joinArtists(item.Artists)
		np.AlbumName = "Unknown Album"
		if item.Album != nil {
			np.AlbumName = nameOr(item.Album.Name, "Unknown Album")
			np.ImageURL = firstImage(item.Album.Images)
		}
	}

	c.mu.Lock()
	c.lastNowPlaying = np
	c.mu.Unlock()
	return np
}

// playbackErrorText converts an API error into speakable text.
func playbackErrorText(verb string, err error) string {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		if apiErr.Reason == "NO_ACTIVE_DEVICE" {
			return "No active Spotify device found. Please open Spotify on a device."
		}
		return fmt.Sprintf("Spotify error: %v", apiErr)
	}
	if verb == "" {
		return fmt.Sprintf("Error: %v", err)
	}
	return fmt.Sprintf("Error %s: %v", verb, err)
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

func firstImage(images []imageRef) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

func joinArtists(artists []artistRef) string {
	var names string
	for i, a := range artists {
		if i > 0 {
			names += ", "
		}
		names += a.Name
	}
	return names
}
