package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// apiError is a structured error from the Spotify Web API.
type apiError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

func (e *apiError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("http %d: %s (%s)", e.Status, e.Message, e.Reason)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// playbackState is the response from the player endpoint.
type playbackState struct {
	IsPlaying  bool          `json:"is_playing"`
	ProgressMS int           `json:"progress_ms"`
	Item       *playbackItem `json:"item"`
}

// playbackItem is the track or episode being played.
type playbackItem struct {
	Type        string      `json:"type"` // "track" or "episode"
	Name        string      `json:"name"`
	URI         string      `json:"uri"`
	DurationMS  int         `json:"duration_ms"`
	Artists     []artistRef `json:"artists,omitempty"`
	Album       *albumRef   `json:"album,omitempty"`
	Show        *showRef    `json:"show,omitempty"`
	Description string      `json:"description,omitempty"`
	Images      []imageRef  `json:"images,omitempty"`
}

type artistRef struct {
	Name string `json:"name"`
}

type albumRef struct {
	Name   string     `json:"name"`
	Images []imageRef `json:"images,omitempty"`
}

type showRef struct {
	Name string `json:"name"`
}

type imageRef struct {
	URL string `json:"url"`
}

// searchResults is the response from the search endpoint, keyed by
// the requested content type.
type searchResults struct {
	Tracks    *resultPage `json:"tracks,omitempty"`
	Artists   *resultPage `json:"artists,omitempty"`
	Albums    *resultPage `json:"albums,omitempty"`
	Playlists *resultPage `json:"playlists,omitempty"`
}

type resultPage struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// page returns the result page matching the content type.
func (r *searchResults) page(contentType string) *resultPage {
	switch contentType {
	case "track":
		return r.Tracks
	case "artist":
		return r.Artists
	case "album":
		return r.Albums
	case "playlist":
		return r.Playlists
	default:
		return nil
	}
}

// search returns the best hit for a query, or nil when nothing matched.
func (c *Client) search(ctx context.Context, query, contentType string) (*searchItem, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", contentType)
	params.Set("limit", "1")

	body, _, err := c.doAPI(ctx, http.MethodGet, "/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var results searchResults
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("unmarshal search results: %w", err)
	}

	page := results.page(contentType)
	if page == nil || len(page.Items) == 0 {
		return nil, nil
	}
	return &page.Items[0], nil
}

// startPlayback starts or resumes playback. Pass track URIs to play
// tracks, a context URI for albums/artists/playlists, or neither to
// resume.
func (c *Client) startPlayback(ctx context.Context, uris []string, contextURI string) error {
	var payload any
	switch {
	case len(uris) > 0:
		payload = map[string]any{"uris": uris}
	case contextURI != "":
		payload = map[string]any{"context_uri": contextURI}
	}

	_, _, err := c.doAPI(ctx, http.MethodPut, "/me/player/play", payload)
	return err
}

func (c *Client) pausePlayback(ctx context.Context) error {
	_, _, err := c.doAPI(ctx, http.MethodPut, "/me/player/pause", nil)
	return err
}

func (c *Client) nextTrack(ctx context.Context) error {
	_, _, err := c.doAPI(ctx, http.MethodPost, "/me/player/next", nil)
	return err
}

func (c *Client) previousTrack(ctx context.Context) error {
	_, _, err := c.doAPI(ctx, http.MethodPost, "/me/player/previous", nil)
	return err
}

func (c *Client) setVolume(ctx context.Context, volume int) error {
	path := fmt.Sprintf("/me/player/volume?volume_percent=%d", volume)
	_, _, err := c.doAPI(ctx, http.MethodPut, path, nil)
	return err
}

// currentPlayback returns the playback state, or nil when nothing is
// playing (Spotify answers 204).
func (c *Client) currentPlayback(ctx context.Context) (*playbackState, error) {
	body, status, err := c.doAPI(ctx, http.MethodGet, "/me/player", nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent || len(body) == 0 {
		return nil, nil
	}

	var state playbackState
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("unmarshal playback state: %w", err)
	}
	return &state, nil
}

// doAPI sends an authenticated request to the Web API.
func (c *Client) doAPI(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBaseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, resp.StatusCode, c.parseAPIError(resp.StatusCode, respBody)
	}

	return respBody, resp.StatusCode, nil
}

// parseAPIError decodes a Web API error body.
func (c *Client) parseAPIError(status int, body []byte) error {
	var wrapper struct {
		Error apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil || wrapper.Error.Message == "" {
		return &apiError{Status: status, Message: string(body)}
	}
	if wrapper.Error.Status == 0 {
		wrapper.Error.Status = status
	}
	return &wrapper.Error
}
