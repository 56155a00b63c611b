package music

import (
	"context"
	"fmt"
)

// SpotifyService is the subset of the Spotify client the manager uses.
type SpotifyService interface {
	IsAuthenticated() bool
	Play(ctx context.Context, query, contentType string) string
	Pause(ctx context.Context) string
	Resume(ctx context.Context) string
	Skip(ctx context.Context) string
	Previous(ctx context.Context) string
	SetVolume(ctx context.Context, volume int) string
	NowPlaying(ctx context.Context) *NowPlaying
}

// YouTubeService is the subset of the YouTube Music client the manager uses.
type YouTubeService interface {
	IsAvailable() bool
	IsAuthenticated() bool
	Play(ctx context.Context, query string) PlayResult
	SongInfo(ctx context.Context, query string) *SongInfo
	NowPlaying(ctx context.Context) *NowPlaying
}

// ServiceStatus reports the connection state of one service.
type ServiceStatus struct {
	Connected bool `json:"connected"`
	Available bool `json:"available"`
}

// Status reports the connection state of all services.
type Status struct {
	Spotify      ServiceStatus `json:"spotify"`
	YouTubeMusic ServiceStatus `json:"youtube_music"`
	Active       string        `json:"active"`
}

// Manager routes playback commands to the active service.
// All command methods return speakable text so results can go straight
// to the voice pipeline.
type Manager struct {
	spotify SpotifyService
	youtube YouTubeService
}

// NewManager creates a music manager over the given services.
// Either service may be nil.
func NewManager(spotify SpotifyService, youtube YouTubeService) *Manager {
	return &Manager{
		spotify: spotify,
		youtube: youtube,
	}
}

// ActiveService returns "spotify", "youtube_music" or "none".
func (m *Manager) ActiveService() string {
	if m.spotifyConnected() {
		return "spotify"
	}
	if m.youtubeConnected() {
		return "youtube_music"
	}
	return "none"
}

// Status returns the connection state of all music services.
func (m *Manager) Status() Status {
	return Status{
		Spotify: ServiceStatus{
			Connected: m.spotifyConnected(),
			Available: true,
		},
		YouTubeMusic: ServiceStatus{
			Connected: m.youtubeConnected(),
			Available: m.youtubeAvailable(),
		},
		Active: m.ActiveService(),
	}
}

// Play plays music using the active service.
func (m *Manager) Play(ctx context.Context, query, contentType string) string {
	if m.spotifyConnected() {
		return m.spotify.Play(ctx, query, contentType)
	}
	if m.youtubeConnected() || m.youtubeAvailable() {
		result := m.youtube.Play(ctx, query)
		if result.Success {
			if result.Message != "" {
				return result.Message
			}
			return "Playing..."
		}
		if result.Error != "" {
			return result.Error
		}
		return "Couldn't play that"
	}
	return "No music service connected. Connect Spotify or YouTube Music first."
}

// Pause pauses playback.
func (m *Manager) Pause(ctx context.Context) string {
	if m.spotifyConnected() {
		return m.spotify.Pause(ctx)
	}
	return "Pause not available for YouTube Music (use your device)"
}

// Resume resumes playback.
func (m *Manager) Resume(ctx context.Context) string {
	if m.spotifyConnected() {
		return m.spotify.Resume(ctx)
	}
	return "Resume not available for YouTube Music (use your device)"
}

// Skip skips to the next track.
func (m *Manager) Skip(ctx context.Context) string {
	if m.spotifyConnected() {
		return m.spotify.Skip(ctx)
	}
	return "Skip not available for YouTube Music (use your device)"
}

// Previous goes back to the previous track.
func (m *Manager) Previous(ctx context.Context) string {
	if m.spotifyConnected() {
		return m.spotify.Previous(ctx)
	}
	return "Previous not available for YouTube Music (use your device)"
}

// SetVolume sets the playback volume.
func (m *Manager) SetVolume(ctx context.Context, volume int) string {
	if m.spotifyConnected() {
		return m.spotify.SetVolume(ctx, volume)
	}
	return "Volume control not available for YouTube Music"
}

// NowPlaying returns the current playback snapshot, or nil when no
// service reports one.
func (m *Manager) NowPlaying(ctx context.Context) *NowPlaying {
	if m.spotifyConnected() {
		data := m.spotify.NowPlaying(ctx)
		if data != nil {
			data.Source = "spotify"
		}
		return data
	}
	if m.youtubeConnected() {
		return m.youtube.NowPlaying(ctx)
	}
	return nil
}

// Search looks up music and describes the best hit.
func (m *Manager) Search(ctx context.Context, query string) string {
	if m.youtubeAvailable() {
		info := m.youtube.SongInfo(ctx, query)
		if info != nil {
			return fmt.Sprintf("Found '%s' by %s", info.Title, info.Artist)
		}
	}
	return fmt.Sprintf("Couldn't find: %s", query)
}

func (m *Manager) spotifyConnected() bool {
	return m.spotify != nil && m.spotify.IsAuthenticated()
}

func (m *Manager) youtubeConnected() bool {
	return m.youtube != nil && m.youtube.IsAuthenticated()
}

func (m *Manager) youtubeAvailable() bool {
	return m.youtube != nil && m.youtube.IsAvailable()
}
