// Package music unifies playback control across streaming services.
// Spotify is preferred when connected, with YouTube Music as the
// fallback for search and lookup.
package music

// NowPlaying is a snapshot of current playback, shared by all services.
type NowPlaying struct {
	IsPlaying  bool `json:"is_playing"`
	ProgressMS int  `json:"progress_ms"`
	DurationMS int  `json:"duration_ms"`
	IsPodcast  bool `json:"is_podcast"`

	// Track fields
	TrackName  string `json:"track_name,omitempty"`
	ArtistName string `json:"artist_name,omitempty"`
	AlbumName  string `json:"album_name,omitempty"`

	// Podcast fields
	EpisodeName string `json:"episode_name,omitempty"`
	ShowName    string `json:"show_name,omitempty"`
	Description string `json:"description,omitempty"`

	ImageURL string `json:"image_url,omitempty"`
	Source   string `json:"source,omitempty"` // "spotify" or "youtube_music"
}

// PlayResult describes the outcome of a YouTube Music play request.
// YouTube Music has no remote playback API, so the frontend receives
// the video reference and plays it itself.
type PlayResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
	VideoID    string `json:"video_id,omitempty"`
	Title      string `json:"title,omitempty"`
	Artist     string `json:"artist,omitempty"`
	Thumbnail  string `json:"thumbnail,omitempty"`
	YouTubeURL string `json:"youtube_url,omitempty"`
}

// SongInfo describes a single search hit on YouTube Music.
type SongInfo struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Album     string `json:"album,omitempty"`
	VideoID   string `json:"video_id,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Duration  string `json:"duration,omitempty"`
}
