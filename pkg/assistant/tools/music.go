package tools

import (
	"context"
	"fmt"

	"github.com/neonpi/anton/pkg/core/types"
	"github.com/neonpi/anton/pkg/music"
)

// MusicService is the slice of the music manager the executors use.
type MusicService interface {
	Play(ctx context.Context, query, contentType string) string
	Pause(ctx context.Context) string
	Resume(ctx context.Context) string
	Skip(ctx context.Context) string
	Previous(ctx context.Context) string
	SetVolume(ctx context.Context, volume int) string
	NowPlaying(ctx context.Context) *music.NowPlaying
	Search(ctx context.Context, query string) string
}

// MusicExecutors returns the playback control tools bound to svc.
func MusicExecutors(svc MusicService) []Executor {
	return []Executor{
		playExecutor{svc},
		pauseExecutor{svc},
		resumeExecutor{svc},
		skipExecutor{svc},
		previousExecutor{svc},
		volumeExecutor{svc},
		nowPlayingExecutor{svc},
		searchExecutor{svc},
	}
}

type playExecutor struct{ svc MusicService }

func (playExecutor) Name() string { return "spotify_play" }

func (playExecutor) Definition() types.Tool {
	return types.NewTool("spotify_play",
		"Play music. Can play a specific song, artist, album, or playlist.",
		&types.JSONSchema{
			Type: "object",
			Properties: map[string]types.JSONSchema{
				"query": {Type: "string", Description: "What to play - song name, artist, album, or playlist name"},
				"type":  {Type: "string", Description: "Type of content: track, artist, album, playlist"},
			},
			Required: []string{"query"},
		})
}

func (e playExecutor) Execute(ctx context.Context, args map[string]any) string {
	query := stringArg(args, "query", "")
	contentType := stringArg(args, "type", "track")
	return e.svc.Play(ctx, query, contentType)
}

type pauseExecutor struct{ svc MusicService }

func (pauseExecutor) Name() string { return "spotify_pause" }

func (pauseExecutor) Definition() types.Tool {
	return types.NewTool("spotify_pause", "Pause the currently playing music", nil)
}

func (e pauseExecutor) Execute(ctx context.Context, _ map[string]any) string {
	return e.svc.Pause(ctx)
}

type resumeExecutor struct{ svc MusicService }

func (resumeExecutor) Name() string { return "spotify_resume" }

func (resumeExecutor) Definition() types.Tool {
	return types.NewTool("spotify_resume", "Resume music playback", nil)
}

func (e resumeExecutor) Execute(ctx context.Context, _ map[string]any) string {
	return e.svc.Resume(ctx)
}

type skipExecutor struct{ svc MusicService }

func (skipExecutor) Name() string { return "spotify_skip" }

func (skipExecutor) Definition() types.Tool {
	return types.NewTool("spotify_skip", "Skip to the next track", nil)
}

func (e skipExecutor) Execute(ctx context.Context, _ map[string]any) string {
	return e.svc.Skip(ctx)
}

type previousExecutor struct{ svc MusicService }

func (previousExecutor) Name() string { return "spotify_previous" }

func (previousExecutor) Definition() types.Tool {
	return types.NewTool("spotify_previous", "Go back to the previous track", nil)
}

func (e previousExecutor) Execute(ctx context.Context, _ map[string]any) string {
	return e.svc.Previous(ctx)
}

type volumeExecutor struct{ svc MusicService }

func (volumeExecutor) Name() string { return "spotify_volume" }

func (volumeExecutor) Definition() types.Tool {
	return types.NewTool("spotify_volume", "Set the music playback volume",
		&types.JSONSchema{
			Type: "object",
			Properties: map[string]types.JSONSchema{
				"volume": {Type: "integer", Description: "Volume level from 0 to 100"},
			},
			Required: []string{"volume"},
		})
}

func (e volumeExecutor) Execute(ctx context.Context, args map[string]any) string {
	return e.svc.SetVolume(ctx, intArg(args, "volume", 50))
}

type nowPlayingExecutor struct{ svc MusicService }

func (nowPlayingExecutor) Name() string { return "spotify_now_playing" }

func (nowPlayingExecutor) Definition() types.Tool {
	return types.NewTool("spotify_now_playing", "Get information about the currently playing track", nil)
}

func (e nowPlayingExecutor) Execute(ctx context.Context, _ map[string]any) string {
	now := e.svc.NowPlaying(ctx)
	if now == nil {
		return "Nothing is currently playing."
	}
	source := now.Source
	if source == "" {
		source = "music service"
	}
	if now.IsPodcast {
		return fmt.Sprintf("Currently playing podcast: %s from %s (on %s)", now.EpisodeName, now.ShowName, source)
	}
	return fmt.Sprintf("Currently playing: %s by %s (on %s)", now.TrackName, now.ArtistName, source)
}

type searchExecutor struct{ svc MusicService }

func (searchExecutor) Name() string { return "search_music" }

func (searchExecutor) Definition() types.Tool {
	return types.NewTool("search_music", "Search for a song",
		&types.JSONSchema{
			Type: "object",
			Properties: map[string]types.JSONSchema{
				"query": {Type: "string", Description: "Song or artist to look up"},
			},
			Required: []string{"query"},
		})
}

func (e searchExecutor) Execute(ctx context.Context, args map[string]any) string {
	return e.svc.Search(ctx, stringArg(args, "query", ""))
}
