package music

import (
	"context"
	"testing"
)

// fakeSpotify is a scriptable SpotifyService.
type fakeSpotify struct {
	authed     bool
	playResult string
	nowPlaying *NowPlaying
	lastQuery  string
	lastType   string
	lastVolume int
}

func (f *fakeSpotify) IsAuthenticated() bool { return f.authed }

func (f *fakeSpotify) Play(ctx context.Context, query, contentType string) string {
	f.lastQuery = query
	f.lastType = contentType
	return f.playResult
}

func (f *fakeSpotify) Pause(ctx context.Context) string  { return "Paused" }
func (f *fakeSpotify) Resume(ctx context.Context) string { return "Resumed" }
func (f *fakeSpotify) Skip(ctx context.Context) string   { return "Skipped to: Next Song" }
func (f *fakeSpotify) Previous(ctx context.Context) string {
	return "Playing previous track"
}

func (f *fakeSpotify) SetVolume(ctx context.Context, volume int) string {
	f.lastVolume = volume
	return "Volume set to 30%"
}

func (f *fakeSpotify) NowPlaying(ctx context.Context) *NowPlaying { return f.nowPlaying }

// fakeYouTube is a scriptable YouTubeService.
type fakeYouTube struct {
	available  bool
	authed     bool
	playResult PlayResult
	songInfo   *SongInfo
	nowPlaying *NowPlaying
}

func (f *fakeYouTube) IsAvailable() bool     { return f.available }
func (f *fakeYouTube) IsAuthenticated() bool { return f.authed }

func (f *fakeYouTube) Play(ctx context.Context, query string) PlayResult {
	return f.playResult
}

func (f *fakeYouTube) SongInfo(ctx context.Context, query string) *SongInfo {
	return f.songInfo
}

func (f *fakeYouTube) NowPlaying(ctx context.Context) *NowPlaying { return f.nowPlaying }

func TestManager_ActiveService(t *testing.T) {
	tests := []struct {
		name    string
		spotify *fakeSpotify
		youtube *fakeYouTube
		want    string
	}{
		{
			name:    "spotify wins when connected",
			spotify: &fakeSpotify{authed: true},
			youtube: &fakeYouTube{available: true, authed: true},
			want:    "spotify",
		},
		{
			name:    "youtube when spotify not connected",
			spotify: &fakeSpotify{},
			youtube: &fakeYouTube{available: true, authed: true},
			want:    "youtube_music",
		},
		{
			name:    "none when nothing connected",
			spotify: &fakeSpotify{},
			youtube: &fakeYouTube{},
			want:    "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(tt.spotify, tt.youtube)
			if got := m.ActiveService(); got != tt.want {
				t.Errorf("ActiveService() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestManager_Play_PrefersSpotify(t *testing.T) {
	sp := &fakeSpotify{authed: true, playResult: "Now playing: So What"}
	yt := &fakeYouTube{available: true}
	m := NewManager(sp, yt)

	got := m.Play(context.Background(), "so what", "track")
	if got != "Now playing: So What" {
		t.Errorf("Play() = %q", got)
	}
	if sp.lastQuery != "so what" || sp.lastType != "track" {
		t.Errorf("spotify received query=%q type=%q", sp.lastQuery, sp.lastType)
	}
}

func TestManager_Play_FallsBackToYouTube(t *testing.T) {
	sp := &fakeSpotify{authed: false}
	yt := &fakeYouTube{
		available:  true,
		playResult: PlayResult{Success: true, Message: "Found: So What by Miles Davis"},
	}
	m := NewManager(sp, yt)

	got := m.Play(context.Background(), "so what", "track")
	if got != "Found: So What by Miles Davis" {
		t.Errorf("Play() = %q", got)
	}
}

func TestManager_Play_YouTubeError(t *testing.T) {
	yt := &fakeYouTube{
		available:  true,
		playResult: PlayResult{Error: "Couldn't find: xyzzy"},
	}
	m := NewManager(&fakeSpotify{}, yt)

	got := m.Play(context.Background(), "xyzzy", "track")
	if got != "Couldn't find: xyzzy" {
		t.Errorf("Play() = %q", got)
	}
}

func TestManager_Play_NoService(t *testing.T) {
	m := NewManager(&fakeSpotify{}, &fakeYouTube{})

	got := m.Play(context.Background(), "anything", "track")
	want := "No music service connected. Connect Spotify or YouTube Music first."
	if got != want {
		t.Errorf("Play() = %q, want %q", got, want)
	}
}

func TestManager_Play_NilServices(t *testing.T) {
	m := NewManager(nil, nil)

	got := m.Play(context.Background(), "anything", "track")
	want := "No music service connected. Connect Spotify or YouTube Music first."
	if got != want {
		t.Errorf("Play() = %q, want %q", got, want)
	}
}

func TestManager_ControlsRequireSpotify(t *testing.T) {
	m := NewManager(&fakeSpotify{}, &fakeYouTube{available: true, authed: true})
	ctx := context.Background()

	if got := m.Pause(ctx); got != "Pause not available for YouTube Music (use your device)" {
		t.Errorf("Pause() = %q", got)
	}
	if got := m.Resume(ctx); got != "Resume not available for YouTube Music (use your device)" {
		t.Errorf("Resume() = %q", got)
	}
	if got := m.Skip(ctx); got != "Skip not available for YouTube Music (use your device)" {
		t.Errorf("Skip() = %q", got)
	}
	if got := m.Previous(ctx); got != "Previous not available for YouTube Music (use your device)" {
		t.Errorf("Previous() = %q", got)
	}
	if got := m.SetVolume(ctx, 50); got != "Volume control not available for YouTube Music" {
		t.Errorf("SetVolume() = %q", got)
	}
}

func TestManager_NowPlaying_TagsSpotifySource(t *testing.T) {
	sp := &fakeSpotify{
		authed:     true,
		nowPlaying: &NowPlaying{IsPlaying: true, TrackName: "So What", ArtistName: "Miles Davis"},
	}
	m := NewManager(sp, nil)

	np := m.NowPlaying(context.Background())
	if np == nil {
		t.Fatal("expected a snapshot")
	}
	if np.Source != "spotify" {
		t.Errorf("Source = %q, want spotify", np.Source)
	}
}

func TestManager_NowPlaying_None(t *testing.T) {
	m := NewManager(&fakeSpotify{}, &fakeYouTube{})
	if np := m.NowPlaying(context.Background()); np != nil {
		t.Errorf("expected nil snapshot, got %+v", np)
	}
}

func TestManager_Search(t *testing.T) {
	yt := &fakeYouTube{
		available: true,
		songInfo:  &SongInfo{Title: "So What", Artist: "Miles Davis"},
	}
	m := NewManager(&fakeSpotify{}, yt)

	got := m.Search(context.Background(), "so what")
	if got != "Found 'So What' by Miles Davis" {
		t.Errorf("Search() = %q", got)
	}
}

func TestManager_Search_NotFound(t *testing.T) {
	m := NewManager(&fakeSpotify{}, &fakeYouTube{available: true})

	got := m.Search(context.Background(), "xyzzy")
	if got != "Couldn't find: xyzzy" {
		t.Errorf("Search() = %q", got)
	}
}
