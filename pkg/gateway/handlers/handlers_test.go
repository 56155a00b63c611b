package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/neonpi/anton/pkg/gateway/hub"
	"github.com/neonpi/anton/pkg/gateway/session"
)

type fakeSpotify struct {
	authURL       string
	authenticated bool
	exchangeErr   error
	exchangedCode string
}

func (s *fakeSpotify) AuthURL() string       { return s.authURL }
func (s *fakeSpotify) IsAuthenticated() bool { return s.authenticated }

func (s *fakeSpotify) Exchange(_ context.Context, code string) error {
	s.exchangedCode = code
	return s.exchangeErr
}

type fakeWake struct {
	running  bool
	startErr error
}

func (w *fakeWake) Start(context.Context) error {
	if w.startErr != nil {
		return w.startErr
	}
	w.running = true
	return nil
}

func (w *fakeWake) Stop()         { w.running = false }
func (w *fakeWake) Running() bool { return w.running }

type fakeConversation struct {
	state     session.State
	reply     string
	replyErr  error
	mu        sync.Mutex
	triggered int
}

func (c *fakeConversation) State() session.State { return c.state }

func (c *fakeConversation) Trigger(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.triggered++
}

func (c *fakeConversation) HandleText(_ context.Context, message string) (string, error) {
	if c.replyErr != nil {
		return "", c.replyErr
	}
	return c.reply, nil
}

type fakeResetter struct{ calls int }

func (r *fakeResetter) Reset() { r.calls++ }

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestStatus(t *testing.T) {
	h := New(Deps{
		Session: &fakeConversation{state: session.StateThinking},
		Spotify: &fakeSpotify{authenticated: true},
		Wake:    &fakeWake{running: true},
	})

	rr := httptest.NewRecorder()
	h.Status(rr, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	got := decodeBody(t, rr)
	if got["spotify_connected"] != true || got["wake_word_active"] != true {
		t.Errorf("body = %v", got)
	}
	if got["is_processing"] != true || got["is_listening"] != false || got["is_speaking"] != false {
		t.Errorf("state booleans = %v", got)
	}
}

func TestStatus_NilOptionalDeps(t *testing.T) {
	h := New(Deps{Session: &fakeConversation{state: session.StateIdle}})

	rr := httptest.NewRecorder()
	h.Status(rr, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	got := decodeBody(t, rr)
	if got["spotify_connected"] != false || got["wake_word_active"] != false {
		t.Errorf("body = %v", got)
	}
}

func TestSpotifyAuth(t *testing.T) {
	h := New(Deps{Spotify: &fakeSpotify{authURL: "https://accounts.spotify.com/authorize?x=1"}})

	rr := httptest.NewRecorder()
	h.SpotifyAuth(rr, httptest.NewRequest(http.MethodGet, "/api/spotify/auth", nil))

	got := decodeBody(t, rr)
	if got["auth_url"] != "https://accounts.spotify.com/authorize?x=1" {
		t.Errorf("body = %v", got)
	}
}

func TestSpotifyCallback(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		spotify    *fakeSpotify
		wantStatus int
		wantBody   string
	}{
		{
			name:       "success",
			url:        "/callback/spotify?code=abc123",
			spotify:    &fakeSpotify{},
			wantStatus: http.StatusOK,
			wantBody:   "Spotify Connected!",
		},
		{
			name:       "missing code",
			url:        "/callback/spotify",
			spotify:    &fakeSpotify{},
			wantStatus: http.StatusBadRequest,
			wantBody:   "Missing authorization code",
		},
		{
			name:       "exchange failure",
			url:        "/callback/spotify?code=abc123",
			spotify:    &fakeSpotify{exchangeErr: errors.New("bad code")},
			wantStatus: http.StatusBadGateway,
			wantBody:   "Token exchange failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(Deps{Spotify: tt.spotify})
			rr := httptest.NewRecorder()
			h.SpotifyCallback(rr, httptest.NewRequest(http.MethodGet, tt.url, nil))

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if !strings.Contains(rr.Body.String(), tt.wantBody) {
				t.Errorf("body = %q", rr.Body.String())
			}
			if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("content type = %q", ct)
			}
		})
	}
}

func TestSpotifyCallback_PassesCode(t *testing.T) {
	sp := &fakeSpotify{}
	h := New(Deps{Spotify: sp})
	h.SpotifyCallback(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/callback/spotify?code=the-code", nil))
	if sp.exchangedCode != "the-code" {
		t.Errorf("exchanged code = %q", sp.exchangedCode)
	}
}

func TestWakeStartStop(t *testing.T) {
	wake := &fakeWake{}
	h := New(Deps{Wake: wake})

	rr := httptest.NewRecorder()
	h.WakeStart(rr, httptest.NewRequest(http.MethodPost, "/api/wake/start", nil))
	if got := decodeBody(t, rr); got["status"] != "started" {
		t.Errorf("body = %v", got)
	}
	if !wake.running {
		t.Error("detector not started")
	}

	rr = httptest.NewRecorder()
	h.WakeStop(rr, httptest.NewRequest(http.MethodPost, "/api/wake/stop", nil))
	if got := decodeBody(t, rr); got["status"] != "stopped" {
		t.Errorf("body = %v", got)
	}
	if wake.running {
		t.Error("detector not stopped")
	}
}

func TestWakeStart_Errors(t *testing.T) {
	h := New(Deps{Wake: &fakeWake{startErr: errors.New("no microphone")}})
	rr := httptest.NewRecorder()
	h.WakeStart(rr, httptest.NewRequest(http.MethodPost, "/api/wake/start", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rr.Code)
	}

	h = New(Deps{})
	rr = httptest.NewRecorder()
	h.WakeStart(rr, httptest.NewRequest(http.MethodPost, "/api/wake/start", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status without detector = %d", rr.Code)
	}
}

func TestMessage(t *testing.T) {
	h := New(Deps{Session: &fakeConversation{reply: "The weather is sunny."}})

	body := strings.NewReader(`{"message":"what's the weather"}`)
	rr := httptest.NewRecorder()
	h.Message(rr, httptest.NewRequest(http.MethodPost, "/api/message", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := decodeBody(t, rr); got["response"] != "The weather is sunny." {
		t.Errorf("body = %v", got)
	}
}

func TestMessage_BadRequests(t *testing.T) {
	h := New(Deps{Session: &fakeConversation{replyErr: errors.New("session: empty message")}})

	rr := httptest.NewRecorder()
	h.Message(rr, httptest.NewRequest(http.MethodPost, "/api/message", strings.NewReader("not json")))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid json status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Message(rr, httptest.NewRequest(http.MethodPost, "/api/message", strings.NewReader(`{"message":""}`)))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("empty message status = %d", rr.Code)
	}
}

func TestReset(t *testing.T) {
	resetter := &fakeResetter{}
	h := New(Deps{Resetter: resetter})

	rr := httptest.NewRecorder()
	h.Reset(rr, httptest.NewRequest(http.MethodPost, "/api/conversation/reset", nil))

	if got := decodeBody(t, rr); got["status"] != "reset" {
		t.Errorf("body = %v", got)
	}
	if resetter.calls != 1 {
		t.Errorf("reset called %d times", resetter.calls)
	}
}

func TestIndex_FallbackPage(t *testing.T) {
	h := New(Deps{FrontendDir: filepath.Join(t.TempDir(), "missing")})

	rr := httptest.NewRecorder()
	h.Index(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Anton is running") {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestIndex_ServesFrontend(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>the app</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := New(Deps{FrontendDir: dir})

	rr := httptest.NewRecorder()
	h.Index(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(rr.Body.String(), "the app") {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestIndex_UnknownPathIs404(t *testing.T) {
	h := New(Deps{FrontendDir: t.TempDir(), Logger: slog.Default(), Hub: hub.New(nil)})

	rr := httptest.NewRecorder()
	h.Index(rr, httptest.NewRequest(http.MethodGet, "/nope.js", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d", rr.Code)
	}
}
