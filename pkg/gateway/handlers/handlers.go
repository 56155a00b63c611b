// Package handlers implements the HTTP and WebSocket endpoints of the
// assistant gateway.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/neonpi/anton/pkg/gateway/hub"
	"github.com/neonpi/anton/pkg/gateway/session"
)

// Spotify is the slice of the Spotify client the gateway needs.
type Spotify interface {
	AuthURL() string
	Exchange(ctx context.Context, code string) error
	IsAuthenticated() bool
}

// WakeControl starts and stops wake word detection.
type WakeControl interface {
	Start(ctx context.Context) error
	Stop()
	Running() bool
}

// Conversation is the session surface the endpoints drive.
type Conversation interface {
	State() session.State
	Trigger(ctx context.Context)
	HandleText(ctx context.Context, message string) (string, error)
}

// Resetter clears conversation history.
type Resetter interface {
	Reset()
}

// Deps wires the endpoints to the rest of the system. Spotify, Wake
// and Resetter may be nil when the corresponding feature is not
// configured.
type Deps struct {
	Logger      *slog.Logger
	Hub         *hub.Hub
	Session     Conversation
	Spotify     Spotify
	Wake        WakeControl
	Resetter    Resetter
	FrontendDir string
}

// Handlers exposes one method per route.
type Handlers struct {
	deps Deps
}

// New builds the route handlers.
func New(deps Deps) *Handlers {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Handlers{deps: deps}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Index serves the bundled web UI, or a placeholder page when no
// frontend directory is present.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		index := filepath.Join(h.deps.FrontendDir, filepath.Clean(r.URL.Path))
		if info, err := os.Stat(index); err == nil && !info.IsDir() {
			http.ServeFile(w, r, index)
			return
		}
		http.NotFound(w, r)
		return
	}

	index := filepath.Join(h.deps.FrontendDir, "index.html")
	if _, err := os.Stat(index); err == nil {
		http.ServeFile(w, r, index)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Anton</title></head>
<body>
<h1>Anton is running</h1>
<p>No frontend build found. Connect to <code>/ws</code> or use the REST API.</p>
</body>
</html>
`))
}

// Status reports connection and session state booleans.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	state := h.deps.Session.State()
	writeJSON(w, http.StatusOK, map[string]any{
		"spotify_connected": h.deps.Spotify != nil && h.deps.Spotify.IsAuthenticated(),
		"wake_word_active":  h.deps.Wake != nil && h.deps.Wake.Running(),
		"is_listening":      state == session.StateListening,
		"is_processing":     state == session.StateProcessing || state == session.StateThinking,
		"is_speaking":       state == session.StateSpeaking,
	})
}

// SpotifyAuth returns the authorization URL to start the OAuth flow.
func (h *Handlers) SpotifyAuth(w http.ResponseWriter, r *http.Request) {
	if h.deps.Spotify == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "Spotify is not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"auth_url": h.deps.Spotify.AuthURL()})
}

const spotifySuccessPage = `<!DOCTYPE html>
<html>
<head><title>Spotify Connected</title></head>
<body>
<h1>Spotify Connected!</h1>
<p>You can close this window and go back to Anton.</p>
</body>
</html>
`

const spotifyFailurePage = `<!DOCTYPE html>
<html>
<head><title>Spotify Error</title></head>
<body>
<h1>Connection failed</h1>
<p>%s</p>
</body>
</html>
`

// SpotifyCallback completes the OAuth code exchange.
func (h *Handlers) SpotifyCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if h.deps.Spotify == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeHTMLf(w, spotifyFailurePage, "Spotify is not configured.")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		w.WriteHeader(http.StatusBadRequest)
		writeHTMLf(w, spotifyFailurePage, "Missing authorization code.")
		return
	}
	if err := h.deps.Spotify.Exchange(r.Context(), code); err != nil {
		h.deps.Logger.Error("spotify code exchange failed", "error", err)
		w.WriteHeader(http.StatusBadGateway)
		writeHTMLf(w, spotifyFailurePage, "Token exchange failed. Try again.")
		return
	}
	h.deps.Logger.Info("spotify connected")
	w.Write([]byte(spotifySuccessPage))
}

// WakeStart turns wake word detection on.
func (h *Handlers) WakeStart(w http.ResponseWriter, r *http.Request) {
	if h.deps.Wake == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "wake word detection is not configured")
		return
	}
	// The detector outlives this request.
	if err := h.deps.Wake.Start(context.WithoutCancel(r.Context())); err != nil {
		h.deps.Logger.Error("wake start failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// WakeStop turns wake word detection off.
func (h *Handlers) WakeStop(w http.ResponseWriter, r *http.Request) {
	if h.deps.Wake == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "wake word detection is not configured")
		return
	}
	h.deps.Wake.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// Message answers a typed message over REST.
func (h *Handlers) Message(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	reply, err := h.deps.Session.HandleText(r.Context(), body.Message)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}

// Reset clears the conversation.
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	if h.deps.Resetter != nil {
		h.deps.Resetter.Reset()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func writeHTMLf(w http.ResponseWriter, page, detail string) {
	// page carries exactly one %s verb.
	fmt.Fprintf(w, page, detail)
}
