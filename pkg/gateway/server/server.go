// Package server assembles the gateway: routes, middleware chain and
// CORS policy.
package server

import (
	"log/slog"
	"net/http"

	"github.com/rs/cors"

	"github.com/neonpi/anton/internal/config"
	"github.com/neonpi/anton/pkg/gateway/handlers"
	"github.com/neonpi/anton/pkg/gateway/mw"
)

// Server owns the route table.
type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux
	h      *handlers.Handlers
}

// New builds the server around the endpoint dependencies.
func New(cfg config.Config, logger *slog.Logger, deps handlers.Deps) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Logger == nil {
		deps.Logger = logger
	}
	if deps.FrontendDir == "" {
		deps.FrontendDir = cfg.FrontendDir
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		mux:    http.NewServeMux(),
		h:      handlers.New(deps),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/status", s.h.Status)
	s.mux.HandleFunc("GET /api/spotify/auth", s.h.SpotifyAuth)
	s.mux.HandleFunc("GET /callback/spotify", s.h.SpotifyCallback)
	s.mux.HandleFunc("POST /api/wake/start", s.h.WakeStart)
	s.mux.HandleFunc("POST /api/wake/stop", s.h.WakeStop)
	s.mux.HandleFunc("POST /api/message", s.h.Message)
	s.mux.HandleFunc("POST /api/conversation/reset", s.h.Reset)
	s.mux.HandleFunc("GET /ws", s.h.WS)
	s.mux.HandleFunc("/", s.h.Index)
}

// Handler wraps the mux with the middleware chain. CORS sits outermost
// so even panics and 404s carry the headers browsers need.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: false,
	})
	return c.Handler(h)
}
