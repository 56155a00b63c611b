package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/neonpi/anton/pkg/gateway/protocol"
)

var upgrader = websocket.Upgrader{
	// CORS policy is enforced by the middleware chain; the browser UI
	// may be served from a different origin during development.
	CheckOrigin: func(*http.Request) bool { return true },
}

// WS upgrades the connection, registers it with the hub and serves the
// client message loop until the peer disconnects.
func (h *Handlers) WS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.deps.Logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := h.deps.Hub.Register(conn)
	defer h.deps.Hub.Unregister(client)

	client.Send(protocol.NewConnected(h.deps.Spotify != nil && h.deps.Spotify.IsAuthenticated()))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := protocol.DecodeClientMessage(data)
		if err != nil {
			var unknown *protocol.ErrUnknownType
			if errors.As(err, &unknown) {
				h.deps.Logger.Debug("ignoring client message", "type", unknown.Type)
			} else {
				h.deps.Logger.Debug("bad client frame", "error", err)
			}
			continue
		}

		switch msg.(type) {
		case protocol.ClientPing:
			client.Send(protocol.NewPong())
		case protocol.ClientStartListening:
			// The voice turn must survive this client disconnecting.
			go h.deps.Session.Trigger(context.WithoutCancel(r.Context()))
		}
	}
}
