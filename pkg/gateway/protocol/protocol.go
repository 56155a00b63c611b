// Package protocol defines the JSON messages exchanged over the
// realtime WebSocket: typed server events going out and the small set
// of client messages coming in.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Server event types.
const (
	EventConnected   = "connected"
	EventStateUpdate = "state_update"
	EventTranscript  = "transcript"
	EventResponse    = "response"
	EventAudio       = "audio"
	EventSpotify     = "spotify"
	EventError       = "error"
	EventPong        = "pong"
)

// Connected greets a client right after the upgrade.
type Connected struct {
	Type                 string `json:"type"`
	SpotifyAuthenticated bool   `json:"spotify_authenticated"`
}

// NewConnected builds the greeting event.
func NewConnected(spotifyAuthenticated bool) Connected {
	return Connected{Type: EventConnected, SpotifyAuthenticated: spotifyAuthenticated}
}

// StateUpdate announces a session state transition. Data carries
// state-specific extras, like the audio level while listening.
type StateUpdate struct {
	Type  string         `json:"type"`
	State string         `json:"state"`
	Data  map[string]any `json:"data,omitempty"`
}

// NewStateUpdate builds a transition event.
func NewStateUpdate(state string, data map[string]any) StateUpdate {
	return StateUpdate{Type: EventStateUpdate, State: state, Data: data}
}

// Transcript carries recognized speech.
type Transcript struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

// NewTranscript builds a transcript event.
func NewTranscript(text string, isFinal bool) Transcript {
	return Transcript{Type: EventTranscript, Text: text, IsFinal: isFinal}
}

// Response carries the assistant's reply text.
type Response struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewResponse builds a response event.
func NewResponse(text string) Response {
	return Response{Type: EventResponse, Text: text}
}

// Audio carries hex-encoded MP3 speech.
type Audio struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// NewAudio builds an audio event.
func NewAudio(hexData string) Audio {
	return Audio{Type: EventAudio, Data: hexData}
}

// Spotify carries a now-playing snapshot.
type Spotify struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// NewSpotify builds a now-playing event.
func NewSpotify(data any) Spotify {
	return Spotify{Type: EventSpotify, Data: data}
}

// ErrorEvent reports a pipeline failure to clients.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewError builds an error event.
func NewError(message string) ErrorEvent {
	return ErrorEvent{Type: EventError, Message: message}
}

// Pong answers a client ping.
type Pong struct {
	Type string `json:"type"`
}

// NewPong builds a pong event.
func NewPong() Pong {
	return Pong{Type: EventPong}
}

// Client messages.

// ClientPing is a liveness probe from the browser.
type ClientPing struct {
	Type string `json:"type"`
}

// ClientStartListening asks the session to start a voice turn, the
// push-to-talk equivalent of the wake word.
type ClientStartListening struct {
	Type string `json:"type"`
}

// ErrUnknownType marks client message types the server does not
// handle. Callers ignore these frames.
type ErrUnknownType struct {
	Type string
}

func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown message type %q", e.Type)
}

// DecodeClientMessage parses one inbound frame by its type field.
func DecodeClientMessage(data []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("invalid json frame: %w", err)
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, fmt.Errorf("missing type")
	}

	switch typ {
	case "ping":
		return ClientPing{Type: typ}, nil
	case "start_listening":
		return ClientStartListening{Type: typ}, nil
	default:
		return nil, &ErrUnknownType{Type: typ}
	}
}
