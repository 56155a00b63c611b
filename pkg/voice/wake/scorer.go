// Package wake listens for the wake word in the microphone stream and
// signals each detection.
package wake

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Scorer scores one PCM frame against the wake word models. Scores are
// keyed by model name in [0, 1].
type Scorer interface {
	Score(frame []int16) (map[string]float64, error)
	Close() error
}

const scorerHandshakeTimeout = 10 * time.Second

// WSScorer bridges to an openWakeWord scoring server: binary PCM16LE
// frames out, JSON activation maps back.
type WSScorer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// DialScorer connects to the scoring server at url (ws:// or wss://).
func DialScorer(ctx context.Context, url string) (*WSScorer, error) {
	dialer := websocket.Dialer{HandshakeTimeout: scorerHandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("wake: dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("wake: dial %s: %w", url, err)
	}
	return &WSScorer{conn: conn}, nil
}

type activationFrame struct {
	Activations map[string]float64 `json:"activations"`
}

// Score sends one frame and reads the activation map for it. Calls are
// serialized; the server answers in order.
func (s *WSScorer) Score(frame []int16) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(frame)*2)
	for i, v := range frame {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, buf); err != nil {
		return nil, fmt.Errorf("wake: send frame: %w", err)
	}

	var out activationFrame
	if err := s.conn.ReadJSON(&out); err != nil {
		return nil, fmt.Errorf("wake: read activations: %w", err)
	}
	return out.Activations, nil
}

// Close shuts the connection down.
func (s *WSScorer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}
