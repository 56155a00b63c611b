// Package session owns the assistant's turn-taking state machine: one
// voice or text turn at a time, every transition broadcast to clients.
package session

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/neonpi/anton/pkg/gateway/protocol"
	"github.com/neonpi/anton/pkg/music"
	"github.com/neonpi/anton/pkg/voice/stt"
)

// State names one phase of a turn. Exactly one state holds at a time.
type State string

const (
	StateIdle       State = "idle"
	StateListening  State = "listening"
	StateProcessing State = "processing"
	StateThinking   State = "thinking"
	StateSpeaking   State = "speaking"
)

const defaultPollInterval = 2 * time.Second

// Broadcaster fans events out to connected clients.
type Broadcaster interface {
	Broadcast(event any)
}

// Recorder captures one utterance as PCM.
type Recorder interface {
	Record(ctx context.Context) ([]int16, error)
}

// Transcriber turns PCM into text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []int16) (string, error)
}

// Responder answers one user turn. It never fails; failures come back
// as speakable apologies.
type Responder interface {
	Respond(ctx context.Context, text string) string
}

// Synthesizer turns reply text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// MusicSource exposes the playback state the poller broadcasts.
type MusicSource interface {
	Status() music.Status
	NowPlaying(ctx context.Context) *music.NowPlaying
}

// Dependencies carries everything a session needs. Logger and Music
// are optional; the rest are required.
type Dependencies struct {
	Logger      *slog.Logger
	Broadcaster Broadcaster
	Recorder    Recorder
	Transcriber Transcriber
	Responder   Responder
	Synthesizer Synthesizer
	Music       MusicSource
}

// Config tunes session behavior.
type Config struct {
	// PollInterval between now-playing broadcasts. Zero selects the
	// default of 2 s.
	PollInterval time.Duration
}

// Session runs voice and text turns. A turn in flight blocks new
// triggers; the state enum makes overlapping phases unrepresentable.
type Session struct {
	logger       *slog.Logger
	deps         Dependencies
	pollInterval time.Duration

	mu    sync.Mutex
	state State
}

// New validates deps and builds an idle session.
func New(deps Dependencies, cfg Config) (*Session, error) {
	if deps.Broadcaster == nil {
		return nil, errors.New("session: broadcaster is required")
	}
	if deps.Recorder == nil {
		return nil, errors.New("session: recorder is required")
	}
	if deps.Transcriber == nil {
		return nil, errors.New("session: transcriber is required")
	}
	if deps.Responder == nil {
		return nil, errors.New("session: responder is required")
	}
	if deps.Synthesizer == nil {
		return nil, errors.New("session: synthesizer is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Session{
		logger:       deps.Logger,
		deps:         deps,
		pollInterval: interval,
		state:        StateIdle,
	}, nil
}

// State reports the current phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// claim atomically moves from one state to the next and broadcasts the
// transition. It reports false without side effects when the session
// is not in from.
func (s *Session) claim(from, to State) bool {
	s.mu.Lock()
	if s.state != from {
		s.mu.Unlock()
		return false
	}
	s.state = to
	s.mu.Unlock()
	s.deps.Broadcaster.Broadcast(protocol.NewStateUpdate(string(to), nil))
	return true
}

// setState transitions unconditionally and broadcasts.
func (s *Session) setState(to State) {
	s.mu.Lock()
	s.state = to
	s.mu.Unlock()
	s.deps.Broadcaster.Broadcast(protocol.NewStateUpdate(string(to), nil))
}

// fail reports a pipeline error to clients and the log.
func (s *Session) fail(msg string, err error) {
	s.logger.Error(msg, "error", err)
	s.deps.Broadcaster.Broadcast(protocol.NewError(fmt.Sprintf("%s: %v", msg, err)))
}

// Trigger runs one voice turn: record, transcribe, answer, speak. A
// trigger while a turn is in flight is ignored.
func (s *Session) Trigger(ctx context.Context) {
	if !s.claim(StateIdle, StateListening) {
		s.logger.Debug("trigger ignored, turn in flight", "state", s.State())
		return
	}
	defer s.setState(StateIdle)

	pcm, err := s.deps.Recorder.Record(ctx)
	if err != nil {
		if errors.Is(err, stt.ErrNoSpeech) {
			s.logger.Debug("no speech captured")
			return
		}
		s.fail("recording failed", err)
		return
	}

	s.setState(StateProcessing)

	text, err := s.deps.Transcriber.Transcribe(ctx, pcm)
	if err != nil {
		s.fail("transcription failed", err)
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		s.logger.Debug("empty transcript, back to idle")
		return
	}
	s.deps.Broadcaster.Broadcast(protocol.NewTranscript(text, true))

	s.setState(StateThinking)
	reply := s.deps.Responder.Respond(ctx, text)
	s.deps.Broadcaster.Broadcast(protocol.NewResponse(reply))

	s.setState(StateSpeaking)
	audio, err := s.deps.Synthesizer.Synthesize(ctx, reply)
	if err != nil {
		s.fail("speech synthesis failed", err)
		return
	}
	s.deps.Broadcaster.Broadcast(protocol.NewAudio(hex.EncodeToString(audio)))
}

// HandleText answers a typed message. When the session is idle the
// thinking state is broadcast around the turn; a busy session still
// answers but leaves the voice turn's state alone.
func (s *Session) HandleText(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("session: empty message")
	}

	if s.claim(StateIdle, StateThinking) {
		defer s.setState(StateIdle)
	}

	reply := s.deps.Responder.Respond(ctx, message)
	s.deps.Broadcaster.Broadcast(protocol.NewResponse(reply))
	return reply, nil
}

// RunNowPlayingPoller broadcasts playback snapshots until the context
// ends. Poll failures are skipped; the next tick retries.
func (s *Session) RunNowPlayingPoller(ctx context.Context) {
	if s.deps.Music == nil {
		return
	}
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollNowPlaying(ctx)
		}
	}
}

func (s *Session) pollNowPlaying(ctx context.Context) {
	if !s.deps.Music.Status().Spotify.Connected {
		return
	}
	now := s.deps.Music.NowPlaying(ctx)
	if now == nil {
		return
	}
	s.deps.Broadcaster.Broadcast(protocol.NewSpotify(now))
}
