// Package tts turns assistant replies into speech via ElevenLabs.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	elevenLabsDefaultBase = "https://api.elevenlabs.io"
	elevenLabsModel       = "eleven_turbo_v2"
	synthesizeTimeout     = 30 * time.Second
)

// VoiceSettings tune the ElevenLabs voice.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// DefaultVoiceSettings matches the voice tuning the assistant ships
// with.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.5,
		SimilarityBoost: 0.75,
		Style:           0.0,
		UseSpeakerBoost: true,
	}
}

// Engine synthesizes MP3 audio from text.
type Engine struct {
	apiKey     string
	voice      string
	settings   VoiceSettings
	baseURL    string
	httpClient *http.Client
}

// Option configures an Engine.
type Option func(*Engine)

// WithBaseURL overrides the API endpoint, for tests.
func WithBaseURL(base string) Option {
	return func(e *Engine) { e.baseURL = base }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) { e.httpClient = client }
}

// WithVoiceSettings overrides the default voice tuning.
func WithVoiceSettings(vs VoiceSettings) Option {
	return func(e *Engine) { e.settings = vs }
}

// New builds a synthesis engine for the given voice.
func New(apiKey, voice string, opts ...Option) *Engine {
	e := &Engine{
		apiKey:     strings.TrimSpace(apiKey),
		voice:      voice,
		settings:   DefaultVoiceSettings(),
		baseURL:    elevenLabsDefaultBase,
		httpClient: &http.Client{Timeout: synthesizeTimeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type synthesizeRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// Synthesize converts text to MP3 bytes.
func (e *Engine) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if e.apiKey == "" {
		return nil, errors.New("tts: api key not configured")
	}

	payload, err := json.Marshal(synthesizeRequest{
		Text:          text,
		ModelID:       elevenLabsModel,
		VoiceSettings: e.settings,
	})
	if err != nil {
		return nil, fmt.Errorf("tts: encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s/stream", e.baseURL, e.voice)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("tts: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts: synthesize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts: synthesize: HTTP %d: %s", resp.StatusCode, snippet)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts: read audio: %w", err)
	}
	return audio, nil
}
