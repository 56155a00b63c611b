package stt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/neonpi/anton/pkg/voice/audio"
)

const whisperTimeout = 30 * time.Second

// Engine transcribes PCM utterances via a whisper-server inference
// endpoint.
type Engine struct {
	url        string
	httpClient *http.Client
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) EngineOption {
	return func(e *Engine) { e.httpClient = client }
}

// NewEngine builds a transcription client for the given inference URL.
func NewEngine(url string, opts ...EngineOption) *Engine {
	e := &Engine{
		url:        url,
		httpClient: &http.Client{Timeout: whisperTimeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Transcribe uploads the utterance as a WAV file and returns the text.
func (e *Engine) Transcribe(ctx context.Context, samples []int16) (string, error) {
	var body bytes.Buffer
	mp := multipart.NewWriter(&body)
	part, err := mp.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("stt: build form: %w", err)
	}
	if _, err := part.Write(wavBytes(samples)); err != nil {
		return "", fmt.Errorf("stt: write wav: %w", err)
	}
	if err := mp.Close(); err != nil {
		return "", fmt.Errorf("stt: finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, &body)
	if err != nil {
		return "", fmt.Errorf("stt: build request: %w", err)
	}
	req.Header.Set("Content-Type", mp.FormDataContentType())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("stt: transcribe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("stt: transcribe: HTTP %d: %s", resp.StatusCode, snippet)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("stt: decode response: %w", err)
	}
	return out.Text, nil
}

// wavBytes wraps samples in a minimal 16-bit mono RIFF header at the
// capture sample rate.
func wavBytes(samples []int16) []byte {
	dataLen := len(samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataLen))

	le := binary.LittleEndian
	buf.WriteString("RIFF")
	binary.Write(buf, le, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, le, uint32(16))
	binary.Write(buf, le, uint16(1)) // PCM
	binary.Write(buf, le, uint16(1)) // mono
	binary.Write(buf, le, uint32(audio.SampleRate))
	binary.Write(buf, le, uint32(audio.SampleRate*2)) // byte rate
	binary.Write(buf, le, uint16(2))                  // block align
	binary.Write(buf, le, uint16(16))                 // bits per sample

	buf.WriteString("data")
	binary.Write(buf, le, uint32(dataLen))
	binary.Write(buf, le, samples)

	return buf.Bytes()
}
