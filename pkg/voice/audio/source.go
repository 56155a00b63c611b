// Package audio captures microphone input as 16 kHz mono PCM and
// frames it into fixed-size chunks for the wake word and speech
// pipelines.
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
)

// Capture format shared by every consumer.
const (
	SampleRate = 16000

	// ChunkSamples is the frame size the wake word model expects.
	ChunkSamples = 1280

	chunkBytes  = ChunkSamples * 2
	chunkBuffer = 64
)

// DefaultCaptureCommand reads raw signed 16-bit little-endian mono
// PCM from the default ALSA device.
var DefaultCaptureCommand = []string{
	"arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "raw", "-",
}

// Source produces framed PCM chunks. A source is single-use: Start it
// once, drain Chunks until it closes, then Close.
type Source interface {
	// Start begins capture. The chunk channel closes when the
	// underlying stream ends or the context is cancelled.
	Start(ctx context.Context) error
	// Chunks returns the frame stream. Frames are ChunkSamples long.
	Chunks() <-chan []int16
	Close() error
}

// ExecSource captures audio by running an external recorder process
// and framing its stdout. Slow consumers lose frames rather than
// stalling the recorder.
type ExecSource struct {
	logger  *slog.Logger
	command []string

	cmd       *exec.Cmd
	chunks    chan []int16
	dropped   atomic.Uint64
	closeOnce sync.Once
}

// NewExecSource builds a source around the given capture command. An
// empty command selects DefaultCaptureCommand.
func NewExecSource(logger *slog.Logger, command []string) *ExecSource {
	if logger == nil {
		logger = slog.Default()
	}
	if len(command) == 0 {
		command = DefaultCaptureCommand
	}
	return &ExecSource{
		logger:  logger,
		command: command,
		chunks:  make(chan []int16, chunkBuffer),
	}
}

// Start launches the recorder and begins framing its output.
func (s *ExecSource) Start(ctx context.Context) error {
	if s.cmd != nil {
		return errors.New("audio: source already started")
	}

	cmd := exec.CommandContext(ctx, s.command[0], s.command[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("audio: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("audio: start %s: %w", s.command[0], err)
	}
	s.cmd = cmd

	go func() {
		s.readLoop(stdout)
		// Reap the process; an error here is expected when the
		// context kills the recorder.
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			s.logger.Warn("capture process exited", "error", err)
		}
	}()
	return nil
}

// Chunks returns the frame stream.
func (s *ExecSource) Chunks() <-chan []int16 { return s.chunks }

// Close stops the recorder. The chunk channel closes once the pending
// read returns.
func (s *ExecSource) Close() error {
	s.closeOnce.Do(func() {
		if s.cmd != nil && s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
	})
	return nil
}

// Dropped reports how many frames were discarded because the consumer
// lagged.
func (s *ExecSource) Dropped() uint64 { return s.dropped.Load() }

// readLoop frames r into ChunkSamples-long slices until EOF. Frames
// are dropped, not queued, when the channel is full.
func (s *ExecSource) readLoop(r io.Reader) {
	defer close(s.chunks)

	buf := make([]byte, chunkBytes)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				s.logger.Warn("capture read failed", "error", err)
			}
			return
		}

		samples := make([]int16, ChunkSamples)
		for i := range samples {
			samples[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
		}

		select {
		case s.chunks <- samples:
		default:
			if n := s.dropped.Add(1); n%100 == 1 {
				s.logger.Warn("audio consumer lagging, dropping frames", "dropped", n)
			}
		}
	}
}
