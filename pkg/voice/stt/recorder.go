// Package stt records utterances from the microphone and transcribes
// them with a whisper server.
package stt

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/neonpi/anton/pkg/voice/audio"
)

// Voice activity tuning, in samples at audio.SampleRate.
const (
	// speechRMSThreshold separates speech frames from room noise.
	speechRMSThreshold = 500

	// silenceSamples of quiet after speech ends the utterance (1.5 s).
	silenceSamples = audio.SampleRate * 3 / 2

	// maxUtteranceSamples caps one recording (10 s).
	maxUtteranceSamples = audio.SampleRate * 10
)

// ErrNoSpeech is returned when the recording window closes without any
// frame crossing the speech threshold.
var ErrNoSpeech = errors.New("stt: no speech detected")

// Recorder captures one utterance at a time. Each recording opens a
// fresh capture source because sources are single-use.
type Recorder struct {
	logger    *slog.Logger
	newSource func() audio.Source
	onLevel   func(rms float64)
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLevelCallback reports the RMS level of each frame, for UI meters.
func WithLevelCallback(fn func(rms float64)) RecorderOption {
	return func(r *Recorder) { r.onLevel = fn }
}

// NewRecorder builds a recorder over the given source factory.
func NewRecorder(logger *slog.Logger, newSource func() audio.Source, opts ...RecorderOption) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{logger: logger, newSource: newSource}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record captures one utterance: it waits for speech, then stops after
// sustained silence or at the length cap. The returned samples include
// the leading quiet so the transcriber gets context.
func (r *Recorder) Record(ctx context.Context) ([]int16, error) {
	source := r.newSource()
	if err := source.Start(ctx); err != nil {
		return nil, err
	}
	defer source.Close()

	var (
		samples     []int16
		heardSpeech bool
		quietRun    int
	)

	chunks := source.Chunks()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case frame, ok := <-chunks:
			if !ok {
				if !heardSpeech {
					return nil, ErrNoSpeech
				}
				return samples, nil
			}

			level := rms(frame)
			if r.onLevel != nil {
				r.onLevel(level)
			}

			samples = append(samples, frame...)

			if level >= speechRMSThreshold {
				heardSpeech = true
				quietRun = 0
			} else if heardSpeech {
				quietRun += len(frame)
				if quietRun >= silenceSamples {
					r.logger.Debug("utterance ended on silence", "samples", len(samples))
					return samples, nil
				}
			}

			if len(samples) >= maxUtteranceSamples {
				if !heardSpeech {
					return nil, ErrNoSpeech
				}
				r.logger.Debug("utterance ended at length cap", "samples", len(samples))
				return samples, nil
			}
		}
	}
}

// rms is the root mean square amplitude of one frame.
func rms(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}
