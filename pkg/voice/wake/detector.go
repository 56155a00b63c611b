package wake

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/neonpi/anton/pkg/voice/audio"
)

// DefaultSensitivity is the activation threshold a score must exceed.
const DefaultSensitivity = 0.5

// retrigger suppression after a detection; the model keeps scoring
// high for a few frames after the phrase ends.
const triggerCooldown = 2 * time.Second

const stopJoinTimeout = 2 * time.Second

// Config selects the wake word and its threshold.
type Config struct {
	Word        string
	Sensitivity float64
}

// Detector runs a background loop that scores microphone frames and
// signals on Triggers when the configured word fires. Sources and
// scorers are built per run because both are single-use.
type Detector struct {
	logger    *slog.Logger
	cfg       Config
	newSource func() audio.Source
	newScorer func(ctx context.Context) (Scorer, error)

	triggers chan struct{}

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewDetector builds a detector. Sensitivity <= 0 selects the default.
func NewDetector(logger *slog.Logger, cfg Config, newSource func() audio.Source, newScorer func(ctx context.Context) (Scorer, error)) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Sensitivity <= 0 {
		cfg.Sensitivity = DefaultSensitivity
	}
	return &Detector{
		logger:    logger,
		cfg:       cfg,
		newSource: newSource,
		newScorer: newScorer,
		triggers:  make(chan struct{}, 1),
	}
}

// Triggers delivers one signal per detection. The channel holds one
// pending trigger; detections during processing are coalesced.
func (d *Detector) Triggers() <-chan struct{} { return d.triggers }

// Running reports whether the listen loop is active.
func (d *Detector) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Start begins listening. Calling Start while running is a no-op.
func (d *Detector) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)

	source := d.newSource()
	if err := source.Start(runCtx); err != nil {
		cancel()
		return err
	}
	scorer, err := d.newScorer(runCtx)
	if err != nil {
		source.Close()
		cancel()
		return err
	}

	d.running = true
	d.cancel = cancel
	d.done = make(chan struct{})

	go func() {
		defer close(d.done)
		defer func() {
			source.Close()
			scorer.Close()
			d.mu.Lock()
			d.running = false
			d.mu.Unlock()
		}()
		d.listen(runCtx, source, scorer)
	}()

	d.logger.Info("wake word detection started", "word", d.cfg.Word, "sensitivity", d.cfg.Sensitivity)
	return nil
}

// Stop ends the listen loop and waits for it to exit.
func (d *Detector) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()

	select {
	case <-done:
	case <-time.After(stopJoinTimeout):
		d.logger.Warn("wake listener did not stop in time")
	}
}

func (d *Detector) listen(ctx context.Context, source audio.Source, scorer Scorer) {
	var lastTrigger time.Time
	chunks := source.Chunks()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-chunks:
			if !ok {
				d.logger.Warn("capture stream ended, stopping wake detection")
				return
			}
			scores, err := scorer.Score(frame)
			if err != nil {
				if ctx.Err() == nil {
					d.logger.Error("wake scoring failed", "error", err)
				}
				return
			}
			score := scores[d.cfg.Word]
			if score <= d.cfg.Sensitivity {
				continue
			}
			if time.Since(lastTrigger) < triggerCooldown {
				continue
			}
			lastTrigger = time.Now()
			d.logger.Info("wake word detected", "word", d.cfg.Word, "score", score)
			select {
			case d.triggers <- struct{}{}:
			default:
				// a trigger is already pending
			}
		}
	}
}
