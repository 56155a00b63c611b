package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/neonpi/anton/internal/config"
	"github.com/neonpi/anton/pkg/assistant/convo"
	"github.com/neonpi/anton/pkg/assistant/tools"
	"github.com/neonpi/anton/pkg/core/gemini"
	"github.com/neonpi/anton/pkg/gateway/handlers"
	"github.com/neonpi/anton/pkg/gateway/hub"
	"github.com/neonpi/anton/pkg/gateway/protocol"
	"github.com/neonpi/anton/pkg/gateway/server"
	"github.com/neonpi/anton/pkg/gateway/session"
	"github.com/neonpi/anton/pkg/music"
	"github.com/neonpi/anton/pkg/music/spotify"
	"github.com/neonpi/anton/pkg/music/ytmusic"
	"github.com/neonpi/anton/pkg/voice/audio"
	"github.com/neonpi/anton/pkg/voice/stt"
	"github.com/neonpi/anton/pkg/voice/tts"
	"github.com/neonpi/anton/pkg/voice/wake"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the assistant daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to anton.yaml (default: $ANTON_CONFIG or ./anton.yaml)")
	return cmd
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Music services. Either may be absent; the manager degrades.
	var spotifyClient *spotify.Client
	var spotifySvc music.SpotifyService
	if cfg.SpotifyClientID != "" && cfg.SpotifyClientSecret != "" {
		spotifyClient = spotify.New(cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SpotifyRedirectURI,
			spotify.WithCachePath(cfg.SpotifyTokenCache),
			spotify.WithLogger(logger))
		if spotifyClient.LoadCachedToken() {
			logger.Info("spotify token restored from cache")
		}
		spotifySvc = spotifyClient
	} else {
		logger.Warn("spotify not configured, set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET")
	}

	yt := ytmusic.New(ytmusic.WithLogger(logger))
	if cfg.YTMusicAuthFile != "" && yt.LoadAuth(cfg.YTMusicAuthFile) {
		logger.Info("youtube music auth loaded", "file", cfg.YTMusicAuthFile)
	}
	manager := music.NewManager(spotifySvc, yt)

	// Conversation loop.
	backend := gemini.New(cfg.GeminiAPIKey, gemini.WithModel(cfg.GeminiModel))
	execs := tools.MusicExecutors(manager)
	execs = append(execs,
		tools.NewWeatherExecutor(cfg.OpenWeatherAPIKey, cfg.DefaultLocation),
		tools.NewClockExecutor(cfg.DefaultTimezone, nil),
		tools.NewWebFetchExecutor(nil),
	)
	registry := tools.NewRegistry(logger, execs...)
	driver := convo.New(logger, backend, registry, cfg.SystemPrompt, cfg.MaxToolRounds)

	// Realtime hub and voice pipeline.
	h := hub.New(logger)

	captureCmd := strings.Fields(cfg.CaptureCommand)
	newSource := func() audio.Source {
		return audio.NewExecSource(logger, captureCmd)
	}

	recorder := stt.NewRecorder(logger, newSource,
		stt.WithLevelCallback(func(rms float64) {
			h.Broadcast(protocol.NewStateUpdate(string(session.StateListening),
				map[string]any{"level": int(rms)}))
		}))
	transcriber := stt.NewEngine(cfg.WhisperURL)

	synthesizer := tts.New(cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoice,
		tts.WithVoiceSettings(tts.VoiceSettings{
			Stability:       cfg.Voice.Stability,
			SimilarityBoost: cfg.Voice.SimilarityBoost,
			Style:           cfg.Voice.Style,
			UseSpeakerBoost: cfg.Voice.SpeakerBoost,
		}))

	sess, err := session.New(session.Dependencies{
		Logger:      logger,
		Broadcaster: h,
		Recorder:    recorder,
		Transcriber: transcriber,
		Responder:   driver,
		Synthesizer: synthesizer,
		Music:       manager,
	}, session.Config{})
	if err != nil {
		return fmt.Errorf("build session: %w", err)
	}

	detector := wake.NewDetector(logger,
		wake.Config{Word: cfg.WakeWord, Sensitivity: cfg.WakeSensitivity},
		newSource,
		func(ctx context.Context) (wake.Scorer, error) {
			return wake.DialScorer(ctx, cfg.WakeURL)
		})
	defer detector.Stop()

	go func() {
		for {
			select {
			case <-runCtx.Done():
				return
			case <-detector.Triggers():
				sess.Trigger(runCtx)
			}
		}
	}()
	go sess.RunNowPlayingPoller(runCtx)

	// Gateway.
	deps := handlers.Deps{
		Logger:      logger,
		Hub:         h,
		Session:     sess,
		Resetter:    driver,
		FrontendDir: cfg.FrontendDir,
	}
	if spotifyClient != nil {
		deps.Spotify = spotifyClient
	}
	if cfg.WakeURL != "" {
		deps.Wake = detector
	}

	gw := server.New(cfg, logger, deps)
	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting anton", "addr", cfg.Addr(), "wake_word", cfg.WakeWord, "model", cfg.GeminiModel)

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-runCtx.Done():
		return runCtx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	cancel()
	detector.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("anton stopped")
	return nil
}
