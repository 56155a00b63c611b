// Package config loads the assistant configuration from built-in
// defaults, an optional YAML file and environment variables, in that
// order of precedence (env wins).
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// DefaultSystemPrompt is the Anton persona used when the config file
// does not override it.
const DefaultSystemPrompt = `You are Anton, a helpful and friendly AI voice assistant. You are the Son of Anton.

Your personality:
- Friendly, warm, and conversational
- Concise but helpful - keep responses brief for voice output
- You have a slight playful personality
- You're knowledgeable about many topics

Important guidelines:
- Keep responses short and natural for spoken conversation (1-3 sentences typically)
- When controlling music playback, confirm the action briefly
- For weather, give the key info (temperature, conditions) concisely
- If you don't know something, admit it honestly
- The current date and time are available via the time tool

Remember: Your responses will be spoken aloud via text-to-speech, so be conversational!`

// VoiceSettings tune the speech synthesis output.
type VoiceSettings struct {
	Stability       float64 `yaml:"stability"`
	SimilarityBoost float64 `yaml:"similarity_boost"`
	Style           float64 `yaml:"style"`
	SpeakerBoost    bool    `yaml:"speaker_boost"`
}

// Config is the resolved assistant configuration.
type Config struct {
	Host  string
	Port  int
	Debug bool

	GeminiAPIKey string
	GeminiModel  string

	ElevenLabsAPIKey string
	ElevenLabsVoice  string
	Voice            VoiceSettings

	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURI  string
	SpotifyTokenCache   string

	YTMusicAuthFile string

	OpenWeatherAPIKey string

	WhisperURL string

	WakeURL         string
	WakeWord        string
	WakeSensitivity float64

	CaptureCommand string

	SystemPrompt    string
	MaxToolRounds   int
	DefaultLocation string
	DefaultTimezone string

	CORSOrigins   []string
	FrontendDir   string
	ShutdownGrace time.Duration
}

// Addr returns the host:port bind address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks the configuration for startup-fatal mistakes.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.GeminiModel, validation.Required),
		validation.Field(&c.WakeSensitivity, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.MaxToolRounds, validation.Required, validation.Min(1), validation.Max(25)),
		validation.Field(&c.SystemPrompt, validation.Required),
		validation.Field(&c.ShutdownGrace, validation.Required, validation.Min(time.Second)),
	)
}

// fileConfig is the optional YAML overlay.
type fileConfig struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
	Persona struct {
		SystemPrompt string `yaml:"system_prompt"`
	} `yaml:"persona"`
	Wake struct {
		Word        string   `yaml:"word"`
		Sensitivity *float64 `yaml:"sensitivity"`
	} `yaml:"wake"`
	Voice    *VoiceSettings `yaml:"voice"`
	Defaults struct {
		Location string `yaml:"location"`
		Timezone string `yaml:"timezone"`
	} `yaml:"defaults"`
}

// Load resolves the configuration. path points at the YAML file; an
// empty path falls back to $ANTON_CONFIG, then ./anton.yaml. A missing
// file is not an error.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path == "" {
		path = envOr("ANTON_CONFIG", "anton.yaml")
	}
	if err := applyFile(&cfg, path); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Host:        "0.0.0.0",
		Port:        8000,
		GeminiModel: "gemini-1.5-flash",

		ElevenLabsVoice: "21m00Tcm4TlvDq8ikWAM",
		Voice: VoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Style:           0.0,
			SpeakerBoost:    true,
		},

		SpotifyRedirectURI: "http://localhost:8000/callback/spotify",
		SpotifyTokenCache:  ".spotify_cache",
		YTMusicAuthFile:    "credentials/ytmusic_auth.json",

		WhisperURL: "http://127.0.0.1:8080/inference",

		WakeURL:         "ws://127.0.0.1:9002",
		WakeWord:        "hey_jarvis",
		WakeSensitivity: 0.5,

		CaptureCommand: "arecord -q -f S16_LE -r 16000 -c 1 -t raw -",

		SystemPrompt:    DefaultSystemPrompt,
		MaxToolRounds:   5,
		DefaultLocation: "New York",
		DefaultTimezone: "America/Toronto",

		CORSOrigins:   []string{"*"},
		FrontendDir:   "frontend",
		ShutdownGrace: 10 * time.Second,
	}
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Server.Host != "" {
		cfg.Host = fc.Server.Host
	}
	if fc.Server.Port != 0 {
		cfg.Port = fc.Server.Port
	}
	if fc.Persona.SystemPrompt != "" {
		cfg.SystemPrompt = fc.Persona.SystemPrompt
	}
	if fc.Wake.Word != "" {
		cfg.WakeWord = fc.Wake.Word
	}
	if fc.Wake.Sensitivity != nil {
		cfg.WakeSensitivity = *fc.Wake.Sensitivity
	}
	if fc.Voice != nil {
		cfg.Voice = *fc.Voice
	}
	if fc.Defaults.Location != "" {
		cfg.DefaultLocation = fc.Defaults.Location
	}
	if fc.Defaults.Timezone != "" {
		cfg.DefaultTimezone = fc.Defaults.Timezone
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Host = envOr("HOST", cfg.Host)
	cfg.Port = envIntOr("PORT", cfg.Port)
	cfg.Debug = envBoolOr("DEBUG", cfg.Debug)

	cfg.GeminiAPIKey = envOr("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = envOr("GEMINI_MODEL", cfg.GeminiModel)

	cfg.ElevenLabsAPIKey = envOr("ELEVENLABS_API_KEY", cfg.ElevenLabsAPIKey)
	cfg.ElevenLabsVoice = envOr("ELEVENLABS_VOICE_ID", cfg.ElevenLabsVoice)

	cfg.SpotifyClientID = envOr("SPOTIFY_CLIENT_ID", cfg.SpotifyClientID)
	cfg.SpotifyClientSecret = envOr("SPOTIFY_CLIENT_SECRET", cfg.SpotifyClientSecret)
	cfg.SpotifyRedirectURI = envOr("SPOTIFY_REDIRECT_URI", cfg.SpotifyRedirectURI)
	cfg.SpotifyTokenCache = envOr("SPOTIFY_TOKEN_CACHE", cfg.SpotifyTokenCache)

	cfg.YTMusicAuthFile = envOr("YTMUSIC_AUTH_FILE", cfg.YTMusicAuthFile)

	cfg.OpenWeatherAPIKey = envOr("OPENWEATHER_API_KEY", cfg.OpenWeatherAPIKey)

	cfg.WhisperURL = envOr("WHISPER_URL", cfg.WhisperURL)

	cfg.WakeURL = envOr("WAKE_URL", cfg.WakeURL)
	cfg.WakeWord = envOr("WAKE_WORD", cfg.WakeWord)
	cfg.WakeSensitivity = envFloat64Or("WAKE_SENSITIVITY", cfg.WakeSensitivity)

	cfg.CaptureCommand = envOr("CAPTURE_COMMAND", cfg.CaptureCommand)

	cfg.MaxToolRounds = envIntOr("MAX_TOOL_ROUNDS", cfg.MaxToolRounds)

	if origins := splitCSV(os.Getenv("CORS_ORIGINS")); len(origins) > 0 {
		cfg.CORSOrigins = origins
	}
	cfg.FrontendDir = envOr("FRONTEND_DIR", cfg.FrontendDir)
	cfg.ShutdownGrace = envDurationOr("SHUTDOWN_GRACE", cfg.ShutdownGrace)
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envFloat64Or(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return n
}

func envBoolOr(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
