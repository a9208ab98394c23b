package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration for the cockpit service.
type Config struct {
	Server        ServerConfig
	Records       RecordsConfig
	Transcription TranscriptionConfig
	Audio         AudioConfig
	Session       SessionConfig
	LogLevel      string
}

type ServerConfig struct {
	Addr string
}

type RecordsConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type TranscriptionConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

type SessionConfig struct {
	ChunkBytes int
	DemoMode   bool
	SavedFlash time.Duration
}

// Load resolves configuration from environment variables and sensible
// defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Addr: envOrDefault("MEDCOCKPIT_ADDR", ":8087"),
		},
		Records: RecordsConfig{
			BaseURL: envOrDefault("MEDCOCKPIT_RECORDS_BASE", "http://localhost:9090/api"),
			APIKey:  strings.TrimSpace(os.Getenv("MEDCOCKPIT_RECORDS_API_KEY")),
			Timeout: time.Duration(envOrDefaultInt("MEDCOCKPIT_RECORDS_TIMEOUT_MS", 30000)) * time.Millisecond,
		},
		Transcription: TranscriptionConfig{
			APIKey:   strings.TrimSpace(os.Getenv("MEDCOCKPIT_TRANSCRIBE_API_KEY")),
			BaseURL:  envOrDefault("MEDCOCKPIT_TRANSCRIBE_BASE", "https://api.mistral.ai/v1"),
			Model:    envOrDefault("MEDCOCKPIT_TRANSCRIBE_MODEL", "voxtral-mini-latest"),
			Language: strings.TrimSpace(os.Getenv("MEDCOCKPIT_TRANSCRIBE_LANGUAGE")),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("MEDCOCKPIT_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("MEDCOCKPIT_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("MEDCOCKPIT_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("MEDCOCKPIT_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("MEDCOCKPIT_CHANNELS", 1),
		},
		Session: SessionConfig{
			ChunkBytes: envOrDefaultInt("MEDCOCKPIT_AUDIO_CHUNK_BYTES", 0),
			DemoMode:   envOrDefaultBool("MEDCOCKPIT_DEMO_MODE", false),
			SavedFlash: time.Duration(envOrDefaultInt("MEDCOCKPIT_SAVED_FLASH_MS", 2000)) * time.Millisecond,
		},
		LogLevel: envOrDefault("MEDCOCKPIT_LOG_LEVEL", "info"),
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Session.SavedFlash <= 0 {
		cfg.Session.SavedFlash = 2 * time.Second
	}

	return cfg, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
