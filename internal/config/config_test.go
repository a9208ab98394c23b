package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Addr != ":8087" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.Audio.SampleRate != 16000 || cfg.Audio.Channels != 1 {
		t.Fatalf("unexpected audio defaults: %+v", cfg.Audio)
	}
	if cfg.Transcription.Model != "voxtral-mini-latest" {
		t.Fatalf("unexpected model: %s", cfg.Transcription.Model)
	}
	if cfg.Session.DemoMode {
		t.Fatalf("demo mode must default off")
	}
	if cfg.Session.SavedFlash != 2*time.Second {
		t.Fatalf("unexpected saved flash: %s", cfg.Session.SavedFlash)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MEDCOCKPIT_ADDR", ":9000")
	t.Setenv("MEDCOCKPIT_SAMPLE_RATE", "48000")
	t.Setenv("MEDCOCKPIT_DEMO_MODE", "true")
	t.Setenv("MEDCOCKPIT_RECORDS_TIMEOUT_MS", "5000")
	t.Setenv("MEDCOCKPIT_TRANSCRIBE_LANGUAGE", " es ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Fatalf("unexpected sample rate: %d", cfg.Audio.SampleRate)
	}
	if !cfg.Session.DemoMode {
		t.Fatalf("demo mode must be on")
	}
	if cfg.Records.Timeout != 5*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.Records.Timeout)
	}
	if cfg.Transcription.Language != "es" {
		t.Fatalf("language must be trimmed, got %q", cfg.Transcription.Language)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("MEDCOCKPIT_SAMPLE_RATE", "fast")
	t.Setenv("MEDCOCKPIT_DEMO_MODE", "maybe")
	t.Setenv("MEDCOCKPIT_CHANNELS", "-2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Audio.SampleRate != 16000 {
		t.Fatalf("malformed int must fall back, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Session.DemoMode {
		t.Fatalf("malformed bool must fall back")
	}
	if cfg.Audio.Channels != 1 {
		t.Fatalf("non-positive channels must clamp, got %d", cfg.Audio.Channels)
	}
}
