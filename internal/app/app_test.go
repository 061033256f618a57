package app_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"voice-chat/config"
	"voice-chat/internal/app"
	"voice-chat/internal/application"
	"voice-chat/internal/infra/anthropic"
	"voice-chat/internal/infra/azure"
	"voice-chat/internal/infra/openai"
	"voice-chat/internal/infra/replicate"
	"voice-chat/internal/infra/session"
)

func baseConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Speech.Provider = "azure"
	cfg.Speech.Subscription = "sub"
	cfg.Speech.Region = "westeurope"
	cfg.Completion.Provider = "replicate"
	cfg.Replicate.APIToken = "r8"
	cfg.Synthesis.Provider = "azure"
	cfg.Session.Store = "memory"
	return cfg
}

func TestNew_DefaultProviders(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := app.New(context.Background(), baseConfig(), logger)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer a.Close()

	if _, ok := a.STT.(*azure.Recognizer); !ok {
		t.Errorf("STT: got %T", a.STT)
	}
	if _, ok := a.LLM.(*replicate.Client); !ok {
		t.Errorf("LLM: got %T", a.LLM)
	}
	if _, ok := a.TTS.(*azure.Synthesizer); !ok {
		t.Errorf("TTS: got %T", a.TTS)
	}
	if _, ok := a.Speaker.(*application.NoopSpeaker); !ok {
		t.Errorf("Speaker: got %T", a.Speaker)
	}

	store, err := a.SessionStore(context.Background())
	if err != nil {
		t.Fatalf("SessionStore error: %v", err)
	}
	if _, ok := store.(*session.MemoryStore); !ok {
		t.Errorf("store: got %T", store)
	}

	if a.Pipeline() == nil {
		t.Error("nil pipeline")
	}
}

func TestNew_AlternateProviders(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := baseConfig()
	cfg.Speech.Provider = "openai"
	cfg.Completion.Provider = "anthropic"
	cfg.Synthesis.Provider = "openai"

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer a.Close()

	if _, ok := a.STT.(*openai.Transcriber); !ok {
		t.Errorf("STT: got %T", a.STT)
	}
	if _, ok := a.LLM.(*anthropic.ClaudeClient); !ok {
		t.Errorf("LLM: got %T", a.LLM)
	}
	if _, ok := a.TTS.(*openai.Speech); !ok {
		t.Errorf("TTS: got %T", a.TTS)
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := baseConfig()
	cfg.Completion.Provider = "mystery"

	if _, err := app.New(context.Background(), cfg, logger); err == nil {
		t.Error("expected error")
	}
}
