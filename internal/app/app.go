package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"

	"voice-chat/config"
	"voice-chat/internal/application"
	"voice-chat/internal/infra/anthropic"
	"voice-chat/internal/infra/audio"
	"voice-chat/internal/infra/azure"
	"voice-chat/internal/infra/gemini"
	"voice-chat/internal/infra/google"
	"voice-chat/internal/infra/metrics"
	"voice-chat/internal/infra/openai"
	"voice-chat/internal/infra/replicate"
	"voice-chat/internal/infra/session"
)

// App holds the adapters selected by configuration.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	STT     application.SpeechToText
	LLM     application.Completer
	TTS     application.Synthesizer
	Speaker application.Speaker
	Metrics *metrics.Recorder

	closers []func() error
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewRecorder(),
	}

	var err error
	if a.STT, err = a.newSTT(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if a.LLM, err = a.newCompleter(); err != nil {
		a.Close()
		return nil, err
	}
	if a.TTS, err = a.newSynthesizer(); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Playback.Enabled {
		a.Speaker = audio.NewSpeaker(logger)
	} else {
		a.Speaker = &application.NoopSpeaker{}
	}

	return a, nil
}

func (a *App) newSTT(ctx context.Context) (application.SpeechToText, error) {
	cfg := a.Config
	switch cfg.Speech.Provider {
	case "azure":
		return azure.NewRecognizer(cfg.Speech.Subscription, cfg.Speech.Region, cfg.Speech.Language, a.Logger), nil
	case "openai":
		return openai.NewTranscriberWithURL(cfg.OpenAI.APIKey, cfg.Speech.Language, cfg.OpenAI.BaseURL, a.Logger), nil
	case "google":
		var opts []option.ClientOption
		if cfg.Google.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Google.CredentialsFile))
		}
		rec, err := google.NewRecognizer(ctx, cfg.Speech.Language, a.Logger, opts...)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rec.Close)
		return rec, nil
	default:
		return nil, fmt.Errorf("unknown speech provider %q", cfg.Speech.Provider)
	}
}

func (a *App) newCompleter() (application.Completer, error) {
	cfg := a.Config
	c := cfg.Completion
	switch c.Provider {
	case "replicate":
		return replicate.NewClient(cfg.Replicate.APIToken, c.Model, a.Logger), nil
	case "openai":
		return openai.NewChatClientWithURL(cfg.OpenAI.APIKey, c.Model, c.SystemPrompt, cfg.OpenAI.BaseURL), nil
	case "anthropic":
		return anthropic.NewClaudeClient(cfg.Anthropic.APIKey, c.Model, c.SystemPrompt), nil
	case "gemini":
		return gemini.NewClient(cfg.Gemini.APIKey, c.Model, c.SystemPrompt), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", c.Provider)
	}
}

func (a *App) newSynthesizer() (application.Synthesizer, error) {
	cfg := a.Config
	switch cfg.Synthesis.Provider {
	case "azure":
		return azure.NewSynthesizer(cfg.Speech.Subscription, cfg.Speech.Region, cfg.Synthesis.Voice, a.Logger), nil
	case "openai":
		return openai.NewSpeechWithURL(cfg.OpenAI.APIKey, cfg.Synthesis.Voice, cfg.OpenAI.BaseURL, a.Logger), nil
	default:
		return nil, fmt.Errorf("unknown synthesis provider %q", cfg.Synthesis.Provider)
	}
}

func (a *App) Pipeline() *application.Pipeline {
	p := application.NewPipeline(a.STT, a.LLM, a.TTS, a.Speaker, a.Metrics, a.Logger)
	p.SetTimeout(a.Config.Pipeline.RunTimeout())
	return p
}

// SessionStore opens the configured store. Redis connections are closed
// with the app.
func (a *App) SessionStore(ctx context.Context) (application.SessionStore, error) {
	switch a.Config.Session.Store {
	case "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		r := a.Config.Redis
		store, err := session.NewRedisStore(ctx, session.RedisConfig{
			Addr:     r.Addr,
			Username: r.Username,
			Password: r.Password,
			DB:       r.DB,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", a.Config.Session.Store)
	}
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}
