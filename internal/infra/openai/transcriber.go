package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"

	"voice-chat/internal/application"
	"voice-chat/internal/domain"
)

// Transcriber recognizes speech with Whisper.
type Transcriber struct {
	client   *openai.Client
	language string
	logger   *slog.Logger
}

func NewTranscriber(apiKey, language string, logger *slog.Logger) *Transcriber {
	return NewTranscriberWithURL(apiKey, language, "", logger)
}

func NewTranscriberWithURL(apiKey, language, baseURL string, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		client:   newClient(apiKey, baseURL),
		language: isoLanguage(language),
		logger:   logger,
	}
}

// isoLanguage turns a locale such as en-US into the two-letter code Whisper
// expects.
func isoLanguage(locale string) string {
	lang, _, _ := strings.Cut(locale, "-")
	return strings.ToLower(lang)
}

func (t *Transcriber) Recognize(ctx context.Context, capture *domain.Capture) (domain.Recognition, error) {
	var rec domain.Recognition

	err := application.WithTempFile("capture-*.wav", capture.Data, func(path string) error {
		resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
			Model:    openai.Whisper1,
			FilePath: path,
			Language: t.language,
		})
		if err != nil {
			return fmt.Errorf("whisper transcription: %w", err)
		}

		text := strings.TrimSpace(resp.Text)
		t.logger.Debug("whisper finished", "chars", len(text))
		if text == "" {
			rec = domain.Recognition{Reason: "empty"}
			return nil
		}

		rec = domain.Recognition{Recognized: true, Text: text, Reason: "success"}
		return nil
	})

	return rec, err
}
