package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"voice-chat/internal/domain"
)

// Speech synthesizes replies with the OpenAI text-to-speech endpoint.
type Speech struct {
	client *openai.Client
	voice  openai.SpeechVoice
	logger *slog.Logger
}

func NewSpeech(apiKey, voice string, logger *slog.Logger) *Speech {
	return NewSpeechWithURL(apiKey, voice, "", logger)
}

func NewSpeechWithURL(apiKey, voice, baseURL string, logger *slog.Logger) *Speech {
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}
	return &Speech{
		client: newClient(apiKey, baseURL),
		voice:  openai.SpeechVoice(voice),
		logger: logger,
	}
}

func (s *Speech) Synthesize(ctx context.Context, text string) (domain.Synthesis, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		if rejected(err) {
			s.logger.Warn("speech synthesis rejected", "error", err)
			return domain.Synthesis{Reason: domain.SynthesisCanceled, Detail: err.Error()}, nil
		}
		return domain.Synthesis{}, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return domain.Synthesis{}, fmt.Errorf("reading audio: %w", err)
	}

	if len(audio) == 0 {
		return domain.Synthesis{Reason: domain.SynthesisFailed, Detail: "service returned no audio"}, nil
	}

	return domain.Synthesis{Reason: domain.SynthesisCompleted, Audio: audio}, nil
}

// rejected reports whether the service answered with an HTTP error, as
// opposed to never being reached.
func rejected(err error) bool {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	return errors.As(err, &apiErr) || errors.As(err, &reqErr)
}
