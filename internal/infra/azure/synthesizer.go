package azure

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"voice-chat/internal/domain"
	"voice-chat/internal/infra"
)

const (
	DefaultVoice = "en-US-AvaMultilingualNeural"
	outputFormat = "riff-24khz-16bit-mono-pcm"
)

// Synthesizer renders text with one fixed neural voice and returns WAV.
type Synthesizer struct {
	subscription string
	endpoint     string
	voice        string
	httpClient   *http.Client
	logger       *slog.Logger
}

func NewSynthesizer(subscription, region, voice string, logger *slog.Logger) *Synthesizer {
	endpoint := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region)
	return NewSynthesizerWithURL(subscription, endpoint, voice, logger)
}

func NewSynthesizerWithURL(subscription, endpoint, voice string, logger *slog.Logger) *Synthesizer {
	if voice == "" {
		voice = DefaultVoice
	}
	return &Synthesizer{
		subscription: subscription,
		endpoint:     endpoint,
		voice:        voice,
		httpClient:   infra.NewHTTPClient(60 * time.Second),
		logger:       logger,
	}
}

type ssmlVoice struct {
	Name string `xml:"name,attr"`
	Text string `xml:",chardata"`
}

type ssmlSpeak struct {
	XMLName xml.Name  `xml:"speak"`
	Version string    `xml:"version,attr"`
	Lang    string    `xml:"xml:lang,attr"`
	Voice   ssmlVoice `xml:"voice"`
}

func (s *Synthesizer) ssml(text string) ([]byte, error) {
	return xml.Marshal(ssmlSpeak{
		Version: "1.0",
		Lang:    "en-US",
		Voice:   ssmlVoice{Name: s.voice, Text: text},
	})
}

// Synthesize reports a rejected request as SynthesisCanceled with the
// service's message in Detail. Only failures to reach the service are
// returned as errors.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (domain.Synthesis, error) {
	body, err := s.ssml(text)
	if err != nil {
		return domain.Synthesis{}, fmt.Errorf("building ssml: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Synthesis{}, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Ocp-Apim-Subscription-Key", s.subscription)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", outputFormat)
	req.Header.Set("User-Agent", "voice-chat")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.Synthesis{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if err := infra.CheckResponse("azure tts", resp); err != nil {
		var apiErr *infra.APIError
		if errors.As(err, &apiErr) {
			s.logger.Warn("synthesis rejected", "status", apiErr.StatusCode, "transient", apiErr.Transient())
		}
		return domain.Synthesis{Reason: domain.SynthesisCanceled, Detail: err.Error()}, nil
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Synthesis{}, fmt.Errorf("reading audio: %w", err)
	}

	if len(audio) == 0 {
		return domain.Synthesis{Reason: domain.SynthesisFailed, Detail: "service returned no audio"}, nil
	}

	return domain.Synthesis{Reason: domain.SynthesisCompleted, Audio: audio}, nil
}
