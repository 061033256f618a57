package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"voice-chat/internal/application"
	"voice-chat/internal/domain"
	"voice-chat/internal/infra"
	"voice-chat/internal/infra/audio"
)

// Recognizer transcribes short recordings with the Azure Speech REST API.
// One request yields one final result.
type Recognizer struct {
	subscription string
	endpoint     string
	language     string
	httpClient   *http.Client
	logger       *slog.Logger
}

func NewRecognizer(subscription, region, language string, logger *slog.Logger) *Recognizer {
	endpoint := fmt.Sprintf("https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1", region)
	return NewRecognizerWithURL(subscription, endpoint, language, logger)
}

func NewRecognizerWithURL(subscription, endpoint, language string, logger *slog.Logger) *Recognizer {
	if language == "" {
		language = "en-US"
	}
	return &Recognizer{
		subscription: subscription,
		endpoint:     endpoint,
		language:     language,
		httpClient:   infra.NewHTTPClient(60 * time.Second),
		logger:       logger,
	}
}

type recognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	Offset            int64  `json:"Offset"`
	Duration          int64  `json:"Duration"`
}

func (r *Recognizer) Recognize(ctx context.Context, capture *domain.Capture) (domain.Recognition, error) {
	var rec domain.Recognition

	rate := application.DefaultCaptureFormat().SampleRate
	if info, err := audio.Inspect(capture.Data); err == nil {
		rate = info.SampleRate
	}

	err := application.WithTempFile("capture-*.wav", capture.Data, func(path string) error {
		var err error
		rec, err = r.recognizeFile(ctx, path, rate)
		return err
	})

	return rec, err
}

func (r *Recognizer) recognizeFile(ctx context.Context, path string, sampleRate int) (domain.Recognition, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Recognition{}, fmt.Errorf("opening capture: %w", err)
	}
	defer f.Close()

	u := r.endpoint + "?" + url.Values{"language": {r.language}, "format": {"simple"}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, f)
	if err != nil {
		return domain.Recognition{}, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Ocp-Apim-Subscription-Key", r.subscription)
	req.Header.Set("Content-Type", fmt.Sprintf("audio/wav; codecs=audio/pcm; samplerate=%d", sampleRate))
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return domain.Recognition{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if err := infra.CheckResponse("azure speech", resp); err != nil {
		return domain.Recognition{}, err
	}

	var result recognitionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.Recognition{}, fmt.Errorf("decoding response: %w", err)
	}

	r.logger.Debug("recognition finished", "status", result.RecognitionStatus, "duration", result.Duration)

	text := strings.TrimSpace(result.DisplayText)
	if result.RecognitionStatus != "Success" || text == "" {
		return domain.Recognition{Reason: result.RecognitionStatus}, nil
	}

	return domain.Recognition{Recognized: true, Text: text, Reason: result.RecognitionStatus}, nil
}
