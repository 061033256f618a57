package google

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"voice-chat/internal/domain"
)

// Recognizer transcribes recordings with Google Cloud Speech-to-Text. It
// authenticates with Application Default Credentials unless options say
// otherwise.
type Recognizer struct {
	client   *speech.Client
	language string
	logger   *slog.Logger
}

func NewRecognizer(ctx context.Context, language string, logger *slog.Logger, opts ...option.ClientOption) (*Recognizer, error) {
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating speech client: %w", err)
	}

	if language == "" {
		language = "en-US"
	}

	return &Recognizer{client: client, language: language, logger: logger}, nil
}

func (r *Recognizer) Close() error {
	return r.client.Close()
}

// Recognize sends the capture inline; the API reads the sample rate from
// the WAV header.
func (r *Recognizer) Recognize(ctx context.Context, capture *domain.Capture) (domain.Recognition, error) {
	resp, err := r.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			LanguageCode:               r.language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: capture.Data},
		},
	})
	if err != nil {
		return domain.Recognition{}, fmt.Errorf("google recognize: %w", err)
	}

	var parts []string
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}

	r.logger.Debug("google recognition finished", "results", len(resp.GetResults()))

	if len(parts) == 0 {
		return domain.Recognition{Reason: "no_results"}, nil
	}

	return domain.Recognition{Recognized: true, Text: strings.Join(parts, " "), Reason: "success"}, nil
}
