package application

import (
	"context"

	"voice-chat/internal/domain"
)

// SpeechToText turns one capture into a single final recognition result.
// A recognizer that hears nothing returns Recognized=false and a nil error;
// errors are reserved for transport and credential failures.
type SpeechToText interface {
	Recognize(ctx context.Context, capture *domain.Capture) (domain.Recognition, error)
}

// Synthesizer renders text with a fixed voice. A rejected request is
// reported through Synthesis.Reason, not as an error.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (domain.Synthesis, error)
}
