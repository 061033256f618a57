package application

import "context"

// Speaker plays a finished audio file on the host's default output device.
type Speaker interface {
	Play(ctx context.Context, path string) error
	Name() string
}

type NoopSpeaker struct{}

func (n *NoopSpeaker) Play(_ context.Context, _ string) error { return nil }
func (n *NoopSpeaker) Name() string                            { return "none" }

type AudioFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultCaptureFormat is what the recording widget encodes: the format the
// short-audio recognition endpoints accept without resampling.
func DefaultCaptureFormat() AudioFormat {
	return AudioFormat{
		SampleRate: 16000,
		Channels:   1,
		BitDepth:   16,
	}
}
