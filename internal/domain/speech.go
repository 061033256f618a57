package domain

// Recognition is the single final result of a transcription call.
type Recognition struct {
	Recognized bool
	Text       string
	// Reason is the provider's own status string, kept for logging.
	Reason string
}

type SynthesisReason string

const (
	SynthesisCompleted SynthesisReason = "completed"
	SynthesisFailed    SynthesisReason = "failed"
	SynthesisCanceled  SynthesisReason = "canceled"
)

// Synthesis is the result of rendering text to speech. Audio is only
// meaningful when Reason is SynthesisCompleted.
type Synthesis struct {
	Reason SynthesisReason
	Audio  []byte
	Detail string
}

func (s Synthesis) Completed() bool {
	return s.Reason == SynthesisCompleted && len(s.Audio) > 0
}
