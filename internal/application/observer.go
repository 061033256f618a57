package application

import (
	"time"

	"voice-chat/internal/domain"
)

type Stage string

const (
	StageTranscription Stage = "transcription"
	StageCompletion    Stage = "completion"
	StageSynthesis     Stage = "synthesis"
)

// Observer receives timing and outcome data from pipeline runs.
type Observer interface {
	ObserveStage(stage Stage, elapsed time.Duration, err error)
	ObserveOutcome(outcome domain.Outcome)
}
