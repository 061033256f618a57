package domain

type Outcome string

const (
	OutcomeNoAudio         Outcome = "no_audio"
	OutcomeNoSpeech        Outcome = "no_speech"
	OutcomeCompleted       Outcome = "completed"
	OutcomeSynthesisFailed Outcome = "synthesis_failed"
	OutcomeTransportFailed Outcome = "transport_failed"
)

// Messages shown to the user in place of a chat bubble.
const (
	NoticeNoSpeech        = "Could not detect speech or error occured"
	NoticeSynthesisFailed = "error occured"
)

// Turn is what one recording produces for presentation: the "human" and
// "ai" chat slots plus an optional plain notice.
type Turn struct {
	ID        string  `json:"id"`
	Outcome   Outcome `json:"outcome"`
	Human     string  `json:"human,omitempty"`
	AI        string  `json:"ai,omitempty"`
	Notice    string  `json:"notice,omitempty"`
	AudioPath string  `json:"-"`
	AudioURL  string  `json:"audio_url,omitempty"`
}
