package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"voice-chat/internal/domain"
)

// Pipeline runs one recording through transcription, completion and
// synthesis, strictly in that order.
type Pipeline struct {
	stt      SpeechToText
	llm      Completer
	tts      Synthesizer
	speaker  Speaker
	observer Observer
	logger   *slog.Logger
	timeout  time.Duration
}

func NewPipeline(
	stt SpeechToText,
	llm Completer,
	tts Synthesizer,
	speaker Speaker,
	observer Observer,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		stt:      stt,
		llm:      llm,
		tts:      tts,
		speaker:  speaker,
		observer: observer,
		logger:   logger,
	}
}

// SetTimeout bounds a whole run. Zero means no limit beyond the caller's context.
func (p *Pipeline) SetTimeout(d time.Duration) {
	p.timeout = d
}

// Run processes capture and writes the synthesized reply to outputPath. The
// returned turn is always non-nil and ready to present; the error is set
// only when a service or the local disk failed, in which case the turn
// carries a generic notice.
func (p *Pipeline) Run(ctx context.Context, capture *domain.Capture, outputPath string) (*domain.Turn, error) {
	turn := &domain.Turn{ID: uuid.NewString()}

	if capture.Empty() {
		turn.Outcome = domain.OutcomeNoAudio
		p.observer.ObserveOutcome(turn.Outcome)
		return turn, nil
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	logger := p.logger.With("turn", turn.ID)

	if err := p.run(ctx, logger, capture, outputPath, turn); err != nil {
		turn.Outcome = domain.OutcomeTransportFailed
		turn.Notice = failureNotice(err)
		p.observer.ObserveOutcome(turn.Outcome)
		return turn, err
	}

	p.observer.ObserveOutcome(turn.Outcome)
	return turn, nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, capture *domain.Capture, outputPath string, turn *domain.Turn) error {
	logger.Info("received audio", "bytes", len(capture.Data), "format", capture.Format)

	start := time.Now()
	rec, err := p.stt.Recognize(ctx, capture)
	p.observer.ObserveStage(StageTranscription, time.Since(start), err)
	if err != nil {
		return asTransport(string(StageTranscription), err)
	}

	if !rec.Recognized || strings.TrimSpace(rec.Text) == "" {
		logger.Info("no speech recognized", "reason", rec.Reason)
		turn.Outcome = domain.OutcomeNoSpeech
		turn.Notice = domain.NoticeNoSpeech
		return nil
	}

	logger.Info("transcribed", "text", rec.Text)
	turn.Human = rec.Text

	start = time.Now()
	reply, err := Collect(p.llm.Complete(ctx, rec.Text))
	p.observer.ObserveStage(StageCompletion, time.Since(start), err)
	if err != nil {
		return asTransport(string(StageCompletion), err)
	}

	logger.Info("completed", "chars", len(reply))

	start = time.Now()
	syn, err := p.tts.Synthesize(ctx, reply)
	if err == nil && !syn.Completed() {
		p.observer.ObserveStage(StageSynthesis, time.Since(start), domain.ErrSynthesisFailed)
	} else {
		p.observer.ObserveStage(StageSynthesis, time.Since(start), err)
	}
	if err != nil {
		return asTransport(string(StageSynthesis), err)
	}

	if !syn.Completed() {
		logger.Warn("synthesis did not complete", "reason", syn.Reason, "detail", syn.Detail)
		turn.Outcome = domain.OutcomeSynthesisFailed
		turn.Notice = domain.NoticeSynthesisFailed
		return nil
	}

	if err := writeAudio(outputPath, syn.Audio); err != nil {
		return fmt.Errorf("saving synthesized audio: %w", err)
	}

	if err := p.speaker.Play(ctx, outputPath); err != nil {
		logger.Warn("playing synthesized audio", "speaker", p.speaker.Name(), "error", err)
	}

	turn.AI = reply
	turn.AudioPath = outputPath
	turn.Outcome = domain.OutcomeCompleted
	return nil
}

func asTransport(service string, err error) error {
	var te *domain.TransportError
	if errors.As(err, &te) {
		return err
	}
	return domain.NewTransportError(service, err)
}

func failureNotice(err error) string {
	var te *domain.TransportError
	if errors.As(err, &te) {
		return fmt.Sprintf("Something went wrong during %s, please record again", te.Service)
	}
	return "Something went wrong, please record again"
}

// writeAudio replaces path atomically so a reader never sees a partial file.
func writeAudio(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".output-*.wav")
	if err != nil {
		return fmt.Errorf("creating temp output: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing output: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming output: %w", err)
	}

	return nil
}
