package app_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"voice-chat/internal/application"
	"voice-chat/internal/domain"
	"voice-chat/internal/infra/audio"
	"voice-chat/internal/infra/audio/audiotest"
	"voice-chat/internal/infra/azure"
	"voice-chat/internal/infra/metrics"
	"voice-chat/internal/infra/replicate"
)

// fakeCloud answers the three vendor calls a turn makes.
type fakeCloud struct {
	transcript string
	reply      []string
	speech     []byte
	ttsStatus  int
	calls      []string
}

func (f *fakeCloud) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /stt", func(w http.ResponseWriter, r *http.Request) {
		f.calls = append(f.calls, "stt")
		if _, err := audio.Inspect(mustRead(t, r.Body)); err != nil {
			t.Errorf("recognizer received invalid wav: %v", err)
		}
		if f.transcript == "" {
			io.WriteString(w, `{"RecognitionStatus":"NoMatch"}`)
			return
		}
		io.WriteString(w, `{"RecognitionStatus":"Success","DisplayText":"`+f.transcript+`"}`)
	})

	mux.HandleFunc("POST /replicate/models/meta/llama-2-70b-chat/predictions", func(w http.ResponseWriter, r *http.Request) {
		f.calls = append(f.calls, "llm")
		quoted := make([]string, len(f.reply))
		for i, p := range f.reply {
			quoted[i] = `"` + p + `"`
		}
		io.WriteString(w, `{"id":"p1","status":"succeeded","output":[`+strings.Join(quoted, ",")+`]}`)
	})

	mux.HandleFunc("POST /tts", func(w http.ResponseWriter, r *http.Request) {
		f.calls = append(f.calls, "tts")
		if f.ttsStatus != 0 {
			http.Error(w, "rejected", f.ttsStatus)
			return
		}
		w.Write(f.speech)
	})

	return mux
}

func mustRead(t *testing.T, r io.Reader) []byte {
	t.Helper()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func newPipeline(t *testing.T, cloud *fakeCloud) (*application.Pipeline, *metrics.Recorder) {
	t.Helper()
	server := httptest.NewServer(cloud.handler(t))
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := metrics.NewRecorder()

	p := application.NewPipeline(
		azure.NewRecognizerWithURL("sub", server.URL+"/stt", "en-US", logger),
		replicate.NewClientWithURL("r8", "", server.URL+"/replicate", logger),
		azure.NewSynthesizerWithURL("sub", server.URL+"/tts", "", logger),
		&application.NoopSpeaker{},
		rec,
		logger,
	)
	p.SetTimeout(10 * time.Second)
	return p, rec
}

func question(t *testing.T) *domain.Capture {
	t.Helper()
	samples := make([]int, 16000)
	for i := range samples {
		samples[i] = (i % 40) * 400
	}
	return domain.NewCapture(audiotest.PCM16(t, samples, application.DefaultCaptureFormat()))
}

func TestIntegration_FranceQuestion(t *testing.T) {
	speech := audiotest.PCM16(t, make([]int, 2400), application.AudioFormat{SampleRate: 24000, Channels: 1, BitDepth: 16})

	cloud := &fakeCloud{
		transcript: "What is the capital of France?",
		reply:      []string{" The", " capital", " of France", " is Paris."},
		speech:     speech,
	}
	p, _ := newPipeline(t, cloud)

	out := filepath.Join(t.TempDir(), application.OutputFileName)
	turn, err := p.Run(context.Background(), question(t), out)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if turn.Human != "What is the capital of France?" {
		t.Errorf("human: got %q", turn.Human)
	}
	if turn.AI != " The capital of France is Paris." {
		t.Errorf("ai: got %q", turn.AI)
	}

	written, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output.wav: %v", err)
	}
	if !bytes.Equal(written, speech) {
		t.Error("output.wav differs from synthesized audio")
	}
	if strings.Join(cloud.calls, ",") != "stt,llm,tts" {
		t.Errorf("call order: got %v", cloud.calls)
	}
}

func TestIntegration_NoSpeechSkipsModel(t *testing.T) {
	cloud := &fakeCloud{}
	p, _ := newPipeline(t, cloud)

	turn, err := p.Run(context.Background(), question(t), filepath.Join(t.TempDir(), "output.wav"))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if turn.Notice != domain.NoticeNoSpeech {
		t.Errorf("notice: got %q", turn.Notice)
	}
	if strings.Join(cloud.calls, ",") != "stt" {
		t.Errorf("calls: got %v", cloud.calls)
	}
}

func TestIntegration_SynthesisRejected(t *testing.T) {
	cloud := &fakeCloud{
		transcript: "hello",
		reply:      []string{"Hi there."},
		ttsStatus:  http.StatusBadRequest,
	}
	p, _ := newPipeline(t, cloud)

	out := filepath.Join(t.TempDir(), "output.wav")
	turn, err := p.Run(context.Background(), question(t), out)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if turn.Human != "hello" || turn.AI != "" || turn.Notice != domain.NoticeSynthesisFailed {
		t.Errorf("turn: got %+v", turn)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no audio should be written when synthesis is rejected")
	}
}
