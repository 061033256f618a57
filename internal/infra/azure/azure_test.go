package azure_test

import (
	"context"
	"encoding/xml"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voice-chat/internal/application"
	"voice-chat/internal/domain"
	"voice-chat/internal/infra/audio/audiotest"
	"voice-chat/internal/infra/azure"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecognizer_Recognized(t *testing.T) {
	capture := domain.NewCapture([]byte("RIFF fake wav"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "sub-key" {
			t.Errorf("subscription header: got %q", r.Header.Get("Ocp-Apim-Subscription-Key"))
		}
		if r.URL.Query().Get("language") != "en-US" {
			t.Errorf("language: got %q", r.URL.Query().Get("language"))
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "audio/wav") {
			t.Errorf("content type: got %q", r.Header.Get("Content-Type"))
		}

		body, _ := io.ReadAll(r.Body)
		if string(body) != "RIFF fake wav" {
			t.Errorf("body: got %q", body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"RecognitionStatus":"Success","DisplayText":"What is the capital of France?","Offset":100,"Duration":2000}`))
	}))
	defer server.Close()

	rec := azure.NewRecognizerWithURL("sub-key", server.URL, "", testLogger())

	got, err := rec.Recognize(context.Background(), capture)
	if err != nil {
		t.Fatalf("Recognize error: %v", err)
	}
	if !got.Recognized {
		t.Fatal("expected recognized")
	}
	if got.Text != "What is the capital of France?" {
		t.Errorf("text: got %q", got.Text)
	}
}

func TestRecognizer_SampleRateFromHeader(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{
			name: "44.1 kHz recording",
			data: audiotest.PCM16(t, make([]int, 4410), application.AudioFormat{SampleRate: 44100, Channels: 1, BitDepth: 16}),
			want: "audio/wav; codecs=audio/pcm; samplerate=44100",
		},
		{
			name: "unreadable header",
			data: []byte("RIFF fake wav"),
			want: "audio/wav; codecs=audio/pcm; samplerate=16000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Content-Type")
				w.Write([]byte(`{"RecognitionStatus":"NoMatch"}`))
			}))
			defer server.Close()

			rec := azure.NewRecognizerWithURL("sub-key", server.URL, "en-US", testLogger())
			if _, err := rec.Recognize(context.Background(), domain.NewCapture(tt.data)); err != nil {
				t.Fatalf("Recognize error: %v", err)
			}
			if got != tt.want {
				t.Errorf("content type: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecognizer_NotRecognized(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no match", body: `{"RecognitionStatus":"NoMatch"}`},
		{name: "silence", body: `{"RecognitionStatus":"InitialSilenceTimeout"}`},
		{name: "empty text", body: `{"RecognitionStatus":"Success","DisplayText":"  "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			rec := azure.NewRecognizerWithURL("sub-key", server.URL, "en-US", testLogger())

			got, err := rec.Recognize(context.Background(), domain.NewCapture([]byte("wav")))
			if err != nil {
				t.Fatalf("Recognize error: %v", err)
			}
			if got.Recognized || got.Text != "" {
				t.Errorf("got %+v, want not recognized", got)
			}
		})
	}
}

func TestRecognizer_BadCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	rec := azure.NewRecognizerWithURL("bad", server.URL, "en-US", testLogger())

	_, err := rec.Recognize(context.Background(), domain.NewCapture([]byte("wav")))
	if err == nil || !strings.Contains(err.Error(), "azure speech API error 401") {
		t.Errorf("error: got %v", err)
	}
}

func TestSynthesizer_Completed(t *testing.T) {
	wav := []byte("RIFF....WAVEfmt ")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Microsoft-OutputFormat") != "riff-24khz-16bit-mono-pcm" {
			t.Errorf("output format: got %q", r.Header.Get("X-Microsoft-OutputFormat"))
		}

		var speak struct {
			Voice struct {
				Name string `xml:"name,attr"`
				Text string `xml:",chardata"`
			} `xml:"voice"`
		}
		if err := xml.NewDecoder(r.Body).Decode(&speak); err != nil {
			t.Fatalf("decoding ssml: %v", err)
		}
		if speak.Voice.Name != azure.DefaultVoice {
			t.Errorf("voice: got %q", speak.Voice.Name)
		}
		if speak.Voice.Text != "Paris & <more>" {
			t.Errorf("text: got %q", speak.Voice.Text)
		}

		w.Header().Set("Content-Type", "audio/x-wav")
		w.Write(wav)
	}))
	defer server.Close()

	syn := azure.NewSynthesizerWithURL("sub-key", server.URL, "", testLogger())

	got, err := syn.Synthesize(context.Background(), "Paris & <more>")
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if !got.Completed() {
		t.Fatalf("expected completed, got %+v", got)
	}
	if string(got.Audio) != string(wav) {
		t.Errorf("audio mismatch")
	}
}

func TestSynthesizer_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "voice not found", http.StatusBadRequest)
	}))
	defer server.Close()

	syn := azure.NewSynthesizerWithURL("sub-key", server.URL, "xx-Nobody", testLogger())

	got, err := syn.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("rejection should not be an error: %v", err)
	}
	if got.Reason != domain.SynthesisCanceled {
		t.Errorf("reason: got %s", got.Reason)
	}
	if got.Completed() {
		t.Error("rejected synthesis reported completed")
	}
	if !strings.Contains(got.Detail, "voice not found") {
		t.Errorf("detail: got %q", got.Detail)
	}
}

func TestSynthesizer_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	syn := azure.NewSynthesizerWithURL("sub-key", url, "", testLogger())

	if _, err := syn.Synthesize(context.Background(), "hello"); err == nil {
		t.Error("expected transport error")
	}
}
