// Package audiotest builds WAV fixtures for tests.
package audiotest

import (
	"io"
	"os"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"voice-chat/internal/application"
)

// PCM16 encodes interleaved 16-bit samples as a WAV file.
func PCM16(t testing.TB, samples []int, format application.AudioFormat) []byte {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "encode-*.wav")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	defer f.Close()

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}

	enc := wav.NewEncoder(f, format.SampleRate, 16, format.Channels, 1)
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav encoder: %v", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("rewinding wav: %v", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("reading wav: %v", err)
	}
	return data
}
