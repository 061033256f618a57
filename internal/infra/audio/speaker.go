//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

// Speaker plays WAV files on the default output device.
type Speaker struct {
	logger *slog.Logger

	// portaudio owns a single device handle; plays are serialized.
	mu sync.Mutex
}

func NewSpeaker(logger *slog.Logger) *Speaker {
	return &Speaker{logger: logger}
}

func (s *Speaker) Name() string {
	return "portaudio"
}

func (s *Speaker) Play(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return ErrNotWAV
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return fmt.Errorf("decoding wav: %w", err)
	}

	channels := int(dec.NumChans)
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	out := make([]int16, framesPerBuffer*channels)
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(dec.SampleRate), framesPerBuffer, out)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting stream: %w", err)
	}
	defer stream.Stop()

	s.logger.Debug("playing audio", "path", path, "sampleRate", dec.SampleRate, "channels", channels)

	return writeSamples(ctx, stream, pcm, out, int(dec.BitDepth))
}

func writeSamples(ctx context.Context, stream *portaudio.Stream, pcm *goaudio.IntBuffer, out []int16, bitDepth int) error {
	shift := 0
	if bitDepth > 16 {
		shift = bitDepth - 16
	}

	for i := 0; i < len(pcm.Data); i += len(out) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n := copy16(out, pcm.Data[i:], shift)
		for j := n; j < len(out); j++ {
			out[j] = 0
		}

		if err := stream.Write(); err != nil {
			return fmt.Errorf("writing to stream: %w", err)
		}
	}

	return nil
}

func copy16(dst []int16, src []int, shift int) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = int16(src[i] >> shift)
	}
	return n
}
