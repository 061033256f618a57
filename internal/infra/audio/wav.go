package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/wav"

	"voice-chat/internal/application"
	"voice-chat/internal/domain"
)

var ErrNotWAV = errors.New("not a PCM WAV file")

// Info describes a decoded WAV header.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

func (i Info) Format() application.AudioFormat {
	return application.AudioFormat{SampleRate: i.SampleRate, Channels: i.Channels, BitDepth: i.BitDepth}
}

// Inspect validates data as a PCM WAV file and reads its header.
func Inspect(data []byte) (Info, error) {
	return inspect(bytes.NewReader(data))
}

func inspect(r io.ReadSeeker) (Info, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Info{}, ErrNotWAV
	}

	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return Info{}, fmt.Errorf("reading wav header: %w", err)
	}

	if err := dec.FwdToPCM(); err != nil {
		return Info{}, fmt.Errorf("locating wav data: %w", err)
	}
	bytesPerSec := int64(dec.SampleRate) * int64(dec.NumChans) * int64(dec.BitDepth) / 8
	if bytesPerSec == 0 {
		return Info{}, ErrNotWAV
	}
	dur := time.Duration(dec.PCMLen()) * time.Second / time.Duration(bytesPerSec)

	return Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Duration:   dur,
	}, nil
}

// LoadCapture reads a recording from disk for one pipeline run.
func LoadCapture(path string) (*domain.Capture, Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("reading %s: %w", path, err)
	}

	info, err := Inspect(data)
	if err != nil {
		return nil, Info{}, fmt.Errorf("%s: %w", path, err)
	}

	return domain.NewCapture(data), info, nil
}
