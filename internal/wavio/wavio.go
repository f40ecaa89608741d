// Package wavio reads and writes integer PCM WAV files as planar float64
// channels in [-1, 1).
package wavio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-retrofox/dsp/core"
)

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

var (
	// ErrInvalidFile is returned for data that is not a RIFF/WAVE stream.
	ErrInvalidFile = errors.New("wavio: not a valid wav file")
	// ErrUnsupported is returned for non-PCM encodings and bit depths
	// other than 16, 24 and 32.
	ErrUnsupported = errors.New("wavio: unsupported format")
)

// Audio is a decoded file.
type Audio struct {
	SampleRate int
	BitDepth   int
	Channels   [][]float64
}

// Frames returns the number of sample frames.
func (a *Audio) Frames() int { return core.Frames(a.Channels) }

// Duration returns the length in seconds.
func (a *Audio) Duration() float64 {
	if a.SampleRate <= 0 {
		return 0
	}

	return float64(a.Frames()) / float64(a.SampleRate)
}

func supportedDepth(bits int) bool {
	return bits == 16 || bits == 24 || bits == 32
}

func fullScale(bits int) float64 {
	return float64(int64(1) << (bits - 1))
}

// Read decodes a PCM WAV stream.
func Read(r io.ReadSeeker) (*Audio, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidFile
	}

	if dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible {
		return nil, fmt.Errorf("%w: audio format %d", ErrUnsupported, dec.WavAudioFormat)
	}

	bits := int(dec.BitDepth)
	if !supportedDepth(bits) {
		return nil, fmt.Errorf("%w: %d-bit", ErrUnsupported, bits)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wavio: decode: %w", err)
	}

	nch := int(dec.NumChans)
	if nch < 1 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidFile, nch)
	}

	frames := len(buf.Data) / nch
	out := core.NewChannels(nch, frames)
	scale := 1 / fullScale(bits)

	for i := range frames {
		for ch := range nch {
			out[ch][i] = float64(buf.Data[i*nch+ch]) * scale
		}
	}

	return &Audio{
		SampleRate: int(dec.SampleRate),
		BitDepth:   bits,
		Channels:   out,
	}, nil
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return a, nil
}

// Write encodes a as PCM at a.BitDepth, clipping samples to full scale.
func Write(w io.WriteSeeker, a *Audio) error {
	if !supportedDepth(a.BitDepth) {
		return fmt.Errorf("%w: %d-bit", ErrUnsupported, a.BitDepth)
	}

	if a.SampleRate <= 0 {
		return fmt.Errorf("wavio: sample rate must be > 0: %d", a.SampleRate)
	}

	nch := len(a.Channels)
	if nch < 1 {
		return errors.New("wavio: no channels")
	}

	frames := a.Frames()
	for ch := range a.Channels {
		if len(a.Channels[ch]) != frames {
			return fmt.Errorf("wavio: channel %d has %d frames, want %d", ch, len(a.Channels[ch]), frames)
		}
	}

	full := fullScale(a.BitDepth)
	data := make([]int, frames*nch)

	for i := range frames {
		for ch := range nch {
			data[i*nch+ch] = quantize(a.Channels[ch][i], full)
		}
	}

	enc := wav.NewEncoder(w, a.SampleRate, a.BitDepth, nch, formatPCM)

	err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: nch, SampleRate: a.SampleRate},
		Data:           data,
		SourceBitDepth: a.BitDepth,
	})
	if err != nil {
		return fmt.Errorf("wavio: encode: %w", err)
	}

	return enc.Close()
}

// WriteFile creates or truncates path and writes a to it.
func WriteFile(path string, a *Audio) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	err = Write(f, a)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}

	return f.Close()
}

func quantize(v, full float64) int {
	if math.IsNaN(v) {
		return 0
	}

	return int(core.Clamp(math.Round(v*full), -full, full-1))
}
