package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-retrofox/dsp/core"
	"github.com/cwbudde/algo-retrofox/internal/wavio"
)

// processBlocks runs fn in place over consecutive views of at most size
// frames.
func processBlocks(channels [][]float64, size int, fn func(block [][]float64)) {
	n := core.Frames(channels)
	view := make([][]float64, len(channels))

	for off := 0; off < n; off += size {
		end := min(off+size, n)
		for ch := range channels {
			view[ch] = channels[ch][off:end]
		}

		fn(view)
	}
}

func (a *app) readWAV(path string) (*wavio.Audio, error) {
	in, err := wavio.ReadFile(path)
	if err != nil {
		return nil, err
	}

	a.log.WithFields(logrus.Fields{
		"file":       path,
		"sampleRate": in.SampleRate,
		"channels":   len(in.Channels),
		"bitDepth":   in.BitDepth,
		"frames":     in.Frames(),
	}).Debug("input loaded")

	return in, nil
}

// writeWAV writes out at bits, or at its own depth when bits is 0.
func (a *app) writeWAV(path string, out *wavio.Audio, bits int) error {
	if bits != 0 {
		out.BitDepth = bits
	}

	if err := wavio.WriteFile(path, out); err != nil {
		return err
	}

	a.log.WithFields(logrus.Fields{
		"file":     path,
		"bitDepth": out.BitDepth,
		"seconds":  out.Duration(),
	}).Info("written")

	return nil
}

func validBits(bits int) error {
	switch bits {
	case 0, 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("bit depth must be 16, 24 or 32: %d", bits)
	}
}
