package effectchain

import (
	"fmt"

	"github.com/cwbudde/algo-retrofox/dsp/neural/gru"
)

// Context provides environmental information that effect runtimes need.
type Context struct {
	SampleRate float64
	Channels   int
	Models     ModelProvider
}

// ChannelCount returns Channels, or 2 when unset.
func (c Context) ChannelCount() int {
	if c.Channels < 1 {
		return 2
	}

	return c.Channels
}

// ModelProvider lets runtimes resolve neural weights by name without
// depending on where they are stored.
type ModelProvider interface {
	Model(name string) (*gru.Model, error)
}

// ModelMap is a ModelProvider backed by a map.
type ModelMap map[string]*gru.Model

// Model returns the named model or ErrUnknownModel.
func (m ModelMap) Model(name string) (*gru.Model, error) {
	model, ok := m[name]
	if !ok || model == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}

	return model, nil
}
