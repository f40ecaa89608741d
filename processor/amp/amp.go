// Package amp runs a GRU amplifier model over planar audio blocks.
//
// Each channel owns its own recurrent cell so stereo material keeps
// independent state. The first model input is the audio sample; any further
// inputs are conditioning values such as a gain or tone knob, held constant
// across a block and set with SetCondition.
package amp

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-retrofox/dsp/core"
	"github.com/cwbudde/algo-retrofox/dsp/neural/gru"
	"github.com/cwbudde/algo-retrofox/dsp/ramp"
)

const (
	defaultChannels = 2
	gainRampSeconds = 0.01
	minGainDb       = -60.0
	maxGainDb       = 24.0
)

// ErrNoModel is returned when a processor is built without weights.
var ErrNoModel = errors.New("amp: no model")

// Option configures a Processor.
type Option func(*config) error

type config struct {
	channels     int
	inputGainDb  float64
	outputGainDb float64
	skip         *bool
	logger       logrus.FieldLogger
}

func defaultConfig() config {
	return config{
		channels: defaultChannels,
		logger:   logrus.StandardLogger(),
	}
}

// WithChannels sets the number of independently processed channels.
func WithChannels(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("amp: channels must be > 0: %d", n)
		}

		cfg.channels = n

		return nil
	}
}

// WithInputGainDb sets the gain applied before the network.
func WithInputGainDb(db float64) Option {
	return func(cfg *config) error {
		err := validateGainDb(db)
		if err != nil {
			return err
		}

		cfg.inputGainDb = db

		return nil
	}
}

// WithOutputGainDb sets the gain applied after the network.
func WithOutputGainDb(db float64) Option {
	return func(cfg *config) error {
		err := validateGainDb(db)
		if err != nil {
			return err
		}

		cfg.outputGainDb = db

		return nil
	}
}

// WithSkip overrides the model file's skip flag.
func WithSkip(skip bool) Option {
	return func(cfg *config) error {
		cfg.skip = &skip

		return nil
	}
}

// WithLogger sets the logger used for parameter changes.
func WithLogger(l logrus.FieldLogger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errors.New("amp: nil logger")
		}

		cfg.logger = l

		return nil
	}
}

// Processor applies a GRU model sample by sample to every channel.
type Processor struct {
	sampleRate float64
	model      *gru.Model
	cells      []*gru.Cell
	skip       bool
	skipSet    bool

	inputGainDb  float64
	outputGainDb float64
	inputGain    ramp.Ramp
	outputGain   ramp.Ramp

	conditions []float64
	in         [][]float64
	out        [][]float64

	log logrus.FieldLogger
}

// New builds a processor for model at sampleRate.
func New(model *gru.Model, sampleRate float64, opts ...Option) (*Processor, error) {
	if model == nil {
		return nil, ErrNoModel
	}

	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("amp: sample rate must be positive and finite: %f", sampleRate)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}

	p := &Processor{
		inputGainDb:  cfg.inputGainDb,
		outputGainDb: cfg.outputGainDb,
		inputGain:    ramp.New(gainRampSeconds),
		outputGain:   ramp.New(gainRampSeconds),
		log:          cfg.logger,
	}

	if cfg.skip != nil {
		p.skip = *cfg.skip
		p.skipSet = true
	}

	err := p.setModel(model, cfg.channels)
	if err != nil {
		return nil, err
	}

	p.Prepare(sampleRate)

	return p, nil
}

// Prepare sets the sample rate, snaps both gains to their targets and
// clears the recurrent state.
func (p *Processor) Prepare(sampleRate float64) {
	p.sampleRate = sampleRate
	p.inputGain.Prepare(sampleRate, true, core.DBToGain(p.inputGainDb))
	p.outputGain.Prepare(sampleRate, true, core.DBToGain(p.outputGainDb))
	p.Reset()
}

// LoadModel replaces the weights. A model with the same dimensions is
// copied into the existing cells and keeps their state; any other model
// rebuilds the cells. Not safe concurrently with Process.
func (p *Processor) LoadModel(model *gru.Model) error {
	if model == nil {
		return ErrNoModel
	}

	if p.model != nil && model.Dims == p.model.Dims {
		for _, c := range p.cells {
			err := c.Load(model.Params)
			if err != nil {
				return err
			}
		}

		p.model = model
		if !p.skipSet {
			p.skip = model.Skip
		}

		p.log.WithFields(logrus.Fields{"dims": model.Dims.String(), "skip": p.skip}).Debug("amp: weights reloaded")

		return nil
	}

	return p.setModel(model, len(p.cells))
}

func (p *Processor) setModel(model *gru.Model, channels int) error {
	d := model.Dims

	err := d.Validate()
	if err != nil {
		return err
	}

	cells := make([]*gru.Cell, channels)
	for ch := range cells {
		cells[ch], err = model.NewCell()
		if err != nil {
			return fmt.Errorf("amp: channel %d: %w", ch, err)
		}
	}

	conditions := make([]float64, d.Input-1)
	copy(conditions, p.conditions)

	p.model = model
	p.cells = cells
	p.conditions = conditions
	p.in = core.NewChannels(channels, d.Input)
	p.out = core.NewChannels(channels, d.Output)

	if !p.skipSet {
		p.skip = model.Skip
	}

	p.log.WithFields(logrus.Fields{
		"dims":       d.String(),
		"channels":   channels,
		"skip":       p.skip,
		"conditions": len(conditions),
	}).Debug("amp: model loaded")

	return nil
}

// SetInputGainDb ramps the pre-network gain to db.
func (p *Processor) SetInputGainDb(db float64) error {
	err := validateGainDb(db)
	if err != nil {
		return err
	}

	p.inputGainDb = db
	p.inputGain.SetTarget(core.DBToGain(db), false)
	p.log.WithField("inputGainDb", db).Debug("amp: parameter changed")

	return nil
}

// SetOutputGainDb ramps the post-network gain to db.
func (p *Processor) SetOutputGainDb(db float64) error {
	err := validateGainDb(db)
	if err != nil {
		return err
	}

	p.outputGainDb = db
	p.outputGain.SetTarget(core.DBToGain(db), false)
	p.log.WithField("outputGainDb", db).Debug("amp: parameter changed")

	return nil
}

// SetCondition sets conditioning input i (0 is the first input after the
// audio sample).
func (p *Processor) SetCondition(i int, v float64) error {
	if i < 0 || i >= len(p.conditions) {
		return fmt.Errorf("amp: condition index %d out of range [0,%d)", i, len(p.conditions))
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("amp: condition must be finite: %f", v)
	}

	p.conditions[i] = v
	p.log.WithFields(logrus.Fields{"index": i, "value": v}).Debug("amp: condition changed")

	return nil
}

// SetSkip overrides the model's skip flag.
func (p *Processor) SetSkip(skip bool) {
	p.skip = skip
	p.skipSet = true
}

// Reset clears the hidden state of every channel.
func (p *Processor) Reset() {
	for _, c := range p.cells {
		c.Reset()
	}
}

// Process runs the model in place over channels. Channels beyond the
// processor's channel count pass through unchanged.
func (p *Processor) Process(channels [][]float64) {
	n := core.Frames(channels)
	active := min(len(channels), len(p.cells))

	for ch := 0; ch < active; ch++ {
		copy(p.in[ch][1:], p.conditions)
	}

	for i := 0; i < n; i++ {
		gin := p.inputGain.Next()
		gout := p.outputGain.Next()

		for ch := 0; ch < active; ch++ {
			x := channels[ch][i] * gin
			in := p.in[ch]
			out := p.out[ch]

			in[0] = x
			p.cells[ch].Step(out, in)

			y := out[0]
			if p.skip {
				y += x
			}

			channels[ch][i] = y * gout
		}
	}
}

// SampleRate returns the current sample rate.
func (p *Processor) SampleRate() float64 { return p.sampleRate }

// Channels returns the number of processed channels.
func (p *Processor) Channels() int { return len(p.cells) }

// Model returns the loaded model.
func (p *Processor) Model() *gru.Model { return p.model }

// Skip reports whether the input is added to the network output.
func (p *Processor) Skip() bool { return p.skip }

// Conditions returns the number of conditioning inputs.
func (p *Processor) Conditions() int { return len(p.conditions) }

// Condition returns conditioning input i.
func (p *Processor) Condition(i int) float64 { return p.conditions[i] }

// InputGainDb returns the input gain target in dB.
func (p *Processor) InputGainDb() float64 { return p.inputGainDb }

// OutputGainDb returns the output gain target in dB.
func (p *Processor) OutputGainDb() float64 { return p.outputGainDb }

// State copies the hidden state of channel ch into dst.
func (p *Processor) State(ch int, dst []float64) []float64 {
	return p.cells[ch].State(dst)
}

func validateGainDb(db float64) error {
	if math.IsNaN(db) || db < minGainDb || db > maxGainDb {
		return fmt.Errorf("amp: gain must be in [%g, %g] dB: %f", minGainDb, maxGainDb, db)
	}

	return nil
}
