// Package retrofox implements the RetroFoX lo-fi multi-effect.
//
// Signal flow per block:
//
//	ladder (LPF24, drive) → bitcrusher → dry + flanger·enable → tremolo → vinyl noise → post gain
//
// The flanger is controlled by a single intensity knob and is faded in and
// out with a 50 ms enable ramp. Tremolo and vinyl noise are skipped entirely
// while their depth or level is negligible.
package retrofox

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-retrofox/dsp/core"
	"github.com/cwbudde/algo-retrofox/dsp/effects"
	"github.com/cwbudde/algo-retrofox/dsp/effects/modulation"
	"github.com/cwbudde/algo-retrofox/dsp/filter/ladder"
	"github.com/cwbudde/algo-retrofox/dsp/ramp"
	"github.com/cwbudde/algo-vecmath"
)

const (
	ladderCutoffHz = 20000.0

	maxDelayMs         = 20.0
	minFlangerOffsetMs = 1.0
	maxFlangerOffsetMs = 7.0
	maxFlangerDepthMs  = 5.0
	minFlangerRateHz   = 0.1
	maxFlangerRateHz   = 1.0

	enableRampSeconds = 0.05
	gainRampSeconds   = 0.01
)

// Option configures a Processor.
type Option func(*config) error

type config struct {
	proc   core.ProcessorConfig
	params Params
	seed   *uint64
	logger logrus.FieldLogger
}

// WithChannels sets the channel count.
func WithChannels(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("retrofox: channels must be > 0: %d", n)
		}

		cfg.proc.Channels = n

		return nil
	}
}

// WithBlockSize preallocates the wet buffer for blocks of up to n frames.
func WithBlockSize(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("retrofox: block size must be > 0: %d", n)
		}

		cfg.proc.BlockSize = n

		return nil
	}
}

// WithParams sets the initial parameters.
func WithParams(p Params) Option {
	return func(cfg *config) error {
		err := p.Validate()
		if err != nil {
			return err
		}

		cfg.params = p

		return nil
	}
}

// WithSeed makes the vinyl noise reproducible.
func WithSeed(seed uint64) Option {
	return func(cfg *config) error {
		cfg.seed = &seed

		return nil
	}
}

// WithLogger sets the logger used for parameter changes.
func WithLogger(l logrus.FieldLogger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errors.New("retrofox: nil logger")
		}

		cfg.logger = l

		return nil
	}
}

// Processor is the RetroFoX effect graph.
type Processor struct {
	sampleRate float64
	channels   int
	params     Params

	filter  *ladder.Filter
	crusher *effects.BitCrusher
	flanger *modulation.Flanger
	tremolo *effects.Tremolo
	vinyl   *effects.VinylNoise

	enable   ramp.Ramp
	postGain ramp.Ramp
	fx       [][]float64
	fxView   [][]float64

	log logrus.FieldLogger
}

// New builds a processor at sampleRate with DefaultParams unless
// overridden.
func New(sampleRate float64, opts ...Option) (*Processor, error) {
	cfg := config{
		proc:   core.ApplyProcessorOptions(core.WithSampleRate(sampleRate)),
		params: DefaultParams(),
		logger: logrus.StandardLogger(),
	}

	for _, opt := range opts {
		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}

	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("retrofox: sample rate must be positive and finite: %f", sampleRate)
	}

	p := &Processor{
		params:   cfg.params,
		enable:   ramp.New(enableRampSeconds),
		postGain: ramp.New(gainRampSeconds),
		log:      cfg.logger,
	}

	var err error

	p.filter, err = ladder.New(sampleRate,
		ladder.WithMode(ladder.LPF24),
		ladder.WithCutoffHz(ladderCutoffHz),
		ladder.WithResonance(0),
		ladder.WithDrive(cfg.params.Drive),
		ladder.WithChannels(cfg.proc.Channels),
	)
	if err != nil {
		return nil, err
	}

	p.crusher, err = effects.NewBitCrusher(sampleRate,
		effects.WithBitCrusherBitDepth(cfg.params.BitDepth),
		effects.WithBitCrusherDownsample(cfg.params.RateReduce),
	)
	if err != nil {
		return nil, err
	}

	offset, depth, rate, _ := flangerSettings(cfg.params.FlangerIntensity)

	p.flanger, err = modulation.NewFlanger(sampleRate,
		modulation.WithFlangerMaxDelayMs(maxDelayMs),
		modulation.WithFlangerOffsetMs(offset),
		modulation.WithFlangerDepthMs(depth),
		modulation.WithFlangerRateHz(rate),
		modulation.WithFlangerFeedback(0),
		modulation.WithFlangerMix(1),
		modulation.WithFlangerChannels(cfg.proc.Channels),
	)
	if err != nil {
		return nil, err
	}

	p.tremolo, err = effects.NewTremolo(sampleRate,
		effects.WithTremoloRateHz(cfg.params.TremoloRateHz),
		effects.WithTremoloDepth(cfg.params.TremoloDepth/100),
		effects.WithTremoloEnabled(cfg.params.TremoloEnabled),
		effects.WithTremoloMix(1),
	)
	if err != nil {
		return nil, err
	}

	vinylOpts := []effects.VinylOption{effects.WithVinylLevel(cfg.params.VinylNoise / 100)}
	if cfg.seed != nil {
		vinylOpts = append(vinylOpts, effects.WithVinylSeed(*cfg.seed))
	}

	p.vinyl, err = effects.NewVinylNoise(sampleRate, vinylOpts...)
	if err != nil {
		return nil, err
	}

	p.allocWet(cfg.proc.Channels, cfg.proc.BlockSize)

	err = p.Prepare(sampleRate, cfg.proc.Channels)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Prepare resizes every stage for sampleRate and channels, clears all
// signal state and snaps the ramps to the current parameters.
func (p *Processor) Prepare(sampleRate float64, channels int) error {
	err := p.filter.Prepare(sampleRate, channels)
	if err != nil {
		return err
	}

	p.filter.Reset()

	err = p.crusher.SetSampleRate(sampleRate)
	if err != nil {
		return err
	}

	err = p.flanger.Prepare(sampleRate, channels)
	if err != nil {
		return err
	}

	err = p.tremolo.SetSampleRate(sampleRate)
	if err != nil {
		return err
	}

	err = p.vinyl.Prepare(sampleRate)
	if err != nil {
		return err
	}

	if len(p.fx) != channels {
		p.allocWet(channels, cap(p.fx[0]))
	}

	_, _, _, on := flangerSettings(p.params.FlangerIntensity)
	p.enable.Prepare(sampleRate, true, boolGain(on))
	p.postGain.Prepare(sampleRate, true, core.DBToGain(p.params.PostGainDb))

	p.sampleRate = sampleRate
	p.channels = channels
	p.crusher.Reset()
	p.tremolo.Reset()

	p.log.WithFields(logrus.Fields{
		"sampleRate": sampleRate,
		"channels":   channels,
	}).Debug("retrofox: prepared")

	return nil
}

// Reset clears filter, delay and LFO state without touching parameters.
func (p *Processor) Reset() {
	p.filter.Reset()
	p.crusher.Reset()
	p.flanger.Clear()
	p.tremolo.Reset()
	p.vinyl.Reset()
	p.enable.SetTarget(p.enable.Target(), true)
	p.postGain.SetTarget(p.postGain.Target(), true)
}

// Params returns the current parameters.
func (p *Processor) Params() Params { return p.params }

// SampleRate returns the current sample rate.
func (p *Processor) SampleRate() float64 { return p.sampleRate }

// Channels returns the prepared channel count.
func (p *Processor) Channels() int { return p.channels }

// SetParams validates next and applies every field that differs from the
// current settings.
func (p *Processor) SetParams(next Params) error {
	err := next.Validate()
	if err != nil {
		return err
	}

	cur := p.params

	if next.Drive != cur.Drive {
		err = p.SetDrive(next.Drive)
		if err != nil {
			return err
		}
	}

	if next.BitDepth != cur.BitDepth {
		err = p.SetBitDepth(next.BitDepth)
		if err != nil {
			return err
		}
	}

	if next.RateReduce != cur.RateReduce {
		err = p.SetRateReduce(next.RateReduce)
		if err != nil {
			return err
		}
	}

	if next.FlangerIntensity != cur.FlangerIntensity {
		err = p.SetFlangerIntensity(next.FlangerIntensity)
		if err != nil {
			return err
		}
	}

	if next.PostGainDb != cur.PostGainDb {
		err = p.SetPostGainDb(next.PostGainDb)
		if err != nil {
			return err
		}
	}

	if next.TremoloEnabled != cur.TremoloEnabled {
		p.SetTremoloEnabled(next.TremoloEnabled)
	}

	if next.TremoloRateHz != cur.TremoloRateHz {
		err = p.SetTremoloRateHz(next.TremoloRateHz)
		if err != nil {
			return err
		}
	}

	if next.TremoloDepth != cur.TremoloDepth {
		err = p.SetTremoloDepth(next.TremoloDepth)
		if err != nil {
			return err
		}
	}

	if next.VinylNoise != cur.VinylNoise {
		err = p.SetVinylNoise(next.VinylNoise)
		if err != nil {
			return err
		}
	}

	return nil
}

// SetDrive sets the ladder drive in [1, 10].
func (p *Processor) SetDrive(drive float64) error {
	err := p.check(func(q *Params) { q.Drive = drive })
	if err != nil {
		return err
	}

	err = p.filter.SetDrive(drive)
	if err != nil {
		return err
	}

	p.params.Drive = drive
	p.changed("drive", drive)

	return nil
}

// SetBitDepth sets the crusher resolution in [1, 24] bits.
func (p *Processor) SetBitDepth(bits float64) error {
	err := p.check(func(q *Params) { q.BitDepth = bits })
	if err != nil {
		return err
	}

	err = p.crusher.SetBitDepth(bits)
	if err != nil {
		return err
	}

	p.params.BitDepth = bits
	p.changed("bitDepth", bits)

	return nil
}

// SetRateReduce sets the sample-and-hold factor in [1, 64].
func (p *Processor) SetRateReduce(factor int) error {
	err := p.check(func(q *Params) { q.RateReduce = factor })
	if err != nil {
		return err
	}

	p.crusher.SetDownsample(factor)
	p.params.RateReduce = factor
	p.changed("rateReduce", factor)

	return nil
}

// SetFlangerIntensity maps a 0..100 % intensity onto the flanger and fades
// the wet path in or out.
func (p *Processor) SetFlangerIntensity(pct float64) error {
	err := p.check(func(q *Params) { q.FlangerIntensity = pct })
	if err != nil {
		return err
	}

	offset, depth, rate, on := flangerSettings(pct)

	err = errors.Join(
		p.flanger.SetDepthMs(depth),
		p.flanger.SetRateHz(rate),
		p.flanger.SetOffsetMs(offset),
	)
	if err != nil {
		return err
	}

	p.enable.SetTarget(boolGain(on), false)
	p.params.FlangerIntensity = pct

	p.log.WithFields(logrus.Fields{
		"intensity": pct,
		"offsetMs":  offset,
		"depthMs":   depth,
		"rateHz":    rate,
		"enabled":   on,
	}).Debug("retrofox: flanger intensity changed")

	return nil
}

// SetPostGainDb ramps the output gain; -60 dB and below is silence.
func (p *Processor) SetPostGainDb(db float64) error {
	err := p.check(func(q *Params) { q.PostGainDb = db })
	if err != nil {
		return err
	}

	p.postGain.SetTarget(core.DBToGain(db), false)
	p.params.PostGainDb = db
	p.changed("postGainDb", db)

	return nil
}

// SetTremoloEnabled switches the tremolo stage.
func (p *Processor) SetTremoloEnabled(on bool) {
	p.tremolo.SetEnabled(on)
	p.params.TremoloEnabled = on
	p.changed("tremoloEnabled", on)
}

// SetTremoloRateHz sets the tremolo LFO rate in [0.1, 20] Hz.
func (p *Processor) SetTremoloRateHz(hz float64) error {
	err := p.check(func(q *Params) { q.TremoloRateHz = hz })
	if err != nil {
		return err
	}

	err = p.tremolo.SetRateHz(hz)
	if err != nil {
		return err
	}

	p.params.TremoloRateHz = hz
	p.changed("tremoloRateHz", hz)

	return nil
}

// SetTremoloDepth sets the tremolo depth in percent.
func (p *Processor) SetTremoloDepth(pct float64) error {
	err := p.check(func(q *Params) { q.TremoloDepth = pct })
	if err != nil {
		return err
	}

	err = p.tremolo.SetDepth(pct / 100)
	if err != nil {
		return err
	}

	p.params.TremoloDepth = pct
	p.changed("tremoloDepth", pct)

	return nil
}

// SetVinylNoise sets the crackle level in percent.
func (p *Processor) SetVinylNoise(pct float64) error {
	err := p.check(func(q *Params) { q.VinylNoise = pct })
	if err != nil {
		return err
	}

	err = p.vinyl.SetLevel(pct / 100)
	if err != nil {
		return err
	}

	p.params.VinylNoise = pct
	p.changed("vinylNoise", pct)

	return nil
}

// check validates the current parameters with one field replaced.
func (p *Processor) check(set func(*Params)) error {
	q := p.params
	set(&q)

	return q.Validate()
}

func (p *Processor) changed(name string, v any) {
	p.log.WithFields(logrus.Fields{"param": name, "value": v}).Debug("retrofox: parameter changed")
}

// Process runs the effect graph in place. Channels beyond the prepared
// count pass through unchanged.
func (p *Processor) Process(channels [][]float64) {
	n := core.Frames(channels)
	if n == 0 {
		return
	}

	if len(channels) > p.channels {
		channels = channels[:p.channels]
	}

	p.filter.Process(channels)

	// The crusher restarts its hold cycle on every channel of every block.
	for _, buf := range channels {
		p.crusher.Reset()
		p.crusher.ProcessInPlace(buf[:n])
	}

	fx := p.wet(len(channels), n)
	core.CopyChannels(fx, channels)
	p.flanger.ProcessInPlace(fx)
	p.enable.ApplyGain(fx, n)

	for ch := range channels {
		vecmath.AddBlockInPlace(channels[ch][:n], fx[ch])
	}

	p.tremolo.ProcessChannels(channels, n)
	p.vinyl.Process(channels)
	p.postGain.ApplyGain(channels, n)
}

// wet returns views of the flanger buffer sized to channels × n, growing
// the buffer when a block exceeds the preallocated size.
func (p *Processor) wet(channels, n int) [][]float64 {
	if len(p.fx) < channels || cap(p.fx[0]) < n {
		p.allocWet(max(channels, len(p.fx)), max(n, cap(p.fx[0])))
	}

	view := p.fxView[:channels]
	for ch := range view {
		view[ch] = p.fx[ch][:n]
	}

	return view
}

func (p *Processor) allocWet(channels, frames int) {
	p.fx = core.NewChannels(channels, frames)
	p.fxView = make([][]float64, channels)
}

func boolGain(on bool) float64 {
	if on {
		return 1
	}

	return 0
}
