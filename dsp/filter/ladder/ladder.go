package ladder

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-retrofox/dsp/core"
	"github.com/cwbudde/algo-retrofox/dsp/ramp"
)

const (
	defaultCutoffHz  = 1000.0
	defaultResonance = 0.0
	defaultDrive     = 1.0
	defaultChannels  = 2

	minCutoffHz = 1.0
	maxDrive    = 100.0

	// smoothingSeconds is the glide time of cutoff and resonance.
	smoothingSeconds = 0.05

	// outputScale lifts every mode's tap weights.
	outputScale = 1.2
)

// Mode selects the tap mix of the ladder.
type Mode int

const (
	LPF12 Mode = iota
	HPF12
	BPF12
	LPF24
	HPF24
	BPF24
)

var modeNames = [...]string{"lpf12", "hpf12", "bpf12", "lpf24", "hpf24", "bpf24"}

func (m Mode) String() string {
	if m < LPF12 || m > BPF24 {
		return "unknown"
	}

	return modeNames[m]
}

// ParseMode resolves a case-insensitive mode name such as "lpf24".
func ParseMode(name string) (Mode, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	for i, n := range modeNames {
		if n == s {
			return Mode(i), nil
		}
	}

	return 0, fmt.Errorf("ladder: unknown mode %q", name)
}

// ModeFromIndex maps a host-style index, truncated toward zero, to a mode.
func ModeFromIndex(v float64) (Mode, error) {
	m := Mode(math.Floor(v))
	if math.IsNaN(v) || m < LPF12 || m > BPF24 {
		return 0, fmt.Errorf("ladder: mode index out of range: %f", v)
	}

	return m, nil
}

type modeTaps struct {
	a    [5]float64
	comp float64
}

var modeTable = [...]modeTaps{
	LPF12: {a: [5]float64{0, 0, 1, 0, 0}, comp: 0.5},
	HPF12: {a: [5]float64{1, -2, 1, 0, 0}, comp: 0},
	BPF12: {a: [5]float64{0, 0, -1, 1, 0}, comp: 0.5},
	LPF24: {a: [5]float64{0, 0, 0, 0, 1}, comp: 0.5},
	HPF24: {a: [5]float64{1, -4, 6, -4, 1}, comp: 0},
	BPF24: {a: [5]float64{0, 0, 1, -2, 1}, comp: 0.5},
}

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	mode      Mode
	cutoffHz  float64
	resonance float64
	drive     float64
	channels  int
	enabled   bool
}

func defaultConfig() config {
	return config{
		mode:      LPF24,
		cutoffHz:  defaultCutoffHz,
		resonance: defaultResonance,
		drive:     defaultDrive,
		channels:  defaultChannels,
		enabled:   true,
	}
}

// WithMode selects the filter response.
func WithMode(mode Mode) Option {
	return func(cfg *config) error {
		if mode < LPF12 || mode > BPF24 {
			return fmt.Errorf("ladder: invalid mode: %d", mode)
		}

		cfg.mode = mode

		return nil
	}
}

// WithCutoffHz sets cutoff in Hz. Values above 0.49*fs are clamped.
func WithCutoffHz(cutoffHz float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(cutoffHz, minCutoffHz, math.Inf(1), "cutoff"); err != nil {
			return err
		}

		cfg.cutoffHz = cutoffHz

		return nil
	}
}

// WithResonance sets resonance in [0, 1].
func WithResonance(resonance float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(resonance, 0, 1, "resonance"); err != nil {
			return err
		}

		cfg.resonance = resonance

		return nil
	}
}

// WithDrive sets input saturation in [1, 100].
func WithDrive(drive float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(drive, 1, maxDrive, "drive"); err != nil {
			return err
		}

		cfg.drive = drive

		return nil
	}
}

// WithChannels sets the number of independent stage states.
func WithChannels(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("ladder: channels must be >= 1: %d", n)
		}

		cfg.channels = n

		return nil
	}
}

// WithEnabled sets the initial bypass state.
func WithEnabled(enabled bool) Option {
	return func(cfg *config) error {
		cfg.enabled = enabled
		return nil
	}
}

// State holds the five node values of one channel.
type State [5]float64

// Filter is a multi-channel ladder filter.
type Filter struct {
	sampleRate float64
	enabled    bool

	mode      Mode
	taps      [5]float64
	comp      float64
	cutoffHz  float64
	resonance float64
	drive     float64

	gain, drive2, gain2 float64

	cutoffTransform ramp.Ramp
	scaledRes       ramp.Ramp

	states []State
}

// New constructs a ladder filter.
func New(sampleRate float64, opts ...Option) (*Filter, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	f := &Filter{
		enabled:         cfg.enabled,
		cutoffHz:        cfg.cutoffHz,
		resonance:       cfg.resonance,
		cutoffTransform: ramp.New(smoothingSeconds),
		scaledRes:       ramp.New(smoothingSeconds),
	}
	f.setMode(cfg.mode)
	f.setDrive(cfg.drive)

	if err := f.Prepare(sampleRate, cfg.channels); err != nil {
		return nil, err
	}

	return f, nil
}

// Prepare sets sample rate and channel count, clears all state and snaps
// the smoothed parameters to their targets.
func (f *Filter) Prepare(sampleRate float64, channels int) error {
	if !isFinite(sampleRate) || sampleRate <= 0 {
		return fmt.Errorf("ladder: sample rate must be > 0 and finite: %f", sampleRate)
	}

	if channels < 1 {
		return fmt.Errorf("ladder: channels must be >= 1: %d", channels)
	}

	f.sampleRate = sampleRate
	f.states = make([]State, channels)
	f.cutoffTransform.Prepare(sampleRate, true, f.transform(f.cutoffHz))
	f.scaledRes.Prepare(sampleRate, true, scaleResonance(f.resonance))

	return nil
}

// Reset clears stage state and finishes any glide in progress.
func (f *Filter) Reset() {
	clear(f.states)
	f.cutoffTransform.SetTarget(f.cutoffTransform.Target(), true)
	f.scaledRes.SetTarget(f.scaledRes.Target(), true)
}

// SampleRate returns the sample rate in Hz.
func (f *Filter) SampleRate() float64 { return f.sampleRate }

// Channels returns the number of channel states.
func (f *Filter) Channels() int { return len(f.states) }

// Mode returns the active response.
func (f *Filter) Mode() Mode { return f.mode }

// CutoffHz returns the target cutoff in Hz.
func (f *Filter) CutoffHz() float64 { return f.cutoffHz }

// Resonance returns the target resonance in [0, 1].
func (f *Filter) Resonance() float64 { return f.resonance }

// Drive returns the input drive.
func (f *Filter) Drive() float64 { return f.drive }

// Enabled reports whether Process modifies its input.
func (f *Filter) Enabled() bool { return f.enabled }

// SetEnabled toggles bypass.
func (f *Filter) SetEnabled(enabled bool) { f.enabled = enabled }

// SetMode switches the tap mix immediately.
func (f *Filter) SetMode(mode Mode) error {
	if mode < LPF12 || mode > BPF24 {
		return fmt.Errorf("ladder: invalid mode: %d", mode)
	}

	f.setMode(mode)

	return nil
}

// SetCutoffHz starts a glide to a new cutoff.
func (f *Filter) SetCutoffHz(cutoffHz float64) error {
	if err := validateFiniteRange(cutoffHz, minCutoffHz, math.Inf(1), "cutoff"); err != nil {
		return err
	}

	f.cutoffHz = cutoffHz
	f.cutoffTransform.SetTarget(f.transform(cutoffHz), false)

	return nil
}

// SetResonance starts a glide to a new resonance.
func (f *Filter) SetResonance(resonance float64) error {
	if err := validateFiniteRange(resonance, 0, 1, "resonance"); err != nil {
		return err
	}

	f.resonance = resonance
	f.scaledRes.SetTarget(scaleResonance(resonance), false)

	return nil
}

// SetDrive updates the saturation and its gain compensation.
func (f *Filter) SetDrive(drive float64) error {
	if err := validateFiniteRange(drive, 1, maxDrive, "drive"); err != nil {
		return err
	}

	f.setDrive(drive)

	return nil
}

// State returns a copy of channel ch's node values.
func (f *Filter) State(ch int) State { return f.states[ch] }

// SetState restores channel ch's node values.
func (f *Filter) SetState(ch int, state State) error {
	for _, v := range state {
		if !isFinite(v) {
			return fmt.Errorf("ladder: state contains NaN or Inf")
		}
	}

	f.states[ch] = state

	return nil
}

func (f *Filter) setMode(mode Mode) {
	t := modeTable[mode]
	f.mode = mode
	f.comp = t.comp

	for i, a := range t.a {
		f.taps[i] = a * outputScale
	}
}

func (f *Filter) setDrive(drive float64) {
	f.drive = drive
	f.gain = compensation(drive)
	f.drive2 = drive*0.04 + 0.96
	f.gain2 = compensation(f.drive2)
}

// transform maps cutoff to the one-pole feedback coefficient.
func (f *Filter) transform(cutoffHz float64) float64 {
	fc := min(cutoffHz, 0.49*f.sampleRate)
	return math.Exp(-2 * math.Pi * fc / f.sampleRate)
}

func scaleResonance(r float64) float64 {
	return core.MapRange(r, 0.1, 1)
}

// compensation offsets the level lost to tanh saturation at high drive.
func compensation(drive float64) float64 {
	return math.Pow(drive, -2.642)*0.6103 + 0.3903
}

// advance steps the smoothed parameters one frame.
func (f *Filter) advance() (a1, res float64) {
	return f.cutoffTransform.Next(), f.scaledRes.Next()
}

func (f *Filter) tick(s *State, x, a1, res float64) float64 {
	g := 1 - a1
	b0 := g * 0.76923076923
	b1 := g * 0.23076923076

	dx := f.gain * math.Tanh(f.drive*x)
	a := dx + res*-4*(f.gain2*math.Tanh(f.drive2*s[4])-dx*f.comp)

	b := b1*s[0] + a1*s[1] + b0*a
	c := b1*s[1] + a1*s[2] + b0*b
	d := b1*s[2] + a1*s[3] + b0*c
	e := b1*s[3] + a1*s[4] + b0*d

	s[0], s[1], s[2], s[3], s[4] = a, b, c, d, e

	return f.taps[0]*a + f.taps[1]*b + f.taps[2]*c + f.taps[3]*d + f.taps[4]*e
}

// ProcessSample filters one sample on channel 0 and advances the glides.
func (f *Filter) ProcessSample(x float64) float64 {
	if !f.enabled {
		return x
	}

	a1, res := f.advance()

	return f.tick(&f.states[0], x, a1, res)
}

// ProcessInPlace filters a mono buffer on channel 0.
func (f *Filter) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = f.ProcessSample(buf[i])
	}
}

// Process filters channels in place, frame by frame. Channels beyond the
// prepared count pass through untouched.
func (f *Filter) Process(channels [][]float64) {
	if !f.enabled {
		return
	}

	n := core.Frames(channels)
	nch := min(len(channels), len(f.states))

	for i := 0; i < n; i++ {
		a1, res := f.advance()
		for ch := 0; ch < nch; ch++ {
			channels[ch][i] = f.tick(&f.states[ch], channels[ch][i], a1, res)
		}
	}
}

func validateFiniteRange(v, lo, hi float64, name string) error {
	if !isFinite(v) || v < lo || v > hi {
		return fmt.Errorf("ladder: %s must be in [%g, %g]: %f", name, lo, hi, v)
	}

	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
