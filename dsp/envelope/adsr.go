// Package envelope provides an ADSR envelope generator.
//
// Times are given in milliseconds. In the default digital style every
// segment is a straight line. The analog style runs one-pole exponential
// segments toward overshooting targets, so attack approaches 1 with the
// concave curve of a charging capacitor and decay/release fall with the
// usual RC tail.
package envelope

import (
	"fmt"
	"math"
)

const (
	defaultAttackMs  = 10.0
	defaultDecayMs   = 100.0
	defaultSustain   = 0.7
	defaultReleaseMs = 500.0

	minTimeMs = 0.01
	maxTimeMs = 60000.0

	// Target overshoot ratios of the analog curves.
	attackRatio = 0.3
	decayRatio  = 1e-4
)

// Stage is the current envelope segment.
type Stage int

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "unknown"
	}
}

// Option mutates an ADSR at construction time.
type Option func(*ADSR) error

// WithAttackMs sets the attack time.
func WithAttackMs(ms float64) Option { return func(e *ADSR) error { return e.SetAttackMs(ms) } }

// WithDecayMs sets the decay time.
func WithDecayMs(ms float64) Option { return func(e *ADSR) error { return e.SetDecayMs(ms) } }

// WithSustain sets the sustain level.
func WithSustain(level float64) Option { return func(e *ADSR) error { return e.SetSustain(level) } }

// WithReleaseMs sets the release time.
func WithReleaseMs(ms float64) Option { return func(e *ADSR) error { return e.SetReleaseMs(ms) } }

// WithAnalog selects the exponential segment style.
func WithAnalog(analog bool) Option {
	return func(e *ADSR) error {
		e.SetAnalog(analog)
		return nil
	}
}

// ADSR is an attack-decay-sustain-release envelope.
type ADSR struct {
	sampleRate float64
	analog     bool

	attackMs, decayMs, releaseMs float64
	sustain                      float64

	// linear increments per sample
	attackStep, decayStep, releaseStep float64
	// analog one-pole coefficients and offsets
	attackCoef, attackBase   float64
	decayCoef, decayBase     float64
	releaseCoef, releaseBase float64

	stage Stage
	value float64
}

// New creates an idle envelope with 10/100/0.7/500 settings.
func New(sampleRate float64, opts ...Option) (*ADSR, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("envelope: sample rate must be > 0 and finite: %f", sampleRate)
	}

	e := &ADSR{
		sampleRate: sampleRate,
		attackMs:   defaultAttackMs,
		decayMs:    defaultDecayMs,
		sustain:    defaultSustain,
		releaseMs:  defaultReleaseMs,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.update()

	return e, nil
}

// Prepare changes the sample rate and resets to idle.
func (e *ADSR) Prepare(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("envelope: sample rate must be > 0 and finite: %f", sampleRate)
	}
	e.sampleRate = sampleRate
	e.update()
	e.Reset()

	return nil
}

func validTime(name string, ms float64) error {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 {
		return fmt.Errorf("envelope: %s time must be finite and >= 0: %f", name, ms)
	}
	return nil
}

// SetAttackMs sets the attack time, clamped to [0.01, 60000] ms.
func (e *ADSR) SetAttackMs(ms float64) error {
	if err := validTime("attack", ms); err != nil {
		return err
	}
	e.attackMs = ms
	e.update()

	return nil
}

// SetDecayMs sets the decay time, clamped to [0.01, 60000] ms.
func (e *ADSR) SetDecayMs(ms float64) error {
	if err := validTime("decay", ms); err != nil {
		return err
	}
	e.decayMs = ms
	e.update()

	return nil
}

// SetReleaseMs sets the release time, clamped to [0.01, 60000] ms.
func (e *ADSR) SetReleaseMs(ms float64) error {
	if err := validTime("release", ms); err != nil {
		return err
	}
	e.releaseMs = ms
	e.update()
	if e.stage == StageRelease {
		e.releaseStep = e.value / e.samples(e.releaseMs)
	}

	return nil
}

// SetSustain sets the sustain level in [0, 1].
func (e *ADSR) SetSustain(level float64) error {
	if math.IsNaN(level) || level < 0 || level > 1 {
		return fmt.Errorf("envelope: sustain must be in [0, 1]: %f", level)
	}
	e.sustain = level
	e.update()

	return nil
}

// SetAnalog switches between linear and exponential segments.
func (e *ADSR) SetAnalog(analog bool) {
	e.analog = analog
	e.update()
}

func (e *ADSR) samples(ms float64) float64 {
	ms = min(max(ms, minTimeMs), maxTimeMs)
	return math.Max(1, ms*0.001*e.sampleRate)
}

func onePole(n, ratio float64) float64 {
	return math.Exp(-math.Log((1+ratio)/ratio) / n)
}

func (e *ADSR) update() {
	a := e.samples(e.attackMs)
	d := e.samples(e.decayMs)
	r := e.samples(e.releaseMs)

	e.attackStep = 1 / a
	e.decayStep = (1 - e.sustain) / d
	// End fixes the release slope from the level it releases at.
	if e.stage != StageRelease {
		e.releaseStep = math.Max(e.sustain, e.value) / r
	}

	e.attackCoef = onePole(a, attackRatio)
	e.attackBase = (1 + attackRatio) * (1 - e.attackCoef)
	e.decayCoef = onePole(d, decayRatio)
	e.decayBase = (e.sustain - decayRatio) * (1 - e.decayCoef)
	e.releaseCoef = onePole(r, decayRatio)
	e.releaseBase = -decayRatio * (1 - e.releaseCoef)
}

// Start triggers the attack from the current level.
func (e *ADSR) Start() {
	e.stage = StageAttack
}

// End enters the release segment unless the envelope is idle.
func (e *ADSR) End() {
	if e.stage == StageIdle {
		return
	}
	e.stage = StageRelease
	e.releaseStep = e.value / e.samples(e.releaseMs)
}

// Reset returns to idle at level 0.
func (e *ADSR) Reset() {
	e.stage = StageIdle
	e.value = 0
}

// Stage returns the current segment.
func (e *ADSR) Stage() Stage { return e.stage }

// Active reports whether the envelope is outside the idle stage.
func (e *ADSR) Active() bool { return e.stage != StageIdle }

// Value returns the current level without advancing.
func (e *ADSR) Value() float64 { return e.value }

// Next advances one sample and returns the level.
func (e *ADSR) Next() float64 {
	switch e.stage {
	case StageAttack:
		if e.analog {
			e.value = e.attackBase + e.value*e.attackCoef
		} else {
			e.value += e.attackStep
		}
		if e.value >= 1 {
			e.value = 1
			e.stage = StageDecay
		}
	case StageDecay:
		if e.analog {
			e.value = e.decayBase + e.value*e.decayCoef
		} else {
			e.value -= e.decayStep
		}
		if e.value <= e.sustain {
			e.value = e.sustain
			e.stage = StageSustain
		}
	case StageSustain:
		e.value = e.sustain
	case StageRelease:
		if e.analog {
			e.value = e.releaseBase + e.value*e.releaseCoef
		} else {
			e.value -= e.releaseStep
		}
		if e.value <= 0 {
			e.value = 0
			e.stage = StageIdle
		}
	case StageIdle:
	}

	return e.value
}

// Process fills buf with successive envelope levels.
func (e *ADSR) Process(buf []float64) {
	for i := range buf {
		buf[i] = e.Next()
	}
}
