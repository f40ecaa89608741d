package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-retrofox/dsp/effectchain"
	"github.com/cwbudde/algo-retrofox/dsp/neural/gru"
	"github.com/cwbudde/algo-retrofox/processor/amp"
	"github.com/cwbudde/algo-retrofox/processor/retrofox"
	"github.com/cwbudde/algo-retrofox/processor/ringladder"
	"github.com/cwbudde/algo-retrofox/processor/synth"
)

const defaultBlockSize = 512

// Preset is the YAML document accepted by --preset:
//
//	blockSize: 256
//	models:
//	  clean: models/clean.json
//	stages:
//	  - type: amp
//	    params: {model: clean, inputGainDb: 6}
//	  - type: retrofox
//	    params: {bitDepth: 8, flangerIntensity: 30}
//	retrofox:
//	  drive: 2
//	synth:
//	  oscType: saw-aa
//
// Model paths are relative to the preset file.
type Preset struct {
	BlockSize  int                 `mapstructure:"blockSize"`
	Models     map[string]string   `mapstructure:"models"`
	Stages     []effectchain.Stage `mapstructure:"stages"`
	RetroFoX   retrofox.Params     `mapstructure:"retrofox"`
	RingLadder ringladder.Params   `mapstructure:"ringladder"`
	Synth      synth.Params        `mapstructure:"synth"`
}

// DefaultPreset returns the settings used when no preset is given.
func DefaultPreset() Preset {
	return Preset{
		BlockSize:  defaultBlockSize,
		RetroFoX:   retrofox.DefaultParams(),
		RingLadder: ringladder.DefaultParams(),
		Synth:      synth.DefaultParams(),
	}
}

// preset merges defaults, the preset file, environment and flags.
func (a *app) preset() (*Preset, error) {
	p := DefaultPreset()

	if err := a.v.Unmarshal(&p); err != nil {
		return nil, fmt.Errorf("decode preset: %w", err)
	}

	if p.BlockSize < 1 {
		return nil, fmt.Errorf("block size must be > 0: %d", p.BlockSize)
	}

	if used := a.v.ConfigFileUsed(); used != "" {
		err := readCaseSensitive(used, &p)
		if err != nil {
			return nil, err
		}

		dir := filepath.Dir(used)
		for name, path := range p.Models {
			if !filepath.IsAbs(path) {
				p.Models[name] = filepath.Join(dir, path)
			}
		}
	}

	return &p, nil
}

// readCaseSensitive re-reads stages and models straight from the YAML
// file. Viper folds keys to lower case, and node parameter names are
// case sensitive.
func readCaseSensitive(path string, p *Preset) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var doc struct {
		Models map[string]string   `yaml:"models"`
		Stages []effectchain.Stage `yaml:"stages"`
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode preset: %w", err)
	}

	p.Models = doc.Models
	p.Stages = doc.Stages

	return nil
}

// modelFiles resolves model names to weight files and caches what it
// has loaded.
type modelFiles struct {
	paths map[string]string
	cache map[string]*gru.Model
}

func newModelFiles(paths map[string]string) *modelFiles {
	return &modelFiles{paths: paths, cache: map[string]*gru.Model{}}
}

func (m *modelFiles) Model(name string) (*gru.Model, error) {
	if model, ok := m.cache[name]; ok {
		return model, nil
	}

	path, ok := m.paths[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", effectchain.ErrUnknownModel, name)
	}

	model, err := gru.LoadModelFile(path)
	if err != nil {
		return nil, err
	}

	m.cache[name] = model

	return model, nil
}

// parseStage reads "type" or "type:key=value,key=value". Values that parse
// as numbers or booleans are stored as such, anything else as a string.
func parseStage(arg string) (effectchain.Stage, error) {
	typ, rest, _ := strings.Cut(strings.TrimSpace(arg), ":")
	if typ == "" {
		return effectchain.Stage{}, fmt.Errorf("stage %q: missing type", arg)
	}

	st := effectchain.Stage{Type: typ, Params: map[string]any{}}

	if rest == "" {
		return st, nil
	}

	for _, kv := range strings.Split(rest, ",") {
		key, val, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		if !ok || key == "" {
			return effectchain.Stage{}, fmt.Errorf("stage %q: bad parameter %q", arg, kv)
		}

		switch key {
		case "id":
			st.ID = val
			continue
		case "bypassed":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return effectchain.Stage{}, fmt.Errorf("stage %q: bypassed: %w", arg, err)
			}

			st.Bypassed = b

			continue
		}

		if f, err := strconv.ParseFloat(val, 64); err == nil {
			st.Params[key] = f
		} else if b, err := strconv.ParseBool(val); err == nil {
			st.Params[key] = b
		} else {
			st.Params[key] = val
		}
	}

	return st, nil
}

// newChain builds an effect chain with every built-in runtime plus the
// processor nodes, loaded with stages.
func (a *app) newChain(p *Preset, sampleRate float64, channels int, stages []effectchain.Stage) (*effectchain.Chain, error) {
	reg := effectchain.DefaultRegistry()

	for _, register := range []func(*effectchain.Registry, logrus.FieldLogger) error{
		amp.Register,
		retrofox.Register,
		ringladder.Register,
	} {
		if err := register(reg, a.log); err != nil {
			return nil, err
		}
	}

	chain := effectchain.New(effectchain.Context{
		SampleRate: sampleRate,
		Channels:   channels,
		Models:     newModelFiles(p.Models),
	}, reg)

	if err := chain.LoadStages(stages); err != nil {
		return nil, err
	}

	a.log.WithFields(logrus.Fields{
		"stages":     chain.Order(),
		"sampleRate": sampleRate,
		"channels":   channels,
	}).Debug("chain loaded")

	return chain, nil
}
