package gru

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMissingTensor is returned when a weights file lacks a required tensor.
var ErrMissingTensor = errors.New("gru: missing tensor")

// State-dict keys of a single-layer PyTorch GRU followed by nn.Linear.
const (
	keyWeightIH = "rec.weight_ih_l0"
	keyWeightHH = "rec.weight_hh_l0"
	keyBiasIH   = "rec.bias_ih_l0"
	keyBiasHH   = "rec.bias_hh_l0"
	keyLinW     = "lin.weight"
	keyLinB     = "lin.bias"
)

// Model is a decoded weights file: dimensions, parameters and the
// skip flag telling callers to add the input sample to the output.
type Model struct {
	Dims     Dims
	Skip     bool
	UnitType string
	Params   *Params
}

type modelData struct {
	Dims
	UnitType  string `json:"unit_type"`
	NumLayers int    `json:"num_layers"`
	Skip      int    `json:"skip"`
}

type modelFile struct {
	ModelData modelData                  `json:"model_data"`
	StateDict map[string]json.RawMessage `json:"state_dict"`
}

// LoadModelFile reads a weights file from disk.
func LoadModelFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gru: open model: %w", err)
	}
	defer f.Close()

	m, err := ReadModel(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ReadModel decodes a PyTorch-style state-dict JSON document with stacked
// gate rows in r, z, n order.
func ReadModel(r io.Reader) (*Model, error) {
	var mf modelFile
	if err := json.NewDecoder(r).Decode(&mf); err != nil {
		return nil, fmt.Errorf("gru: decode model: %w", err)
	}

	md := mf.ModelData
	if md.UnitType != "" && !strings.EqualFold(md.UnitType, "GRU") {
		return nil, fmt.Errorf("gru: unsupported unit type %q", md.UnitType)
	}
	if md.NumLayers > 1 {
		return nil, fmt.Errorf("gru: %d layers not supported", md.NumLayers)
	}

	d := md.Dims
	if err := d.Validate(); err != nil {
		return nil, err
	}

	p, err := NewParams(d)
	if err != nil {
		return nil, err
	}

	dec := stateDecoder{dict: mf.StateDict}
	dec.gateMatrix(keyWeightIH, d.Hidden, d.Input, p.WeightIHR, p.WeightIHZ, p.WeightIHN)
	dec.gateMatrix(keyWeightHH, d.Hidden, d.Hidden, p.WeightHHR, p.WeightHHZ, p.WeightHHN)
	dec.gateVector(keyBiasIH, d.Hidden, p.BiasIHR, p.BiasIHZ, p.BiasIHN)
	dec.gateVector(keyBiasHH, d.Hidden, p.BiasHHR, p.BiasHHZ, p.BiasHHN)
	dec.matrix(keyLinW, d.Output, d.Hidden, p.WeightOut)
	dec.vector(keyLinB, d.Output, p.BiasOut)
	if dec.err != nil {
		return nil, dec.err
	}

	return &Model{
		Dims:     d,
		Skip:     md.Skip != 0,
		UnitType: "GRU",
		Params:   p,
	}, nil
}

// NewCell returns a fresh cell loaded with a copy of the model's parameters.
func (m *Model) NewCell() (*Cell, error) {
	return New(m.Dims, WithParams(m.Params))
}

// Write encodes the model in the same layout ReadModel accepts.
func (m *Model) Write(w io.Writer) error {
	if err := m.Params.Validate(m.Dims); err != nil {
		return err
	}

	d := m.Dims
	p := m.Params
	skip := 0
	if m.Skip {
		skip = 1
	}

	out := struct {
		ModelData modelData      `json:"model_data"`
		StateDict map[string]any `json:"state_dict"`
	}{
		ModelData: modelData{Dims: d, UnitType: "GRU", NumLayers: 1, Skip: skip},
		StateDict: map[string]any{
			keyWeightIH: rows(d.Input, p.WeightIHR, p.WeightIHZ, p.WeightIHN),
			keyWeightHH: rows(d.Hidden, p.WeightHHR, p.WeightHHZ, p.WeightHHN),
			keyBiasIH:   concat(p.BiasIHR, p.BiasIHZ, p.BiasIHN),
			keyBiasHH:   concat(p.BiasHHR, p.BiasHHZ, p.BiasHHN),
			keyLinW:     rows(d.Hidden, p.WeightOut),
			keyLinB:     p.BiasOut,
		},
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("gru: encode model: %w", err)
	}
	return nil
}

// stateDecoder remembers the first error so the call sites stay flat.
type stateDecoder struct {
	dict map[string]json.RawMessage
	err  error
}

func (s *stateDecoder) raw(key string) json.RawMessage {
	if s.err != nil {
		return nil
	}
	raw, ok := s.dict[key]
	if !ok {
		s.err = fmt.Errorf("%w: %s", ErrMissingTensor, key)
		return nil
	}
	return raw
}

func (s *stateDecoder) matrix(key string, nrows, ncols int, dst []float64) {
	s.gateMatrix(key, nrows, ncols, dst)
}

// gateMatrix splits a (len(dst)*nrows) × ncols matrix into consecutive
// blocks of nrows rows, one per destination.
func (s *stateDecoder) gateMatrix(key string, nrows, ncols int, dst ...[]float64) {
	raw := s.raw(key)
	if raw == nil {
		return
	}

	var m [][]float64
	if err := json.Unmarshal(raw, &m); err != nil {
		s.err = fmt.Errorf("gru: decode %s: %w", key, err)
		return
	}
	if len(m) != nrows*len(dst) {
		s.err = fmt.Errorf("%w: %s has %d rows, want %d", ErrShapeMismatch, key, len(m), nrows*len(dst))
		return
	}

	for i, row := range m {
		if len(row) != ncols {
			s.err = fmt.Errorf("%w: %s row %d has %d columns, want %d", ErrShapeMismatch, key, i, len(row), ncols)
			return
		}
		gate := dst[i/nrows]
		copy(gate[(i%nrows)*ncols:], row)
	}
}

func (s *stateDecoder) vector(key string, n int, dst []float64) {
	s.gateVector(key, n, dst)
}

func (s *stateDecoder) gateVector(key string, n int, dst ...[]float64) {
	raw := s.raw(key)
	if raw == nil {
		return
	}

	var v []float64
	if err := json.Unmarshal(raw, &v); err != nil {
		s.err = fmt.Errorf("gru: decode %s: %w", key, err)
		return
	}
	if len(v) != n*len(dst) {
		s.err = fmt.Errorf("%w: %s has %d values, want %d", ErrShapeMismatch, key, len(v), n*len(dst))
		return
	}

	for g, gate := range dst {
		copy(gate, v[g*n:(g+1)*n])
	}
}

func rows(ncols int, blocks ...[]float64) [][]float64 {
	var out [][]float64
	for _, b := range blocks {
		for i := 0; i+ncols <= len(b); i += ncols {
			out = append(out, b[i:i+ncols])
		}
	}
	return out
}

func concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
