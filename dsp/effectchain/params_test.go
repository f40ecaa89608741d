package effectchain

import (
	"math"
	"testing"
)

func TestParamsGetNum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		p    Params
		key  string
		def  float64
		want float64
	}{
		{
			name: "existing key returns value",
			p:    Params{Num: map[string]float64{"gain": 0.75}},
			key:  "gain",
			def:  1.0,
			want: 0.75,
		},
		{
			name: "missing key returns default",
			p:    Params{Num: map[string]float64{"gain": 0.75}},
			key:  "mix",
			def:  0.5,
			want: 0.5,
		},
		{
			name: "nil map returns default",
			p:    Params{},
			key:  "gain",
			def:  1.0,
			want: 1.0,
		},
		{
			name: "NaN returns default",
			p:    Params{Num: map[string]float64{"gain": math.NaN()}},
			key:  "gain",
			def:  1.0,
			want: 1.0,
		},
		{
			name: "positive Inf returns default",
			p:    Params{Num: map[string]float64{"gain": math.Inf(1)}},
			key:  "gain",
			def:  1.0,
			want: 1.0,
		},
		{
			name: "negative Inf returns default",
			p:    Params{Num: map[string]float64{"gain": math.Inf(-1)}},
			key:  "gain",
			def:  1.0,
			want: 1.0,
		},
		{
			name: "zero value is valid",
			p:    Params{Num: map[string]float64{"gain": 0}},
			key:  "gain",
			def:  1.0,
			want: 0,
		},
		{
			name: "negative value is valid",
			p:    Params{Num: map[string]float64{"gain": -3.5}},
			key:  "gain",
			def:  1.0,
			want: -3.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.p.GetNum(tt.key, tt.def)
			if got != tt.want {
				t.Errorf("GetNum(%q, %v) = %v, want %v", tt.key, tt.def, got, tt.want)
			}
		})
	}
}

func TestParamsGetInt(t *testing.T) {
	t.Parallel()

	p := Params{Num: map[string]float64{"bits": 7.9, "neg": -2.5, "huge": 1e12}}

	if got := p.GetInt("bits", 16); got != 7 {
		t.Errorf("GetInt(bits) = %d, want 7", got)
	}

	if got := p.GetInt("neg", 0); got != -2 {
		t.Errorf("GetInt(neg) = %d, want -2", got)
	}

	if got := p.GetInt("huge", 3); got != 3 {
		t.Errorf("GetInt(huge) = %d, want default 3", got)
	}

	if got := p.GetInt("missing", 5); got != 5 {
		t.Errorf("GetInt(missing) = %d, want 5", got)
	}
}

func TestParamsGetBool(t *testing.T) {
	t.Parallel()

	p := Params{
		Num: map[string]float64{"one": 1, "zero": 0, "half": 0.5},
		Str: map[string]string{"on": "On", "no": " no ", "junk": "maybe"},
	}

	tests := []struct {
		key  string
		def  bool
		want bool
	}{
		{key: "one", def: false, want: true},
		{key: "zero", def: true, want: false},
		{key: "half", def: true, want: false},
		{key: "on", def: false, want: true},
		{key: "no", def: true, want: false},
		{key: "junk", def: true, want: true},
		{key: "missing", def: true, want: true},
	}

	for _, tt := range tests {
		if got := p.GetBool(tt.key, tt.def); got != tt.want {
			t.Errorf("GetBool(%q, %v) = %v, want %v", tt.key, tt.def, got, tt.want)
		}
	}
}

func TestParamsGetStr(t *testing.T) {
	t.Parallel()

	p := Params{Str: map[string]string{"mode": "hpf12", "blank": "  "}}

	if got := p.GetStr("mode", "lpf24"); got != "hpf12" {
		t.Errorf("GetStr(mode) = %q, want hpf12", got)
	}

	if got := p.GetStr("blank", "lpf24"); got != "lpf24" {
		t.Errorf("GetStr(blank) = %q, want default", got)
	}

	if got := (Params{}).GetStr("mode", "x"); got != "x" {
		t.Errorf("GetStr on empty params = %q, want x", got)
	}
}
