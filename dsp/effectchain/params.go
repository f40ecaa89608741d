package effectchain

import (
	"math"
	"strings"
)

// Params holds the parsed parameters for a single chain node.
type Params struct {
	ID       string
	Type     string
	Bypassed bool
	Num      map[string]float64
	Str      map[string]string
}

// GetNum safely extracts a numeric parameter, returning def if missing or invalid.
func (p Params) GetNum(key string, def float64) float64 {
	if p.Num == nil {
		return def
	}

	v, ok := p.Num[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}

	return v
}

// GetInt returns a numeric parameter truncated toward zero.
func (p Params) GetInt(key string, def int) int {
	v := p.GetNum(key, math.NaN())
	if math.IsNaN(v) || math.Abs(v) > math.MaxInt32 {
		return def
	}

	return int(v)
}

// GetBool treats numbers above 0.5 and the strings "true", "on" and
// "yes" as true.
func (p Params) GetBool(key string, def bool) bool {
	if s, ok := p.Str[key]; ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "on", "yes", "1":
			return true
		case "false", "off", "no", "0":
			return false
		}
	}

	v := p.GetNum(key, math.NaN())
	if math.IsNaN(v) {
		return def
	}

	return v > 0.5
}

// GetStr returns a string parameter, or def when missing or blank.
func (p Params) GetStr(key, def string) string {
	s, ok := p.Str[key]
	if !ok || strings.TrimSpace(s) == "" {
		return def
	}

	return s
}
