package mos

import (
	"fmt"
	"sort"
	"strings"
)

// Type is the channel type of a device.
type Type string

const (
	N Type = "n"
	P Type = "p"
)

func (t Type) Valid() bool {
	return t == N || t == P
}

// Sign is +1 for n-type and -1 for p-type devices.
func (t Type) Sign() float64 {
	if t == P {
		return -1
	}
	return 1
}

// ParseType accepts "n"/"p" and the long forms "nch"/"pch".
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "n", "nch", "nmos":
		return N, nil
	case "p", "pch", "pmos":
		return P, nil
	}
	return "", fmt.Errorf("mos: unknown device type %q", s)
}

// Op is a small-signal operating point keyed by parameter name.
type Op map[string]float64

// Resize scales an operating point by a width multiplier. Current and
// capacitance-like entries scale linearly; entries whose key starts with 'v'
// are voltages and are copied unchanged.
func (op Op) Resize(wm float64) Op {
	out := make(Op, len(op))
	for k, v := range op {
		if strings.HasPrefix(k, "v") {
			out[k] = v
			continue
		}
		out[k] = wm * v
	}
	return out
}

func (op Op) Get(key string) float64 {
	return op[key]
}

func (op Op) Ibias() float64 {
	return op["ibias"]
}

// Vstar returns the stored overdrive figure, falling back to 2*ibias/gm.
func (op Op) Vstar() float64 {
	if v, ok := op["vstar"]; ok {
		return v
	}
	gm := op["gm"]
	if gm == 0 {
		return 0
	}
	return 2 * op["ibias"] / gm
}

func (op Op) Clone() Op {
	out := make(Op, len(op))
	for k, v := range op {
		out[k] = v
	}
	return out
}

// Keys returns the parameter names in sorted order.
func (op Op) Keys() []string {
	keys := make([]string, 0, len(op))
	for k := range op {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
