package mos

import (
	"math"
	"testing"
)

func TestOpResize(t *testing.T) {
	op := Op{"ibias": 1e-3, "gm": 2e-3, "cgg": 1e-15, "vstar": 0.2, "vth": 0.45}

	tests := []struct {
		name string
		wm   float64
	}{
		{"identity", 1.0},
		{"fractional", 1.5},
		{"zero", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := op.Resize(tt.wm)
			if math.Abs(out["ibias"]-tt.wm*1e-3) > 1e-18 {
				t.Errorf("expected ibias %g, got %g", tt.wm*1e-3, out["ibias"])
			}
			if math.Abs(out["cgg"]-tt.wm*1e-15) > 1e-30 {
				t.Errorf("expected cgg %g, got %g", tt.wm*1e-15, out["cgg"])
			}
			if out["vstar"] != 0.2 || out["vth"] != 0.45 {
				t.Errorf("expected voltages unchanged, got vstar=%g vth=%g", out["vstar"], out["vth"])
			}
		})
	}

	if op["ibias"] != 1e-3 {
		t.Errorf("resize mutated receiver: ibias=%g", op["ibias"])
	}
}

func TestOpVstarFallback(t *testing.T) {
	op := Op{"ibias": 1e-4, "gm": 1e-3}
	if got := op.Vstar(); math.Abs(got-0.2) > 1e-12 {
		t.Errorf("expected vstar 0.2, got %g", got)
	}

	if got := (Op{"ibias": 1e-4}).Vstar(); got != 0 {
		t.Errorf("expected vstar 0 without gm, got %g", got)
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"n", N, false},
		{"pch", P, false},
		{"NMOS", N, false},
		{"x", "", true},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: expected error %v, got %v", tt.in, tt.wantErr, err)
		}
		if got != tt.want {
			t.Errorf("%q: expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
