package ldo

import (
	"fmt"
	"math"

	"github.com/san-kum/ldodsn/internal/mos"
)

// Role names a device position in the regulator.
type Role string

const (
	Series    Role = "ser"
	AmpIn     Role = "amp_in"
	AmpTail   Role = "amp_tail"
	AmpLoad   Role = "amp_load"
	AmpMirror Role = "amp_mir"
)

// Roles lists every device position in schematic order.
var Roles = []Role{Series, AmpIn, AmpTail, AmpLoad, AmpMirror}

func (r Role) Valid() bool {
	for _, x := range Roles {
		if r == x {
			return true
		}
	}
	return false
}

// Tables holds one operating-point table per role.
type Tables map[Role]mos.Table

func (t Tables) Validate() error {
	for _, r := range Roles {
		tbl, ok := t[r]
		if !ok || tbl == nil {
			return fmt.Errorf("%w: %s", ErrMissingTable, r)
		}
		if w := tbl.WidthList(); len(w) == 0 {
			return fmt.Errorf("%w: %s has an empty width list", ErrMissingTable, r)
		}
	}
	return nil
}

// Device is the fixed geometry of one role.
type Device struct {
	L      float64 `yaml:"l" json:"l"`
	Intent string  `yaml:"intent" json:"intent"`
}

// Spec is the full set of search inputs and performance targets.
type Spec struct {
	Vdd     float64 `yaml:"vdd"`
	Vout    float64 `yaml:"vout"`
	Iload   float64 `yaml:"iload"`
	Iref    float64 `yaml:"iref"`
	IampMax float64 `yaml:"iamp_max"`
	Cload   float64 `yaml:"cload"`
	Cdecap  float64 `yaml:"cdecap"`
	Rsource float64 `yaml:"rsource"`

	// Targets: Err and LoadReg are upper bounds, the rest lower bounds.
	Err           float64 `yaml:"err"`
	PSRR          float64 `yaml:"psrr"`
	PSRRBandwidth float64 `yaml:"psrr_fbw"`
	PM            float64 `yaml:"pm"`
	LoadReg       float64 `yaml:"loadreg"`

	LoadPole bool     `yaml:"load_pole"`
	VRes     float64  `yaml:"v_res"`
	SerType  mos.Type `yaml:"ser_type"`

	Devices map[Role]Device `yaml:"devices,omitempty"`
}

func (s Spec) Validate() error {
	fields := map[string]float64{
		"vdd": s.Vdd, "vout": s.Vout, "iload": s.Iload, "iref": s.Iref, "iamp_max": s.IampMax,
		"cload": s.Cload, "cdecap": s.Cdecap, "rsource": s.Rsource, "err": s.Err, "psrr": s.PSRR,
		"psrr_fbw": s.PSRRBandwidth, "pm": s.PM, "loadreg": s.LoadReg, "v_res": s.VRes,
	}
	for name, v := range fields {
		if math.IsNaN(v) {
			return fmt.Errorf("%w: %s is NaN", ErrInvalidSpec, name)
		}
	}
	switch {
	case s.Vdd <= 0 || math.IsInf(s.Vdd, 0):
		return fmt.Errorf("%w: vdd must be positive, got %g", ErrInvalidSpec, s.Vdd)
	case s.Vout <= 0 || s.Vout >= s.Vdd:
		return fmt.Errorf("%w: vout must lie in (0, vdd), got %g", ErrInvalidSpec, s.Vout)
	case s.Iload <= 0 || math.IsInf(s.Iload, 0):
		return fmt.Errorf("%w: iload must be positive, got %g", ErrInvalidSpec, s.Iload)
	case s.Iref <= 0 || math.IsInf(s.Iref, 0):
		return fmt.Errorf("%w: iref must be positive, got %g", ErrInvalidSpec, s.Iref)
	case s.IampMax < 0 || math.IsInf(s.IampMax, 0):
		return fmt.Errorf("%w: iamp_max must be finite and non-negative, got %g", ErrInvalidSpec, s.IampMax)
	case s.Cload < 0 || s.Cdecap < 0 || math.IsInf(s.Cload, 0) || math.IsInf(s.Cdecap, 0):
		return fmt.Errorf("%w: capacitances must be finite and non-negative", ErrInvalidSpec)
	case s.Rsource < 0 || math.IsInf(s.Rsource, 0):
		return fmt.Errorf("%w: rsource must be finite and non-negative, got %g", ErrInvalidSpec, s.Rsource)
	case s.VRes <= 0 || math.IsInf(s.VRes, 0):
		return fmt.Errorf("%w: v_res must be positive, got %g", ErrInvalidSpec, s.VRes)
	case !s.SerType.Valid():
		return fmt.Errorf("%w: ser_type must be n or p, got %q", ErrInvalidSpec, s.SerType)
	}
	for r := range s.Devices {
		if !r.Valid() {
			return fmt.Errorf("%w: unknown device role %q", ErrInvalidSpec, r)
		}
	}
	return nil
}

// Meets reports whether p satisfies every performance target. Bias current is
// checked separately against the running budget.
func (s Spec) Meets(p Performance) bool {
	return p.PM > s.PM &&
		p.PSRR > s.PSRR &&
		p.PSRRBandwidth > s.PSRRBandwidth &&
		p.LoadReg < s.LoadReg &&
		p.Err < s.Err
}

// DeviceTypes maps each role to its channel type. The amplifier is always an
// n-input pair with a p-type current-mirror load.
func (s Spec) DeviceTypes() map[Role]mos.Type {
	return map[Role]mos.Type{
		Series:    s.SerType,
		AmpLoad:   mos.P,
		AmpIn:     mos.N,
		AmpTail:   mos.N,
		AmpMirror: mos.N,
	}
}

func (s Spec) seriesSpec(vg float64) SeriesSpec {
	return SeriesSpec{Vdd: s.Vdd, Vout: s.Vout, Vg: vg, Iload: s.Iload, Type: s.SerType}
}

func (s Spec) ampSpec(vg float64, ser Sizing, budget float64, maxGrowth int) AmpSpec {
	return AmpSpec{
		Targets:        s,
		VoutCM:         vg,
		VinCM:          s.Vout,
		Series:         ser,
		IampMax:        budget,
		MaxGrowthSteps: maxGrowth,
	}
}

// SeriesSpec configures SizeSeries.
type SeriesSpec struct {
	Vdd   float64
	Vout  float64
	Vg    float64
	Iload float64
	Type  mos.Type
}

func (s SeriesSpec) Validate() error {
	for _, v := range []float64{s.Vdd, s.Vout, s.Vg, s.Iload} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: series spec has non-finite value", ErrInvalidSpec)
		}
	}
	if s.Iload <= 0 {
		return fmt.Errorf("%w: iload must be positive, got %g", ErrInvalidSpec, s.Iload)
	}
	if !s.Type.Valid() {
		return fmt.Errorf("%w: series type %q", ErrInvalidSpec, s.Type)
	}
	return nil
}

// DefaultMaxGrowthSteps bounds the tail current growth loop of SizeAmp.
const DefaultMaxGrowthSteps = 500

// AmpSpec configures SizeAmp. Targets supplies the supply, load, reference
// and performance figures; IampMax overrides Targets.IampMax with the running
// budget.
type AmpSpec struct {
	Targets        Spec
	VoutCM         float64
	VinCM          float64
	Series         Sizing
	IampMax        float64
	MaxGrowthSteps int
}

func (s AmpSpec) Validate() error {
	t := s.Targets
	t.IampMax = s.IampMax
	if err := t.Validate(); err != nil {
		return err
	}
	if math.IsNaN(s.VoutCM) || math.IsNaN(s.VinCM) {
		return fmt.Errorf("%w: NaN common-mode voltage", ErrInvalidSpec)
	}
	if s.Series.Op == nil || s.Series.Nf <= 0 {
		return fmt.Errorf("%w: amplifier needs a sized series device", ErrInvalidSpec)
	}
	if s.MaxGrowthSteps < 0 {
		return fmt.Errorf("%w: negative growth step bound", ErrInvalidSpec)
	}
	return nil
}

func (s AmpSpec) growthSteps() int {
	if s.MaxGrowthSteps == 0 {
		return DefaultMaxGrowthSteps
	}
	return s.MaxGrowthSteps
}
