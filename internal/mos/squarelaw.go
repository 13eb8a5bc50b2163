package mos

import (
	"fmt"
	"math"
)

// ThermalVoltage is kT/q at 300 K.
const ThermalVoltage = 0.025852

// SquareLaw is an analytic long-channel model with a smoothed transition into
// weak inversion, so that ibias stays positive and gm continuous below
// threshold. Parameters describe one unit device of width Width.
type SquareLaw struct {
	Type   Type    `yaml:"-"`
	Vth0   float64 `yaml:"vth0"`
	K      float64 `yaml:"k"`
	Lambda float64 `yaml:"lambda"`
	Gamma  float64 `yaml:"gamma"`
	Phi    float64 `yaml:"phi"`
	Slope  float64 `yaml:"n"`
	Cgs    float64 `yaml:"cgs"`
	Cgd    float64 `yaml:"cgd"`
	Cgb    float64 `yaml:"cgb"`
	Cdb    float64 `yaml:"cdb"`
	Csb    float64 `yaml:"csb"`
	Width  float64 `yaml:"-"`
}

func (m *SquareLaw) Validate() error {
	if !m.Type.Valid() {
		return fmt.Errorf("mos: square law: invalid type %q", m.Type)
	}
	if m.K <= 0 {
		return fmt.Errorf("mos: square law: k must be positive, got %g", m.K)
	}
	if m.Slope < 1 {
		return fmt.Errorf("mos: square law: slope factor n must be >= 1, got %g", m.Slope)
	}
	if m.Phi <= 0 {
		return fmt.Errorf("mos: square law: phi must be positive, got %g", m.Phi)
	}
	if m.Lambda < 0 || m.Gamma < 0 {
		return fmt.Errorf("mos: square law: lambda and gamma must be non-negative")
	}
	return nil
}

func (m *SquareLaw) WidthList() []float64 {
	return []float64{m.Width}
}

func (m *SquareLaw) Query(vgs, vds, vbs float64) (Op, error) {
	sign := m.Type.Sign()
	vgs, vds, vbs = sign*vgs, sign*vds, sign*vbs
	if math.IsNaN(vgs) || math.IsNaN(vds) || math.IsNaN(vbs) {
		return nil, fmt.Errorf("mos: square law: NaN bias")
	}
	if vds < 0 {
		vds = 0
	}

	sb := math.Max(m.Phi-vbs, 0.05)
	vth := m.Vth0 + m.Gamma*(math.Sqrt(sb)-math.Sqrt(m.Phi))

	nut := 2 * m.Slope * ThermalVoltage
	x := (vgs - vth) / nut
	veff := nut * softplus(x)
	sig := 1 / (1 + math.Exp(-x))
	clm := 1 + m.Lambda*vds

	var id, gm, gds float64
	if vds >= veff {
		id = 0.5 * m.K * veff * veff * clm
		gm = m.K * veff * clm * sig
		gds = 0.5 * m.K * veff * veff * m.Lambda
	} else {
		core := veff*vds - 0.5*vds*vds
		id = m.K * core * clm
		gm = m.K * vds * clm * sig
		gds = m.K*(veff-vds)*clm + m.K*core*m.Lambda
	}
	gmb := gm * m.Gamma / (2 * math.Sqrt(sb))

	vstar := 0.0
	if gm > 0 {
		vstar = 2 * id / gm
	}

	return Op{
		"ibias": id,
		"gm":    gm,
		"gds":   gds,
		"gmb":   gmb,
		"vstar": vstar,
		"vth":   sign * vth,
		"cgs":   m.Cgs,
		"cgd":   m.Cgd,
		"cgb":   m.Cgb,
		"cdb":   m.Cdb,
		"csb":   m.Csb,
		"cds":   0,
		"cgg":   m.Cgs + m.Cgd + m.Cgb,
		"cdd":   m.Cgd + m.Cdb,
		"css":   m.Cgs + m.Csb,
	}, nil
}

func softplus(x float64) float64 {
	if x > 40 {
		return x
	}
	return math.Log1p(math.Exp(x))
}
