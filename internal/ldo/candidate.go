package ldo

import (
	"math"

	"github.com/san-kum/ldodsn/internal/mos"
)

// Performance holds the figures of merit of one design.
type Performance struct {
	Ibias         float64 `yaml:"ibias"`
	Err           float64 `yaml:"err"`
	PSRR          float64 `yaml:"psrr"`
	PSRRBandwidth float64 `yaml:"psrr_fbw"`
	PM            float64 `yaml:"pm"`
	LoadReg       float64 `yaml:"loadreg"`
}

// Caps are the decoupling capacitors a design needs: Amp across the
// amplifier output and regulated node, Load at the regulated node.
type Caps struct {
	Amp  float64 `yaml:"cdecap_amp" json:"cdecap_amp"`
	Load float64 `yaml:"cdecap_load" json:"cdecap_load"`
}

// Candidate is a fully sized regulator and its performance.
type Candidate struct {
	Performance `yaml:",inline"`

	Vg     float64           `yaml:"vg"`
	Ops    map[Role]mos.Op   `yaml:"ops,omitempty"`
	Nf     map[Role]int      `yaml:"nf,omitempty"`
	Wm     map[Role]float64  `yaml:"wm,omitempty"`
	W      map[Role]float64  `yaml:"w,omitempty"`
	L      map[Role]float64  `yaml:"l,omitempty"`
	Intent map[Role]string   `yaml:"intent,omitempty"`
	Types  map[Role]mos.Type `yaml:"types,omitempty"`
	Caps   Caps              `yaml:"caps"`
}

// Sentinel is the initial value of the running best: worse than any real
// design and carrying no devices.
func Sentinel() Candidate {
	return Candidate{
		Performance: Performance{
			Ibias:   math.Inf(1),
			Err:     math.Inf(1),
			LoadReg: math.Inf(1),
		},
	}
}

// Found reports whether c holds a sized design rather than the sentinel.
func (c Candidate) Found() bool {
	return len(c.Ops) > 0 && len(c.Nf) > 0
}

// Compare keeps the lower-current candidate. On a tie the second argument
// wins, which with a strictly tightening budget means the earlier candidate
// is never displaced by an equal one.
func Compare(a, b Candidate) Candidate {
	if a.Ibias < b.Ibias {
		return a
	}
	return b
}
