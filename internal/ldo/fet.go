package ldo

import (
	"fmt"

	"github.com/san-kum/ldodsn/internal/mos"
)

// Sizing is a device sized as Nf fingers of a unit device widened by Wm.
// Op is the unit operating point already resized by Wm.
type Sizing struct {
	Nf int     `yaml:"nf"`
	Wm float64 `yaml:"wm"`
	Op mos.Op  `yaml:"op"`
}

// SizeSeries sizes the pass device to carry Iload at gate voltage Vg. The
// boolean is false when a single finger pair already exceeds the load
// current or the device does not conduct.
func SizeSeries(t mos.Table, s SeriesSpec) (Sizing, bool, error) {
	if err := s.Validate(); err != nil {
		return Sizing{}, false, err
	}

	var vs, vd, vb float64
	if s.Type == mos.N {
		vs, vd, vb = s.Vout, s.Vdd, 0
	} else {
		vs, vd, vb = s.Vdd, s.Vout, s.Vdd
	}

	op, err := t.Query(s.Vg-vs, vd-vs, vb-vs)
	if err != nil {
		return Sizing{}, false, fmt.Errorf("ldo: series device at vg=%g: %w", s.Vg, err)
	}
	if op.Ibias() <= 0 {
		return Sizing{}, false, nil
	}

	nf, wm, m := fingers(s.Iload, op.Ibias())
	return Sizing{Nf: nf, Wm: wm, Op: op.Resize(wm)}, m > 1 && nf > 0, nil
}
