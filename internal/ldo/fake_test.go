package ldo

import (
	"errors"

	"github.com/san-kum/ldodsn/internal/mos"
)

// constTable answers every query with the same operating point.
type constTable struct {
	op    mos.Op
	width float64
	calls [][3]float64
}

func (c *constTable) Query(vgs, vds, vbs float64) (mos.Op, error) {
	c.calls = append(c.calls, [3]float64{vgs, vds, vbs})
	return c.op.Clone(), nil
}

func (c *constTable) WidthList() []float64 {
	return []float64{c.width}
}

type failingTable struct{}

var errLookup = errors.New("lookup failed")

func (failingTable) Query(vgs, vds, vbs float64) (mos.Op, error) { return nil, errLookup }
func (failingTable) WidthList() []float64                       { return []float64{1e-6} }

func seriesOp() mos.Op {
	return mos.Op{"ibias": 0.5e-3, "gm": 5e-3, "gds": 1e-4, "gmb": 5e-4,
		"cgs": 1e-13, "cgd": 2e-14, "cgg": 1.2e-13, "cdb": 5e-14, "csb": 5e-14, "vstar": 0.2}
}

func ampOp() mos.Op {
	return mos.Op{"ibias": 10e-6, "gm": 100e-6, "gds": 1e-6, "gmb": 1e-5,
		"cgs": 1e-14, "cgd": 2e-15, "cgg": 1.2e-14, "cdb": 5e-15, "csb": 5e-15, "vstar": 0.2}
}

func fakeTables() Tables {
	return Tables{
		Series:    &constTable{op: seriesOp(), width: 1e-6},
		AmpIn:     &constTable{op: ampOp(), width: 0.5e-6},
		AmpTail:   &constTable{op: ampOp(), width: 0.5e-6},
		AmpLoad:   &constTable{op: ampOp(), width: 0.5e-6},
		AmpMirror: &constTable{op: ampOp(), width: 0.5e-6},
	}
}

// lenientSpec accepts any finite design within the current budget.
func lenientSpec() Spec {
	return Spec{
		Vdd: 1.8, Vout: 1.0, Iload: 2e-3, Iref: 100e-6, IampMax: 1e-3,
		Cload: 1e-12, Cdecap: 1e-11,
		Err: 1.0, PSRR: -1000, PSRRBandwidth: -1, PM: -1000, LoadReg: posInf,
		VRes: 0.05, SerType: mos.N,
		Devices: map[Role]Device{
			Series:    {L: 100e-9, Intent: "standard"},
			AmpIn:     {L: 200e-9, Intent: "lvt"},
			AmpTail:   {L: 200e-9, Intent: "standard"},
			AmpLoad:   {L: 200e-9, Intent: "standard"},
			AmpMirror: {L: 200e-9, Intent: "standard"},
		},
	}
}
