package ldo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/ldodsn/internal/mos"
)

// decapSteps is the number of log-spaced amplifier decap values tried.
const decapSteps = 100

// AmpDesign is a sized amplifier together with the series device it drives.
type AmpDesign struct {
	Ops         map[Role]mos.Op
	Nf          map[Role]int
	Wm          map[Role]float64
	Caps        Caps
	Performance Performance
}

func (d AmpDesign) regulator(serType mos.Type, rsource float64) regulator {
	return regulator{ops: d.Ops, nf: d.Nf, serType: serType, ampType: mos.N, rsource: rsource}
}

// pair holds the unit operating points the amplifier is sized from.
type pair struct {
	in, load, tail mos.Op
	wmTail         float64
}

// size fills the tail and input/load pair entries of d for a tail of nfTail
// fingers carrying idTail each. It leaves d untouched and returns false when
// a pair finger count overflows.
func (p pair) size(d *AmpDesign, idTail float64, nfTail int) bool {
	idBranch := idTail * float64(nfTail) / 2

	nfLoad, wmLoad, _ := fingers(idBranch, p.load.Ibias())
	nfIn, wmIn, _ := fingers(idBranch, p.in.Ibias())
	if wmLoad == 0 || wmIn == 0 {
		return false
	}

	d.Ops[AmpTail] = p.tail.Resize(p.wmTail)
	d.Nf[AmpTail] = nfTail
	d.Wm[AmpTail] = p.wmTail

	d.Ops[AmpLoad] = p.load.Resize(wmLoad)
	d.Nf[AmpLoad] = nfLoad
	d.Wm[AmpLoad] = wmLoad

	d.Ops[AmpIn] = p.in.Resize(wmIn)
	d.Nf[AmpIn] = nfIn
	d.Wm[AmpIn] = wmIn
	return true
}

// SizeAmp sizes the five-transistor error amplifier around an already sized
// series device. The boolean is false when no sizing meets the targets in
// s.Targets within the current budget s.IampMax.
func SizeAmp(tables Tables, s AmpSpec) (AmpDesign, bool, error) {
	if err := s.Validate(); err != nil {
		return AmpDesign{}, false, err
	}
	if err := tables.Validate(); err != nil {
		return AmpDesign{}, false, err
	}
	t := s.Targets

	// load diode sets the overdrive every other device is matched to
	opLoad, err := tables[AmpLoad].Query(-(t.Vdd - s.VoutCM), -(t.Vdd - s.VoutCM), 0)
	if err != nil {
		return AmpDesign{}, false, fmt.Errorf("ldo: amp load: %w", err)
	}
	if opLoad.Ibias() <= 0 {
		return AmpDesign{}, false, nil
	}
	vstarLoad := opLoad.Vstar()

	var opIn mos.Op
	vtail, best := 0.0, math.Inf(1)
	for _, vt := range arange(0, math.Min(s.VoutCM, s.VinCM), t.VRes) {
		op, err := tables[AmpIn].Query(s.VinCM-vt, s.VoutCM-vt, -vt)
		if err != nil {
			return AmpDesign{}, false, fmt.Errorf("ldo: amp input at vtail=%g: %w", vt, err)
		}
		if e := math.Abs(vstarLoad - op.Vstar()); e < best && op.Ibias() > 0 {
			best, vtail, opIn = e, vt, op
		}
	}
	if opIn == nil {
		return AmpDesign{}, false, nil
	}
	vstarIn := opIn.Vstar()

	var opTail mos.Op
	vgTail := 0.0
	best = math.Inf(1)
	for _, vg := range arange(0, t.Vdd, t.VRes) {
		op, err := tables[AmpTail].Query(vg, vtail, 0)
		if err != nil {
			return AmpDesign{}, false, fmt.Errorf("ldo: amp tail at vg=%g: %w", vg, err)
		}
		vs := op.Vstar()
		e := (vstarLoad-vs)*(vstarLoad-vs) + (vstarIn-vs)*(vstarIn-vs)
		if e < best && op.Ibias() > 0 {
			best, vgTail, opTail = e, vg, op
		}
	}
	if opTail == nil {
		return AmpDesign{}, false, nil
	}

	opMir, err := tables[AmpMirror].Query(vgTail, vgTail, 0)
	if err != nil {
		return AmpDesign{}, false, fmt.Errorf("ldo: amp mirror: %w", err)
	}
	if opMir.Ibias() <= 0 {
		return AmpDesign{}, false, nil
	}
	nfMir, wmMir, _ := fingers(t.Iref, opMir.Ibias())
	if nfMir == 0 {
		return AmpDesign{}, false, nil
	}

	idTail := wmMir * opTail.Ibias()
	nfTail := 2 * max(
		int(math.Floor(2*opLoad.Ibias()/idTail))+1,
		int(math.Floor(2*opIn.Ibias()/idTail))+1,
	)
	if idTail*float64(nfTail) > s.IampMax {
		return AmpDesign{}, false, nil
	}

	dsn := AmpDesign{
		Ops: map[Role]mos.Op{Series: s.Series.Op, AmpMirror: opMir.Resize(wmMir)},
		Nf:  map[Role]int{Series: s.Series.Nf, AmpMirror: nfMir},
		Wm:  map[Role]float64{Series: s.Series.Wm, AmpMirror: wmMir},
	}
	units := pair{in: opIn, load: opLoad, tail: opTail, wmTail: wmMir}
	if !units.size(&dsn, idTail, nfTail) {
		return AmpDesign{}, false, nil
	}

	reg := dsn.regulator(t.SerType, t.Rsource)
	ibias := idTail * float64(nfTail)

	perf, err := reg.evaluate(t, t.Cload, 0, ibias)
	if err != nil {
		return AmpDesign{}, false, err
	}
	dsn.Performance = perf

	if t.Meets(perf) && ibias < s.IampMax && !t.LoadPole {
		return dsn, true, nil
	}

	// amplifier decap: widen PSRR bandwidth margin into phase margin
	if perf.PSRRBandwidth > t.PSRRBandwidth && ibias < s.IampMax && !t.LoadPole {
		cmin := s.Series.Op["cgg"] * float64(s.Series.Nf)
		if cmin > 0 && cmin <= t.Cdecap {
			for _, c := range floats.LogSpan(make([]float64, decapSteps), cmin, t.Cdecap) {
				p, err := reg.evaluate(t, t.Cload, c, ibias)
				if err != nil {
					return AmpDesign{}, false, err
				}
				if p.PSRRBandwidth < t.PSRRBandwidth {
					break
				}
				if t.Meets(p) {
					dsn.Caps = Caps{Amp: c}
					dsn.Performance = p
					return dsn, true, nil
				}
			}
		}
	}

	// load decap: buy phase margin and PSRR bandwidth with tail current
	if perf.PSRR > t.PSRR && perf.LoadReg < t.LoadReg {
		ctot := t.Cload + t.Cdecap
		p := perf
		p.PM, p.PSRRBandwidth = 0, 0
		for step := 0; (p.PM < t.PM || p.PSRRBandwidth < t.PSRRBandwidth) &&
			idTail*float64(nfTail) < s.IampMax && step < s.growthSteps(); step++ {
			if !units.size(&dsn, idTail, nfTail) {
				break
			}
			p, err = reg.evaluate(t, ctot, 0, idTail*float64(nfTail))
			if err != nil {
				return AmpDesign{}, false, err
			}
			nfTail += 2
		}
		dsn.Caps = Caps{Load: t.Cdecap}
		dsn.Performance = p
		return dsn, t.Meets(p) && p.Ibias < s.IampMax, nil
	}

	return dsn, false, nil
}
