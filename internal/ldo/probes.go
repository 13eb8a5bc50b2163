package ldo

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/ldodsn/internal/lti"
	"github.com/san-kum/ldodsn/internal/mos"
)

// Small-signal nodes of the regulator.
const (
	gnd lti.Node = iota
	vdd
	vbat
	reg
	out
	outx
	tail
	ampIn
)

// loadStep is the peak-to-peak load current step, as a fraction of Iload,
// used to express load regulation.
const loadStep = 0.2

type probe int

const (
	probeLoopGain probe = iota
	probeStability
	probeLoadReg
	probePSRR
)

// regulator is the small-signal view of one sized design.
type regulator struct {
	ops     map[Role]mos.Op
	nf      map[Role]int
	serType mos.Type
	ampType mos.Type
	rsource float64
}

// circuit builds the regulator network for a probe. Loop-gain probes break
// the loop at the amplifier input (ampIn); load regulation and PSRR close it
// at reg. The supply rail is a node of its own when it has source resistance
// or is the PSRR input, otherwise it is AC ground.
func (r regulator) circuit(p probe, cload, cdecap float64) *lti.Circuit {
	ckt := lti.New()

	supply := gnd
	if r.rsource != 0 || p == probePSRR {
		supply = vdd
	}
	if r.rsource != 0 {
		if p == probePSRR {
			ckt.AddResistor(r.rsource, vbat, vdd)
		} else {
			ckt.AddResistor(r.rsource, gnd, vdd)
		}
	}
	if p != probeLoopGain {
		ckt.AddCapacitor(cload, reg, gnd)
		ckt.AddCapacitor(cdecap, out, reg)
	}

	serD, serS := supply, reg
	if r.serType == mos.P {
		serD, serS = reg, supply
	}
	ckt.AddTransistor(r.ops[Series], serD, out, serS, gnd, r.nf[Series], p == probeLoopGain)

	fb := ampIn
	if p == probeLoadReg || p == probePSRR {
		fb = reg
	}
	// the output-side input device must see feedback with inverting sense
	inp, inn := gnd, fb
	if r.serType == mos.P {
		inp, inn = fb, gnd
	}

	tailRail, loadRail := gnd, supply
	if r.ampType == mos.P {
		tailRail, loadRail = supply, gnd
	}

	ckt.AddTransistor(r.ops[AmpIn], outx, inp, tail, gnd, r.nf[AmpIn], false)
	ckt.AddTransistor(r.ops[AmpIn], out, inn, tail, gnd, r.nf[AmpIn], false)
	ckt.AddTransistor(r.ops[AmpTail], tail, gnd, tailRail, gnd, r.nf[AmpTail], false)
	ckt.AddTransistor(r.ops[AmpLoad], outx, outx, loadRail, gnd, r.nf[AmpLoad], false)
	ckt.AddTransistor(r.ops[AmpLoad], out, outx, loadRail, gnd, r.nf[AmpLoad], false)

	return ckt
}

// loopGain returns the DC gain from the broken loop input to the regulated
// node. A well-formed regulator returns a negative value.
func (r regulator) loopGain() (float64, error) {
	tf, err := r.circuit(probeLoopGain, 0, 0).TransferFunction(ampIn, reg, lti.VoltageInput)
	if err != nil {
		return 0, fmt.Errorf("ldo: loop gain: %w", err)
	}
	a, err := tf.DCGain()
	if err != nil {
		return 0, fmt.Errorf("ldo: loop gain: %w", err)
	}
	return a, nil
}

// psrr returns the supply rejection in dB and its 3 dB bandwidth in Hz. The
// bandwidth is that of the rejection v(supply)/v(reg), where the supply gain
// has risen to sqrt(2) times its DC value. A supply path with zero gain
// rejects perfectly; its bandwidth is reported as 0.
func (r regulator) psrr(cload, cdecap float64) (float64, float64, error) {
	in := vdd
	if r.rsource != 0 {
		in = vbat
	}
	tf, err := r.circuit(probePSRR, cload, cdecap).TransferFunction(in, reg, lti.VoltageInput)
	if err != nil {
		return 0, 0, fmt.Errorf("ldo: psrr: %w", err)
	}
	g, err := tf.DCGain()
	if err != nil {
		return 0, 0, fmt.Errorf("ldo: psrr: %w", err)
	}
	db := rejectionDB(g)
	if math.IsInf(db, 1) {
		return db, 0, nil
	}
	w, ok, err := lti.Bandwidth3dB(tf.Invert())
	if err != nil {
		return 0, 0, fmt.Errorf("ldo: psrr bandwidth: %w", err)
	}
	if !ok {
		return db, 0, nil
	}
	return db, w / (2 * math.Pi), nil
}

func rejectionDB(g float64) float64 {
	if g == 0 {
		return math.Inf(1)
	}
	return -20 * math.Log10(math.Abs(g))
}

// phaseMargin evaluates the loaded loop. The loop transfer is negated so that
// a negative-feedback loop starts at 0 degrees.
func (r regulator) phaseMargin(cload, cdecap float64) (float64, error) {
	tf, err := r.loop(cload, cdecap)
	if err != nil {
		return 0, err
	}
	pm, _, err := lti.StabilityMargins(tf)
	if err != nil {
		return 0, fmt.Errorf("ldo: phase margin: %w", err)
	}
	return pm, nil
}

func (r regulator) loop(cload, cdecap float64) (*lti.TransferFunction, error) {
	tf, err := r.circuit(probeStability, cload, cdecap).TransferFunction(ampIn, reg, lti.VoltageInput)
	if err != nil {
		return nil, fmt.Errorf("ldo: loop: %w", err)
	}
	return tf.Negate(), nil
}

// loadRegulation returns the output impedance scaled to a relative output
// change for a loadStep*iload current step.
func (r regulator) loadRegulation(cload, cdecap, vout, iload float64) (float64, error) {
	tf, err := r.circuit(probeLoadReg, cload, cdecap).TransferFunction(reg, reg, lti.CurrentInput)
	if err != nil {
		return 0, fmt.Errorf("ldo: load regulation: %w", err)
	}
	z, err := tf.DCGain()
	if err != nil {
		return 0, fmt.Errorf("ldo: load regulation: %w", err)
	}
	return z * loadStep * iload / vout, nil
}

// evaluate computes every figure of merit of the current sizing.
func (r regulator) evaluate(s Spec, cload, cdecap, ibias float64) (Performance, error) {
	a, err := r.loopGain()
	if err != nil {
		return Performance{}, err
	}
	loadreg, err := r.loadRegulation(cload, cdecap, s.Vout, s.Iload)
	if err != nil {
		return Performance{}, err
	}
	psrr, fbw, err := r.psrr(cload, cdecap)
	if err != nil {
		return Performance{}, err
	}
	pm, err := r.phaseMargin(cload, cdecap)
	if err != nil {
		return Performance{}, err
	}
	return Performance{
		Ibias:         ibias,
		Err:           1 / (math.Abs(a) + 1),
		PSRR:          psrr,
		PSRRBandwidth: fbw,
		PM:            pm,
		LoadReg:       loadreg,
	}, nil
}

func candidateRegulator(c Candidate, s Spec) regulator {
	return regulator{
		ops:     c.Ops,
		nf:      c.Nf,
		serType: s.SerType,
		ampType: mos.N,
		rsource: s.Rsource,
	}
}

// LoopResponse returns the loop transfer of an accepted candidate at the
// given frequencies in Hz, with its load and amplifier decaps in place.
func LoopResponse(c Candidate, s Spec, freqs []float64) ([]complex128, error) {
	if !c.Found() {
		return nil, ErrNoSolution
	}
	tf, err := candidateRegulator(c, s).loop(s.Cload+c.Caps.Load, c.Caps.Amp)
	if err != nil {
		return nil, err
	}
	out := make([]complex128, len(freqs))
	for i, f := range freqs {
		h, err := tf.Response(2 * math.Pi * f)
		if err != nil {
			return nil, fmt.Errorf("ldo: loop response at %g Hz: %w", f, err)
		}
		out[i] = h
	}
	return out, nil
}

// Magnitude and phase helpers for callers plotting LoopResponse.
func MagnitudeDB(h complex128) float64 {
	return 20 * math.Log10(cmplx.Abs(h))
}

func PhaseDeg(h complex128) float64 {
	return cmplx.Phase(h) * 180 / math.Pi
}
