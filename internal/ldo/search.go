package ldo

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/ldodsn/internal/mos"
)

// Outcome classifies one sweep point.
type Outcome int

const (
	SeriesMismatch Outcome = iota
	AmpInfeasible
	Accepted
)

func (o Outcome) String() string {
	switch o {
	case SeriesMismatch:
		return "series_mismatch"
	case AmpInfeasible:
		return "amp_infeasible"
	case Accepted:
		return "accepted"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

func ParseOutcome(s string) (Outcome, error) {
	for _, o := range []Outcome{SeriesMismatch, AmpInfeasible, Accepted} {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("ldo: unknown outcome %q", s)
}

// SweepPoint reports what happened at one gate voltage. Ibias is the
// candidate's amplifier current for accepted points; Budget is the current
// budget after the point was processed.
type SweepPoint struct {
	Vg      float64
	Outcome Outcome
	Ibias   float64
	Budget  float64
}

type Observer interface {
	OnPoint(p SweepPoint)
}

type ObserverFunc func(SweepPoint)

func (f ObserverFunc) OnPoint(p SweepPoint) { f(p) }

// Designer runs the feasibility search for one spec.
type Designer struct {
	spec      Spec
	tables    Tables
	log       logrus.FieldLogger
	observers []Observer
	maxGrowth int
}

type Option func(*Designer)

func WithLogger(l logrus.FieldLogger) Option {
	return func(d *Designer) { d.log = l }
}

func WithObserver(o Observer) Option {
	return func(d *Designer) { d.observers = append(d.observers, o) }
}

// WithMaxGrowthSteps bounds the amplifier current growth loop.
func WithMaxGrowthSteps(n int) Option {
	return func(d *Designer) { d.maxGrowth = n }
}

func NewDesigner(spec Spec, tables Tables, opts ...Option) (*Designer, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	d := &Designer{
		spec:      spec,
		tables:    tables,
		log:       logrus.StandardLogger(),
		maxGrowth: DefaultMaxGrowthSteps,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.maxGrowth <= 0 {
		return nil, fmt.Errorf("%w: growth step bound must be positive", ErrInvalidSpec)
	}
	return d, nil
}

func (d *Designer) Spec() Spec {
	return d.spec
}

// SweepRange returns the pass-device gate voltages the search visits: from
// one threshold above vout up to the lower of vdd and vdd plus threshold.
func (d *Designer) SweepRange() ([]float64, error) {
	s := d.spec
	vgs, vbs := s.Vdd-s.Vout, -s.Vout
	if s.SerType == mos.P {
		vgs, vbs = -s.Vdd/2, 0
	}
	vth, err := mos.EstimateVth(d.tables[Series], s.SerType, vgs, vbs)
	if err != nil {
		return nil, fmt.Errorf("ldo: series threshold: %w", err)
	}
	return arange(s.Vout+vth, math.Min(s.Vdd+vth, s.Vdd), s.VRes), nil
}

// state is the running result of the search.
type state struct {
	best   Candidate
	budget float64
}

// fold admits an accepted candidate and tightens the budget to the best
// current found so far.
func (st state) fold(c Candidate) state {
	best := Compare(st.best, c)
	return state{best: best, budget: best.Ibias}
}

// MeetSpec sweeps the pass-device gate voltage and returns the feasible
// candidate with the lowest amplifier current, or the sentinel when none is
// feasible. The result is a one-element slice.
func (d *Designer) MeetSpec(ctx context.Context) ([]Candidate, error) {
	s := d.spec
	vgs, err := d.SweepRange()
	if err != nil {
		return nil, err
	}
	d.log.WithFields(logrus.Fields{
		"points":   len(vgs),
		"ser_type": s.SerType,
		"iamp_max": s.IampMax,
	}).Debug("starting gate sweep")

	st := state{best: Sentinel(), budget: s.IampMax}
	for _, vg := range vgs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pt := SweepPoint{Vg: vg}
		ser, ok, err := SizeSeries(d.tables[Series], s.seriesSpec(vg))
		if err != nil {
			return nil, err
		}
		if !ok {
			pt.Outcome, pt.Budget = SeriesMismatch, st.budget
			d.emit(pt)
			continue
		}

		amp, ok, err := SizeAmp(d.tables, s.ampSpec(vg, ser, st.budget, d.maxGrowth))
		if err != nil {
			return nil, err
		}
		if !ok {
			pt.Outcome, pt.Budget = AmpInfeasible, st.budget
			d.emit(pt)
			continue
		}

		st = st.fold(d.candidate(vg, amp))
		pt.Outcome, pt.Ibias, pt.Budget = Accepted, amp.Performance.Ibias, st.budget
		d.emit(pt)
	}

	if st.best.Found() {
		d.log.WithFields(logrus.Fields{"vg": st.best.Vg, "ibias": st.best.Ibias}).Info("best candidate")
	} else {
		d.log.Warn(NoSolution)
	}
	return []Candidate{st.best}, nil
}

func (d *Designer) emit(p SweepPoint) {
	d.log.WithFields(logrus.Fields{
		"vg":      p.Vg,
		"outcome": p.Outcome,
		"ibias":   p.Ibias,
		"budget":  p.Budget,
	}).Debug("sweep point")
	for _, o := range d.observers {
		o.OnPoint(p)
	}
}

func (d *Designer) candidate(vg float64, amp AmpDesign) Candidate {
	c := Candidate{
		Performance: amp.Performance,
		Vg:          vg,
		Ops:         amp.Ops,
		Nf:          amp.Nf,
		Wm:          amp.Wm,
		W:           make(map[Role]float64, len(Roles)),
		L:           make(map[Role]float64, len(Roles)),
		Intent:      make(map[Role]string, len(Roles)),
		Types:       d.spec.DeviceTypes(),
		Caps:        amp.Caps,
	}
	for _, r := range Roles {
		c.W[r] = d.tables[r].WidthList()[0]
		dev := d.spec.Devices[r]
		c.L[r] = dev.L
		c.Intent[r] = dev.Intent
	}
	return c
}
