package ldo

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ldodsn/internal/mos"
)

func builtinTables(serType mos.Type) Tables {
	table := func(name string) mos.Table {
		f, err := mos.Builtin(name)
		Expect(err).NotTo(HaveOccurred())
		t, err := f.Table("standard", "tt")
		Expect(err).NotTo(HaveOccurred())
		return t
	}
	ser := "nch"
	if serType == mos.P {
		ser = "pch"
	}
	return Tables{
		Series:    table(ser),
		AmpIn:     table("nch"),
		AmpTail:   table("nch"),
		AmpLoad:   table("pch"),
		AmpMirror: table("nch"),
	}
}

func countOutcome(points []SweepPoint, o Outcome) int {
	n := 0
	for _, p := range points {
		if p.Outcome == o {
			n++
		}
	}
	return n
}

var _ = Describe("Designer", func() {
	var (
		ctx    context.Context
		spec   Spec
		tables Tables
		points []SweepPoint
	)

	BeforeEach(func() {
		ctx = context.Background()
		spec = lenientSpec()
		tables = fakeTables()
		points = nil
	})

	newDesigner := func(opts ...Option) *Designer {
		opts = append(opts,
			WithLogger(quietLogger()),
			WithObserver(ObserverFunc(func(p SweepPoint) { points = append(points, p) })),
		)
		d, err := NewDesigner(spec, tables, opts...)
		Expect(err).NotTo(HaveOccurred())
		return d
	}

	Context("with lenient targets", func() {
		It("sweeps from one threshold above vout to vdd", func() {
			vgs, err := newDesigner().SweepRange()
			Expect(err).NotTo(HaveOccurred())
			Expect(vgs).To(HaveLen(4))
			Expect(vgs[0]).To(BeNumerically("~", 1.6, 1e-12))
			Expect(vgs[len(vgs)-1]).To(BeNumerically("<", spec.Vdd))
		})

		It("keeps the first of equally good candidates", func() {
			best, err := newDesigner().MeetSpec(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(best).To(HaveLen(1))
			Expect(best[0].Found()).To(BeTrue())
			Expect(best[0].Vg).To(BeNumerically("~", 1.6, 1e-12))

			Expect(points).To(HaveLen(4))
			Expect(countOutcome(points, Accepted)).To(Equal(1))
			Expect(countOutcome(points, AmpInfeasible)).To(Equal(3))
		})

		It("only accepts candidates meeting every target", func() {
			best, err := newDesigner().MeetSpec(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.Meets(best[0].Performance)).To(BeTrue())
			Expect(best[0].Ibias).To(BeNumerically("<", spec.IampMax))
			Expect(best[0].Ibias).To(BeNumerically("~", 60e-6, 1e-15))
		})

		It("records device geometry per role", func() {
			best, err := newDesigner().MeetSpec(ctx)
			Expect(err).NotTo(HaveOccurred())
			c := best[0]
			Expect(c.W[Series]).To(Equal(1e-6))
			Expect(c.W[AmpIn]).To(Equal(0.5e-6))
			Expect(c.L[AmpIn]).To(Equal(200e-9))
			Expect(c.Intent[AmpIn]).To(Equal("lvt"))
			Expect(c.Types).To(Equal(map[Role]mos.Type{
				Series: mos.N, AmpLoad: mos.P, AmpIn: mos.N, AmpTail: mos.N, AmpMirror: mos.N,
			}))
		})

		It("converts the best candidate to schematic parameters", func() {
			sch, best, err := newDesigner().Design(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(best).To(HaveLen(1))
			Expect(sch.Nf[Series]).To(Equal(4))
			Expect(sch.W[AmpLoad]).To(BeNumerically("~", 0.75e-6, 1e-18))
			Expect(sch.Caps).To(Equal(Caps{}))
		})

		It("exposes the loop response of the result", func() {
			best, err := newDesigner().MeetSpec(ctx)
			Expect(err).NotTo(HaveOccurred())
			resp, err := LoopResponse(best[0], spec, []float64{1, 1e3, 1e6})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp).To(HaveLen(3))
			Expect(MagnitudeDB(resp[0])).To(BeNumerically(">", 0))
		})
	})

	Context("with no amplifier current budget", func() {
		BeforeEach(func() {
			spec.IampMax = 0
		})

		It("returns the sentinel and reports no solution", func() {
			sch, best, err := newDesigner().Design(ctx)
			Expect(err).To(MatchError(ErrNoSolution))
			Expect(err.Error()).To(Equal("No solution found within specs"))
			Expect(sch).To(BeNil())
			Expect(best).To(HaveLen(1))
			Expect(best[0].Found()).To(BeFalse())
			Expect(math.IsInf(best[0].Ibias, 1)).To(BeTrue())
			Expect(countOutcome(points, AmpInfeasible)).To(Equal(len(points)))
		})
	})

	Context("when one finger pair exceeds the load current", func() {
		BeforeEach(func() {
			spec.Iload = 0.5e-3
		})

		It("skips every point as a series mismatch", func() {
			best, err := newDesigner().MeetSpec(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(best[0].Found()).To(BeFalse())
			Expect(countOutcome(points, SeriesMismatch)).To(Equal(len(points)))
		})
	})

	Context("when the context is cancelled", func() {
		It("stops before the first point", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := newDesigner().MeetSpec(cctx)
			Expect(err).To(MatchError(context.Canceled))
			Expect(points).To(BeEmpty())
		})
	})

	Context("with square-law devices and a p-type pass device", func() {
		BeforeEach(func() {
			spec = Spec{
				Vdd: 1.8, Vout: 1.2, Iload: 2e-3, Iref: 100e-6, IampMax: 200e-6,
				Cload: 1e-12, Cdecap: 10e-12,
				Err: 0.05, PSRR: 20, PSRRBandwidth: 1e4, PM: 45, LoadReg: 0.05,
				VRes: 0.01, SerType: mos.P,
			}
			tables = builtinTables(mos.P)
		})

		It("finds a design meeting every target", func() {
			best, err := newDesigner().MeetSpec(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(best[0].Found()).To(BeTrue())
			Expect(spec.Meets(best[0].Performance)).To(BeTrue())
			Expect(best[0].Ibias).To(BeNumerically("<", spec.IampMax))
			Expect(best[0].PSRRBandwidth).To(BeNumerically(">", spec.PSRRBandwidth))
			Expect(countOutcome(points, Accepted)).To(BeNumerically(">", 0))
		})

		It("never loosens the budget", func() {
			best, err := newDesigner().MeetSpec(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(points).NotTo(BeEmpty())

			budget := spec.IampMax
			lastAccepted := math.Inf(1)
			for _, p := range points {
				Expect(p.Budget).To(BeNumerically("<=", budget))
				budget = p.Budget
				if p.Outcome == Accepted {
					Expect(p.Ibias).To(BeNumerically("<", lastAccepted))
					lastAccepted = p.Ibias
				}
			}

			Expect(best[0].Found()).To(BeTrue())
			Expect(best[0].Ibias).To(Equal(lastAccepted))
		})
	})

	DescribeTable("rejects malformed specs",
		func(mutate func(*Spec)) {
			mutate(&spec)
			_, err := NewDesigner(spec, tables)
			Expect(err).To(MatchError(ErrInvalidSpec))
		},
		Entry("vout above vdd", func(s *Spec) { s.Vout = 2.0 }),
		Entry("zero resolution", func(s *Spec) { s.VRes = 0 }),
		Entry("unknown pass device type", func(s *Spec) { s.SerType = "x" }),
		Entry("NaN budget", func(s *Spec) { s.IampMax = math.NaN() }),
		Entry("infinite budget", func(s *Spec) { s.IampMax = math.Inf(1) }),
		Entry("negative source resistance", func(s *Spec) { s.Rsource = -1 }),
		Entry("unknown device role", func(s *Spec) { s.Devices["bogus"] = Device{} }),
	)

	It("rejects a missing table", func() {
		delete(tables, AmpMirror)
		_, err := NewDesigner(spec, tables)
		Expect(err).To(MatchError(ErrMissingTable))
	})
})
