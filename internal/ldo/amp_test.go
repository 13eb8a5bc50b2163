package ldo

import (
	"math"
	"testing"
)

func sizedSeries(t *testing.T, tables Tables, s Spec, vg float64) Sizing {
	t.Helper()
	ser, ok, err := SizeSeries(tables[Series], s.seriesSpec(vg))
	if err != nil || !ok {
		t.Fatalf("series sizing failed: ok=%v err=%v", ok, err)
	}
	return ser
}

func TestSizeAmpAccepts(t *testing.T) {
	tables := fakeTables()
	s := lenientSpec()
	ser := sizedSeries(t, tables, s, 1.6)

	dsn, ok, err := SizeAmp(tables, s.ampSpec(1.6, ser, s.IampMax, 0))
	if err != nil {
		t.Fatalf("size failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected a feasible amplifier, got %+v", dsn.Performance)
	}

	wantNf := map[Role]int{Series: 4, AmpMirror: 10, AmpTail: 6, AmpIn: 2, AmpLoad: 2}
	for r, nf := range wantNf {
		if dsn.Nf[r] != nf {
			t.Errorf("%s: expected nf %d, got %d", r, nf, dsn.Nf[r])
		}
	}
	if math.Abs(dsn.Wm[AmpIn]-1.5) > 1e-9 || math.Abs(dsn.Wm[AmpLoad]-1.5) > 1e-9 {
		t.Errorf("expected pair wm 1.5, got in=%g load=%g", dsn.Wm[AmpIn], dsn.Wm[AmpLoad])
	}
	if math.Abs(dsn.Ops[AmpLoad].Ibias()-15e-6) > 1e-15 {
		t.Errorf("expected load op resized by its own multiplier, got ibias %g", dsn.Ops[AmpLoad].Ibias())
	}
	if math.Abs(dsn.Performance.Ibias-60e-6) > 1e-15 {
		t.Errorf("expected ibias 60uA, got %g", dsn.Performance.Ibias)
	}
	if dsn.Caps != (Caps{}) {
		t.Errorf("expected no decap, got %+v", dsn.Caps)
	}
	if dsn.Performance.Err >= 1 || dsn.Performance.Err <= 0 {
		t.Errorf("expected static error in (0, 1), got %g", dsn.Performance.Err)
	}
}

func TestSizeAmpBudget(t *testing.T) {
	tables := fakeTables()
	s := lenientSpec()
	ser := sizedSeries(t, tables, s, 1.6)

	for _, budget := range []float64{0, 30e-6, 60e-6} {
		if _, ok, err := SizeAmp(tables, s.ampSpec(1.6, ser, budget, 0)); ok || err != nil {
			t.Errorf("budget %g: expected infeasible, got ok=%v err=%v", budget, ok, err)
		}
	}
}

func TestSizeAmpLoadPole(t *testing.T) {
	tables := fakeTables()
	s := lenientSpec()
	s.LoadPole = true
	ser := sizedSeries(t, tables, s, 1.6)

	dsn, ok, err := SizeAmp(tables, s.ampSpec(1.6, ser, s.IampMax, 0))
	if err != nil {
		t.Fatalf("size failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected load decap design to be accepted")
	}
	if dsn.Caps.Load != s.Cdecap || dsn.Caps.Amp != 0 {
		t.Errorf("expected full load decap, got %+v", dsn.Caps)
	}
}

func TestSizeAmpGrowthBounded(t *testing.T) {
	tables := fakeTables()
	s := lenientSpec()
	s.PM = 1000
	ser := sizedSeries(t, tables, s, 1.6)

	dsn, ok, err := SizeAmp(tables, s.ampSpec(1.6, ser, s.IampMax, 3))
	if err != nil {
		t.Fatalf("size failed: %v", err)
	}
	if ok {
		t.Fatal("expected unreachable phase margin to be infeasible")
	}
	if dsn.Nf[AmpTail] != 10 {
		t.Errorf("expected three growth steps ending at nf 10, got %d", dsn.Nf[AmpTail])
	}
	if dsn.Caps.Load != s.Cdecap {
		t.Errorf("expected load decap after growth, got %+v", dsn.Caps)
	}
}

func TestSizeAmpDecapSweep(t *testing.T) {
	tables := fakeTables()
	s := lenientSpec()
	s.PM = 74.9
	ser := sizedSeries(t, tables, s, 1.6)

	dsn, ok, err := SizeAmp(tables, s.ampSpec(1.6, ser, s.IampMax, 0))
	if err != nil {
		t.Fatalf("size failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected the amplifier decap to recover phase margin, got %+v", dsn.Performance)
	}
	c := dsn.Caps.Amp
	if c <= 2e-12 || c >= 2.2e-12 {
		t.Errorf("expected amp decap near 2.09pF, got %g", c)
	}
	if dsn.Caps.Load != 0 {
		t.Errorf("expected no load decap, got %g", dsn.Caps.Load)
	}
	if math.Abs(dsn.Performance.Ibias-60e-6) > 1e-15 {
		t.Errorf("expected ibias 60uA, got %g", dsn.Performance.Ibias)
	}
	if dsn.Performance.PM <= s.PM {
		t.Errorf("expected phase margin above %g, got %g", s.PM, dsn.Performance.PM)
	}

	// the step below the accepted value must still fail
	cmin := ser.Op["cgg"] * float64(ser.Nf)
	ratio := math.Pow(s.Cdecap/cmin, 1.0/(decapSteps-1))
	reg := dsn.regulator(s.SerType, s.Rsource)
	prev, err := reg.evaluate(s, s.Cload, c/ratio, 60e-6)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if prev.PM > s.PM {
		t.Errorf("expected the smallest passing decap, but %g already gives pm %g", c/ratio, prev.PM)
	}
	none, err := reg.evaluate(s, s.Cload, 0, 60e-6)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if none.PM > s.PM {
		t.Errorf("expected pm below %g without decap, got %g", s.PM, none.PM)
	}
}

func TestSizeAmpDecapSweepStopsOnBandwidth(t *testing.T) {
	tables := fakeTables()
	s := lenientSpec()
	s.PM = 74.9
	ser := sizedSeries(t, tables, s, 1.6)

	// without a bandwidth bound the sweep settles on a decap that narrows
	// the PSRR bandwidth below 6MHz, while the undecapped design is above it
	loose, ok, err := SizeAmp(tables, s.ampSpec(1.6, ser, s.IampMax, 0))
	if err != nil || !ok {
		t.Fatalf("size failed: ok=%v err=%v", ok, err)
	}
	if loose.Performance.PSRRBandwidth >= 6e6 {
		t.Fatalf("expected decapped bandwidth below 6MHz, got %g", loose.Performance.PSRRBandwidth)
	}
	bare, err := loose.regulator(s.SerType, s.Rsource).evaluate(s, s.Cload, 0, 60e-6)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if bare.PSRRBandwidth <= 6e6 {
		t.Fatalf("expected undecapped bandwidth above 6MHz, got %g", bare.PSRRBandwidth)
	}

	s.PSRRBandwidth = 6e6
	dsn, ok, err := SizeAmp(tables, s.ampSpec(1.6, ser, s.IampMax, 3))
	if err != nil {
		t.Fatalf("size failed: %v", err)
	}
	if ok {
		t.Fatalf("expected no design, got %+v", dsn.Performance)
	}
	if dsn.Caps.Amp != 0 || dsn.Caps.Load != s.Cdecap {
		t.Errorf("expected fall through to the load decap, got %+v", dsn.Caps)
	}
	if dsn.Nf[AmpTail] != 10 {
		t.Errorf("expected three growth steps ending at nf 10, got %d", dsn.Nf[AmpTail])
	}
}

func TestSizeAmpMirrorTooSmall(t *testing.T) {
	tables := fakeTables()
	s := lenientSpec()
	s.Iref = 10e-6
	ser := sizedSeries(t, tables, s, 1.6)

	if _, ok, err := SizeAmp(tables, s.ampSpec(1.6, ser, s.IampMax, 0)); ok || err != nil {
		t.Errorf("expected infeasible mirror, got ok=%v err=%v", ok, err)
	}
}

func TestSizeAmpFingerOverflow(t *testing.T) {
	tables := fakeTables()
	op := ampOp()
	op["ibias"] = 1e-30
	tables[AmpIn] = &constTable{op: op, width: 0.5e-6}
	s := lenientSpec()
	ser := sizedSeries(t, tables, s, 1.6)

	if _, ok, err := SizeAmp(tables, s.ampSpec(1.6, ser, s.IampMax, 0)); ok || err != nil {
		t.Errorf("expected an unrepresentable input pair to be infeasible, got ok=%v err=%v", ok, err)
	}
}

func TestSizeAmpLookupError(t *testing.T) {
	tables := fakeTables()
	s := lenientSpec()
	ser := sizedSeries(t, tables, s, 1.6)
	tables[AmpTail] = failingTable{}

	if _, _, err := SizeAmp(tables, s.ampSpec(1.6, ser, s.IampMax, 0)); err == nil {
		t.Error("expected lookup error to propagate")
	}
}
