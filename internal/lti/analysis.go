package lti

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

// Frequency scan used by the margin and bandwidth searches, in rad/s.
const (
	scanMin      = 1e-2
	scanMax      = 1e14
	scanPerDec   = 10
	bisectRounds = 40
)

func scanGrid() []float64 {
	decades := math.Log10(scanMax / scanMin)
	n := int(decades*scanPerDec) + 1
	return floats.LogSpan(make([]float64, n), scanMin, scanMax)
}

// Bandwidth3dB returns the lowest angular frequency at which |H| falls to
// |H(0)|/sqrt(2). ok is false when H(0) is zero or infinite, or |H| never
// drops that far within the scanned range.
func Bandwidth3dB(tf *TransferFunction) (w float64, ok bool, err error) {
	h0, err := tf.Eval(0)
	if err != nil {
		return 0, false, err
	}
	mag0 := cmplx.Abs(h0)
	if mag0 == 0 || math.IsInf(mag0, 1) {
		return 0, false, nil
	}
	target := mag0 / math.Sqrt2

	below := func(w float64) (bool, error) {
		h, err := tf.Response(w)
		if err != nil {
			return false, err
		}
		return cmplx.Abs(h) < target, nil
	}

	prev := 0.0
	for _, w := range scanGrid() {
		b, err := below(w)
		if err != nil {
			return 0, false, err
		}
		if !b {
			prev = w
			continue
		}
		if prev == 0 {
			return w, true, nil
		}
		lo, hi := prev, w
		for i := 0; i < bisectRounds; i++ {
			mid := math.Sqrt(lo * hi)
			b, err := below(mid)
			if err != nil {
				return 0, false, err
			}
			if b {
				hi = mid
			} else {
				lo = mid
			}
		}
		return math.Sqrt(lo * hi), true, nil
	}
	return 0, false, nil
}

// StabilityMargins returns the phase margin in degrees and the gain margin in
// dB of a loop gain, measured against -180 degrees with the phase unwrapped
// from DC. The phase margin is +Inf when |L| never falls through unity; the
// gain margin is +Inf when the phase never reaches -180 degrees.
func StabilityMargins(tf *TransferFunction) (pm, gm float64, err error) {
	h0, err := tf.Eval(0)
	if err != nil {
		return 0, 0, err
	}
	pm, gm = math.Inf(1), math.Inf(1)

	prevPh := degrees(cmplx.Phase(h0))
	if real(h0) < 0 && imag(h0) == 0 {
		prevPh = -180
	}
	prevW, prevMag := 0.0, cmplx.Abs(h0)
	pmDone := prevMag <= 1
	gmDone := prevPh <= -180

	type point struct {
		mag, ph float64
	}
	at := func(w, ref float64) (point, error) {
		h, err := tf.Response(w)
		if err != nil {
			return point{}, err
		}
		return point{cmplx.Abs(h), unwrap(ref, degrees(cmplx.Phase(h)))}, nil
	}

	for _, w := range scanGrid() {
		cur, err := at(w, prevPh)
		if err != nil {
			return 0, 0, err
		}

		if !pmDone && cur.mag <= 1 {
			lo, hi := prevW, w
			if lo == 0 {
				lo = w
			}
			for i := 0; i < bisectRounds && lo < hi; i++ {
				mid := math.Sqrt(lo * hi)
				p, err := at(mid, prevPh)
				if err != nil {
					return 0, 0, err
				}
				if p.mag <= 1 {
					hi = mid
				} else {
					lo = mid
				}
			}
			p, err := at(hi, prevPh)
			if err != nil {
				return 0, 0, err
			}
			pm = 180 + p.ph
			pmDone = true
		}

		if !gmDone && cur.ph <= -180 {
			lo, hi := prevW, w
			if lo == 0 {
				lo = w
			}
			for i := 0; i < bisectRounds && lo < hi; i++ {
				mid := math.Sqrt(lo * hi)
				p, err := at(mid, prevPh)
				if err != nil {
					return 0, 0, err
				}
				if p.ph <= -180 {
					hi = mid
				} else {
					lo = mid
				}
			}
			p, err := at(hi, prevPh)
			if err != nil {
				return 0, 0, err
			}
			if p.mag > 0 {
				gm = -20 * math.Log10(p.mag)
			}
			gmDone = true
		}

		if pmDone && gmDone {
			break
		}
		prevW, prevPh = w, cur.ph
	}
	return pm, gm, nil
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// unwrap shifts ph by whole turns to lie within 180 degrees of ref.
func unwrap(ref, ph float64) float64 {
	for ph-ref > 180 {
		ph -= 360
	}
	for ph-ref < -180 {
		ph += 360
	}
	return ph
}
