package ldo

import "math"

// arange returns start, start+step, ... up to but excluding stop. Points are
// computed as start+i*step so rounding does not accumulate.
func arange(start, stop, step float64) []float64 {
	if step <= 0 || !(stop > start) {
		return nil
	}
	n := int(math.Ceil((stop-start)/step - 1e-9))
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, start+float64(i)*step)
	}
	return out
}

// fingers splits a target current into an even finger count and a width
// multiplier for a unit device carrying unit: m = target/(2*unit),
// nf = 2*floor(m), wm = 1 + frac(m). Past math.MaxInt32 pairs the count is
// not representable and nf and wm are both 0.
func fingers(target, unit float64) (nf int, wm float64, m float64) {
	m = target / (2 * unit)
	if !(m <= math.MaxInt32) {
		return 0, 0, m
	}
	whole, frac := math.Modf(m)
	return 2 * int(whole), 1 + frac, m
}
