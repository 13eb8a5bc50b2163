package viz

import (
	"fmt"
	"math"
)

var siPrefixes = []struct {
	exp    int
	prefix string
}{
	{12, "T"}, {9, "G"}, {6, "M"}, {3, "k"}, {0, ""},
	{-3, "m"}, {-6, "µ"}, {-9, "n"}, {-12, "p"}, {-15, "f"}, {-18, "a"},
}

// SI formats v with an engineering prefix, e.g. 6e-05 A as "60µA".
func SI(v float64, unit string) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	case v == 0:
		return "0" + unit
	}
	mag := math.Abs(v)
	for _, p := range siPrefixes {
		scale := math.Pow(10, float64(p.exp))
		if mag >= scale {
			return fmt.Sprintf("%.3g%s%s", v/scale, p.prefix, unit)
		}
	}
	return fmt.Sprintf("%.3g%s", v, unit)
}

// Num formats a dimensionless figure, keeping infinities readable.
func Num(v float64, format string) string {
	switch {
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	}
	return fmt.Sprintf(format, v)
}
