package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/ldodsn/internal/ldo"
)

// SweepPlot plots the current budget across the gate sweep in µA.
func SweepPlot(points []ldo.SweepPoint) string {
	if len(points) == 0 {
		return Subtle.Render("(empty sweep)")
	}
	data := make([]float64, 0, len(points))
	for _, p := range points {
		if math.IsInf(p.Budget, 0) || math.IsNaN(p.Budget) {
			continue
		}
		data = append(data, p.Budget*1e6)
	}
	if len(data) == 0 {
		return Subtle.Render("(no finite budget)")
	}
	caption := fmt.Sprintf("amp current budget (µA), vg %.3f..%.3f V", points[0].Vg, points[len(points)-1].Vg)
	return asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
}

// BodePlot plots the loop gain magnitude and phase over the given
// frequencies.
func BodePlot(freqs []float64, resp []complex128) string {
	if len(resp) == 0 || len(freqs) != len(resp) {
		return Subtle.Render("(no response)")
	}
	mag := make([]float64, len(resp))
	phase := make([]float64, len(resp))
	for i, h := range resp {
		mag[i] = ldo.MagnitudeDB(h)
		phase[i] = ldo.PhaseDeg(h)
		if i > 0 {
			for phase[i]-phase[i-1] > 180 {
				phase[i] -= 360
			}
			for phase[i]-phase[i-1] < -180 {
				phase[i] += 360
			}
		}
	}
	span := fmt.Sprintf("%s..%s", SI(freqs[0], "Hz"), SI(freqs[len(freqs)-1], "Hz"))
	return asciigraph.Plot(mag,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("loop gain (dB), "+span),
	) + "\n\n" + asciigraph.Plot(phase,
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.Caption("loop phase (deg), "+span),
	)
}
