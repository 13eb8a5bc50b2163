package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/ldodsn/internal/ldo"
)

type check struct {
	name     string
	target   string
	achieved string
	ok       bool
}

func checks(s ldo.Spec, p ldo.Performance) []check {
	return []check{
		{"ibias", "< " + SI(s.IampMax, "A"), SI(p.Ibias, "A"), p.Ibias < s.IampMax},
		{"err", "< " + Num(s.Err, "%.3g"), Num(p.Err, "%.3g"), p.Err < s.Err},
		{"psrr", "> " + Num(s.PSRR, "%.1f") + " dB", Num(p.PSRR, "%.1f") + " dB", p.PSRR > s.PSRR},
		{"psrr_fbw", "> " + SI(s.PSRRBandwidth, "Hz"), SI(p.PSRRBandwidth, "Hz"), p.PSRRBandwidth > s.PSRRBandwidth},
		{"pm", "> " + Num(s.PM, "%.1f") + "°", Num(p.PM, "%.1f") + "°", p.PM > s.PM},
		{"loadreg", "< " + Num(s.LoadReg, "%.3g"), Num(p.LoadReg, "%.3g"), p.LoadReg < s.LoadReg},
	}
}

// Report renders a candidate against the spec it was designed for.
func Report(s ldo.Spec, c ldo.Candidate) string {
	var b strings.Builder

	if !c.Found() {
		b.WriteString(Title.Render("LDO design") + "\n\n")
		b.WriteString(StatusFail.Render(ldo.NoSolution) + "\n")
		return Panel.Render(b.String())
	}

	b.WriteString(Title.Render(fmt.Sprintf("LDO design  %s pass device, vg = %.3f V", s.SerType, c.Vg)) + "\n\n")

	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%-10s %-14s %-14s %s", "metric", "target", "achieved", "")) + "\n")
	for _, ck := range checks(s, c.Performance) {
		status := StatusPass.Render("ok")
		if !ck.ok {
			status = StatusFail.Render("fail")
		}
		fmt.Fprintf(&b, "%s %s %s %s\n",
			MetricLabel.Render(fmt.Sprintf("%-10s", ck.name)),
			fmt.Sprintf("%-14s", ck.target),
			MetricValue.Render(fmt.Sprintf("%-14s", ck.achieved)),
			status)
	}

	b.WriteString("\n" + HeaderStyle.Render(fmt.Sprintf("%-9s %-4s %-6s %-6s %-10s %-10s %s", "device", "type", "nf", "wm", "w", "l", "intent")) + "\n")
	for _, r := range ldo.Roles {
		fmt.Fprintf(&b, "%s %-4s %-6d %-6.3f %-10s %-10s %s\n",
			MetricLabel.Render(fmt.Sprintf("%-9s", r)),
			c.Types[r], c.Nf[r], c.Wm[r],
			SI(c.Wm[r]*c.W[r], "m"), SI(c.L[r], "m"), c.Intent[r])
	}

	b.WriteString("\n" + MetricLabel.Render("cdecap_amp  ") + MetricValue.Render(SI(c.Caps.Amp, "F")))
	b.WriteString("   " + MetricLabel.Render("cdecap_load  ") + MetricValue.Render(SI(c.Caps.Load, "F")))

	return Panel.Render(b.String())
}

// SweepSummary counts sweep outcomes in one line.
func SweepSummary(points []ldo.SweepPoint) string {
	counts := map[ldo.Outcome]int{}
	for _, p := range points {
		counts[p.Outcome]++
	}
	parts := []string{
		fmt.Sprintf("%d points", len(points)),
		StatusPass.Render(fmt.Sprintf("%d accepted", counts[ldo.Accepted])),
		StatusSkip.Render(fmt.Sprintf("%d amp infeasible", counts[ldo.AmpInfeasible])),
		Subtle.Render(fmt.Sprintf("%d series mismatch", counts[ldo.SeriesMismatch])),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(parts, "  "))
}
