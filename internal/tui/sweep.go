package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/ldodsn/internal/ldo"
	"github.com/san-kum/ldodsn/internal/viz"
)

const recentPoints = 8

type pointMsg ldo.SweepPoint

type doneMsg struct {
	sch  *ldo.SchematicParams
	best []ldo.Candidate
	err  error
}

type model struct {
	spec   ldo.Spec
	total  int
	points []ldo.SweepPoint
	sch    *ldo.SchematicParams
	best   []ldo.Candidate
	err    error
	done   bool
	cancel context.CancelFunc
}

func newModel(spec ldo.Spec, total int, cancel context.CancelFunc) model {
	return model{spec: spec, total: total, cancel: cancel}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			return m, tea.Quit
		}
	case pointMsg:
		m.points = append(m.points, ldo.SweepPoint(msg))
	case doneMsg:
		m.sch, m.best, m.err, m.done = msg.sch, msg.best, msg.err, true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(viz.Title.Render(fmt.Sprintf("gate sweep  %s pass device, %.2f V → %.2f V", m.spec.SerType, m.spec.Vdd, m.spec.Vout)))
	b.WriteString("\n\n")

	frac := 0.0
	if m.total > 0 {
		frac = float64(len(m.points)) / float64(m.total)
	}
	fmt.Fprintf(&b, "%s %d/%d\n", viz.ProgressBar(frac, 40), len(m.points), m.total)
	b.WriteString(viz.SweepSummary(m.points) + "\n\n")

	start := max(0, len(m.points)-recentPoints)
	for _, p := range m.points[start:] {
		line := fmt.Sprintf("vg=%.3f V  budget=%s", p.Vg, viz.SI(p.Budget, "A"))
		switch p.Outcome {
		case ldo.Accepted:
			b.WriteString(viz.StatusPass.Render(line + "  accepted " + viz.SI(p.Ibias, "A")))
		case ldo.AmpInfeasible:
			b.WriteString(viz.StatusSkip.Render(line + "  amp infeasible"))
		default:
			b.WriteString(viz.Subtle.Render(line + "  series mismatch"))
		}
		b.WriteString("\n")
	}

	switch {
	case m.done && errors.Is(m.err, ldo.ErrNoSolution):
		b.WriteString("\n" + viz.StatusSkip.Render(ldo.NoSolution) + "\n")
	case m.done:
		b.WriteString("\n" + viz.Subtle.Render("done") + "\n")
	default:
		b.WriteString("\n" + viz.Subtle.Render("q to abort") + "\n")
	}
	return b.String()
}

// Run executes Designer.Design while showing sweep progress. Its results
// and error pass through unchanged. Quitting the view cancels the search and
// returns context.Canceled with the points seen so far.
func Run(ctx context.Context, spec ldo.Spec, tables ldo.Tables, opts ...ldo.Option) (*ldo.SchematicParams, []ldo.Candidate, []ldo.SweepPoint, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var prog *tea.Program
	send := ldo.ObserverFunc(func(p ldo.SweepPoint) { prog.Send(pointMsg(p)) })

	d, err := ldo.NewDesigner(spec, tables, append(opts, ldo.WithObserver(send))...)
	if err != nil {
		return nil, nil, nil, err
	}
	vgs, err := d.SweepRange()
	if err != nil {
		return nil, nil, nil, err
	}

	prog = tea.NewProgram(newModel(spec, len(vgs), cancel))
	go func() {
		sch, best, err := d.Design(ctx)
		prog.Send(doneMsg{sch: sch, best: best, err: err})
	}()

	final, err := prog.Run()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("tui: %w", err)
	}
	m, ok := final.(model)
	if !ok {
		return nil, nil, nil, errors.New("tui: unexpected model")
	}
	if !m.done {
		return nil, nil, m.points, context.Canceled
	}
	return m.sch, m.best, m.points, m.err
}
