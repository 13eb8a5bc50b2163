package mos

import (
	"fmt"
	"math"
	"sort"
)

// Grid is a characterized table sampled on a rectilinear (vgs, vds, vbs) grid.
// Params[k] holds len(Vgs)*len(Vds)*len(Vbs) samples with vbs varying fastest.
// Queries between samples are trilinear; queries outside the grid are clamped
// to its boundary.
type Grid struct {
	Vgs    []float64            `yaml:"vgs"`
	Vds    []float64            `yaml:"vds"`
	Vbs    []float64            `yaml:"vbs"`
	Params map[string][]float64 `yaml:"params"`
	Width  float64              `yaml:"-"`
}

func (g *Grid) Validate() error {
	for name, axis := range map[string][]float64{"vgs": g.Vgs, "vds": g.Vds, "vbs": g.Vbs} {
		if len(axis) == 0 {
			return fmt.Errorf("%w: empty %s axis", ErrBadGrid, name)
		}
		if !sort.Float64sAreSorted(axis) {
			return fmt.Errorf("%w: %s axis not ascending", ErrBadGrid, name)
		}
	}
	if len(g.Params) == 0 {
		return fmt.Errorf("%w: no parameters", ErrBadGrid)
	}
	n := len(g.Vgs) * len(g.Vds) * len(g.Vbs)
	for k, v := range g.Params {
		if len(v) != n {
			return fmt.Errorf("%w: %s has %d samples, want %d", ErrBadGrid, k, len(v), n)
		}
	}
	if _, ok := g.Params["ibias"]; !ok {
		return fmt.Errorf("%w: missing ibias", ErrBadGrid)
	}
	return nil
}

func (g *Grid) WidthList() []float64 {
	return []float64{g.Width}
}

func (g *Grid) index(i, j, k int) int {
	return i*len(g.Vds)*len(g.Vbs) + j*len(g.Vbs) + k
}

func (g *Grid) Query(vgs, vds, vbs float64) (Op, error) {
	if math.IsNaN(vgs) || math.IsNaN(vds) || math.IsNaN(vbs) {
		return nil, fmt.Errorf("mos: grid: NaN bias")
	}
	i0, i1, ti := locate(g.Vgs, vgs)
	j0, j1, tj := locate(g.Vds, vds)
	k0, k1, tk := locate(g.Vbs, vbs)

	op := make(Op, len(g.Params)+1)
	for name, data := range g.Params {
		c00 := lerp(data[g.index(i0, j0, k0)], data[g.index(i0, j0, k1)], tk)
		c01 := lerp(data[g.index(i0, j1, k0)], data[g.index(i0, j1, k1)], tk)
		c10 := lerp(data[g.index(i1, j0, k0)], data[g.index(i1, j0, k1)], tk)
		c11 := lerp(data[g.index(i1, j1, k0)], data[g.index(i1, j1, k1)], tk)
		op[name] = lerp(lerp(c00, c01, tj), lerp(c10, c11, tj), ti)
	}
	if _, ok := op["vstar"]; !ok {
		op["vstar"] = op.Vstar()
	}
	return op, nil
}

// locate returns the bracketing indices of x in a sorted axis and the
// interpolation weight of the upper one.
func locate(axis []float64, x float64) (int, int, float64) {
	n := len(axis)
	if n == 1 || x <= axis[0] {
		return 0, 0, 0
	}
	if x >= axis[n-1] {
		return n - 1, n - 1, 0
	}
	hi := sort.SearchFloat64s(axis, x)
	if axis[hi] == x {
		return hi, hi, 0
	}
	lo := hi - 1
	return lo, hi, (x - axis[lo]) / (axis[hi] - axis[lo])
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Tabulate samples t on the given axes and returns the resulting grid.
func Tabulate(t Table, vgs, vds, vbs []float64) (*Grid, error) {
	g := &Grid{
		Vgs:    append([]float64(nil), vgs...),
		Vds:    append([]float64(nil), vds...),
		Vbs:    append([]float64(nil), vbs...),
		Params: make(map[string][]float64),
	}
	sort.Float64s(g.Vgs)
	sort.Float64s(g.Vds)
	sort.Float64s(g.Vbs)
	if w := t.WidthList(); len(w) > 0 {
		g.Width = w[0]
	}

	n := len(g.Vgs) * len(g.Vds) * len(g.Vbs)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty axis", ErrBadGrid)
	}
	for i, x := range g.Vgs {
		for j, y := range g.Vds {
			for k, z := range g.Vbs {
				op, err := t.Query(x, y, z)
				if err != nil {
					return nil, fmt.Errorf("mos: tabulate at (%g, %g, %g): %w", x, y, z, err)
				}
				for name, v := range op {
					col, ok := g.Params[name]
					if !ok {
						col = make([]float64, n)
						g.Params[name] = col
					}
					col[g.index(i, j, k)] = v
				}
			}
		}
	}
	return g, nil
}
