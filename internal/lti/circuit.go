// Package lti builds linear small-signal circuits and evaluates their transfer
// functions in the frequency domain.
//
// Nodes are small integers with 0 as ground. Elements are recorded as
// admittance stamps; a transfer function is solved per frequency with a
// sparse complex LU factorization.
package lti

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/ldodsn/internal/mos"
)

// Node identifies a circuit node. Ground is node 0.
type Node int

const Ground Node = 0

// DefaultGmin is the conductance added from every node to ground so that
// nodes driven only by capacitors or current sources stay solvable at DC.
const DefaultGmin = 1e-15

var (
	ErrSingular      = errors.New("lti: singular small-signal matrix")
	ErrFloatingNode  = errors.New("lti: node is not connected to any element")
	ErrInvalidValue  = errors.New("lti: invalid element value")
	ErrInvalidSource = errors.New("lti: invalid transfer function input")
)

// branch is an admittance g + s*c between nodes a and b.
type branch struct {
	a, b Node
	g, c float64
}

// vccs drives gm*(v(cp)-v(cn)) from node p to node n through the source.
type vccs struct {
	p, n   Node
	cp, cn Node
	gm     float64
}

// Circuit accumulates linear elements. The first invalid element is
// remembered and reported by TransferFunction.
type Circuit struct {
	branches []branch
	sources  []vccs
	nodes    map[Node]struct{}
	gmin     float64
	err      error
}

func New() *Circuit {
	return &Circuit{
		nodes: make(map[Node]struct{}),
		gmin:  DefaultGmin,
	}
}

// SetGmin overrides DefaultGmin.
func (c *Circuit) SetGmin(g float64) {
	if g < 0 || math.IsNaN(g) {
		c.fail(fmt.Errorf("%w: gmin %g", ErrInvalidValue, g))
		return
	}
	c.gmin = g
}

func (c *Circuit) Err() error {
	return c.err
}

func (c *Circuit) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *Circuit) touch(nodes ...Node) bool {
	for _, n := range nodes {
		if n < 0 {
			c.fail(fmt.Errorf("%w: negative node %d", ErrInvalidValue, n))
			return false
		}
	}
	for _, n := range nodes {
		if n != Ground {
			c.nodes[n] = struct{}{}
		}
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (c *Circuit) AddResistor(r float64, a, b Node) {
	if r <= 0 || !finite(r) {
		c.fail(fmt.Errorf("%w: resistor %g", ErrInvalidValue, r))
		return
	}
	c.AddConductance(1/r, a, b)
}

func (c *Circuit) AddConductance(g float64, a, b Node) {
	if !finite(g) {
		c.fail(fmt.Errorf("%w: conductance %g", ErrInvalidValue, g))
		return
	}
	if !c.touch(a, b) || a == b {
		return
	}
	c.branches = append(c.branches, branch{a: a, b: b, g: g})
}

// AddCapacitor adds a capacitor between a and b. A zero value adds nothing;
// negative values are allowed.
func (c *Circuit) AddCapacitor(v float64, a, b Node) {
	if !finite(v) {
		c.fail(fmt.Errorf("%w: capacitor %g", ErrInvalidValue, v))
		return
	}
	if v == 0 || !c.touch(a, b) || a == b {
		return
	}
	c.branches = append(c.branches, branch{a: a, b: b, c: v})
}

// AddVCCS adds a current gm*(v(cp)-v(cn)) flowing out of p, through the
// source, into n.
func (c *Circuit) AddVCCS(gm float64, p, n, cp, cn Node) {
	if !finite(gm) {
		c.fail(fmt.Errorf("%w: transconductance %g", ErrInvalidValue, gm))
		return
	}
	if gm == 0 || !c.touch(p, n, cp, cn) {
		return
	}
	c.sources = append(c.sources, vccs{p: p, n: n, cp: cp, cn: cn, gm: gm})
}

// AddTransistor stamps the small-signal model of fg parallel fingers of a
// device at operating point op. With negCap false, negative capacitances in
// op are clamped to zero.
func (c *Circuit) AddTransistor(op mos.Op, d, g, s, b Node, fg int, negCap bool) {
	if fg < 0 {
		c.fail(fmt.Errorf("%w: finger count %d", ErrInvalidValue, fg))
		return
	}
	if !c.touch(d, g, s, b) {
		return
	}
	scale := float64(fg)

	c.AddVCCS(scale*op["gm"], d, s, g, s)
	c.AddVCCS(scale*op["gmb"], d, s, b, s)
	c.AddConductance(scale*op["gds"], d, s)

	cgs := op["cgs"]
	if _, ok := op["cgs"]; !ok {
		cgs = op["cgg"]
	}
	caps := []struct {
		v    float64
		a, b Node
	}{
		{cgs, g, s},
		{op["cgd"], g, d},
		{op["cgb"], g, b},
		{op["cds"], d, s},
		{op["cdb"], d, b},
		{op["csb"], s, b},
	}
	for _, cp := range caps {
		v := scale * cp.v
		if !negCap && v < 0 {
			v = 0
		}
		c.AddCapacitor(v, cp.a, cp.b)
	}
}
