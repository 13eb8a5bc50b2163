package lti

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"github.com/edp1096/sparse"
)

// Input selects how a transfer function is excited.
type Input int

const (
	// VoltageInput forces v(in) = 1 and reports v(out).
	VoltageInput Input = iota
	// CurrentInput injects 1 A into in and reports v(out).
	CurrentInput
)

func (k Input) String() string {
	if k == CurrentInput {
		return "current"
	}
	return "voltage"
}

// TransferFunction is v(out) per unit excitation at in, evaluated at complex
// frequency s. It holds a snapshot of the circuit taken at construction.
type TransferFunction struct {
	branches []branch
	sources  []vccs
	index    map[Node]int64
	in, out  Node
	kind     Input
	gmin     float64
	sign     float64
	inverse  bool
}

// TransferFunction snapshots the circuit into a transfer function from in to
// out.
func (c *Circuit) TransferFunction(in, out Node, kind Input) (*TransferFunction, error) {
	if c.err != nil {
		return nil, c.err
	}
	if in == Ground {
		return nil, fmt.Errorf("%w: input at ground", ErrInvalidSource)
	}
	if _, ok := c.nodes[in]; !ok {
		return nil, fmt.Errorf("%w: input node %d", ErrFloatingNode, in)
	}
	if _, ok := c.nodes[out]; !ok && out != Ground {
		return nil, fmt.Errorf("%w: output node %d", ErrFloatingNode, out)
	}

	nodes := make([]Node, 0, len(c.nodes))
	for n := range c.nodes {
		if kind == VoltageInput && n == in {
			continue
		}
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	index := make(map[Node]int64, len(nodes))
	for i, n := range nodes {
		index[n] = int64(i + 1)
	}

	return &TransferFunction{
		branches: append([]branch(nil), c.branches...),
		sources:  append([]vccs(nil), c.sources...),
		index:    index,
		in:       in,
		out:      out,
		kind:     kind,
		gmin:     c.gmin,
		sign:     1,
	}, nil
}

// Negate returns a transfer function with the opposite sign.
func (tf *TransferFunction) Negate() *TransferFunction {
	neg := *tf
	neg.sign = -tf.sign
	return &neg
}

// Invert returns the reciprocal transfer function, in/out. It is +Inf
// wherever the original is zero.
func (tf *TransferFunction) Invert() *TransferFunction {
	inv := *tf
	inv.inverse = !tf.inverse
	return &inv
}

// Response evaluates the transfer function at angular frequency w (rad/s).
func (tf *TransferFunction) Response(w float64) (complex128, error) {
	return tf.Eval(complex(0, w))
}

func (tf *TransferFunction) DCGain() (float64, error) {
	h, err := tf.Eval(0)
	if err != nil {
		return 0, err
	}
	return real(h), nil
}

func (tf *TransferFunction) driven(n Node) bool {
	return tf.kind == VoltageInput && n == tf.in
}

// Eval solves the circuit at complex frequency s.
func (tf *TransferFunction) Eval(s complex128) (complex128, error) {
	h, err := tf.eval(s)
	if err != nil || !tf.inverse {
		return h, err
	}
	if h == 0 {
		return cmplx.Inf(), nil
	}
	return 1 / h, nil
}

func (tf *TransferFunction) eval(s complex128) (complex128, error) {
	if tf.out == Ground {
		return 0, nil
	}
	if tf.driven(tf.out) {
		return complex(tf.sign, 0), nil
	}

	size := int64(len(tf.index))
	mat, err := sparse.Create(size, &sparse.Configuration{
		Real:                    true,
		Complex:                 true,
		SeparatedComplexVectors: true,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            80,
	})
	if err != nil {
		return 0, fmt.Errorf("lti: create matrix: %w", err)
	}
	defer mat.Destroy()

	rhs := make([]float64, size+1)
	irhs := make([]float64, size+1)

	stamp := func(row, col Node, y complex128) {
		i, ok := tf.index[row]
		if !ok {
			return
		}
		if tf.driven(col) {
			rhs[i] -= real(y)
			irhs[i] -= imag(y)
			return
		}
		j, ok := tf.index[col]
		if !ok {
			return
		}
		e := mat.GetElement(i, j)
		e.Real += real(y)
		e.Imag += imag(y)
	}

	for i := int64(1); i <= size; i++ {
		mat.GetElement(i, i).Real += tf.gmin
	}
	for _, br := range tf.branches {
		y := complex(br.g, 0) + s*complex(br.c, 0)
		stamp(br.a, br.a, y)
		stamp(br.b, br.b, y)
		stamp(br.a, br.b, -y)
		stamp(br.b, br.a, -y)
	}
	for _, src := range tf.sources {
		gm := complex(src.gm, 0)
		stamp(src.p, src.cp, gm)
		stamp(src.p, src.cn, -gm)
		stamp(src.n, src.cp, -gm)
		stamp(src.n, src.cn, gm)
	}
	if tf.kind == CurrentInput {
		rhs[tf.index[tf.in]] += 1
	}

	if err := mat.Factor(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	re, im, err := mat.SolveComplex(rhs, irhs)
	if err != nil {
		return 0, fmt.Errorf("lti: solve: %w", err)
	}

	j := tf.index[tf.out]
	h := complex(re[j], im[j])
	if math.IsNaN(real(h)) || math.IsNaN(imag(h)) {
		return 0, ErrSingular
	}
	return complex(tf.sign, 0) * h, nil
}
