package mos

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownModel indicates a device file entry with no usable model.
	ErrUnknownModel = errors.New("mos: no model for intent/environment")

	// ErrBadGrid indicates inconsistent grid axes or data.
	ErrBadGrid = errors.New("mos: malformed characterization grid")
)

// Table answers operating-point queries for one device geometry, threshold
// flavor and process corner.
type Table interface {
	Query(vgs, vds, vbs float64) (Op, error)
	WidthList() []float64
}

// EstimateVth estimates the threshold voltage at the given bias by subtracting
// the overdrive from vgs. The result is signed like vgs: positive for n-type,
// negative for p-type devices.
func EstimateVth(t Table, typ Type, vgs, vbs float64) (float64, error) {
	if !typ.Valid() {
		return 0, fmt.Errorf("mos: estimate vth: invalid type %q", typ)
	}
	op, err := t.Query(vgs, vgs, vbs)
	if err != nil {
		return 0, fmt.Errorf("mos: estimate vth: %w", err)
	}
	return vgs - typ.Sign()*op.Vstar(), nil
}
