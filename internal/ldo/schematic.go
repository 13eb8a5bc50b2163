package ldo

import "github.com/san-kum/ldodsn/internal/mos"

// SchematicParams are the device parameters handed to a schematic generator.
type SchematicParams struct {
	W      map[Role]float64  `yaml:"w_dict" json:"w_dict"`
	L      map[Role]float64  `yaml:"l_dict" json:"l_dict"`
	Nf     map[Role]int      `yaml:"nf_dict" json:"nf_dict"`
	Intent map[Role]string   `yaml:"th_dict" json:"th_dict"`
	Types  map[Role]mos.Type `yaml:"type_dict" json:"type_dict"`
	Caps   Caps              `yaml:"cap_dict" json:"cap_dict"`
}

// NewSchematicParams converts a candidate to schematic parameters. Device
// widths are the unit width scaled by the candidate's width multiplier.
func NewSchematicParams(c Candidate) (*SchematicParams, error) {
	if !c.Found() {
		return nil, ErrNoSolution
	}
	p := &SchematicParams{
		W:      make(map[Role]float64, len(c.Wm)),
		L:      make(map[Role]float64, len(c.L)),
		Nf:     make(map[Role]int, len(c.Nf)),
		Intent: make(map[Role]string, len(c.Intent)),
		Types:  make(map[Role]mos.Type, len(c.Types)),
		Caps:   c.Caps,
	}
	for r, wm := range c.Wm {
		p.W[r] = wm * c.W[r]
	}
	for r, l := range c.L {
		p.L[r] = l
	}
	for r, nf := range c.Nf {
		p.Nf[r] = nf
	}
	for r, th := range c.Intent {
		p.Intent[r] = th
	}
	for r, typ := range c.Types {
		p.Types[r] = typ
	}
	return p, nil
}
