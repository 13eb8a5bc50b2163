package ldo

import "context"

// Design runs the search and converts the best candidate. When nothing is
// feasible the candidates slice holds the sentinel and the error is
// ErrNoSolution.
func (d *Designer) Design(ctx context.Context) (*SchematicParams, []Candidate, error) {
	best, err := d.MeetSpec(ctx)
	if err != nil {
		return nil, nil, err
	}
	p, err := NewSchematicParams(best[0])
	return p, best, err
}
