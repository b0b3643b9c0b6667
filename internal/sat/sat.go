// Package sat is an alternative WSP search backend on top of the gini
// SAT solver. It exists behind the same FindAssignment contract as the
// reference backtracking engine; verdicts are identical, though the
// witness assignment a model yields is not guaranteed to match the
// reference engine's first solution.
package sat

import (
	"context"

	"github.com/go-air/gini"

	"github.com/wsp-framework/wisp/pkg/wisp"
	"github.com/wsp-framework/wisp/pkg/wisp/constraint"
)

const (
	satisfiable   = 1
	unsatisfiable = -1
)

// Backend encodes instances to CNF and solves them with gini.
type Backend struct{}

func New() *Backend {
	return &Backend{}
}

// FindAssignment searches for an assignment satisfying the instance
// while differing from every excluded assignment on at least one step.
// The SAT solver runs to completion once started; the context is
// honored between encoding and solving, so a node budget does not
// apply here and Stats carries no node counts.
func (b *Backend) FindAssignment(ctx context.Context, inst *wisp.Instance, exclude ...wisp.Assignment) (wisp.Assignment, bool, wisp.Stats, error) {
	var stats wisp.Stats

	lm := newLitMapping(inst)
	for _, c := range inst.Constraints() {
		if err := lm.Encode(c); err != nil {
			return nil, false, stats, err
		}
	}
	for _, a := range exclude {
		if err := lm.Encode(constraint.NotEqual(a)); err != nil {
			return nil, false, stats, err
		}
	}

	select {
	case <-ctx.Done():
		return nil, false, stats, wisp.ErrTimedOut
	default:
	}

	g := gini.New()
	lm.AddConstraints(g)
	lm.AssumeConstraints(g)

	switch outcome := g.Solve(); outcome {
	case satisfiable:
		a, err := lm.Assignment(g)
		if err != nil {
			return nil, false, stats, err
		}
		return a, true, stats, nil
	case unsatisfiable:
		return nil, false, stats, nil
	default:
		return nil, false, stats, wisp.InternalError("sat solver returned an unknown outcome")
	}
}
