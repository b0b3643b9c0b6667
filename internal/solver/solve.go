// Package solver implements the reference WSP search engine: a
// deterministic backtracking search over steps with constraint
// propagation, a minimum-remaining-values step heuristic, and a trail
// to undo pruning on backtrack.
package solver

import (
	"context"

	"github.com/wsp-framework/wisp/pkg/wisp"
	"github.com/wsp-framework/wisp/pkg/wisp/constraint"
)

// Solver finds satisfying assignments for validated WSP instances. It
// holds only configuration; every FindAssignment call owns a fresh
// search state, so a Solver may be shared across goroutines solving
// independent instances.
type Solver struct {
	tracer    wisp.Tracer
	nodeLimit int64
}

func New(options ...Option) (*Solver, error) {
	s := Solver{}
	for _, option := range append(options, defaults...) {
		if err := option(&s); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

type Option func(s *Solver) error

func WithTracer(t wisp.Tracer) Option {
	return func(s *Solver) error {
		s.tracer = t
		return nil
	}
}

// WithNodeLimit bounds the number of assignments the search may try
// before giving up with wisp.ErrTimedOut. Zero means unbounded.
func WithNodeLimit(n int64) Option {
	return func(s *Solver) error {
		s.nodeLimit = n
		return nil
	}
}

var defaults = []Option{
	func(s *Solver) error {
		if s.tracer == nil {
			s.tracer = wisp.DefaultTracer{}
		}
		return nil
	},
}

// FindAssignment searches for an assignment satisfying the instance
// while differing from every excluded assignment on at least one step.
// The boolean reports whether one was found; exhausting the search
// space without one proves unsatisfiability (of the instance plus
// exclusions). The error is wisp.ErrTimedOut when the node limit or
// the context deadline ran out first, or a wisp.InternalError if an
// engine invariant broke.
func (s *Solver) FindAssignment(ctx context.Context, inst *wisp.Instance, exclude ...wisp.Assignment) (wisp.Assignment, bool, wisp.Stats, error) {
	all := make([]wisp.Constraint, 0, len(inst.Constraints())+len(exclude))
	all = append(all, inst.Constraints()...)
	for _, a := range exclude {
		all = append(all, constraint.NotEqual(a))
	}

	byStep := make([][]wisp.Constraint, inst.Steps())
	for _, c := range all {
		for _, step := range c.Scope() {
			byStep[step-1] = append(byStep[step-1], c)
		}
	}

	r := &run{
		ctx:       ctx,
		st:        newState(inst),
		all:       all,
		byStep:    byStep,
		tracer:    s.tracer,
		nodeLimit: s.nodeLimit,
	}

	found, err := r.solve()
	if err != nil {
		return nil, false, r.stats, err
	}
	if !found {
		return nil, false, r.stats, nil
	}
	return r.st.assignment.Clone(), true, r.stats, nil
}

// run is one search attempt over one exclusively-owned state.
type run struct {
	ctx       context.Context
	st        *state
	all       []wisp.Constraint
	byStep    [][]wisp.Constraint
	tracer    wisp.Tracer
	nodeLimit int64
	stats     wisp.Stats
}

func (r *run) solve() (bool, error) {
	// Root propagation: prune the authorized sets down to candidates
	// consistent with every constraint before the first choice.
	for _, c := range r.all {
		if c.Propagate(r.st) == wisp.Violated {
			r.tracer.Trace(position{assignment: r.st.assignment.Clone(), conflicts: []wisp.Constraint{c}})
			return false, nil
		}
	}
	return r.search()
}

func (r *run) search() (bool, error) {
	if r.st.unassigned == 0 {
		return true, r.verify()
	}

	s := r.chooseStep()
	// Candidates are snapshotted in ascending user order; deeper
	// propagation never touches the domain of an assigned step.
	for _, u := range r.st.domains[s-1].Values() {
		if err := r.budget(); err != nil {
			return false, err
		}
		r.stats.Nodes++
		mark := r.st.mark()
		r.st.assign(s, u)

		if r.propagateFrom(s) {
			if found, err := r.search(); found || err != nil {
				return found, err
			}
		}

		r.st.unassign(s)
		if err := r.st.undoTo(mark); err != nil {
			return false, err
		}
		r.stats.Backtracks++
	}
	return false, nil
}

// chooseStep picks the unassigned step with the smallest domain,
// breaking ties toward the lowest step id.
func (r *run) chooseStep() wisp.StepID {
	best := wisp.StepID(0)
	bestSize := 0
	for i := range r.st.domains {
		s := wisp.StepID(i + 1)
		if r.st.assignment.Assigned(s) {
			continue
		}
		size := r.st.domains[i].Count()
		if best == 0 || size < bestSize {
			best, bestSize = s, size
		}
	}
	return best
}

// propagateFrom checks and propagates every constraint whose scope
// includes the just-assigned step. It reports whether the search may
// descend; on conflict the caller undoes the trail.
func (r *run) propagateFrom(s wisp.StepID) bool {
	for _, c := range r.byStep[s-1] {
		if c.Check(r.st.assignment) == wisp.Violated || c.Propagate(r.st) == wisp.Violated {
			r.tracer.Trace(position{assignment: r.st.assignment.Clone(), conflicts: []wisp.Constraint{c}})
			return false
		}
	}
	return true
}

// verify confirms the Success invariant on a complete assignment:
// every constraint must report Satisfied. Anything else means
// propagation let a violation through, which is a defect.
func (r *run) verify() error {
	for _, c := range r.all {
		if got := c.Check(r.st.assignment); got != wisp.Satisfied {
			return wisp.InternalError("complete assignment left a constraint " + got.String())
		}
	}
	return nil
}

func (r *run) budget() error {
	if r.nodeLimit > 0 && r.stats.Nodes >= r.nodeLimit {
		return wisp.ErrTimedOut
	}
	if r.stats.Nodes&63 == 0 {
		select {
		case <-r.ctx.Done():
			return wisp.ErrTimedOut
		default:
		}
	}
	return nil
}

// position is the SearchPosition handed to tracers on conflict.
type position struct {
	assignment wisp.Assignment
	conflicts  []wisp.Constraint
}

func (p position) Assignment() wisp.Assignment {
	return p.assignment
}

func (p position) Conflicts() []wisp.Constraint {
	return p.conflicts
}
