package solver

import (
	"github.com/wsp-framework/wisp/pkg/wisp"
)

// removal is one trail entry: candidate user pruned from a step's
// domain, to be restored on backtrack.
type removal struct {
	step wisp.StepID
	user wisp.UserID
}

// state owns the mutable search data for one solve attempt: the
// partial assignment, one domain per step, and the trail of pruning
// decisions. It implements wisp.Domains for constraint propagation.
// Domains only shrink going forward; backtracking restores them by
// popping the trail.
type state struct {
	assignment wisp.Assignment
	domains    []wisp.UserSet
	trail      []removal
	unassigned int
}

func newState(inst *wisp.Instance) *state {
	n := inst.Steps()
	domains := make([]wisp.UserSet, n)
	for s := 1; s <= n; s++ {
		domains[s-1] = inst.Authorized(wisp.StepID(s)).Clone()
	}
	return &state{
		assignment: wisp.NewAssignment(n),
		domains:    domains,
		unassigned: n,
	}
}

func (st *state) User(s wisp.StepID) wisp.UserID {
	return st.assignment.User(s)
}

func (st *state) Has(s wisp.StepID, u wisp.UserID) bool {
	return st.domains[s-1].Has(u)
}

func (st *state) Count(s wisp.StepID) int {
	return st.domains[s-1].Count()
}

// Remove prunes candidate u from step s, logging the removal on the
// trail first. It returns false when the domain is left empty.
func (st *state) Remove(s wisp.StepID, u wisp.UserID) bool {
	dom := &st.domains[s-1]
	if !dom.Has(u) {
		return !dom.Empty()
	}
	st.trail = append(st.trail, removal{step: s, user: u})
	dom.Delete(u)
	return !dom.Empty()
}

// Restrict prunes every candidate of step s rejected by keep.
func (st *state) Restrict(s wisp.StepID, keep func(wisp.UserID) bool) bool {
	ok := true
	for _, u := range st.domains[s-1].Values() {
		if keep(u) {
			continue
		}
		ok = st.Remove(s, u)
	}
	return ok
}

func (st *state) assign(s wisp.StepID, u wisp.UserID) {
	st.assignment[s-1] = u
	st.unassigned--
}

func (st *state) unassign(s wisp.StepID) {
	st.assignment[s-1] = wisp.UserNone
	st.unassigned++
}

// mark returns the current trail position, delimiting a choice point.
func (st *state) mark() int {
	return len(st.trail)
}

// undoTo pops the trail back to a previous mark, restoring every
// pruned candidate in reverse order.
func (st *state) undoTo(mark int) error {
	if mark > len(st.trail) || mark < 0 {
		return wisp.InternalError("trail underflow on backtrack")
	}
	for i := len(st.trail) - 1; i >= mark; i-- {
		r := st.trail[i]
		st.domains[r.step-1].Add(r.user)
	}
	st.trail = st.trail[:mark]
	return nil
}
