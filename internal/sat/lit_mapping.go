package sat

import (
	"fmt"

	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/wsp-framework/wisp/pkg/wisp"
	"github.com/wsp-framework/wisp/pkg/wisp/constraint"
)

// key addresses the boolean variable "step is assigned to user".
type key struct {
	step wisp.StepID
	user wisp.UserID
}

// litMapping translates a WSP instance into a gini logic circuit: one
// literal per authorized (step, user) pair, exactly-one-user clauses
// per step, and one root literal per encoded constraint. The roots are
// assumed, so the SAT solver only reports models satisfying every
// constraint.
type litMapping struct {
	inst  *wisp.Instance
	c     *logic.C
	lits  map[key]z.Lit
	roots []z.Lit
}

func newLitMapping(inst *wisp.Instance) *litMapping {
	d := &litMapping{
		inst: inst,
		c:    logic.NewC(),
		lits: map[key]z.Lit{},
	}

	for s := 1; s <= inst.Steps(); s++ {
		step := wisp.StepID(s)
		candidates := inst.Authorized(step).Values()
		ms := make([]z.Lit, len(candidates))
		for i, u := range candidates {
			m := d.c.Lit()
			d.lits[key{step: step, user: u}] = m
			ms[i] = m
		}
		// Exactly one user per step: at least one of the authorized
		// pairs, and no two at once.
		d.roots = append(d.roots, d.ors(ms))
		for i := range ms {
			for j := i + 1; j < len(ms); j++ {
				d.roots = append(d.roots, d.c.Or(ms[i].Not(), ms[j].Not()))
			}
		}
	}
	return d
}

// LitOf returns the literal for (step, user), or the constant false
// literal when the pair is not authorized.
func (d *litMapping) LitOf(s wisp.StepID, u wisp.UserID) z.Lit {
	if m, ok := d.lits[key{step: s, user: u}]; ok {
		return m
	}
	return d.c.F
}

func (d *litMapping) ors(ms []z.Lit) z.Lit {
	m := d.c.F
	for _, each := range ms {
		m = d.c.Or(m, each)
	}
	return m
}

// Encode adds the circuit for one constraint and records its root.
// The constraint vocabulary is closed; an unknown concrete type is a
// defect.
func (d *litMapping) Encode(c wisp.Constraint) error {
	switch c := c.(type) {
	case *constraint.SeparationOfDutyConstraint:
		d.encodeSoD(c)
	case *constraint.BindingOfDutyConstraint:
		d.encodeBoD(c)
	case *constraint.AtMostKConstraint:
		d.encodeAtMostK(c)
	case *constraint.OneTeamConstraint:
		d.encodeOneTeam(c)
	case *constraint.NotEqualConstraint:
		d.encodeNotEqual(c)
	default:
		return wisp.InternalError(fmt.Sprintf("no SAT encoding for constraint %q", c))
	}
	return nil
}

func (d *litMapping) encodeSoD(c *constraint.SeparationOfDutyConstraint) {
	steps := c.Scope()
	for i, s1 := range steps {
		for _, s2 := range steps[i+1:] {
			shared := d.inst.Authorized(s1).Clone()
			shared.IntersectWith(d.inst.Authorized(s2))
			shared.Each(func(u wisp.UserID) bool {
				d.roots = append(d.roots, d.c.Or(d.LitOf(s1, u).Not(), d.LitOf(s2, u).Not()))
				return true
			})
		}
	}
}

func (d *litMapping) encodeBoD(c *constraint.BindingOfDutyConstraint) {
	steps := c.Scope()
	pivot := steps[0]
	for _, s := range steps[1:] {
		either := d.inst.Authorized(pivot).Clone()
		either.UnionWith(d.inst.Authorized(s))
		either.Each(func(u wisp.UserID) bool {
			a, b := d.LitOf(pivot, u), d.LitOf(s, u)
			d.roots = append(d.roots, d.c.Or(a.Not(), b), d.c.Or(b.Not(), a))
			return true
		})
	}
}

func (d *litMapping) encodeAtMostK(c *constraint.AtMostKConstraint) {
	users := wisp.NewUserSet(d.inst.Users())
	for _, s := range c.Scope() {
		users.UnionWith(d.inst.Authorized(s))
	}
	if users.Count() <= c.K() {
		return
	}
	// used[u] is implied by any scope step assigned to u; bounding the
	// used literals bounds the distinct assigned users.
	var used []z.Lit
	users.Each(func(u wisp.UserID) bool {
		m := d.c.Lit()
		for _, s := range c.Scope() {
			if d.inst.Authorized(s).Has(u) {
				d.roots = append(d.roots, d.c.Or(d.LitOf(s, u).Not(), m))
			}
		}
		used = append(used, m)
		return true
	})
	d.roots = append(d.roots, d.c.CardSort(used).Leq(c.K()))
}

func (d *litMapping) encodeOneTeam(c *constraint.OneTeamConstraint) {
	selectors := make([]z.Lit, len(c.Teams()))
	for i := range c.Teams() {
		selectors[i] = d.c.Lit()
	}
	d.roots = append(d.roots, d.ors(selectors))
	for i, team := range c.Teams() {
		for _, s := range c.Scope() {
			d.inst.Authorized(s).Each(func(u wisp.UserID) bool {
				if !team.Has(u) {
					d.roots = append(d.roots, d.c.Or(selectors[i].Not(), d.LitOf(s, u).Not()))
				}
				return true
			})
		}
	}
}

func (d *litMapping) encodeNotEqual(c *constraint.NotEqualConstraint) {
	forbidden := c.Forbidden()
	differs := make([]z.Lit, 0, len(forbidden))
	for _, s := range c.Scope() {
		differs = append(differs, d.LitOf(s, forbidden.User(s)).Not())
	}
	d.roots = append(d.roots, d.ors(differs))
}

// AddConstraints teaches the accumulated circuit to the solver g.
func (d *litMapping) AddConstraints(g inter.S) {
	d.c.ToCnf(g)
}

// AssumeConstraints assumes every constraint root.
func (d *litMapping) AssumeConstraints(g inter.S) {
	g.Assume(d.roots...)
}

// Assignment reads a complete assignment out of a satisfying model.
func (d *litMapping) Assignment(g inter.S) (wisp.Assignment, error) {
	a := wisp.NewAssignment(d.inst.Steps())
	for s := 1; s <= d.inst.Steps(); s++ {
		step := wisp.StepID(s)
		for _, u := range d.inst.Authorized(step).Values() {
			if g.Value(d.LitOf(step, u)) {
				a[s-1] = u
				break
			}
		}
		if a[s-1] == wisp.UserNone {
			return nil, wisp.InternalError(fmt.Sprintf("model assigns no user to %s", step))
		}
	}
	return a, nil
}
