// Package constraint provides the WSP constraint vocabulary. Each kind
// implements wisp.Constraint: an incremental check against a partial
// assignment plus a propagation rule that prunes candidate users from
// unassigned steps.
package constraint

import (
	"fmt"
	"strings"

	"github.com/wsp-framework/wisp/pkg/wisp"
)

func stepList(steps []wisp.StepID) string {
	s := make([]string, len(steps))
	for i, each := range steps {
		s[i] = each.String()
	}
	return strings.Join(s, ", ")
}

// SeparationOfDutyConstraint forbids any two steps in its scope from
// being assigned the same user.
type SeparationOfDutyConstraint struct {
	steps []wisp.StepID
}

// SoD returns a separation-of-duty constraint over the given steps.
func SoD(steps ...wisp.StepID) *SeparationOfDutyConstraint {
	return &SeparationOfDutyConstraint{steps: steps}
}

func (c *SeparationOfDutyConstraint) String() string {
	return fmt.Sprintf("steps %s must be assigned pairwise-distinct users", stepList(c.steps))
}

func (c *SeparationOfDutyConstraint) Scope() []wisp.StepID {
	return c.steps
}

func (c *SeparationOfDutyConstraint) Check(a wisp.Assignment) wisp.State {
	complete := true
	for i, s1 := range c.steps {
		u1 := a.User(s1)
		if u1 == wisp.UserNone {
			complete = false
			continue
		}
		for _, s2 := range c.steps[i+1:] {
			if u2 := a.User(s2); u2 == u1 {
				return wisp.Violated
			}
		}
	}
	if complete {
		return wisp.Satisfied
	}
	return wisp.Pending
}

func (c *SeparationOfDutyConstraint) Propagate(d wisp.Domains) wisp.State {
	for _, s1 := range c.steps {
		u := d.User(s1)
		if u == wisp.UserNone {
			continue
		}
		for _, s2 := range c.steps {
			if s2 == s1 || d.User(s2) != wisp.UserNone {
				continue
			}
			if !d.Remove(s2, u) {
				return wisp.Violated
			}
		}
	}
	return wisp.Pending
}

func (c *SeparationOfDutyConstraint) Validate(steps, users int) (string, error) {
	if len(c.steps) < 2 {
		return "", fmt.Errorf("separation-of-duty over %d step(s) needs a scope of at least two", len(c.steps))
	}
	if len(c.steps) > users {
		// More pairwise-distinct steps than users can never be
		// satisfied, but that is the search engine's verdict to
		// deliver, not a malformed instance.
		return fmt.Sprintf("separation-of-duty over %d steps exceeds the %d available users", len(c.steps), users), nil
	}
	return "", nil
}

// BindingOfDutyConstraint requires every step in its scope to be
// assigned the same user.
type BindingOfDutyConstraint struct {
	steps []wisp.StepID
}

// BoD returns a binding-of-duty constraint over the given steps.
func BoD(steps ...wisp.StepID) *BindingOfDutyConstraint {
	return &BindingOfDutyConstraint{steps: steps}
}

func (c *BindingOfDutyConstraint) String() string {
	return fmt.Sprintf("steps %s must be assigned the same user", stepList(c.steps))
}

func (c *BindingOfDutyConstraint) Scope() []wisp.StepID {
	return c.steps
}

func (c *BindingOfDutyConstraint) Check(a wisp.Assignment) wisp.State {
	bound := wisp.UserNone
	complete := true
	for _, s := range c.steps {
		u := a.User(s)
		if u == wisp.UserNone {
			complete = false
			continue
		}
		if bound == wisp.UserNone {
			bound = u
		} else if u != bound {
			return wisp.Violated
		}
	}
	if complete {
		return wisp.Satisfied
	}
	return wisp.Pending
}

func (c *BindingOfDutyConstraint) Propagate(d wisp.Domains) wisp.State {
	bound := wisp.UserNone
	for _, s := range c.steps {
		if u := d.User(s); u != wisp.UserNone {
			bound = u
			break
		}
	}
	if bound == wisp.UserNone {
		return wisp.Pending
	}
	for _, s := range c.steps {
		if d.User(s) != wisp.UserNone {
			continue
		}
		if !d.Restrict(s, func(u wisp.UserID) bool { return u == bound }) {
			return wisp.Violated
		}
	}
	return wisp.Pending
}

func (c *BindingOfDutyConstraint) Validate(steps, users int) (string, error) {
	if len(c.steps) < 2 {
		return "", fmt.Errorf("binding-of-duty over %d step(s) needs a scope of at least two", len(c.steps))
	}
	return "", nil
}

// AtMostKConstraint bounds the number of distinct users assigned
// across its scope.
type AtMostKConstraint struct {
	k     int
	steps []wisp.StepID
}

// AtMostK returns a constraint permitting at most k distinct users
// across the given steps.
func AtMostK(k int, steps ...wisp.StepID) *AtMostKConstraint {
	return &AtMostKConstraint{k: k, steps: steps}
}

func (c *AtMostKConstraint) String() string {
	return fmt.Sprintf("steps %s permit at most %d distinct users", stepList(c.steps), c.k)
}

func (c *AtMostKConstraint) K() int {
	return c.k
}

func (c *AtMostKConstraint) Scope() []wisp.StepID {
	return c.steps
}

// used collects the distinct users assigned across the scope.
func (c *AtMostKConstraint) used(view func(wisp.StepID) wisp.UserID) (wisp.UserSet, bool) {
	top := wisp.UserNone
	for _, s := range c.steps {
		if u := view(s); u > top {
			top = u
		}
	}
	used := wisp.NewUserSet(int(top))
	complete := true
	for _, s := range c.steps {
		u := view(s)
		if u == wisp.UserNone {
			complete = false
			continue
		}
		used.Add(u)
	}
	return used, complete
}

func (c *AtMostKConstraint) Check(a wisp.Assignment) wisp.State {
	used, complete := c.used(a.User)
	if used.Count() > c.k {
		return wisp.Violated
	}
	if complete {
		return wisp.Satisfied
	}
	return wisp.Pending
}

func (c *AtMostKConstraint) Propagate(d wisp.Domains) wisp.State {
	used, complete := c.used(d.User)
	n := used.Count()
	if n > c.k {
		return wisp.Violated
	}
	if complete || n < c.k {
		return wisp.Pending
	}
	// The distinct-user budget is spent: unassigned steps in scope
	// can only reuse already-assigned users.
	for _, s := range c.steps {
		if d.User(s) != wisp.UserNone {
			continue
		}
		if !d.Restrict(s, used.Has) {
			return wisp.Violated
		}
	}
	return wisp.Pending
}

func (c *AtMostKConstraint) Validate(steps, users int) (string, error) {
	if c.k < 1 {
		return "", fmt.Errorf("at-most-%d must permit at least one user", c.k)
	}
	if len(c.steps) < 2 {
		return "", fmt.Errorf("at-most-%d over %d step(s) needs a scope of at least two", c.k, len(c.steps))
	}
	if c.k >= len(c.steps) {
		return fmt.Sprintf("at-most-%d over %d steps is trivially satisfiable", c.k, len(c.steps)), nil
	}
	return "", nil
}

// OneTeamConstraint requires every step in its scope to be staffed
// from a single one of the listed teams.
type OneTeamConstraint struct {
	steps []wisp.StepID
	teams []wisp.UserSet
}

// OneTeam returns a constraint requiring the given steps to be covered
// by one of the given teams.
func OneTeam(steps []wisp.StepID, teams ...wisp.UserSet) *OneTeamConstraint {
	return &OneTeamConstraint{steps: steps, teams: teams}
}

func (c *OneTeamConstraint) String() string {
	return fmt.Sprintf("steps %s must be staffed from one of %d teams", stepList(c.steps), len(c.teams))
}

func (c *OneTeamConstraint) Scope() []wisp.StepID {
	return c.steps
}

func (c *OneTeamConstraint) Teams() []wisp.UserSet {
	return c.teams
}

// consistent reports which teams can still cover every assigned step
// in scope.
func (c *OneTeamConstraint) consistent(view func(wisp.StepID) wisp.UserID) ([]wisp.UserSet, bool) {
	var alive []wisp.UserSet
	complete := true
	for _, s := range c.steps {
		if view(s) == wisp.UserNone {
			complete = false
		}
	}
	for _, team := range c.teams {
		ok := true
		for _, s := range c.steps {
			if u := view(s); u != wisp.UserNone && !team.Has(u) {
				ok = false
				break
			}
		}
		if ok {
			alive = append(alive, team)
		}
	}
	return alive, complete
}

func (c *OneTeamConstraint) Check(a wisp.Assignment) wisp.State {
	alive, complete := c.consistent(a.User)
	if len(alive) == 0 {
		return wisp.Violated
	}
	if complete {
		return wisp.Satisfied
	}
	return wisp.Pending
}

func (c *OneTeamConstraint) Propagate(d wisp.Domains) wisp.State {
	alive, complete := c.consistent(d.User)
	if len(alive) == 0 {
		return wisp.Violated
	}
	if complete {
		return wisp.Pending
	}
	union := alive[0].Clone()
	for _, team := range alive[1:] {
		union.UnionWith(team)
	}
	for _, s := range c.steps {
		if d.User(s) != wisp.UserNone {
			continue
		}
		if !d.Restrict(s, union.Has) {
			return wisp.Violated
		}
	}
	return wisp.Pending
}

func (c *OneTeamConstraint) Validate(steps, users int) (string, error) {
	if len(c.steps) < 1 {
		return "", fmt.Errorf("one-team needs a non-empty scope")
	}
	if len(c.teams) < 1 {
		return "", fmt.Errorf("one-team over steps %s lists no teams", stepList(c.steps))
	}
	for i, team := range c.teams {
		if team.Empty() {
			return "", fmt.Errorf("one-team over steps %s lists an empty team (position %d)", stepList(c.steps), i+1)
		}
		bad := wisp.UserNone
		team.Each(func(u wisp.UserID) bool {
			if int(u) > users {
				bad = u
				return false
			}
			return true
		})
		if bad != wisp.UserNone {
			return "", fmt.Errorf("one-team over steps %s references undeclared user %s", stepList(c.steps), bad)
		}
	}
	return "", nil
}
