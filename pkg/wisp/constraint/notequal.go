package constraint

import (
	"fmt"

	"github.com/wsp-framework/wisp/pkg/wisp"
)

// NotEqualConstraint forbids one exact complete assignment. It is the
// blocking clause the solver adds when searching for a second distinct
// solution: at least one step must be assigned a different user than
// the forbidden witness.
type NotEqualConstraint struct {
	forbidden wisp.Assignment
	scope     []wisp.StepID
}

// NotEqual returns a constraint violated only by the exact given
// assignment.
func NotEqual(forbidden wisp.Assignment) *NotEqualConstraint {
	scope := make([]wisp.StepID, len(forbidden))
	for i := range forbidden {
		scope[i] = wisp.StepID(i + 1)
	}
	return &NotEqualConstraint{forbidden: forbidden.Clone(), scope: scope}
}

func (c *NotEqualConstraint) String() string {
	return fmt.Sprintf("assignment must differ from [%s] on at least one step", c.forbidden)
}

func (c *NotEqualConstraint) Forbidden() wisp.Assignment {
	return c.forbidden
}

func (c *NotEqualConstraint) Scope() []wisp.StepID {
	return c.scope
}

func (c *NotEqualConstraint) Check(a wisp.Assignment) wisp.State {
	pending := false
	for _, s := range c.scope {
		switch u := a.User(s); u {
		case wisp.UserNone:
			pending = true
		case c.forbidden.User(s):
		default:
			// Differs somewhere, so the whole assignment can no
			// longer equal the forbidden one.
			return wisp.Satisfied
		}
	}
	if pending {
		return wisp.Pending
	}
	return wisp.Violated
}

func (c *NotEqualConstraint) Propagate(d wisp.Domains) wisp.State {
	open := wisp.StepID(0)
	for _, s := range c.scope {
		u := d.User(s)
		if u == wisp.UserNone {
			if open != 0 {
				return wisp.Pending
			}
			open = s
			continue
		}
		if u != c.forbidden.User(s) {
			return wisp.Pending
		}
	}
	if open == 0 {
		// Fully assigned and identical to the forbidden witness.
		return wisp.Violated
	}
	// Every assigned step matches the forbidden witness; the single
	// open step must take a different user.
	if !d.Remove(open, c.forbidden.User(open)) {
		return wisp.Violated
	}
	return wisp.Pending
}

func (c *NotEqualConstraint) Validate(steps, users int) (string, error) {
	if len(c.forbidden) != steps {
		return "", fmt.Errorf("exclusion over %d steps does not cover the %d declared steps", len(c.forbidden), steps)
	}
	return "", nil
}
