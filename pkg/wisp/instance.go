package wisp

import "fmt"

// Instance is a single WSP problem: a step count, a user count, the
// authorization relation, and a list of constraints. Instances are
// built once and treated as immutable during search.
type Instance struct {
	steps       int
	users       int
	authorized  []UserSet
	constraints []Constraint
	warnings    []string
}

// NewInstance returns an instance over steps 1..steps and users
// 1..users with an empty authorization relation.
func NewInstance(steps, users int) *Instance {
	authorized := make([]UserSet, steps)
	for i := range authorized {
		authorized[i] = NewUserSet(users)
	}
	return &Instance{
		steps:      steps,
		users:      users,
		authorized: authorized,
	}
}

func (in *Instance) Steps() int { return in.steps }
func (in *Instance) Users() int { return in.users }

// Authorize records that user u may perform each of the given steps.
// Out-of-range ids are ignored here and reported by Validate.
func (in *Instance) Authorize(u UserID, steps ...StepID) {
	for _, s := range steps {
		if s >= 1 && int(s) <= in.steps {
			in.authorized[s-1].Add(u)
		}
	}
}

// AuthorizeAll records that user u may perform every step.
func (in *Instance) AuthorizeAll(u UserID) {
	for s := 1; s <= in.steps; s++ {
		in.authorized[s-1].Add(u)
	}
}

// Authorized returns the set of users that may perform step s.
func (in *Instance) Authorized(s StepID) UserSet {
	return in.authorized[s-1]
}

func (in *Instance) AddConstraint(c Constraint) {
	in.constraints = append(in.constraints, c)
}

func (in *Instance) Constraints() []Constraint {
	return in.constraints
}

// Warnings returns notes about degenerate but acceptable constraints,
// populated by Validate.
func (in *Instance) Warnings() []string {
	return in.warnings
}

// Validate checks the instance against its declared ranges: counts
// must be positive, every step needs a non-empty authorized user set,
// and every constraint must reference only declared steps and users.
// It returns an InvalidInstanceError listing every defect found.
func (in *Instance) Validate() error {
	var defects InvalidInstanceError
	in.warnings = in.warnings[:0]

	if in.steps < 1 {
		defects = append(defects, fmt.Sprintf("step count %d is not positive", in.steps))
	}
	if in.users < 1 {
		defects = append(defects, fmt.Sprintf("user count %d is not positive", in.users))
	}
	for i := range in.authorized {
		if in.authorized[i].Empty() {
			defects = append(defects, fmt.Sprintf("%s has no authorized users", StepID(i+1)))
		}
	}
	for _, c := range in.constraints {
		for _, s := range c.Scope() {
			if s < 1 || int(s) > in.steps {
				defects = append(defects, fmt.Sprintf("constraint %q references undeclared step %s", c, s))
			}
		}
		warning, err := c.Validate(in.steps, in.users)
		if err != nil {
			defects = append(defects, err.Error())
		}
		if warning != "" {
			in.warnings = append(in.warnings, warning)
		}
	}

	if len(defects) > 0 {
		return defects
	}
	return nil
}
