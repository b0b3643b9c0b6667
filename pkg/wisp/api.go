package wisp

import (
	"fmt"
	"strings"
)

// StepID identifies a workflow step. Steps are numbered 1..n for an
// instance with n steps.
type StepID int

func (s StepID) String() string {
	return fmt.Sprintf("s%d", int(s))
}

// UserID identifies a user. Users are numbered 1..k for an instance
// with k users. UserNone marks an unassigned step.
type UserID int

const UserNone UserID = 0

func (u UserID) String() string {
	return fmt.Sprintf("u%d", int(u))
}

// State is the verdict of checking a constraint against a partial
// assignment. Pending means the constraint's scope is not fully
// assigned and no violation is detectable yet; Violated means the
// constraint cannot be satisfied by any completion of the current
// partial assignment.
type State int8

const (
	Pending State = iota
	Satisfied
	Violated
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Satisfied:
		return "satisfied"
	case Violated:
		return "violated"
	}
	return fmt.Sprintf("state(%d)", int8(s))
}

// Domains is the view of per-step candidate users that the search
// engine exposes to constraint propagation. Remove and Restrict prune
// candidates from unassigned steps only; every removal is recorded on
// the engine's trail so it can be undone on backtrack. Both return
// false when pruning empties a step's domain, in which case the
// constraint must report Violated.
type Domains interface {
	// User returns the user assigned to step s, or UserNone.
	User(s StepID) UserID
	// Has reports whether u is still a candidate for step s.
	Has(s StepID, u UserID) bool
	// Count returns the number of candidates remaining for step s.
	Count(s StepID) int
	// Remove prunes candidate u from step s.
	Remove(s StepID, u UserID) bool
	// Restrict prunes every candidate of step s for which keep
	// returns false.
	Restrict(s StepID, keep func(UserID) bool) bool
}

// Constraint implementations limit which assignments of users to steps
// can appear in a solution. The set of kinds is closed: each kind
// provides an incremental check and a propagation rule, and the
// backends recognize them by concrete type.
type Constraint interface {
	String() string
	// Scope returns the steps the constraint ranges over.
	Scope() []StepID
	// Check classifies the constraint against a partial assignment.
	Check(a Assignment) State
	// Propagate prunes candidate users that would guarantee a future
	// violation. It returns Violated if pruning emptied a domain and
	// Pending otherwise.
	Propagate(d Domains) State
	// Validate reports whether the constraint is well formed for an
	// instance with the given step and user counts. A non-empty
	// warning marks a degenerate but acceptable constraint.
	Validate(steps, users int) (warning string, err error)
}

// InvalidInstanceError is an error composed of every defect found in a
// problem instance. Search never starts on an invalid instance.
type InvalidInstanceError []string

func (e InvalidInstanceError) Error() string {
	const msg = "invalid instance"
	if len(e) == 0 {
		return msg
	}
	return fmt.Sprintf("%s: %s", msg, strings.Join(e, "; "))
}

// InternalError reports a broken engine invariant, such as a trail
// underflow on backtrack. It indicates a programming defect and aborts
// the solve call that observed it.
type InternalError string

func (e InternalError) Error() string {
	return fmt.Sprintf("internal solver error: %s", string(e))
}
