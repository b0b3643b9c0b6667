package wisp

import (
	"fmt"
	"strings"
)

// Assignment maps steps to users. Index i holds the user assigned to
// step i+1, or UserNone while the step is unassigned.
type Assignment []UserID

// NewAssignment returns an all-unassigned assignment over n steps.
func NewAssignment(n int) Assignment {
	return make(Assignment, n)
}

// User returns the user assigned to step s, or UserNone.
func (a Assignment) User(s StepID) UserID {
	if s < 1 || int(s) > len(a) {
		return UserNone
	}
	return a[s-1]
}

// Assigned reports whether step s has a user.
func (a Assignment) Assigned(s StepID) bool {
	return a.User(s) != UserNone
}

// Complete reports whether every step has a user.
func (a Assignment) Complete() bool {
	for _, u := range a {
		if u == UserNone {
			return false
		}
	}
	return true
}

// Equal reports whether a and b assign the same user to every step.
func (a Assignment) Equal(b Assignment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (a Assignment) Clone() Assignment {
	b := make(Assignment, len(a))
	copy(b, a)
	return b
}

// String renders the assignment as "s1: u2, s2: u1, ...".
func (a Assignment) String() string {
	parts := make([]string, len(a))
	for i, u := range a {
		parts[i] = fmt.Sprintf("%s: %s", StepID(i+1), u)
	}
	return strings.Join(parts, ", ")
}
