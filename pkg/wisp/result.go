package wisp

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimedOut is returned by a search backend when a caller-supplied
// budget (context deadline or node limit) was exceeded before the
// search could finish. It is never a proof of unsatisfiability.
var ErrTimedOut = errors.New("search budget exceeded")

// Verdict classifies the outcome of a solve call.
type Verdict int

const (
	// Unsatisfiable means the search space was exhausted without
	// finding a satisfying assignment.
	Unsatisfiable Verdict = iota
	// UniqueSatisfiable means exactly one satisfying assignment
	// exists.
	UniqueSatisfiable
	// MultipleSatisfiable means at least two satisfying assignments
	// exist; the first two found are reported.
	MultipleSatisfiable
	// TimedOut means the caller's budget ran out before the verdict
	// could be established.
	TimedOut
)

func (v Verdict) String() string {
	switch v {
	case Unsatisfiable:
		return "unsat"
	case UniqueSatisfiable, MultipleSatisfiable:
		return "sat"
	case TimedOut:
		return "timeout"
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

// Satisfiable reports whether a witness assignment was found.
func (v Verdict) Satisfiable() bool {
	return v == UniqueSatisfiable || v == MultipleSatisfiable
}

// Stats carries search effort counters. Nodes and Backtracks are only
// meaningful for the reference backtracking engine; a SAT backend
// leaves them at zero.
type Stats struct {
	Nodes      int64
	Backtracks int64
	Elapsed    time.Duration
}

// Result is the structured outcome of a solve call. Assignment is the
// first witness when the verdict is satisfiable; Alternate is a second,
// distinct witness when the verdict is MultipleSatisfiable.
type Result struct {
	Verdict    Verdict
	Assignment Assignment
	Alternate  Assignment
	Stats      Stats
}
