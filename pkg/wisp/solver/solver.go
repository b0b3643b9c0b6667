// Package solver exposes the single public entry point for solving
// WSP instances. It validates the instance, drives the configured
// search backend, and establishes whether the instance is
// unsatisfiable, uniquely satisfiable, or satisfiable in more than one
// way — the latter by re-running the search with the first witness
// excluded.
package solver

import (
	"context"
	"errors"
	"time"

	internalsat "github.com/wsp-framework/wisp/internal/sat"
	internalsolver "github.com/wsp-framework/wisp/internal/solver"
	"github.com/wsp-framework/wisp/pkg/wisp"
)

// Backend is a WSP decision procedure. FindAssignment returns a
// satisfying assignment differing from every excluded assignment on at
// least one step, or found=false after proving none exists. The
// reference backtracking engine is the default; internal/sat provides
// a SAT-based alternative with the same Result semantics.
type Backend interface {
	FindAssignment(ctx context.Context, inst *wisp.Instance, exclude ...wisp.Assignment) (wisp.Assignment, bool, wisp.Stats, error)
}

// Solver answers satisfiability queries for WSP instances. It is
// stateless across Solve calls and safe to share between goroutines
// solving independent instances.
type Solver struct {
	backend   Backend
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

// WithBackend substitutes a custom decision procedure for the
// reference engine.
func WithBackend(b Backend) Option {
	return func(s *Solver) error {
		s.backend = b
		return nil
	}
}

// WithSATBackend selects the gini SAT encoding backend. Node limits do
// not apply to it; only the context deadline is honored, and solely
// between search phases.
func WithSATBackend() Option {
	return func(s *Solver) error {
		s.backend = internalsat.New()
		return nil
	}
}

// WithTracer wires a tracer into the reference engine's conflict
// reporting. It has no effect on a custom backend.
func WithTracer(t wisp.Tracer) Option {
	return func(s *Solver) error {
		s.tracer = t
		return nil
	}
}

// WithNodeLimit bounds each search of the reference engine to n tried
// assignments; exceeding it yields a TimedOut verdict. Zero means
// unbounded.
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
	func(s *Solver) error {
		if s.backend == nil {
			b, err := internalsolver.New(
				internalsolver.WithTracer(s.tracer),
				internalsolver.WithNodeLimit(s.nodeLimit),
			)
			if err != nil {
				return err
			}
			s.backend = b
		}
		return nil
	},
}

// Solve validates the instance and searches for satisfying
// assignments. The returned error is a wisp.InvalidInstanceError for a
// malformed instance or a wisp.InternalError for a broken engine
// invariant; budget exhaustion is not an error but the TimedOut
// verdict. A TimedOut verdict is never a proof of unsatisfiability —
// it is also returned when a first witness was found but the
// uniqueness check ran out of budget.
func (s *Solver) Solve(ctx context.Context, inst *wisp.Instance) (wisp.Result, error) {
	start := time.Now()

	if err := inst.Validate(); err != nil {
		return wisp.Result{}, err
	}

	first, found, stats, err := s.backend.FindAssignment(ctx, inst)
	result := wisp.Result{Stats: stats}
	if err != nil {
		if errors.Is(err, wisp.ErrTimedOut) {
			result.Verdict = wisp.TimedOut
			result.Stats.Elapsed = time.Since(start)
			return result, nil
		}
		return wisp.Result{}, err
	}
	if !found {
		result.Verdict = wisp.Unsatisfiable
		result.Stats.Elapsed = time.Since(start)
		return result, nil
	}

	// Search again with the first witness excluded; any hit proves
	// the solution is not unique.
	second, foundSecond, rerunStats, err := s.backend.FindAssignment(ctx, inst, first)
	result.Stats.Nodes += rerunStats.Nodes
	result.Stats.Backtracks += rerunStats.Backtracks
	result.Stats.Elapsed = time.Since(start)
	if err != nil {
		if errors.Is(err, wisp.ErrTimedOut) {
			result.Verdict = wisp.TimedOut
			return result, nil
		}
		return wisp.Result{}, err
	}

	result.Assignment = first
	if foundSecond {
		result.Verdict = wisp.MultipleSatisfiable
		result.Alternate = second
	} else {
		result.Verdict = wisp.UniqueSatisfiable
	}
	return result, nil
}
