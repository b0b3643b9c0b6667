package solver

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wsp-framework/wisp/pkg/wisp"
	"github.com/wsp-framework/wisp/pkg/wisp/constraint"
)

// bruteForce enumerates every complete assignment of users to steps
// and returns the ones respecting authorization and every constraint.
func bruteForce(inst *wisp.Instance) []wisp.Assignment {
	var solutions []wisp.Assignment
	a := wisp.NewAssignment(inst.Steps())

	var walk func(step int)
	walk = func(step int) {
		if step > inst.Steps() {
			for _, c := range inst.Constraints() {
				if c.Check(a) != wisp.Satisfied {
					return
				}
			}
			solutions = append(solutions, a.Clone())
			return
		}
		for u := 1; u <= inst.Users(); u++ {
			if !inst.Authorized(wisp.StepID(step)).Has(wisp.UserID(u)) {
				continue
			}
			a[step-1] = wisp.UserID(u)
			walk(step + 1)
		}
		a[step-1] = wisp.UserNone
	}
	walk(1)
	return solutions
}

// enumerate drives the engine to exhaustion by repeatedly excluding
// every witness found so far.
func enumerate(t *testing.T, s *Solver, inst *wisp.Instance, limit int) []wisp.Assignment {
	t.Helper()
	var found []wisp.Assignment
	for len(found) <= limit {
		a, ok, _, err := s.FindAssignment(context.Background(), inst, found...)
		require.NoError(t, err)
		if !ok {
			return found
		}
		for _, prev := range found {
			require.False(t, prev.Equal(a), "engine repeated witness %s", a)
		}
		found = append(found, a)
	}
	t.Fatalf("more than %d solutions enumerated", limit)
	return nil
}

// randomInstance builds a small valid instance from a seeded source so
// failures are reproducible.
func randomInstance(rng *rand.Rand) *wisp.Instance {
	steps := 2 + rng.Intn(4)
	users := 2 + rng.Intn(3)
	inst := wisp.NewInstance(steps, users)

	for s := 1; s <= steps; s++ {
		for u := 1; u <= users; u++ {
			if rng.Float64() < 0.6 {
				inst.Authorize(wisp.UserID(u), wisp.StepID(s))
			}
		}
		if inst.Authorized(wisp.StepID(s)).Empty() {
			inst.Authorize(wisp.UserID(1+rng.Intn(users)), wisp.StepID(s))
		}
	}

	scope := func() []wisp.StepID {
		n := 2 + rng.Intn(steps-1)
		perm := rng.Perm(steps)
		out := make([]wisp.StepID, n)
		for i := 0; i < n; i++ {
			out[i] = wisp.StepID(perm[i] + 1)
		}
		return out
	}

	for i := rng.Intn(3); i > 0; i-- {
		switch rng.Intn(4) {
		case 0:
			inst.AddConstraint(constraint.SoD(scope()...))
		case 1:
			inst.AddConstraint(constraint.BoD(scope()...))
		case 2:
			sc := scope()
			inst.AddConstraint(constraint.AtMostK(1+rng.Intn(len(sc)), sc...))
		case 3:
			teams := make([]wisp.UserSet, 1+rng.Intn(2))
			for j := range teams {
				teams[j] = wisp.NewUserSet(users)
				for u := 1; u <= users; u++ {
					if rng.Float64() < 0.5 {
						teams[j].Add(wisp.UserID(u))
					}
				}
				if teams[j].Empty() {
					teams[j].Add(wisp.UserID(1 + rng.Intn(users)))
				}
			}
			inst.AddConstraint(constraint.OneTeam(scope(), teams...))
		}
	}
	return inst
}

// TestAgainstBruteForce cross-checks the engine's verdicts against
// exhaustive enumeration: same satisfiability, and — via repeated
// exclusion — exactly the same solution set, which would catch any
// false pruning by propagation.
func TestAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	s := mustSolver(t)

	for i := 0; i < 200; i++ {
		inst := randomInstance(rng)
		if err := inst.Validate(); err != nil {
			continue
		}
		t.Run(fmt.Sprintf("instance-%d", i), func(t *testing.T) {
			expected := bruteForce(inst)

			got := enumerate(t, s, inst, len(expected)+1)
			require.Equal(t, len(expected), len(got),
				"engine found %d solutions, brute force found %d", len(got), len(expected))

			for _, a := range got {
				checkSound(t, inst, a)
				matched := false
				for _, b := range expected {
					if a.Equal(b) {
						matched = true
						break
					}
				}
				assert.True(t, matched, "engine witness %s not in brute-force set", a)
			}
		})
	}
}

func TestStateTrailRoundTrip(t *testing.T) {
	inst := wisp.NewInstance(2, 3)
	for u := 1; u <= 3; u++ {
		inst.AuthorizeAll(wisp.UserID(u))
	}
	st := newState(inst)

	mark := st.mark()
	assert.True(t, st.Remove(1, 2))
	assert.True(t, st.Restrict(2, func(u wisp.UserID) bool { return u == 3 }))
	assert.Equal(t, 2, st.Count(1))
	assert.Equal(t, 1, st.Count(2))

	require.NoError(t, st.undoTo(mark))
	assert.Equal(t, 3, st.Count(1))
	assert.Equal(t, 3, st.Count(2))

	// Removing an absent candidate is not logged.
	assert.True(t, st.Remove(1, 2))
	assert.True(t, st.Remove(1, 2))
	assert.Len(t, st.trail, 1)

	assert.Error(t, st.undoTo(5))
}

func TestRemoveReportsEmptiedDomain(t *testing.T) {
	inst := wisp.NewInstance(1, 2)
	inst.Authorize(1, 1)
	st := newState(inst)

	assert.False(t, st.Remove(1, 1))
	assert.Equal(t, 0, st.Count(1))
}
