package solver

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wsp-framework/wisp/pkg/wisp"
	"github.com/wsp-framework/wisp/pkg/wisp/constraint"
)

func authorizeAll(inst *wisp.Instance) *wisp.Instance {
	for u := 1; u <= inst.Users(); u++ {
		inst.AuthorizeAll(wisp.UserID(u))
	}
	return inst
}

func mustSolver(t *testing.T, options ...Option) *Solver {
	t.Helper()
	s, err := New(options...)
	require.NoError(t, err)
	return s
}

// checkSound asserts the soundness property: the witness stays within
// every step's authorized set and satisfies every constraint.
func checkSound(t *testing.T, inst *wisp.Instance, a wisp.Assignment) {
	t.Helper()
	require.True(t, a.Complete())
	for s := 1; s <= inst.Steps(); s++ {
		assert.True(t, inst.Authorized(wisp.StepID(s)).Has(a.User(wisp.StepID(s))),
			"%s assigned unauthorized user %s", wisp.StepID(s), a.User(wisp.StepID(s)))
	}
	for _, c := range inst.Constraints() {
		assert.Equal(t, wisp.Satisfied, c.Check(a), "constraint %q not satisfied", c)
	}
}

func TestTwoStepsSoDHasTwoSolutions(t *testing.T) {
	inst := authorizeAll(wisp.NewInstance(2, 2))
	inst.AddConstraint(constraint.SoD(1, 2))
	require.NoError(t, inst.Validate())
	s := mustSolver(t)

	first, found, _, err := s.FindAssignment(context.Background(), inst)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, wisp.Assignment{1, 2}, first)
	checkSound(t, inst, first)

	second, found, _, err := s.FindAssignment(context.Background(), inst, first)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, wisp.Assignment{2, 1}, second)
	assert.False(t, first.Equal(second))

	_, found, _, err = s.FindAssignment(context.Background(), inst, first, second)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSoDWithSingleUserIsUnsatisfiable(t *testing.T) {
	inst := authorizeAll(wisp.NewInstance(2, 1))
	inst.AddConstraint(constraint.SoD(1, 2))
	require.NoError(t, inst.Validate())

	_, found, stats, err := mustSolver(t).FindAssignment(context.Background(), inst)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NotZero(t, stats.Nodes)
}

func TestBoDAndSoDInteraction(t *testing.T) {
	// Valid assignments are exactly those with s1 = s2 and s2 != s3.
	inst := authorizeAll(wisp.NewInstance(3, 3))
	inst.AddConstraint(constraint.BoD(1, 2))
	inst.AddConstraint(constraint.SoD(2, 3))
	require.NoError(t, inst.Validate())
	s := mustSolver(t)

	first, found, _, err := s.FindAssignment(context.Background(), inst)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, wisp.Assignment{1, 1, 2}, first)
	checkSound(t, inst, first)

	second, found, _, err := s.FindAssignment(context.Background(), inst, first)
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, first.Equal(second))
	checkSound(t, inst, second)
}

func TestAtMostOneWithDisjointAuthorizations(t *testing.T) {
	inst := wisp.NewInstance(3, 3)
	inst.Authorize(1, 1)
	inst.Authorize(2, 2)
	inst.Authorize(3, 3)
	inst.AddConstraint(constraint.AtMostK(1, 1, 2, 3))
	require.NoError(t, inst.Validate())

	_, found, _, err := mustSolver(t).FindAssignment(context.Background(), inst)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestOneTeamRestrictsToASingleTeam(t *testing.T) {
	inst := authorizeAll(wisp.NewInstance(3, 4))
	inst.AddConstraint(constraint.OneTeam(
		[]wisp.StepID{1, 2, 3},
		wisp.UserSetOf(4, 1, 2),
		wisp.UserSetOf(4, 3, 4),
	))
	inst.AddConstraint(constraint.SoD(1, 2))
	require.NoError(t, inst.Validate())
	s := mustSolver(t)

	first, found, _, err := s.FindAssignment(context.Background(), inst)
	require.NoError(t, err)
	require.True(t, found)
	checkSound(t, inst, first)
}

func TestDeterministicSearch(t *testing.T) {
	inst := authorizeAll(wisp.NewInstance(4, 4))
	inst.AddConstraint(constraint.SoD(1, 2, 3))
	inst.AddConstraint(constraint.AtMostK(2, 2, 3, 4))
	require.NoError(t, inst.Validate())
	s := mustSolver(t)

	first, found, stats, err := s.FindAssignment(context.Background(), inst)
	require.NoError(t, err)
	require.True(t, found)

	again, foundAgain, statsAgain, err := s.FindAssignment(context.Background(), inst)
	require.NoError(t, err)
	require.True(t, foundAgain)
	assert.Equal(t, first, again)
	assert.Equal(t, stats.Nodes, statsAgain.Nodes)
	assert.Equal(t, stats.Backtracks, statsAgain.Backtracks)
}

func TestNodeLimit(t *testing.T) {
	// Mutual separation over more steps than users: exhaustive proof
	// of unsatisfiability needs more than two nodes.
	inst := authorizeAll(wisp.NewInstance(6, 5))
	inst.AddConstraint(constraint.SoD(1, 2, 3, 4, 5, 6))
	require.NoError(t, inst.Validate())

	_, _, stats, err := mustSolver(t, WithNodeLimit(2)).FindAssignment(context.Background(), inst)
	assert.ErrorIs(t, err, wisp.ErrTimedOut)
	assert.LessOrEqual(t, stats.Nodes, int64(2))

	// Unbounded, the same instance is proved unsatisfiable.
	_, found, _, err := mustSolver(t).FindAssignment(context.Background(), inst)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestContextCancellation(t *testing.T) {
	inst := authorizeAll(wisp.NewInstance(3, 3))
	require.NoError(t, inst.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, _, err := mustSolver(t).FindAssignment(ctx, inst)
	assert.ErrorIs(t, err, wisp.ErrTimedOut)
}

func TestTracerSeesConflicts(t *testing.T) {
	inst := authorizeAll(wisp.NewInstance(2, 1))
	inst.AddConstraint(constraint.SoD(1, 2))
	require.NoError(t, inst.Validate())

	var buf bytes.Buffer
	_, found, _, err := mustSolver(t, WithTracer(wisp.LoggingTracer{Writer: &buf})).
		FindAssignment(context.Background(), inst)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Contains(t, buf.String(), "Conflict:")
	assert.Contains(t, buf.String(), "pairwise-distinct")
}

func TestMRVPrefersTightestDomain(t *testing.T) {
	// s3 has the only singleton domain, so it is assigned first and
	// binding-of-duty pins s1 before the search ever branches.
	inst := wisp.NewInstance(3, 3)
	inst.Authorize(1, 1, 2)
	inst.Authorize(2, 1, 2)
	inst.AuthorizeAll(3)
	inst.AddConstraint(constraint.BoD(1, 3))
	require.NoError(t, inst.Validate())

	first, found, stats, err := mustSolver(t).FindAssignment(context.Background(), inst)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, wisp.Assignment{3, 1, 3}, first)
	assert.Zero(t, stats.Backtracks)
}
