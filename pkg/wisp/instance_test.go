package wisp_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wsp-framework/wisp/pkg/wisp"
	"github.com/wsp-framework/wisp/pkg/wisp/constraint"
)

func authorizeAll(inst *wisp.Instance) {
	for u := 1; u <= inst.Users(); u++ {
		inst.AuthorizeAll(wisp.UserID(u))
	}
}

func TestValidate(t *testing.T) {
	type tc struct {
		Name     string
		Build    func() *wisp.Instance
		Invalid  bool
		Warnings int
	}

	for _, tt := range []tc{
		{
			Name: "well-formed instance",
			Build: func() *wisp.Instance {
				inst := wisp.NewInstance(3, 2)
				authorizeAll(inst)
				inst.AddConstraint(constraint.SoD(1, 2))
				return inst
			},
		},
		{
			Name: "non-positive counts",
			Build: func() *wisp.Instance {
				return wisp.NewInstance(0, 0)
			},
			Invalid: true,
		},
		{
			Name: "step without authorized users",
			Build: func() *wisp.Instance {
				inst := wisp.NewInstance(2, 2)
				inst.Authorize(1, 1)
				inst.Authorize(2, 1)
				return inst
			},
			Invalid: true,
		},
		{
			Name: "constraint referencing undeclared step",
			Build: func() *wisp.Instance {
				inst := wisp.NewInstance(2, 2)
				authorizeAll(inst)
				inst.AddConstraint(constraint.SoD(1, 5))
				return inst
			},
			Invalid: true,
		},
		{
			Name: "at-most-k with k below one",
			Build: func() *wisp.Instance {
				inst := wisp.NewInstance(3, 3)
				authorizeAll(inst)
				inst.AddConstraint(constraint.AtMostK(0, 1, 2, 3))
				return inst
			},
			Invalid: true,
		},
		{
			Name: "degenerate at-most-k is accepted but flagged",
			Build: func() *wisp.Instance {
				inst := wisp.NewInstance(3, 3)
				authorizeAll(inst)
				inst.AddConstraint(constraint.AtMostK(3, 1, 2, 3))
				return inst
			},
			Warnings: 1,
		},
		{
			Name: "one-team referencing undeclared user",
			Build: func() *wisp.Instance {
				inst := wisp.NewInstance(2, 2)
				authorizeAll(inst)
				inst.AddConstraint(constraint.OneTeam([]wisp.StepID{1, 2}, wisp.UserSetOf(5, 1, 5)))
				return inst
			},
			Invalid: true,
		},
		{
			Name: "one-team without teams",
			Build: func() *wisp.Instance {
				inst := wisp.NewInstance(2, 2)
				authorizeAll(inst)
				inst.AddConstraint(constraint.OneTeam([]wisp.StepID{1, 2}))
				return inst
			},
			Invalid: true,
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			inst := tt.Build()
			err := inst.Validate()
			if tt.Invalid {
				assert.Error(t, err)
				var invalid wisp.InvalidInstanceError
				assert.ErrorAs(t, err, &invalid)
				assert.NotEmpty(t, invalid)
			} else {
				assert.NoError(t, err)
				assert.Len(t, inst.Warnings(), tt.Warnings)
			}
		})
	}
}

func TestInvalidInstanceErrorMessage(t *testing.T) {
	assert.Equal(t, "invalid instance", wisp.InvalidInstanceError{}.Error())
	err := wisp.InvalidInstanceError{"s1 has no authorized users", "user count 0 is not positive"}
	assert.Equal(t, "invalid instance: s1 has no authorized users; user count 0 is not positive", err.Error())
}

func TestAuthorizedSets(t *testing.T) {
	inst := wisp.NewInstance(2, 3)
	inst.Authorize(1, 1, 2)
	inst.Authorize(2, 2)
	inst.AuthorizeAll(3)

	assert.Equal(t, []wisp.UserID{1, 3}, inst.Authorized(1).Values())
	assert.Equal(t, []wisp.UserID{1, 2, 3}, inst.Authorized(2).Values())
}

func TestAssignment(t *testing.T) {
	a := wisp.NewAssignment(3)
	assert.False(t, a.Complete())
	assert.False(t, a.Assigned(1))
	assert.Equal(t, wisp.UserNone, a.User(2))

	a[0], a[1], a[2] = 2, 1, 2
	assert.True(t, a.Complete())
	assert.Equal(t, wisp.UserID(2), a.User(3))
	assert.Equal(t, "s1: u2, s2: u1, s3: u2", fmt.Sprintf("%s", a))

	b := a.Clone()
	assert.True(t, a.Equal(b))
	b[1] = 3
	assert.False(t, a.Equal(b))
	assert.Equal(t, wisp.UserID(1), a.User(2))
}
