package solve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IRENA-FlexTool/FlexTool/core/model"
	"github.com/IRENA-FlexTool/FlexTool/core/rolling"
)

func TestBuildPlanOrdersInstances(t *testing.T) {
	cat := model.NewCatalog()
	single(cat, "invest", "half", "p2020")
	r := single(cat, "dispatch", "full", "p2020")
	r.Mode = model.ModeRolling
	r.Rolling = model.RollingTimes{Jump: 2, Horizon: 2}
	r.RealizedPeriods = []string{"p2020"}
	cat.Models = []model.Model{{Name: "flex", Solves: []string{"invest", "dispatch"}}}

	plan, err := BuildPlan(testRegistry(t, 4), cat, nil)
	require.NoError(t, err)
	assert.Equal(t, "flex", plan.Model)
	assert.Equal(t, []string{"invest", "dispatch_roll_0", "dispatch_roll_1"}, names(plan.Instances))
	assert.True(t, plan.HasRolling(cat))
	assert.Contains(t, plan.History, "dispatch")
	assert.Equal(t, []model.PeriodYears{{Period: "p2020", Years: 1}}, plan.History["dispatch"])
}

func TestBuildPlanModelErrors(t *testing.T) {
	reg := testRegistry(t, 2)
	cat := model.NewCatalog()
	single(cat, "a", "full", "p")
	if _, err := BuildPlan(reg, cat, nil); !errors.Is(err, ErrNoModel) {
		t.Fatalf("expected no model got %v", err)
	}
	cat.Models = []model.Model{{Name: "m"}}
	if _, err := BuildPlan(reg, cat, nil); !errors.Is(err, ErrNoSolves) {
		t.Fatalf("expected no solves got %v", err)
	}
	cat.Models = []model.Model{{Name: "m", Solves: []string{"a"}}, {Name: "n", Solves: []string{"a"}}}
	if _, err := BuildPlan(reg, cat, nil); !errors.Is(err, ErrMultipleModels) {
		t.Fatalf("expected multiple models got %v", err)
	}
}

func TestBuildPlanRejectsMalformedRollingUpFront(t *testing.T) {
	cat := model.NewCatalog()
	single(cat, "ok", "full", "p")
	bad := single(cat, "bad", "full", "p")
	bad.Mode = model.ModeRolling
	cat.AddInclude("ok", "bad")
	cat.Models = []model.Model{{Name: "m", Solves: []string{"ok"}}}
	if _, err := BuildPlan(testRegistry(t, 2), cat, nil); !errors.Is(err, rolling.ErrMalformedRolling) {
		t.Fatalf("expected malformed rolling got %v", err)
	}
}

func TestBuildPlanSimpleOnly(t *testing.T) {
	cat := model.NewCatalog()
	single(cat, "a", "full", "p")
	cat.Models = []model.Model{{Name: "m", Solves: []string{"a"}}}
	plan, err := BuildPlan(testRegistry(t, 2), cat, nil)
	require.NoError(t, err)
	assert.False(t, plan.HasRolling(cat))
	require.Len(t, plan.Instances, 1)
	assert.Equal(t, "a", plan.Instances[0].Parent)
}
