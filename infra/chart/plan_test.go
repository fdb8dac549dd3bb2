package chart

import (
	"bytes"
	"strings"
	"testing"

	"github.com/IRENA-FlexTool/FlexTool/core/model"
	"github.com/IRENA-FlexTool/FlexTool/core/solve"
)

func TestRenderPlan(t *testing.T) {
	steps := func(n int) model.ActiveTime {
		return model.ActiveTime{{Period: "p1", Steps: make([]model.ActiveStep, n)}}
	}
	plan := &solve.Plan{Model: "flex", Instances: []model.SolveInstance{
		{Name: "dispatch_roll_0", Active: steps(3), Realized: steps(2)},
		{Name: "dispatch_roll_1", Active: steps(2), Realized: steps(2)},
	}}
	bar := PlanChart(plan)
	if len(bar.MultiSeries) != 2 {
		t.Fatalf("expected 2 series got %d", len(bar.MultiSeries))
	}
	var buf bytes.Buffer
	if err := RenderPlan(plan, &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	html := buf.String()
	for _, want := range []string{"Solve plan flex", "dispatch_roll_1", "realized"} {
		if !strings.Contains(html, want) {
			t.Fatalf("chart html misses %q", want)
		}
	}
}

func TestRenderNilPlan(t *testing.T) {
	if err := RenderPlan(nil, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error")
	}
}
