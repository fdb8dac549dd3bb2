// Package chart renders solve plans as HTML charts.
package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/IRENA-FlexTool/FlexTool/core/solve"
)

// PlanChart draws the active and realized step counts of every instance.
func PlanChart(plan *solve.Plan) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Solve plan %s", plan.Model),
			Subtitle: fmt.Sprintf("%d instances", len(plan.Instances)),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Instance"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Steps"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	names := make([]string, len(plan.Instances))
	active := make([]opts.BarData, len(plan.Instances))
	realized := make([]opts.BarData, len(plan.Instances))
	for i, inst := range plan.Instances {
		names[i] = inst.Name
		active[i] = opts.BarData{Value: inst.Active.Len()}
		realized[i] = opts.BarData{Value: inst.Realized.Len()}
	}
	bar.SetXAxis(names).
		AddSeries("active", active).
		AddSeries("realized", realized)
	return bar
}

// RenderPlan writes the plan chart as an HTML page to w.
func RenderPlan(plan *solve.Plan, w io.Writer) error {
	if plan == nil {
		return fmt.Errorf("render plan chart: nil plan")
	}
	if err := PlanChart(plan).Render(w); err != nil {
		return fmt.Errorf("render plan chart: %w", err)
	}
	return nil
}
