package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/IRENA-FlexTool/FlexTool/app"
	"github.com/IRENA-FlexTool/FlexTool/core/solve"
)

var chartPath string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the solve instances without running a solver",
	RunE:  printPlan,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the inputs and the solve configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := app.New(cfg)
		if err != nil {
			return err
		}
		p := svc.Plan()
		fmt.Fprintf(cmd.OutOrStdout(), "model %s is valid: %d solves, %d instances\n", p.Model, len(p.Order), len(p.Instances))
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&chartPath, "chart", "", "write an HTML chart of the plan to this file")
	rootCmd.AddCommand(planCmd, validateCmd)
}

func printPlan(cmd *cobra.Command, _ []string) error {
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	writePlan(cmd, svc.Plan())
	if chartPath == "" {
		return nil
	}
	f, err := os.Create(chartPath)
	if err != nil {
		return err
	}
	if err := svc.RenderChart(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writePlan(cmd *cobra.Command, p *solve.Plan) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tINSTANCE\tPARENT\tACTIVE\tREALIZED")
	for i, inst := range p.Instances {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", i+1, inst.Name, inst.Parent, inst.Active.Len(), inst.Realized.Len())
	}
	_ = tw.Flush()
}
