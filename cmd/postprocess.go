package cmd

import (
	"github.com/spf13/cobra"

	"github.com/IRENA-FlexTool/FlexTool/app"
)

var postprocessCmd = &cobra.Command{
	Use:   "postprocess",
	Short: "Aggregate per-step result tables into per-period tables",
	RunE: func(*cobra.Command, []string) error {
		return app.Postprocess(cfg)
	},
}

func init() {
	rootCmd.AddCommand(postprocessCmd)
}
