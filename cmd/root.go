package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IRENA-FlexTool/FlexTool/config"
	"github.com/IRENA-FlexTool/FlexTool/core/monitoring"
	"github.com/IRENA-FlexTool/FlexTool/infra/logger"
	sentrymon "github.com/IRENA-FlexTool/FlexTool/infra/monitoring"
)

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:               "flextool",
	Short:             "FlexTool solve runner",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Configure(c.Logging); err != nil {
		return err
	}
	mon, err := sentrymon.NewSentryMonitor(c.Sentry)
	if err != nil {
		logger.New("main").Warnf("sentry disabled: %v", err)
	} else {
		monitoring.Init(mon)
	}
	cfg = c
	return nil
}
