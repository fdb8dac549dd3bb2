package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IRENA-FlexTool/FlexTool/app"
	"github.com/IRENA-FlexTool/FlexTool/core/monitoring"
	"github.com/IRENA-FlexTool/FlexTool/infra/logger"
)

var runCmd = &cobra.Command{
	Use:   "run [-- solver args]",
	Short: "Execute every solve of the model",
	Long: "Execute every solve instance of the model in order. Arguments after -- are\n" +
		"appended to every glpsol and cplex call.",
	RunE: runSolves,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runSolves(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Solver.ExtraArgs = append(cfg.Solver.ExtraArgs, args...)
	svc, err := app.New(cfg)
	if err != nil {
		monitoring.CaptureException(err, monitoring.Tags{"module": "plan"})
		return err
	}
	res, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	logger.New("main").Infof("run %s: %d instances solved in %s", res.RunID, res.Executed, res.Duration)
	return nil
}
