package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibetool/vibetool/internal/vtconfig"
	"github.com/vibetool/vibetool/pkg/container"
	"github.com/vibetool/vibetool/pkg/output"
)

func newLogsCommand(cfg *vtconfig.Config, log *logrus.Entry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs <name_or_id>",
		Short: "Print a managed container's log output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, err := connectDriver(context.Background(), log.WithField("command", "logs"))
			if err != nil {
				return err
			}
			defer driver.Close()

			sup := container.NewSupervisor(driver, log)
			rec, logText, err := sup.Logs(context.Background(), args[0])
			if err != nil {
				return err
			}

			for _, line := range output.SplitLines(logText) {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s log\n", rec.Name, output.FormatBinaryBytes(len(logText)))
			return nil
		},
	}
	return cmd
}
