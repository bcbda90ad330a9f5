package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibetool/vibetool/internal/vtconfig"
	"github.com/vibetool/vibetool/pkg/container"
)

func newStopCommand(cfg *vtconfig.Config, log *logrus.Entry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop <name_or_id>",
		Short: "Stop a running managed container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, err := connectDriver(context.Background(), log.WithField("command", "stop"))
			if err != nil {
				return err
			}
			defer driver.Close()

			sup := container.NewSupervisor(driver, log)
			return sup.Stop(context.Background(), args[0], true, false)
		},
	}
	return cmd
}

func newRmCommand(cfg *vtconfig.Config, log *logrus.Entry) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "rm <name_or_id>",
		Short: "Remove a managed container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, err := connectDriver(context.Background(), log.WithField("command", "rm"))
			if err != nil {
				return err
			}
			defer driver.Close()

			sup := container.NewSupervisor(driver, log)
			return sup.Stop(context.Background(), args[0], force, true)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "stop the container first if it is running")
	return cmd
}
