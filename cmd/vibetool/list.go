package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibetool/vibetool/internal/vtconfig"
	"github.com/vibetool/vibetool/pkg/container"
)

func newListCommand(cfg *vtconfig.Config, log *logrus.Entry) *cobra.Command {
	var all bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List containers managed by vibetool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, err := connectDriver(context.Background(), log.WithField("command", "list"))
			if err != nil {
				return err
			}
			defer driver.Close()

			sup := container.NewSupervisor(driver, log)
			records, err := sup.List(context.Background(), all)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd, records)
			}
			printTable(cmd, records)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include non-running containers")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "machine-readable JSON output")
	return cmd
}

func printJSON(cmd *cobra.Command, records []container.Record) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func printTable(cmd *cobra.Command, records []container.Record) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"NAME", "ID", "IMAGE", "STATE", "TRANSPORT"})
	for _, r := range records {
		state := string(r.State)
		colored := state
		switch r.State {
		case container.StateRunning:
			colored = color.GreenString(state)
		case container.StateExited:
			colored = color.RedString(state)
		default:
			colored = color.YellowString(state)
		}
		table.Append([]string{r.Name, shortID(r.ID), r.Image, colored, container.Transport(r.Labels)})
	}
	table.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "%d container(s)\n", len(records))
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
