package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibetool/vibetool/internal/vtconfig"
)

func newRunCommand(cfg *vtconfig.Config, log *logrus.Entry) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <image> [-- passthrough args...]",
		Short: "Run an MCP server in a sandboxed container, waiting in the foreground",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Image = args[0]
			opts.CmdArgs = args[1:]
			return runMCPServer(cfg, log.WithField("command", "run"), opts)
		},
	}

	addRunFlags(cmd, &opts)
	return cmd
}

func addRunFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVar(&opts.Name, "name", "", "name for the managed container (required)")
	cmd.Flags().StringVar(&opts.Transport, "transport", "stdio", "transport: sse or stdio")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "host port (0 or absent selects one automatically)")
	cmd.Flags().StringVar(&opts.PermissionProfile, "permission-profile", "stdio", "stdio, network, or a path to a profile JSON file")
	cmd.Flags().StringArrayVarP(&opts.EnvVars, "env", "e", nil, "KEY=VALUE environment variable, repeatable")
	_ = cmd.MarkFlagRequired("name")
}
