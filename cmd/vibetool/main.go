// Command vibetool launches MCP servers inside sandboxed containers and
// exposes their JSON-RPC endpoint over an SSE or STDIO transport.
package main

import (
	"fmt"
	"os"

	goerrors "github.com/go-errors/errors"
	"github.com/spf13/cobra"

	"github.com/vibetool/vibetool/internal/vtconfig"
	"github.com/vibetool/vibetool/internal/vtlog"
)

func main() {
	cfg := vtconfig.Load()
	log := vtlog.New(cfg, "cli")

	root := &cobra.Command{
		Use:           "vibetool",
		Short:         "Run MCP servers in sandboxed containers behind an SSE or STDIO proxy",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCommand(cfg, log),
		newStartCommand(cfg, log),
		newListCommand(cfg, log),
		newStopCommand(cfg, log),
		newRmCommand(cfg, log),
		newLogsCommand(cfg, log),
	)

	if err := root.Execute(); err != nil {
		// Wrap with go-errors for a stack trace in debug logs, but keep
		// the user-facing line to one message.
		wrapped := goerrors.Wrap(err, 1)
		log.WithField("stack", wrapped.ErrorStack()).Debug("command failed")
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
