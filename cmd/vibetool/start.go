package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibetool/vibetool/internal/vtconfig"
)

const detachedSentinelEnv = "VIBETOOL_DETACHED"

func newStartCommand(cfg *vtconfig.Config, log *logrus.Entry) *cobra.Command {
	var opts runOptions
	var foreground bool

	cmd := &cobra.Command{
		Use:   "start <image> [-- passthrough args...]",
		Short: "Run an MCP server in a sandboxed container, detached",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Image = args[0]
			opts.CmdArgs = args[1:]

			if foreground || os.Getenv(detachedSentinelEnv) == "1" {
				return runMCPServer(cfg, log.WithField("command", "start"), opts)
			}
			return detachProcess(cmd, opts.Name)
		},
	}

	addRunFlags(cmd, &opts)
	cmd.Flags().BoolVar(&foreground, "foreground", false, "internal: used by the detached re-exec, do not set manually")
	_ = cmd.Flags().MarkHidden("foreground")
	return cmd
}

// detachProcess re-execs the current binary with --foreground and the
// detached sentinel set, in a new session so it survives the parent's
// exit, recording its PID for later inspection.
func detachProcess(cmd *cobra.Command, name string) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	args := append([]string{"start"}, os.Args[2:]...)
	args = append(args, "--foreground")

	proc := &os.ProcAttr{
		Env: append(os.Environ(), detachedSentinelEnv+"=1"),
		Sys: &syscall.SysProcAttr{Setsid: true},
		Files: []*os.File{nil, nil, nil},
	}

	child, err := os.StartProcess(exe, append([]string{exe}, args...), proc)
	if err != nil {
		return err
	}

	if err := writePIDFile(name, child.Pid); err != nil {
		cmd.PrintErrln("warning: could not write PID file:", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "started %s (pid %d)\n", name, child.Pid)
	return nil
}

func pidFilePath(name string) string {
	dir := os.TempDir()
	return filepath.Join(dir, "vibetool-"+name+".pid")
}

func writePIDFile(name string, pid int) error {
	return os.WriteFile(pidFilePath(name), []byte(strconv.Itoa(pid)), 0o644)
}
