package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ctx.client().Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("daemon status: %w (is reelerd running?)", err)
			}

			out := cmd.OutOrStdout()
			colorize := colorEnabled(out)

			daemonDetail := "not running"
			if status.Running {
				daemonDetail = fmt.Sprintf("pid %d, %d active session(s)", status.PID, status.ActiveSessions)
			}
			writeCheckLine(out, "daemon", status.Running, daemonDetail, colorize)
			writeField(out, "database", status.DatabasePath)
			writeField(out, "lock", status.LockFilePath)

			for _, check := range status.Preflight {
				writeCheckLine(out, check.Name, check.Passed, check.Detail, colorize)
			}
			return nil
		},
	}
}
