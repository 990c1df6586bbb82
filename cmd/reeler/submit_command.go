package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reeler/internal/api"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var rate float64
	var follow bool

	cmd := &cobra.Command{
		Use:   "submit URL",
		Short: "Start a new capture session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.client()
			sess, err := client.CreateSession(cmd.Context(), api.SessionRequest{
				SourceURL:    args[0],
				PlaybackRate: rate,
			})
			if err != nil {
				return fmt.Errorf("submit session: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s accepted\n", sess.ID)
			fmt.Fprintf(out, "  source: %s\n", sess.SourceURL)
			fmt.Fprintf(out, "  rate:   %.2fx (%s)\n", sess.PlaybackRate, sess.CaptureStrategy)

			if !follow {
				return nil
			}
			return watchSession(cmd, client, sess.ID)
		},
	}

	cmd.Flags().Float64Var(&rate, "rate", 0, "Playback rate (clamped to the configured range)")
	cmd.Flags().BoolVarP(&follow, "watch", "w", false, "Stream progress until the session finishes")
	return cmd
}
