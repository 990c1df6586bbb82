package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reeler/internal/api"
	"reeler/internal/bus"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [SESSION_ID]",
		Short: "Stream live session events",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return watchSession(cmd, ctx.client(), id)
		},
	}
}

func watchSession(cmd *cobra.Command, client *api.Client, id string) error {
	watchCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stream, err := client.Events(watchCtx, id)
	if err != nil {
		return err
	}
	defer stream.Close()

	go func() {
		<-watchCtx.Done()
		stream.Close()
	}()

	out := cmd.OutOrStdout()
	for {
		event, err := stream.Next()
		if err != nil {
			if watchCtx.Err() != nil {
				return nil
			}
			// Normal closure follows the terminal event for a filtered watch.
			if id != "" {
				return nil
			}
			return fmt.Errorf("event stream: %w", err)
		}
		printEvent(out, event)
		if id != "" && event.Terminal() {
			return nil
		}
	}
}

func printEvent(out io.Writer, event bus.Event) {
	switch event.Type {
	case bus.EventComplete:
		fmt.Fprintf(out, "[%s] complete: %s\n", shortID(event.SessionID), event.OutputPath)
		if event.OutputURL != "" {
			fmt.Fprintf(out, "[%s] available at %s\n", shortID(event.SessionID), event.OutputURL)
		}
	case bus.EventError:
		fmt.Fprintf(out, "[%s] failed: %s\n", shortID(event.SessionID), event.Message)
	default:
		line := fmt.Sprintf("[%s] step %d/%d %s %s",
			shortID(event.SessionID), event.Step, event.TotalSteps,
			formatProgress(event.Progress), event.Message)
		if event.Duration > 0 {
			line += fmt.Sprintf(" (%.0fs/%.0fs)", event.CurrentTime, event.Duration)
		}
		fmt.Fprintln(out, line)
	}
}
