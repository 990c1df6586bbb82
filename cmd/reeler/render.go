package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"reeler/internal/api"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func colorEnabled(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

func paint(color, s string, enabled bool) string {
	if !enabled || color == "" {
		return s
	}
	return color + s + ansiReset
}

// stateColor maps a session state to its display color: green once the
// recording is ready, red on failure, yellow while work is in flight.
func stateColor(state string) string {
	switch state {
	case "done":
		return ansiGreen
	case "failed":
		return ansiRed
	case "created":
		return ""
	default:
		return ansiYellow
	}
}

// renderSessionTable lays out the `reeler list` view. Progress and byte
// counts read as numbers, so those two columns are right-aligned; the
// detail column carries the output path or the failure message.
func renderSessionTable(sessions []api.Session, colorize bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "State", "Progress", "Captured", "Source", "Detail"})
	for _, sess := range sessions {
		detail := sess.OutputPath
		if sess.ErrorMessage != "" {
			detail = sess.ErrorMessage
		}
		tw.AppendRow(table.Row{
			shortID(sess.ID),
			paint(stateColor(sess.State), formatState(sess.State), colorize),
			formatProgress(sess.Progress),
			formatBytes(sess.BytesCaptured),
			sess.SourceURL,
			detail,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}

// writeSessionDetail prints the `reeler show` view, one field per line.
func writeSessionDetail(out io.Writer, sess api.Session, colorize bool) {
	fmt.Fprintf(out, "Session %s\n", sess.ID)
	writeField(out, "state", paint(stateColor(sess.State), formatState(sess.State), colorize))
	writeField(out, "source", sess.SourceURL)
	writeField(out, "strategy", fmt.Sprintf("%s at %.2fx", sess.CaptureStrategy, sess.PlaybackRate))
	writeField(out, "progress", formatProgress(sess.Progress))
	writeField(out, "captured", formatBytes(sess.BytesCaptured))
	writeField(out, "age", formatAge(sess.CreatedAt))
	if sess.OutputPath != "" {
		writeField(out, "output", sess.OutputPath)
	}
	if sess.OutputURL != "" {
		writeField(out, "url", sess.OutputURL)
	}
	if sess.ErrorMessage != "" {
		writeField(out, "error", paint(ansiRed, sess.ErrorMessage, colorize))
	}
}

func writeField(out io.Writer, label, value string) {
	fmt.Fprintf(out, "  %-10s %s\n", label+":", value)
}

// writeCheckLine prints one row of the `reeler status` view: a name, a
// pass/fail mark, and an optional detail.
func writeCheckLine(out io.Writer, name string, ok bool, detail string, colorize bool) {
	mark := paint(ansiGreen, "ok", colorize)
	if !ok {
		mark = paint(ansiRed, "FAIL", colorize)
	}
	line := fmt.Sprintf("  %-22s %s", name, mark)
	if detail != "" {
		line += "  " + detail
	}
	fmt.Fprintln(out, line)
}
