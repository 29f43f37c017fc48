package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"

	"github.com/pendergraft/listingdesk/internal/notify"
)

func logJSON(cmd *cobra.Command, v any) {
	m, err := json.Marshal(v)
	if err != nil {
		logError(cmd, err)
		return
	}
	f := prettyjson.NewFormatter()
	f.DisabledColor = color.NoColor
	pj, err := f.Format(m)
	if err != nil {
		logError(cmd, err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n\n", string(pj))
}

func logUsage(cmd *cobra.Command, u string) {
	fmt.Fprint(cmd.OutOrStdout(), color.YellowString("\nusage: %s\n\n", u))
}

func logError(cmd *cobra.Command, err error) {
	boldRed := color.New(color.FgRed, color.Bold)
	boldRed.Fprint(cmd.ErrOrStderr(), "\nerror: ")
	fmt.Fprintf(cmd.ErrOrStderr(), "%s\n\n", color.RedString(err.Error()))
}

func logOK(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n\n", color.BlueString(msg))
}

// logToasts renders collected notifications, one line each.
func logToasts(cmd *cobra.Command, notes []notify.Notification) {
	for _, n := range notes {
		var c *color.Color
		mark := "•"
		switch n.Severity {
		case notify.SeveritySuccess:
			c, mark = color.New(color.FgGreen), "✔"
		case notify.SeverityError:
			c, mark = color.New(color.FgRed), "✘"
		case notify.SeverityWarning:
			c, mark = color.New(color.FgYellow), "!"
		default:
			c = color.New(color.FgCyan)
		}
		line := n.Title
		if n.Message != "" {
			line += ": " + n.Message
		}
		c.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, line)
	}
}

// render prints v as JSON together with the notifications when --json is set,
// otherwise calls text and then prints the toasts.
func render(cmd *cobra.Command, key string, v any, notes []notify.Notification, text func(w io.Writer)) {
	if jsonOutput {
		logJSON(cmd, map[string]any{key: v, "notifications": notes})
		return
	}
	if text != nil {
		text(cmd.OutOrStdout())
	}
	logToasts(cmd, notes)
}

// table writes aligned rows under a header.
func table(w io.Writer, header []string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	tw.Flush()
}
