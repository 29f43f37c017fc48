package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	portalsDomain "github.com/pendergraft/listingdesk/internal/portals/domain"
	"github.com/pendergraft/listingdesk/internal/publish"
)

func createPortalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portals",
		Short: "Portal syndication of a listing",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <listingId>",
		Short: "Show the portals of a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPortalList(cmd, args[0])
		},
	})
	cmd.AddCommand(createPortalActionCmd(publish.ActionPublish))
	cmd.AddCommand(createPortalActionCmd(publish.ActionUnpublish))
	cmd.AddCommand(&cobra.Command{
		Use:   "regions <listingId>",
		Short: "Show the regional portal board of a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegionBoard(cmd, args[0])
		},
	})

	return cmd
}

func createPortalActionCmd(action publish.Action) *cobra.Command {
	verb := strings.ToLower(string(action))
	return &cobra.Command{
		Use:   verb + " <listingId> <portal>",
		Short: string(action) + " a listing on a portal",
		Long: fmt.Sprintf(`%s a listing on a portal.

Publishing checks the portal's required fields and the listing's media before
submitting. The first failed check stops the run.

EXAMPLES:
  listingdesk portals %s a0B5g00000XyZ1 "Rightmove UK"
`, action, verb),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPortalAction(cmd, args[0], args[1], action)
		},
	}
}

func runPortalList(cmd *cobra.Command, listingID string) error {
	w, err := newWidgets(cmd)
	if err != nil {
		return err
	}
	var rows []portalsDomain.Row
	notes, err := run(cmd, func(ctx context.Context) error {
		rows, err = w.portals().ListPortals(ctx, listingID)
		return err
	})
	if err != nil {
		return failed(cmd, notes, err)
	}
	render(cmd, "portals", rows, notes, func(out io.Writer) {
		data := make([][]string, len(rows))
		for i, r := range rows {
			published := "no"
			if r.IsPublishedOnPortal {
				published = "yes"
			}
			action := r.PublishStatus
			if r.ButtonDisabled {
				action = "-"
			}
			data[i] = []string{r.PortalName, r.PortalStatus, published, action}
		}
		table(out, []string{"PORTAL", "STATUS", "PUBLISHED", "ACTION"}, data)
	})
	return nil
}

func runPortalAction(cmd *cobra.Command, listingID, portal string, action publish.Action) error {
	w, err := newWidgets(cmd)
	if err != nil {
		return err
	}
	var out *publish.Outcome
	notes, err := run(cmd, func(ctx context.Context) error {
		out, err = w.portals().Execute(ctx, listingID, portal, string(action))
		return err
	})
	if err != nil {
		return failed(cmd, notes, err)
	}
	render(cmd, "outcome", out, notes, func(o io.Writer) {
		if out.State == publish.StateAborted && len(out.Missing) > 0 {
			fmt.Fprintf(o, "Missing fields: %s\n", strings.Join(out.Missing, ", "))
		}
	})
	if out.State != publish.StateDone {
		return errReported
	}
	return nil
}

func runRegionBoard(cmd *cobra.Command, listingID string) error {
	w, err := newWidgets(cmd)
	if err != nil {
		return err
	}
	var board *portalsDomain.Board
	notes, err := run(cmd, func(ctx context.Context) error {
		board, err = w.portals().OpenBoard(ctx, listingID)
		return err
	})
	if err != nil {
		return failed(cmd, notes, err)
	}
	render(cmd, "board", board, notes, func(out io.Writer) {
		data := make([][]string, len(board.Rows))
		for i, r := range board.Rows {
			data[i] = []string{r.PortalName, r.PortalStatus}
		}
		table(out, []string{"PORTAL", "STATUS"}, data)
	})
	return nil
}
