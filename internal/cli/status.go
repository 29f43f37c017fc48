package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	locationDomain "github.com/pendergraft/listingdesk/internal/location/domain"
	statusDomain "github.com/pendergraft/listingdesk/internal/status/domain"
)

func createStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Listing sub-status indicator",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <listingId>",
		Short: "Show the sub-status steps of a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, func(ctx context.Context, svc statusDomain.Service) (*statusDomain.Progress, error) {
				return svc.Get(ctx, args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <listingId> <label>",
		Short: "Change the sub-status of a listing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, func(ctx context.Context, svc statusDomain.Service) (*statusDomain.Progress, error) {
				return svc.Set(ctx, args[0], args[1])
			})
		},
	})

	return cmd
}

func runStatus(cmd *cobra.Command, op func(ctx context.Context, svc statusDomain.Service) (*statusDomain.Progress, error)) error {
	w, err := newWidgets(cmd)
	if err != nil {
		return err
	}
	var p *statusDomain.Progress
	notes, err := run(cmd, func(ctx context.Context) error {
		p, err = op(ctx, w.status())
		return err
	})
	if p == nil {
		return failed(cmd, notes, err)
	}
	render(cmd, "status", p, notes, func(out io.Writer) { printProgress(out, p) })
	if err != nil {
		return errReported
	}
	return nil
}

func printProgress(w io.Writer, p *statusDomain.Progress) {
	if len(p.Steps) == 0 {
		fmt.Fprintln(w, "(no sub-status values)")
		return
	}
	for _, s := range p.Steps {
		switch s.Class {
		case statusDomain.ClassCompleted:
			color.New(color.FgGreen).Fprintf(w, "  ✔ %s\n", s.Label)
		case statusDomain.ClassCurrent:
			color.New(color.FgCyan, color.Bold).Fprintf(w, "  ▶ %s\n", s.Label)
		default:
			fmt.Fprintf(w, "  · %s\n", s.Label)
		}
	}
}

func createMapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map <listingId>",
		Short: "Show the map marker of a listing's address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newWidgets(cmd)
			if err != nil {
				return err
			}
			var markers []locationDomain.Marker
			notes, err := run(cmd, func(ctx context.Context) error {
				markers, err = w.location().Markers(ctx, args[0])
				return err
			})
			if err != nil {
				return failed(cmd, notes, err)
			}
			render(cmd, "mapMarkers", markers, notes, func(out io.Writer) {
				for _, m := range markers {
					a := m.Location
					fmt.Fprintf(out, "%s\n%s %s\n%s %s\n", a.Street, a.City, a.PostalCode, a.State, a.Country)
				}
			})
			return nil
		},
	}
}
