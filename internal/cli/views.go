package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	listsDomain "github.com/pendergraft/listingdesk/internal/lists/domain"
	"github.com/pendergraft/listingdesk/internal/listview"
)

type viewCmd struct {
	name  string
	short string
}

var (
	viewListings = viewCmd{name: listsDomain.ViewListings, short: "Listing manager"}
	viewLeads    = viewCmd{name: listsDomain.ViewLeads, short: "Inquiry lead pool"}
)

// viewOp mutates an open session.
type viewOp func(ctx context.Context, svc listsDomain.Service, view, id string) (*listsDomain.Session, error)

func createViewCmd(v viewCmd) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   v.name,
		Short: v.short,
		Long: fmt.Sprintf(`%s list view.

The view survives between invocations: filters, page size and page are kept in
the local state database under the session name.

EXAMPLES:
  listingdesk %[2]s show
  listingdesk %[2]s filter City__c York
  listingdesk %[2]s page-size 25
  listingdesk %[2]s next
`, v.short, v.name),
	}
	cmd.PersistentFlags().StringVar(&sessionID, "session", "cli-"+v.name, "session name")

	sub := func(use, short string, args cobra.PositionalArgs, op func(args []string) (viewOp, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				fn, err := op(args)
				if err != nil {
					return err
				}
				return runView(cmd, v.name, sessionID, fn)
			},
		}
	}

	cmd.AddCommand(sub("show", "Show the current page", cobra.NoArgs, func([]string) (viewOp, error) {
		return nil, nil
	}))
	cmd.AddCommand(sub("filter <key> [value]", "Set a filter, or clear it without a value", cobra.RangeArgs(1, 2), func(args []string) (viewOp, error) {
		value := ""
		if len(args) == 2 {
			value = args[1]
		}
		return func(ctx context.Context, svc listsDomain.Service, view, id string) (*listsDomain.Session, error) {
			return svc.SetFilter(ctx, view, id, args[0], value)
		}, nil
	}))
	cmd.AddCommand(sub("unfilter <key>", "Clear one filter", cobra.ExactArgs(1), func(args []string) (viewOp, error) {
		return func(ctx context.Context, svc listsDomain.Service, view, id string) (*listsDomain.Session, error) {
			return svc.SetFilter(ctx, view, id, args[0], "")
		}, nil
	}))
	cmd.AddCommand(sub("reset", "Clear every filter", cobra.NoArgs, func([]string) (viewOp, error) {
		return func(ctx context.Context, svc listsDomain.Service, view, id string) (*listsDomain.Session, error) {
			return svc.ResetFilters(ctx, view, id)
		}, nil
	}))
	cmd.AddCommand(sub("page-size <n>", "Change the page size", cobra.ExactArgs(1), func(args []string) (viewOp, error) {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("page size must be a number: %q", args[0])
		}
		return func(ctx context.Context, svc listsDomain.Service, view, id string) (*listsDomain.Session, error) {
			return svc.SetPageSize(ctx, view, id, n)
		}, nil
	}))
	cmd.AddCommand(sub("next", "Go to the next page", cobra.NoArgs, func([]string) (viewOp, error) {
		return func(ctx context.Context, svc listsDomain.Service, view, id string) (*listsDomain.Session, error) {
			return svc.NextPage(ctx, view, id)
		}, nil
	}))
	cmd.AddCommand(sub("prev", "Go to the previous page", cobra.NoArgs, func([]string) (viewOp, error) {
		return func(ctx context.Context, svc listsDomain.Service, view, id string) (*listsDomain.Session, error) {
			return svc.PreviousPage(ctx, view, id)
		}, nil
	}))
	cmd.AddCommand(&cobra.Command{
		Use:   "close",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newWidgets(cmd)
			if err != nil {
				return err
			}
			svc, closeStore, err := w.openLists(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()
			if err := svc.Close(cmd.Context(), v.name, sessionID); err != nil && !errors.Is(err, listsDomain.ErrSessionNotFound) {
				return err
			}
			logOK(cmd, "closed "+sessionID)
			return nil
		},
	})

	return cmd
}

func runView(cmd *cobra.Command, view, id string, op viewOp) error {
	w, err := newWidgets(cmd)
	if err != nil {
		return err
	}
	svc, closeStore, err := w.openLists(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	var sess *listsDomain.Session
	notes, err := run(cmd, func(ctx context.Context) error {
		s, err := svc.Get(ctx, view, id)
		if errors.Is(err, listsDomain.ErrSessionNotFound) {
			s, err = svc.OpenWithID(ctx, view, id)
		}
		sess = s
		if err != nil || op == nil {
			return err
		}
		if s, err = op(ctx, svc, view, id); s != nil {
			sess = s
		}
		return err
	})

	if sess != nil {
		render(cmd, "session", sess, notes, func(out io.Writer) { printSession(out, sess) })
	} else if len(notes) > 0 {
		render(cmd, "session", nil, notes, nil)
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, listsDomain.ErrFetchFailed) && len(notes) > 0:
		return errReported
	}
	return err
}

func printSession(w io.Writer, s *listsDomain.Session) {
	if len(s.Filters) > 0 {
		fmt.Fprint(w, "Filters:")
		for _, f := range s.FilterFields {
			if v, ok := s.Filters[f.APIName]; ok {
				fmt.Fprintf(w, " %s=%q", f.Label, v)
			}
		}
		fmt.Fprintln(w)
	}

	header := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		header[i] = c.Label
	}
	rows := make([][]string, len(s.Rows))
	for i, r := range s.Rows {
		row := make([]string, len(s.Columns))
		for j, c := range s.Columns {
			key := c.FieldName
			if c.Type == listview.ColumnURL && c.LinkLabelField != "" {
				key = c.LinkLabelField
			}
			row[j] = r.String(key)
		}
		rows[i] = row
	}
	table(w, header, rows)

	p := s.Pagination
	fmt.Fprintf(w, "\nPage %d of %d (%d records, %d per page)\n", p.CurrentPage, p.TotalPages, p.TotalRecords, p.PageSize)
}
