package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	contactsDomain "github.com/pendergraft/listingdesk/internal/contacts/domain"
)

func createContactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Duplicate-checked contact creation",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "fields",
		Short: "Show the new-contact field set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newWidgets(cmd)
			if err != nil {
				return err
			}
			var fields []string
			notes, _ := run(cmd, func(ctx context.Context) error {
				fields = w.contacts().Fields(ctx)
				return nil
			})
			render(cmd, "fields", fields, notes, func(out io.Writer) {
				for _, f := range fields {
					fmt.Fprintln(out, f)
				}
			})
			return nil
		},
	})
	cmd.AddCommand(createContactCreateCmd())

	return cmd
}

func createContactCreateCmd() *cobra.Command {
	var pairs []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a contact unless it duplicates an existing one",
		Long: `Create a contact.

Existing contacts with the same email, phone or mobile number are listed instead
and nothing is created.

EXAMPLES:
  listingdesk contacts create --field LastName=Smith --field Email=jo@example.com
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFields(pairs)
			if err != nil {
				logUsage(cmd, "listingdesk contacts create --field <Name>=<value>...")
				return err
			}
			return runContactCreate(cmd, fields)
		},
	}
	cmd.Flags().StringArrayVarP(&pairs, "field", "f", nil, "field as Name=value (repeatable)")

	return cmd
}

// parseFields turns Name=value pairs into a field map.
func parseFields(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("at least one --field is required")
	}
	fields := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid field %q: expected Name=value", p)
		}
		fields[k] = v
	}
	return fields, nil
}

func runContactCreate(cmd *cobra.Command, fields map[string]any) error {
	w, err := newWidgets(cmd)
	if err != nil {
		return err
	}
	var res *contactsDomain.Result
	notes, err := run(cmd, func(ctx context.Context) error {
		res, err = w.contacts().Create(ctx, fields)
		return err
	})
	if err != nil {
		return failed(cmd, notes, err)
	}

	render(cmd, "result", res, notes, func(out io.Writer) {
		if res.Navigation != nil {
			logOK(cmd, "created contact "+res.Navigation.RecordID)
			return
		}
		fmt.Fprintln(out, "Matching contacts already exist:")
		header := make([]string, len(res.Columns))
		for i, c := range res.Columns {
			header[i] = c.Label
		}
		rows := make([][]string, len(res.Duplicates))
		for i, d := range res.Duplicates {
			row := make([]string, len(res.Columns))
			for j, c := range res.Columns {
				row[j] = d.String(c.FieldName)
			}
			rows[i] = row
		}
		table(out, header, rows)
	})
	if res.Navigation == nil {
		return errReported
	}
	return nil
}
