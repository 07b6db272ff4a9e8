package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mailtemplates/pkg/store"
)

func newImportTemplatesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import-templates FILE",
		Short: "Create or update templates from a YAML fixtures file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, root, func(ctx context.Context, d *deps) error {
				n, err := store.LoadFixturesFile(ctx, d.store, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d templates.\n", n)
				return nil
			})
		},
	}
}

func newListTemplatesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list-templates",
		Short: "List stored templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd, root, func(ctx context.Context, d *deps) error {
				list, err := d.store.ListTemplates(ctx)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tRELATED\tTYPE\tENABLED\tEDITED")
				for _, t := range list {
					related := t.Related.String()
					if related == "" {
						related = "-"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
						t.Name, related, t.ContentType, t.Enabled, t.EditedAt.Format("2006-01-02 15:04"))
				}
				return w.Flush()
			})
		},
	}
}
