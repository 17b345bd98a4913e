package cli

import (
	"github.com/spf13/cobra"
)

func newSearchCmd(a *app) *cobra.Command {
	var nameQuery, categoryQuery string
	cmd := &cobra.Command{
		Use:     "search [name] [category]",
		Aliases: []string{"find"},
		Short:   "Search clients by name or contact person and by category",
		Long: "Search clients whose name or contact person contains the name query and whose\n" +
			"category contains the category query. Matching ignores case; empty queries\n" +
			"match everything. Rows in the sticky selection are marked with *.",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && nameQuery == "" {
				nameQuery = args[0]
			}
			if len(args) > 1 && categoryQuery == "" {
				categoryQuery = args[1]
			}
			c, err := a.coordinator()
			if err != nil {
				return err
			}
			rows, err := c.RunSearch(nameQuery, categoryQuery)
			if err != nil {
				return registryErr(err)
			}
			a.lastRows = rows
			if a.json {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			renderRows(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&nameQuery, "name", "", "substring of the client name or contact person")
	cmd.Flags().StringVar(&categoryQuery, "category", "", "substring of the category name")
	return cmd
}
