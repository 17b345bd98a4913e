package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cartronic/clientdb/pkg/types"
)

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories"},
		Short:   "List, add and delete categories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories in id order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.registry()
			if err != nil {
				return err
			}
			cats, err := b.ListCategories()
			if err != nil {
				return registryErr(err)
			}
			if a.json {
				return printJSON(cmd.OutOrStdout(), cats)
			}
			renderCategories(cmd.OutOrStdout(), cats)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.registry()
			if err != nil {
				return err
			}
			name, err := types.NormalizeCategoryName(args[0])
			if err != nil {
				return registryErr(err)
			}
			id, err := b.AddCategory(name)
			if err != nil {
				return registryErr(err)
			}
			if a.json {
				return printJSON(cmd.OutOrStdout(), types.Category{ID: id, Name: name})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added category %q (id %d)\n", name, id)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a category, moving its clients to the default category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.registry()
			if err != nil {
				return err
			}
			if err := b.DeleteCategory(args[0]); err != nil {
				return registryErr(err)
			}
			def, err := b.DefaultCategory()
			if err != nil {
				return registryErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %q; its clients now belong to %q\n",
				args[0], def.Name)
			return nil
		},
	})
	return cmd
}
