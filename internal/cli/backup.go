package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/cartronic/clientdb/pkg/types"
)

// stdioPath selects stdin or stdout instead of a file.
const stdioPath = "-"

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write every client to a JSON Lines file (- for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.registry()
			if err != nil {
				return err
			}
			if args[0] == stdioPath {
				_, err := b.ExportClients(cmd.OutOrStdout())
				return registryErr(err)
			}
			n, err := b.ExportClientsFile(args[0])
			if err != nil {
				return sysErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d client(s) to %s\n", n, args[0])
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add clients from a JSON Lines file (- for stdin)",
		Long: "Add clients from a file written by export. Missing categories are created;\n" +
			"lines that are malformed or conflict with existing clients are skipped and reported.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.registry()
			if err != nil {
				return err
			}
			var report types.ImportReport
			if args[0] == stdioPath {
				report, err = b.ImportClients(cmd.InOrStdin())
			} else {
				report, err = b.ImportClientsFile(args[0])
			}
			if errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if err != nil {
				return sysErr(err)
			}
			if a.json {
				return printJSON(cmd.OutOrStdout(), report)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d client(s), skipped %d, created %d categor%s\n",
				report.Added, report.Skipped, report.CategoriesCreated, plural(report.CategoriesCreated, "y", "ies"))
			for _, msg := range report.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", msg)
			}
			return nil
		},
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
