package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/cartronic/clientdb"

// Version is overridden at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "0.1.0-dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the clientdb version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "clientdb v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
