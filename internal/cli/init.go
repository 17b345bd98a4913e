package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cartronic/clientdb/internal/config"
	"github.com/cartronic/clientdb/internal/paths"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "init",
		Short:       "Initialize clientdb storage",
		Long:        "Create the configuration directory and config.yaml, then create the database\nwith its default category.",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysErr(fmt.Errorf("resolve config dir: %w", err))
	}

	// An explicit --data-dir is recorded so later runs find the same database.
	recorded := ""
	if a.flags.dataDir != "" {
		if recorded, err = filepath.Abs(a.flags.dataDir); err != nil {
			return sysErr(err)
		}
	}
	written, err := config.WriteDefault(configDir, recorded)
	if err != nil {
		return sysErr(err)
	}

	if err := a.setup(); err != nil {
		return err
	}
	b, err := a.registry()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if a.json {
		return printJSON(out, map[string]any{
			"config_dir":     a.configDir,
			"config_written": written,
			"database":       b.Path(),
		})
	}
	if written {
		fmt.Fprintf(out, "Wrote %s\n", filepath.Join(configDir, config.FileName))
	}
	fmt.Fprintf(out, "Database ready at %s\n", b.Path())
	fmt.Fprintln(out, "clientdb initialized successfully")
	return nil
}
