// Package cli implements the clientdb command-line interface and its
// interactive shell.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cartronic/clientdb/internal/clipboard"
	"github.com/cartronic/clientdb/internal/config"
	"github.com/cartronic/clientdb/internal/logger"
	"github.com/cartronic/clientdb/internal/mail"
	"github.com/cartronic/clientdb/internal/paths"
	"github.com/cartronic/clientdb/internal/selection"
	"github.com/cartronic/clientdb/internal/sqlite"
	"github.com/cartronic/clientdb/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// skipSetup marks commands that must run before (or without) config loading.
const skipSetup = "clientdb/skip-setup"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string
}

// sender delivers one message; *mail.Dispatcher satisfies it.
type sender interface {
	Send(msg mail.Message) error
}

// app is the state shared by every command of one process: resolved
// configuration, the attached backend and the sticky selection.
type app struct {
	flags rootFlags
	json  bool

	ready     bool
	configDir string
	dataDir   string
	cfg       config.Config
	log       *zap.SugaredLogger

	clip      clipboard.Writer
	newSender func(cfg mail.SMTPConfig) sender

	backend  *sqlite.Backend
	session  *selection.Coordinator
	lastRows []selection.Row
}

func newApp() *app {
	return &app{
		log:  logger.Nop(),
		clip: clipboard.NewSystem(),
		newSender: func(cfg mail.SMTPConfig) sender {
			return mail.NewDispatcher(cfg)
		},
	}
}

// NewRootCmd creates the top-level "clientdb" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "clientdb",
		Short: "A local client registry with categories and email selection",
		Long: "clientdb keeps business clients and their categories in a local SQLite\n" +
			"database, searches them, and copies or mails their addresses.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.json = a.flags.jsonMode
			if cmd.Annotations[skipSetup] != "" {
				return nil
			}
			return a.setup()
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/clientdb)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/clientdb)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	a.addRegistryCommands(root)
	root.AddCommand(newShellCmd(a))

	return root
}

// addRegistryCommands registers the commands shared by the command line and
// the interactive shell.
func (a *app) addRegistryCommands(root *cobra.Command) {
	root.AddCommand(newCategoryCmd(a))
	root.AddCommand(newClientCmd(a))
	root.AddCommand(newSearchCmd(a))
	root.AddCommand(newCopyCategoryCmd(a))
	root.AddCommand(newMailCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newImportCmd(a))
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	a := newApp()
	os.Exit(a.run(newRootCmd(a), os.Args[1:], os.Stderr))
}

// run executes root with args, reports any error on errOut and returns the
// process exit code. The backend is always detached before returning.
func (a *app) run(root *cobra.Command, args []string, errOut io.Writer) int {
	root.SetArgs(args)
	err := root.Execute()
	if cerr := a.close(); cerr != nil && err == nil {
		err = sysErr(cerr)
	}
	defer logger.Sync(a.log)
	if err == nil {
		return exitSuccess
	}
	code := exitCode(err)
	a.log.Debugw("command failed", "error", err, "exit_code", code)
	fmt.Fprintf(errOut, "Error: %s\n", err)
	return code
}

// setup resolves directories, loads config.yaml and builds the logger. It
// runs once per process.
func (a *app) setup() error {
	if a.ready {
		return nil
	}
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysErr(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		return sysErr(err)
	}
	if a.flags.logLevel != "" {
		cfg.Log.Level = a.flags.logLevel
	}
	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return sysErr(err)
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return sysErr(fmt.Errorf("resolve data dir: %w", err))
	}

	a.configDir, a.dataDir, a.cfg, a.log = configDir, dataDir, cfg, log
	a.ready = true
	a.log.Debugw("configuration loaded", "config_dir", configDir, "data_dir", dataDir)
	return nil
}

// registry attaches the SQLite backend on first use.
func (a *app) registry() (*sqlite.Backend, error) {
	if a.backend != nil {
		return a.backend, nil
	}
	b := sqlite.NewBackend(sqlite.WithLogger(a.log))
	if err := b.Attach(a.cfg.Registry(a.dataDir)); err != nil {
		return nil, sysErr(fmt.Errorf("attach registry: %w", err))
	}
	a.backend = b
	return b, nil
}

// coordinator returns the process-wide selection coordinator.
func (a *app) coordinator() (*selection.Coordinator, error) {
	if a.session != nil {
		return a.session, nil
	}
	b, err := a.registry()
	if err != nil {
		return nil, err
	}
	a.session = selection.NewCoordinator(b)
	return a.session, nil
}

// close detaches the backend if it was attached.
func (a *app) close() error {
	if a.backend == nil {
		return nil
	}
	err := a.backend.Detach()
	a.backend, a.session, a.lastRows = nil, nil, nil
	return err
}

// systemError marks failures of the environment (storage, configuration,
// clipboard, SMTP) as opposed to bad input.
type systemError struct {
	err error
}

func (e *systemError) Error() string { return e.err.Error() }
func (e *systemError) Unwrap() error { return e.err }

func sysErr(err error) error {
	if err == nil {
		return nil
	}
	var se *systemError
	if errors.As(err, &se) {
		return err
	}
	return &systemError{err: err}
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se *systemError
	if errors.As(err, &se) || errors.Is(err, types.ErrStorage) {
		return exitSysError
	}
	return exitUserError
}

// registryErr classifies a registry failure: caller mistakes stay user
// errors, anything else is a system error.
func registryErr(err error) error {
	if err == nil || types.IsUserError(err) {
		return err
	}
	return sysErr(err)
}
