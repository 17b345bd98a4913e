package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

const shellPrompt = "clientdb> "

// errUnterminatedQuote is returned by splitLine for a line with an open quote.
var errUnterminatedQuote = errors.New("unterminated quote")

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session that keeps a sticky email selection",
		Long: "The shell keeps one database connection and one sticky selection for the\n" +
			"whole session. Search, pick rows by number, then copy or mail the selection.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShell(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

// runShell reads commands line by line until exit, quit or end of input.
// A failing command is reported and the session continues.
func (a *app) runShell(in io.Reader, out, errOut io.Writer) error {
	if _, err := a.coordinator(); err != nil {
		return err
	}
	fmt.Fprintln(out, `clientdb shell. Type "help" for commands, "exit" to leave.`)

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, shellPrompt)
		if !sc.Scan() {
			fmt.Fprintln(out)
			break
		}
		args, err := splitLine(sc.Text())
		if err != nil {
			fmt.Fprintf(errOut, "Error: %s\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			return nil
		}

		tree := a.newShellTree()
		tree.SetArgs(args)
		tree.SetIn(in)
		tree.SetOut(out)
		tree.SetErr(errOut)
		if err := tree.Execute(); err != nil {
			a.log.Debugw("shell command failed", "command", args[0], "error", err)
			fmt.Fprintf(errOut, "Error: %s\n", err)
		}
	}
	if err := sc.Err(); err != nil {
		return sysErr(fmt.Errorf("read shell input: %w", err))
	}
	return nil
}

// newShellTree builds a fresh command tree for one shell line, so flag
// values never carry over between lines.
func (a *app) newShellTree() *cobra.Command {
	var lineJSON bool
	root := &cobra.Command{
		Use:           "",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.json = a.flags.jsonMode || lineJSON
		},
	}
	root.PersistentFlags().BoolVar(&lineJSON, "json", false, "output in JSON format")
	root.CompletionOptions.DisableDefaultCmd = true

	a.addRegistryCommands(root)
	root.AddCommand(newPickCmd(a), newSelectionCmd(a), newClearCmd(a), newCopyCmd(a), newMailSelectionCmd(a))
	root.AddCommand(&cobra.Command{
		Use:   "exit",
		Short: "Leave the shell (also: quit)",
		Run:   func(cmd *cobra.Command, args []string) {},
	})
	return root
}

func newPickCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pick <row#...|all>",
		Short: "Add rows of the last search to the sticky selection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			emails, err := pickRows(a, args)
			if err != nil {
				return err
			}
			added := a.session.AddToSticky(emails...)
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d; selection has %d email(s)\n", added, a.session.Len())
			return nil
		},
	}
}

// pickRows resolves 1-based row numbers (or "all") against the last search.
func pickRows(a *app, args []string) ([]string, error) {
	if len(a.lastRows) == 0 {
		return nil, errors.New("no search results to pick from; run search first")
	}
	if len(args) == 1 && args[0] == "all" {
		emails := make([]string, len(a.lastRows))
		for i, r := range a.lastRows {
			emails[i] = r.Email
		}
		return emails, nil
	}
	emails := make([]string, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(a.lastRows) {
			return nil, fmt.Errorf("row %q is not between 1 and %d", arg, len(a.lastRows))
		}
		emails = append(emails, a.lastRows[n-1].Email)
	}
	return emails, nil
}

func newSelectionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "selection",
		Short: "Show the sticky selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			emails := a.session.Sticky()
			if a.json {
				return printJSON(cmd.OutOrStdout(), emails)
			}
			if len(emails) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Selection is empty.")
				return nil
			}
			for _, e := range emails {
				fmt.Fprintln(cmd.OutOrStdout(), e)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d email(s)\n", len(emails))
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the sticky selection",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a.session.ClearSticky()
			fmt.Fprintln(cmd.OutOrStdout(), "Selection cleared.")
		},
	}
}

func newCopyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copy",
		Short: "Copy the sticky selection to the clipboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.copyText(a.session.StickyText()); err != nil {
				return fmt.Errorf("selection: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Copied %d email(s) to the clipboard\n", a.session.Len())
			return nil
		},
	}
}

func newMailSelectionCmd(a *app) *cobra.Command {
	var f mailFlags
	cmd := &cobra.Command{
		Use:   "mail-selection",
		Short: "Send one message to every email in the sticky selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.sendMail(cmd.OutOrStdout(), f, a.session.Sticky())
		},
	}
	f.bind(cmd)
	return cmd
}

// splitLine splits a shell line into words. Single and double quotes group
// words; a backslash escapes the next character outside single quotes.
func splitLine(line string) ([]string, error) {
	var (
		words   []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped, inWord = true, true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote, inWord = r, true
		case r == ' ' || r == '\t':
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 || escaped {
		return nil, errUnterminatedQuote
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words, nil
}
