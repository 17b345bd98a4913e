package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cartronic/clientdb/internal/clipboard"
)

func newCopyCategoryCmd(a *app) *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "copy-category <name>",
		Short: "Copy the emails of every client in a category to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.coordinator()
			if err != nil {
				return err
			}
			text, err := c.CategoryEmailsText(args[0])
			if err != nil {
				return registryErr(err)
			}
			if printOnly {
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}
			if err := a.copyText(text); err != nil {
				if errors.Is(err, clipboard.ErrEmpty) {
					return fmt.Errorf("category %q has no clients: %w", args[0], err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Copied emails of category %q to the clipboard\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the emails instead of copying them")
	return cmd
}

// copyText writes text to the clipboard. An empty text stays a user error;
// a clipboard that cannot be reached is a system error.
func (a *app) copyText(text string) error {
	err := a.clip.WriteText(text)
	switch {
	case err == nil:
		a.log.Debugw("clipboard updated", "bytes", len(text))
		return nil
	case errors.Is(err, clipboard.ErrEmpty):
		return err
	default:
		return sysErr(err)
	}
}
