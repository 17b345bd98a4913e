package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cartronic/clientdb/internal/mail"
)

// timeNow dates rendered dry-run messages.
var timeNow = time.Now

// mailFlags are the message fields shared by mail and mail-selection.
type mailFlags struct {
	subject string
	body    string
	dryRun  bool
}

func (f *mailFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.subject, "subject", "", "message subject")
	cmd.Flags().StringVar(&f.body, "body", "", "message body (plain text)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "print the message instead of sending it")
}

func newMailCmd(a *app) *cobra.Command {
	var (
		f        mailFlags
		category string
		to       []string
	)
	cmd := &cobra.Command{
		Use:   "mail",
		Short: "Send one message to a category and/or explicit addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recipients := append([]string(nil), to...)
			if category != "" {
				b, err := a.registry()
				if err != nil {
					return err
				}
				emails, err := b.CategoryEmails(category)
				if err != nil {
					return registryErr(err)
				}
				recipients = append(recipients, emails...)
			}
			return a.sendMail(cmd.OutOrStdout(), f, recipients)
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&category, "category", "", "send to every client in this category")
	cmd.Flags().StringSliceVar(&to, "to", nil, "additional recipient addresses (comma separated)")
	return cmd
}

// sendMail delivers one message to recipients, deduplicated in order.
func (a *app) sendMail(out io.Writer, f mailFlags, recipients []string) error {
	to := dedupe(recipients)
	if len(to) == 0 {
		return mail.ErrNoRecipients
	}
	msg := mail.Message{To: to, Subject: f.subject, Body: f.body}
	smtpCfg := a.cfg.Mail()

	if f.dryRun {
		if smtpCfg.From == "" {
			return sysErr(mail.ErrNoSender)
		}
		raw, err := mail.Render(smtpCfg.From, to, f.subject, f.body, timeNow())
		if err != nil {
			return err
		}
		_, err = out.Write(raw)
		fmt.Fprintln(out)
		return err
	}

	if err := a.newSender(smtpCfg).Send(msg); err != nil {
		a.log.Warnw("mail not sent", "recipients", len(to), "error", err)
		if errors.Is(err, mail.ErrNoRecipients) {
			return err
		}
		if errors.Is(err, mail.ErrNoSender) || errors.Is(err, mail.ErrNoHost) || errors.Is(err, mail.ErrDelivery) {
			return sysErr(err)
		}
		return err
	}
	a.log.Infow("mail sent", "recipients", len(to), "subject", f.subject)
	if a.json {
		return printJSON(out, map[string]any{"sent": true, "recipients": to})
	}
	fmt.Fprintf(out, "Sent %q to %d recipient(s)\n", f.subject, len(to))
	return nil
}

func dedupe(addrs []string) []string {
	seen := make(map[string]bool, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		addr = strings.TrimSpace(addr)
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out
}
