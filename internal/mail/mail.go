// Package mail sends a single plain-text message to a list of client
// addresses over SMTP.
package mail

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Errors returned before any network traffic.
var (
	ErrNoRecipients = errors.New("no recipients")
	ErrNoSender     = errors.New("sender address is required")
	ErrNoHost       = errors.New("smtp host is required")
)

// ErrDelivery wraps failures reported by the SMTP server or the connection.
var ErrDelivery = errors.New("mail delivery failed")

// SMTPConfig describes the outbound server and credentials.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Addr returns host:port.
func (c SMTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Message is one outbound email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Dispatcher sends messages through one SMTP server. Failures are returned
// verbatim; nothing is retried.
type Dispatcher struct {
	cfg  SMTPConfig
	send sendFunc
	now  func() time.Time
}

// NewDispatcher returns a Dispatcher for cfg.
func NewDispatcher(cfg SMTPConfig) *Dispatcher {
	return &Dispatcher{cfg: cfg, send: smtp.SendMail, now: time.Now}
}

// Send validates msg, renders it and submits it. smtp.SendMail upgrades to
// STARTTLS when the server offers it; PLAIN auth is used when a username is
// configured.
func (d *Dispatcher) Send(msg Message) error {
	if d.cfg.Host == "" {
		return ErrNoHost
	}
	if d.cfg.From == "" {
		return ErrNoSender
	}
	to := cleanRecipients(msg.To)
	if len(to) == 0 {
		return ErrNoRecipients
	}

	raw, err := Render(d.cfg.From, to, msg.Subject, msg.Body, d.now())
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if d.cfg.Username != "" {
		auth = smtp.PlainAuth("", d.cfg.Username, d.cfg.Password, d.cfg.Host)
	}

	from, err := mail.ParseAddress(d.cfg.From)
	if err != nil {
		return fmt.Errorf("sender %q: %w", d.cfg.From, err)
	}
	if err := d.send(d.cfg.Addr(), auth, from.Address, to, raw); err != nil {
		return fmt.Errorf("%w via %s: %w", ErrDelivery, d.cfg.Addr(), err)
	}
	return nil
}

// Render builds an RFC 5322 message with a UTF-8 text/plain body.
func Render(from string, to []string, subject, body string, date time.Time) ([]byte, error) {
	sender, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("sender %q: %w", from, err)
	}
	for _, addr := range to {
		if _, err := mail.ParseAddress(addr); err != nil {
			return nil, fmt.Errorf("recipient %q: %w", addr, err)
		}
	}

	var buf bytes.Buffer
	header := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}
	header("From", sender.String())
	header("To", strings.Join(to, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", subject))
	header("Date", date.Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(sender.Address)))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "8bit")
	buf.WriteString("\r\n")
	buf.WriteString(normalizeNewlines(body))
	return buf.Bytes(), nil
}

func cleanRecipients(to []string) []string {
	out := make([]string, 0, len(to))
	for _, addr := range to {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func domainOf(addr string) string {
	if i := strings.LastIndexByte(addr, '@'); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "localhost"
}

// normalizeNewlines converts bare LF line endings to CRLF.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
