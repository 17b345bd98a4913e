package mail

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  []byte
	err  error
}

func (c *capture) send(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	c.addr, c.auth, c.from, c.to, c.msg = addr, a, from, to, msg
	return c.err
}

func newTestDispatcher(cfg SMTPConfig, c *capture) *Dispatcher {
	d := NewDispatcher(cfg)
	d.send = c.send
	d.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return d
}

func TestSend(t *testing.T) {
	c := &capture{}
	d := newTestDispatcher(SMTPConfig{
		Host: "smtp.example.com", Port: 587, Username: "me@example.com", Password: "pw", From: "Me <me@example.com>",
	}, c)

	err := d.Send(Message{To: []string{"a@x.com", " ", "b@x.com"}, Subject: "Hola", Body: "line1\nline2"})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", c.addr)
	assert.NotNil(t, c.auth)
	assert.Equal(t, "me@example.com", c.from)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, c.to)

	msg := string(c.msg)
	assert.Contains(t, msg, "To: a@x.com, b@x.com\r\n")
	assert.Contains(t, msg, "Subject: Hola\r\n")
	assert.Contains(t, msg, "Date: Sun, 01 Mar 2026 10:00:00 +0000\r\n")
	assert.Contains(t, msg, "Message-ID: <")
	assert.Contains(t, msg, "@example.com>\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nline1\r\nline2"))
}

func TestSend_NoAuthWithoutUsername(t *testing.T) {
	c := &capture{}
	d := newTestDispatcher(SMTPConfig{Host: "localhost", Port: 25, From: "me@example.com"}, c)

	require.NoError(t, d.Send(Message{To: []string{"a@x.com"}}))
	assert.Nil(t, c.auth)
}

func TestSend_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SMTPConfig
		msg     Message
		sendErr error
		wantErr error
	}{
		{
			name:    "no recipients",
			cfg:     SMTPConfig{Host: "h", Port: 25, From: "me@example.com"},
			msg:     Message{To: []string{" "}},
			wantErr: ErrNoRecipients,
		},
		{
			name:    "no sender",
			cfg:     SMTPConfig{Host: "h", Port: 25},
			msg:     Message{To: []string{"a@x.com"}},
			wantErr: ErrNoSender,
		},
		{
			name:    "no host",
			cfg:     SMTPConfig{From: "me@example.com"},
			msg:     Message{To: []string{"a@x.com"}},
			wantErr: ErrNoHost,
		},
		{
			name:    "server failure is returned verbatim",
			cfg:     SMTPConfig{Host: "h", Port: 25, From: "me@example.com"},
			msg:     Message{To: []string{"a@x.com"}},
			sendErr: errors.New("535 authentication failed"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &capture{err: tt.sendErr}
			err := newTestDispatcher(tt.cfg, c).Send(tt.msg)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.sendErr != nil {
				assert.ErrorIs(t, err, tt.sendErr)
				assert.ErrorIs(t, err, ErrDelivery)
			}
		})
	}
}

func TestRender_RejectsMalformedAddress(t *testing.T) {
	_, err := Render("me@example.com", []string{"not an address"}, "s", "b", time.Now())
	assert.Error(t, err)

	_, err = Render("", []string{"a@x.com"}, "s", "b", time.Now())
	assert.Error(t, err)
}

func TestRender_EncodesNonASCIISubject(t *testing.T) {
	raw, err := Render("me@example.com", []string{"a@x.com"}, "Promoción", "b", time.Now())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Subject: =?utf-8?q?Promoci=C3=B3n?=\r\n")
}

func TestSMTPConfigAddr(t *testing.T) {
	assert.Equal(t, "smtp.gmail.com:587", SMTPConfig{Host: "smtp.gmail.com", Port: 587}.Addr())
}
