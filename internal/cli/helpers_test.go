package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cartronic/clientdb/internal/clipboard"
	"github.com/cartronic/clientdb/internal/config"
	"github.com/cartronic/clientdb/internal/mail"
)

// fakeSender records messages instead of talking to an SMTP server.
type fakeSender struct {
	cfg  mail.SMTPConfig
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	if len(msg.To) == 0 {
		return mail.ErrNoRecipients
	}
	f.sent = append(f.sent, msg)
	return nil
}

// testEnv is one config/data directory pair shared by successive commands,
// each run in a fresh process-like app.
type testEnv struct {
	t         *testing.T
	configDir string
	dataDir   string
	clip      *clipboard.Memory
	sender    *fakeSender
}

type result struct {
	code   int
	stdout string
	stderr string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	for _, key := range []string{
		config.KeyBackend, config.KeyDBFile, config.KeyLogLevel, config.KeyLogFormat,
		config.KeySMTPHost, config.KeySMTPPort, config.KeySMTPUsername, config.KeySMTPPassword, config.KeySMTPFrom,
	} {
		t.Setenv(config.EnvVar(key), "")
	}
	t.Setenv("CLIENTDB_DATA_DIR", "")
	t.Setenv("CLIENTDB_CONFIG_DIR", "")

	root := t.TempDir()
	return &testEnv{
		t:         t,
		configDir: root + "/config",
		dataDir:   root + "/data",
		clip:      &clipboard.Memory{},
		sender:    &fakeSender{},
	}
}

// run executes one clientdb command line with stdin.
func (e *testEnv) runIn(stdin string, args ...string) result {
	e.t.Helper()
	a := newApp()
	a.clip = e.clip
	a.newSender = func(cfg mail.SMTPConfig) sender {
		e.sender.cfg = cfg
		return e.sender
	}

	var stdout, stderr bytes.Buffer
	root := newRootCmd(a)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	code := a.run(root, full, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func (e *testEnv) run(args ...string) result {
	e.t.Helper()
	return e.runIn("", args...)
}

// mustRun fails the test unless the command exits 0.
func (e *testEnv) mustRun(args ...string) result {
	e.t.Helper()
	r := e.run(args...)
	if r.code != exitSuccess {
		e.t.Fatalf("clientdb %v: exit %d\nstdout: %s\nstderr: %s", args, r.code, r.stdout, r.stderr)
	}
	return r
}

// seed adds categories {VIP} and three clients.
func (e *testEnv) seed() {
	e.t.Helper()
	e.mustRun("category", "add", "VIP")
	e.mustRun("client", "add", "--name", "Acme", "--email", "a@x.com", "--phone", "1", "--contact", "Ann", "--category", "VIP")
	e.mustRun("client", "add", "--name", "Bolt", "--email", "b@x.com", "--phone", "2", "--contact", "Bob")
	e.mustRun("client", "add", "--name", "Crux", "--email", "c@x.com", "--phone", "3", "--contact", "Cy", "--category", "VIP")
}
