package mail

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
	fail map[string]bool
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[msg.Subject] {
		return errors.New("mailbox unavailable")
	}
	r.sent = append(r.sent, msg)
	return nil
}

func distConfig(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	dist := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dist, name), []byte(body), 0o644))
	}
	return &config.Config{
		DistPath: dist,
		Email: config.EmailConfig{
			From:    "builder@example.com",
			To:      []string{"qa@example.com", "dev@example.com"},
			Subject: "Email preview",
		},
	}
}

func TestDispatch_SendsEachFile(t *testing.T) {
	cfg := distConfig(t, map[string]string{
		"example.html": "<p>example</p>",
		"welcome.html": "<p>welcome</p>",
	})
	cfg.Email.EmailHTML = []string{"example.html", "welcome.html"}
	sender := &recordingSender{}

	res, err := Dispatch(context.Background(), cfg, sender, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"example.html", "welcome.html"}, res.Sent)

	require.Len(t, sender.sent, 2)
	slices.SortFunc(sender.sent, func(a, b Message) int { return strings.Compare(a.Subject, b.Subject) })
	assert.Equal(t, "Email preview of example.html", sender.sent[0].Subject)
	assert.Equal(t, "<p>example</p>", sender.sent[0].HTML)
	assert.Equal(t, cfg.Email.To, sender.sent[0].To)
	assert.Equal(t, "builder@example.com", sender.sent[0].From)
}

func TestDispatch_FailuresAggregated(t *testing.T) {
	cfg := distConfig(t, map[string]string{"ok.html": "ok", "bad.html": "bad"})
	cfg.Email.EmailHTML = []string{"ok.html", "bad.html", "missing.html"}
	sender := &recordingSender{fail: map[string]bool{"Email preview of bad.html": true}}

	res, err := Dispatch(context.Background(), cfg, sender, nil)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryMail))
	assert.True(t, ferrors.HasSeverity(err, ferrors.SeverityWarning))
	assert.Contains(t, err.Error(), "bad.html")
	assert.Contains(t, err.Error(), "missing.html")
	assert.Equal(t, []string{"ok.html"}, res.Sent)
	assert.ElementsMatch(t, []string{"bad.html", "missing.html"}, res.Failed)
}

func TestPlainText(t *testing.T) {
	body := `<html><head><title>T</title><style>p{color:red}</style></head>
<body><h1>Hello</h1><p>First   line
 continues</p><table><tr><td>a</td><td>b</td></tr></table><script>x()</script></body></html>`
	assert.Equal(t, "Hello\nFirst line continues\na b", PlainText(body))
}

func TestOutboxSender(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outbox")
	o := NewOutboxSender(dir)
	o.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	err := o.Send(context.Background(), Message{
		From: "a@example.com", To: []string{"b@example.com"}, Subject: "Preview of example.html", HTML: "<p>x</p>",
	})
	require.NoError(t, err)

	base := filepath.Join(dir, "2026_01_02_030405_001_preview_of_example.html")
	html, err := os.ReadFile(base + ".html")
	require.NoError(t, err)
	assert.Equal(t, "<p>x</p>", string(html))

	var env envelope
	data, err := os.ReadFile(base + ".json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, []string{"b@example.com"}, env.To)
	assert.Equal(t, "Preview of example.html", env.Subject)
}

func TestNewSender(t *testing.T) {
	s, err := NewSender(config.EmailConfig{Provider: config.MailProviderOutbox, Outbox: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &OutboxSender{}, s)

	s, err = NewSender(config.EmailConfig{Provider: config.MailProviderPostmark, PostmarkServerToken: "x"})
	require.NoError(t, err)
	assert.IsType(t, &PostmarkSender{}, s)

	s, err = NewSender(config.EmailConfig{Host: "smtp.example.com", Port: 465, SecureConnection: true, Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	_, err = NewSender(config.EmailConfig{})
	assert.Error(t, err)

	_, err = NewSender(config.EmailConfig{Provider: "pigeon"})
	assert.Error(t, err)
}

func TestBuildMsg(t *testing.T) {
	m, err := buildMsg(Message{From: "a@example.com", To: []string{"b@example.com"}, Subject: "S", HTML: "<p>hi</p>"})
	require.NoError(t, err)
	assert.Equal(t, []string{"S"}, m.GetGenHeader("Subject"))

	_, err = buildMsg(Message{From: "not an address", To: []string{"b@example.com"}})
	assert.Error(t, err)
}
