package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"
)

// OutboxSender writes each message to a directory as <stamp>_<subject>.html
// with a .json file holding the envelope.
type OutboxSender struct {
	dir string
	seq atomic.Int64
	now func() time.Time
}

// NewOutboxSender returns a sender writing into dir.
func NewOutboxSender(dir string) *OutboxSender {
	return &OutboxSender{dir: dir, now: time.Now}
}

type envelope struct {
	Timestamp string   `json:"timestamp"`
	From      string   `json:"from"`
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
}

func (o *OutboxSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return fmt.Errorf("create outbox: %w", err)
	}
	now := o.now()
	base := fmt.Sprintf("%s_%03d_%s", now.Format("2006_01_02_150405"), o.seq.Add(1), sanitizeFilename(msg.Subject))

	if err := os.WriteFile(filepath.Join(o.dir, base+".html"), []byte(msg.HTML), 0o644); err != nil {
		return fmt.Errorf("write outbox html: %w", err)
	}
	data, err := json.MarshalIndent(envelope{
		Timestamp: now.Format(time.RFC3339),
		From:      msg.From,
		To:        msg.To,
		Subject:   msg.Subject,
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(o.dir, base+".json"), data, 0o644); err != nil {
		return fmt.Errorf("write outbox metadata: %w", err)
	}
	return nil
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeFilename.ReplaceAllString(s, "")
	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
