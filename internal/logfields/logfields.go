package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyTask       = "task"
	KeyStage      = "stage"
	KeyEnv        = "env"
	KeyPage       = "page"
	KeyFile       = "file"
	KeyPath       = "path"
	KeyGroup      = "group"
	KeyBucket     = "bucket"
	KeyKey        = "key"
	KeyRecipient  = "recipient"
	KeySubject    = "subject"
	KeyCount      = "count"
	KeyURL        = "url"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Task(name string) slog.Attr      { return slog.String(KeyTask, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Env(name string) slog.Attr       { return slog.String(KeyEnv, name) }
func Page(name string) slog.Attr      { return slog.String(KeyPage, name) }
func File(name string) slog.Attr      { return slog.String(KeyFile, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Group(name string) slog.Attr     { return slog.String(KeyGroup, name) }
func Bucket(name string) slog.Attr    { return slog.String(KeyBucket, name) }
func Key(k string) slog.Attr          { return slog.String(KeyKey, k) }
func Recipient(r string) slog.Attr    { return slog.String(KeyRecipient, r) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Duration converts d to a millisecond attribute.
func Duration(d time.Duration) slog.Attr {
	return DurationMS(float64(d) / float64(time.Millisecond))
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
