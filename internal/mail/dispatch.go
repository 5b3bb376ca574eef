package mail

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
	"git.home.luguber.info/inful/mailbuilder/internal/metrics"
	"git.home.luguber.info/inful/mailbuilder/internal/observability"
)

// Result lists the files sent and the files that failed.
type Result struct {
	Sent   []string
	Failed []string
}

// Subject is the subject line for fileName.
func Subject(base, fileName string) string {
	return base + " of " + fileName
}

// Dispatch sends every file in cfg.Email.EmailHTML, read from cfg.DistPath,
// to cfg.Email.To. Sends run concurrently and independently; Dispatch waits
// for all of them and joins the failures into one mail warning.
func Dispatch(ctx context.Context, cfg *config.Config, sender Sender, rec metrics.Recorder) (Result, error) {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	var (
		res  Result
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	for _, fileName := range cfg.Email.EmailHTML {
		g.Go(func() error {
			subject := Subject(cfg.Email.Subject, fileName)
			err := send(ctx, cfg, sender, fileName, subject)
			rec.IncMail(err == nil)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				observability.WarnContext(ctx, "Mail send failed", logfields.File(fileName), logfields.Subject(subject), logfields.Error(err))
				res.Failed = append(res.Failed, fileName)
				errs = append(errs, fmt.Errorf("%s: %w", fileName, err))
				return nil
			}
			observability.InfoContext(ctx, "Mail sent", logfields.File(fileName), logfields.Subject(subject), logfields.Count(len(cfg.Email.To)))
			res.Sent = append(res.Sent, fileName)
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		return res, ferrors.WrapError(errors.Join(errs...), ferrors.CategoryMail, "some mails were not sent").
			Warning().WithContext("failed", len(errs)).Build()
	}
	return res, nil
}

func send(ctx context.Context, cfg *config.Config, sender Sender, fileName, subject string) error {
	body, err := os.ReadFile(filepath.Join(cfg.DistPath, fileName))
	if err != nil {
		return err
	}
	return sender.Send(ctx, Message{
		From:    cfg.Email.From,
		To:      cfg.Email.To,
		Subject: subject,
		HTML:    string(body),
	})
}
