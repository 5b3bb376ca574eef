package config

import (
	"fmt"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
)

// Validate checks the settings every task needs. All problems are reported
// together in a single validation error.
func (c *Config) Validate() error {
	var problems []string
	require := func(value, key string) {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, key+" is required")
		}
	}

	require(c.TmpPath, "tmpPath")
	require(c.DistPath, "distPath")
	require(c.EmailSenderPath, "emailSenderPath")
	require(c.Views.PagesBasePath, "views.pagesBasePath")
	if len(c.StylesPaths) == 0 {
		problems = append(problems, "stylesPaths must list at least one glob")
	}
	if c.TmpPath != "" && c.TmpPath == c.DistPath {
		problems = append(problems, "tmpPath and distPath must differ")
	}

	if !slices.Contains([]string{MailProviderSMTP, MailProviderPostmark, MailProviderOutbox}, c.Email.Provider) {
		problems = append(problems, fmt.Sprintf("email.provider %q is not one of smtp, postmark, outbox", c.Email.Provider))
	}
	if !slices.Contains([]string{StyleBackendDartSass, StyleBackendEsbuild}, c.Styles.Backend) {
		problems = append(problems, fmt.Sprintf("styles.backend %q is not one of dartsass, esbuild", c.Styles.Backend))
	}
	if c.Styles.OutputStyle != "expanded" && c.Styles.OutputStyle != "compressed" {
		problems = append(problems, fmt.Sprintf("styles.outputStyle %q is not one of expanded, compressed", c.Styles.OutputStyle))
	}
	if c.Dev.WatchBackend != WatchBackendPoll && c.Dev.WatchBackend != WatchBackendFSNotify {
		problems = append(problems, fmt.Sprintf("dev.watchBackend %q is not one of poll, fsnotify", c.Dev.WatchBackend))
	}
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		problems = append(problems, fmt.Sprintf("dev.port %d is out of range", c.Dev.Port))
	}
	if c.Dev.PollInterval < 0 {
		problems = append(problems, "dev.pollInterval must be positive")
	}
	if c.AWS.MaxKeys < 0 || c.AWS.MaxKeys > 1000 {
		problems = append(problems, fmt.Sprintf("aws.maxKeys %d must be between 1 and 1000", c.AWS.MaxKeys))
	}

	return problemsError("invalid configuration", problems)
}

// ValidateMail checks the settings the mail task needs.
func (c *Config) ValidateMail() error {
	var problems []string
	if c.Email.From == "" {
		problems = append(problems, "email.from is required")
	}
	if len(c.Email.To) == 0 {
		problems = append(problems, "email.to must list at least one recipient")
	}
	if len(c.Email.EmailHTML) == 0 {
		problems = append(problems, "email.emailHTML must list at least one file")
	}
	switch c.Email.Provider {
	case MailProviderSMTP:
		if c.Email.Host == "" {
			problems = append(problems, "email.host is required for smtp")
		}
	case MailProviderPostmark:
		if c.Email.PostmarkServerToken == "" {
			problems = append(problems, "email.postmarkServerToken is required for postmark")
		}
	case MailProviderOutbox:
		if c.Email.Outbox == "" {
			problems = append(problems, "email.outbox is required for outbox")
		}
	}
	return problemsError("invalid email configuration", problems)
}

// ValidateStorage checks the settings the bucket tasks need.
func (c *Config) ValidateStorage(requireSource bool) error {
	var problems []string
	if c.AWS.BucketName == "" {
		problems = append(problems, "aws.bucketName is required")
	}
	if c.AWS.Region == "" {
		problems = append(problems, "aws.region is required")
	}
	if (c.AWS.AccessKey == "") != (c.AWS.Secret == "") {
		problems = append(problems, "aws.accessKey and aws.secret must be set together")
	}
	if requireSource && c.S3SourcePath == "" {
		problems = append(problems, "s3SourcePath is required")
	}
	return problemsError("invalid storage configuration", problems)
}

func problemsError(message string, problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return ferrors.ValidationError(message+": "+strings.Join(problems, "; ")).
		WithContext("problems", problems).
		Build()
}
