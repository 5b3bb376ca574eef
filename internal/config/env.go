package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// envFiles are tried in order; existing process variables are never overwritten.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads environment variables from .env/.env.local when present.
func loadEnvFiles() error {
	var loaded []string
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		loaded = append(loaded, path)
	}
	if len(loaded) > 0 {
		slog.Debug("Loaded environment files", "files", loaded)
	}
	return nil
}

// secretOverrides are read from MAILBUILDER_* variables and replace the
// corresponding configuration values when set.
type secretOverrides struct {
	SMTPUsername         string `envconfig:"SMTP_USERNAME"`
	SMTPPassword         string `envconfig:"SMTP_PASSWORD"`
	SMTPHost             string `envconfig:"SMTP_HOST"`
	PostmarkServerToken  string `envconfig:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `envconfig:"POSTMARK_ACCOUNT_TOKEN"`
	AWSAccessKey         string `envconfig:"AWS_ACCESS_KEY"`
	AWSSecret            string `envconfig:"AWS_SECRET"`
	AWSRegion            string `envconfig:"AWS_REGION"`
	BucketName           string `envconfig:"BUCKET_NAME"`
}

// EnvPrefix namespaces secret override variables.
const EnvPrefix = "MAILBUILDER"

func applyEnvOverrides(c *Config) error {
	var o secretOverrides
	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return fmt.Errorf("read %s_* environment: %w", EnvPrefix, err)
	}
	override(&c.Email.Username, o.SMTPUsername)
	override(&c.Email.Password, o.SMTPPassword)
	override(&c.Email.Host, o.SMTPHost)
	override(&c.Email.PostmarkServerToken, o.PostmarkServerToken)
	override(&c.Email.PostmarkAccountToken, o.PostmarkAccountToken)
	override(&c.AWS.AccessKey, o.AWSAccessKey)
	override(&c.AWS.Secret, o.AWSSecret)
	override(&c.AWS.Region, o.AWSRegion)
	override(&c.AWS.BucketName, o.BucketName)
	return nil
}

func override(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
