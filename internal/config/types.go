package config

import (
	"fmt"
	"time"
)

// Config is the build description loaded from conf/build.json.
// Field names follow the JSON keys of the original build file.
type Config struct {
	DistPath        string       `json:"distPath" yaml:"distPath"`
	AssetPaths      []string     `json:"assetPaths" yaml:"assetPaths"`
	EmailSenderPath string       `json:"emailSenderPath" yaml:"emailSenderPath"`
	StylesPaths     []string     `json:"stylesPaths" yaml:"stylesPaths"`
	Views           ViewsConfig  `json:"views" yaml:"views"`
	TmpPath         string       `json:"tmpPath" yaml:"tmpPath"`
	Email           EmailConfig  `json:"email" yaml:"email"`
	AWS             AWSConfig    `json:"aws" yaml:"aws"`
	S3SourcePath    string       `json:"s3SourcePath" yaml:"s3SourcePath"`
	Styles          StylesConfig `json:"styles" yaml:"styles"`
	Dev             DevConfig    `json:"dev" yaml:"dev"`

	// Environments lists the overlay names accepted by --env.
	Environments []string `json:"environments,omitempty" yaml:"environments,omitempty"`

	// Dir is the directory the configuration was loaded from; overlays live next to it.
	Dir string `json:"-" yaml:"-"`
}

// ViewsConfig locates templates.
type ViewsConfig struct {
	PagePath      string   `json:"pagePath" yaml:"pagePath"`
	PagesBasePath string   `json:"pagesBasePath" yaml:"pagesBasePath"`
	LayoutPath    string   `json:"layoutPath" yaml:"layoutPath"`
	PartialPath   string   `json:"partialPath" yaml:"partialPath"`
	WatchPath     []string `json:"watchPath" yaml:"watchPath"`

	// PageStylesPath is where a page's source stylesheet is expected; only used in error messages.
	PageStylesPath string `json:"pageStylesPath,omitempty" yaml:"pageStylesPath,omitempty"`
}

// Mail providers.
const (
	MailProviderSMTP     = "smtp"
	MailProviderPostmark = "postmark"
	MailProviderOutbox   = "outbox"
)

// EmailConfig configures the mail dispatcher.
type EmailConfig struct {
	Username         string   `json:"username" yaml:"username"`
	Password         string   `json:"password" yaml:"password"`
	Host             string   `json:"host" yaml:"host"`
	SecureConnection bool     `json:"secureConnection" yaml:"secureConnection"`
	Port             int      `json:"port" yaml:"port"`
	From             string   `json:"from" yaml:"from"`
	To               []string `json:"to" yaml:"to"`
	Subject          string   `json:"subject" yaml:"subject"`
	EmailHTML        []string `json:"emailHTML" yaml:"emailHTML"`

	Provider             string   `json:"provider,omitempty" yaml:"provider,omitempty"`
	PostmarkServerToken  string   `json:"postmarkServerToken,omitempty" yaml:"postmarkServerToken,omitempty"`
	PostmarkAccountToken string   `json:"postmarkAccountToken,omitempty" yaml:"postmarkAccountToken,omitempty"`
	Outbox               string   `json:"outbox,omitempty" yaml:"outbox,omitempty"`
	Timeout              Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// AWSConfig configures the bucket publisher.
type AWSConfig struct {
	BucketName        string `json:"bucketName" yaml:"bucketName"`
	AccessKey         string `json:"accessKey" yaml:"accessKey"`
	Secret            string `json:"secret" yaml:"secret"`
	Region            string `json:"region" yaml:"region"`
	Endpoint          string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	ForcePathStyle    bool   `json:"forcePathStyle,omitempty" yaml:"forcePathStyle,omitempty"`
	MaxKeys           int32  `json:"maxKeys,omitempty" yaml:"maxKeys,omitempty"`
	UploadConcurrency int    `json:"uploadConcurrency,omitempty" yaml:"uploadConcurrency,omitempty"`
}

// Style compiler backends.
const (
	StyleBackendDartSass = "dartsass"
	StyleBackendEsbuild  = "esbuild"
)

// StylesConfig selects the stylesheet compiler.
type StylesConfig struct {
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// DartSassBinary defaults to "sass" on PATH.
	DartSassBinary string `json:"dartSassBinary,omitempty" yaml:"dartSassBinary,omitempty"`
	OutputStyle    string `json:"outputStyle,omitempty" yaml:"outputStyle,omitempty"`
}

// Watch backends.
const (
	WatchBackendPoll     = "poll"
	WatchBackendFSNotify = "fsnotify"
)

// DevConfig configures the dev server and watcher.
type DevConfig struct {
	Port         int      `json:"port,omitempty" yaml:"port,omitempty"`
	Index        string   `json:"index,omitempty" yaml:"index,omitempty"`
	StartPath    string   `json:"startPath,omitempty" yaml:"startPath,omitempty"`
	PollInterval Duration `json:"pollInterval,omitempty" yaml:"pollInterval,omitempty"`
	WatchBackend string   `json:"watchBackend,omitempty" yaml:"watchBackend,omitempty"`
	LiveReload   *bool    `json:"liveReload,omitempty" yaml:"liveReload,omitempty"`
	Metrics      bool     `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// LiveReloadEnabled reports whether live reload is on (default true).
func (d DevConfig) LiveReloadEnabled() bool {
	return d.LiveReload == nil || *d.LiveReload
}

// Duration is a time.Duration read from strings like "500ms".
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}
