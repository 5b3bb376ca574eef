package config

import "time"

// Defaults mirror the original gulp pipeline.
const (
	DefaultEnv            = "development"
	DefaultPageStylesPath = "src/styles/pages"
	DefaultDevPort        = 8081
	DefaultDevIndex       = "pages.html"
	DefaultDevStartPath   = "example.html"
	DefaultPollInterval   = 500 * time.Millisecond
	DefaultMaxKeys        = 100
	DefaultUploadWorkers  = 8
	DefaultMailTimeout    = 30 * time.Second
	DefaultSMTPPort       = 587
)

// DefaultEnvironments are the overlay names accepted when the config lists none.
var DefaultEnvironments = []string{"development", "staging", "production"}

func applyDefaults(c *Config) {
	if c.Views.PageStylesPath == "" {
		c.Views.PageStylesPath = DefaultPageStylesPath
	}
	if len(c.Environments) == 0 {
		c.Environments = append([]string(nil), DefaultEnvironments...)
	}

	if c.Email.Provider == "" {
		c.Email.Provider = MailProviderSMTP
	}
	if c.Email.Port == 0 {
		c.Email.Port = DefaultSMTPPort
	}
	if c.Email.Timeout == 0 {
		c.Email.Timeout = Duration(DefaultMailTimeout)
	}

	if c.AWS.MaxKeys == 0 {
		c.AWS.MaxKeys = DefaultMaxKeys
	}
	if c.AWS.UploadConcurrency <= 0 {
		c.AWS.UploadConcurrency = DefaultUploadWorkers
	}

	if c.Styles.Backend == "" {
		c.Styles.Backend = StyleBackendDartSass
	}
	if c.Styles.OutputStyle == "" {
		c.Styles.OutputStyle = "expanded"
	}

	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultDevPort
	}
	if c.Dev.Index == "" {
		c.Dev.Index = DefaultDevIndex
	}
	if c.Dev.StartPath == "" {
		c.Dev.StartPath = DefaultDevStartPath
	}
	if c.Dev.PollInterval == 0 {
		c.Dev.PollInterval = Duration(DefaultPollInterval)
	}
	if c.Dev.WatchBackend == "" {
		c.Dev.WatchBackend = WatchBackendPoll
	}
	if len(c.Views.WatchPath) == 0 {
		seen := map[string]bool{}
		for _, dir := range []string{c.Views.PagePath, c.Views.PagesBasePath, c.Views.LayoutPath, c.Views.PartialPath} {
			if dir == "" || seen[dir] {
				continue
			}
			seen[dir] = true
			c.Views.WatchPath = append(c.Views.WatchPath, dir+"/**/*.hbs")
		}
	}
}
