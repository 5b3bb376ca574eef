package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
)

// DefaultPath is the build description location used when --config is not given.
const DefaultPath = "conf/build.json"

// Load reads, expands, defaults and validates the build configuration at path.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to load .env file").Fatal().Build()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError("configuration file not found").WithContext("path", path).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			Fatal().WithContext("path", path).Build()
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config file").
			Fatal().WithContext("path", path).Build()
	}
	cfg.Dir = filepath.Dir(path)

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid environment override").Fatal().Build()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a configuration document after expanding ${VAR} references.
// ext selects YAML for ".yaml"/".yml" and JSON otherwise. Defaults are applied.
func Parse(data []byte, ext string) (*Config, error) {
	expanded := []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := decode(expanded, ext, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func decode(data []byte, ext string, v any) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("yaml: %w", err)
		}
	default:
		if err := json.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
			return fmt.Errorf("json: %w", err)
		}
	}
	return nil
}

// PageCSSDir is the directory holding compiled page stylesheets.
func (c *Config) PageCSSDir() string {
	return filepath.Join(c.StylesOutputDir(), "pages")
}

// StylesOutputDir is where the style compiler writes.
func (c *Config) StylesOutputDir() string {
	return filepath.Join(c.TmpPath, "styles")
}

// AssetsOutputDir is where static assets are flattened into.
func (c *Config) AssetsOutputDir() string {
	return filepath.Join(c.TmpPath, "assets")
}

// MinifyOutputDir is where minified pages are written.
func (c *Config) MinifyOutputDir() string {
	return filepath.Join(c.TmpPath, "minify")
}

// Init writes an example build description and an overlay per default
// environment.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).Build()
	}

	example := Config{
		DistPath:        "dist/",
		AssetPaths:      []string{"src/assets/**/*"},
		EmailSenderPath: "email-sender/",
		StylesPaths:     []string{"src/styles/**/*.scss"},
		Views: ViewsConfig{
			PagePath:      "src/views",
			PagesBasePath: "src/views/pages",
			LayoutPath:    "src/views/layouts",
			PartialPath:   "src/views/partials",
			WatchPath:     []string{"src/views/**/*.hbs"},
		},
		TmpPath: "tmp/",
		Email: EmailConfig{
			Username:         "${MAIL_USERNAME}",
			Password:         "${MAIL_PASSWORD}",
			Host:             "smtp.example.com",
			SecureConnection: true,
			Port:             465,
			From:             "builder@example.com",
			To:               []string{"qa@example.com"},
			Subject:          "Email template preview",
			EmailHTML:        []string{"example.html"},
		},
		AWS: AWSConfig{
			BucketName: "email-templates",
			AccessKey:  "${AWS_ACCESS_KEY_ID}",
			Secret:     "${AWS_SECRET_ACCESS_KEY}",
			Region:     "eu-west-1",
		},
		S3SourcePath: "dist/assets",
	}

	data, err := json.MarshalIndent(&example, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	for _, env := range DefaultEnvironments {
		overlay := filepath.Join(dir, env+".json")
		if _, err := os.Stat(overlay); err == nil && !force {
			continue
		}
		baseURL := "https://templates.example.com/"
		if env == DefaultEnv {
			baseURL = "http://localhost:8081/"
		}
		content := fmt.Sprintf("{\n  \"baseUrl\": %q\n}\n", baseURL)
		if err := os.WriteFile(overlay, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write overlay: %w", err)
		}
	}
	return nil
}
