package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
)

// Overlay is the environment-specific data merged into every render context.
type Overlay map[string]any

// OverlayLoader produces the overlay for one environment.
type OverlayLoader func() (Overlay, error)

// OverlayRegistry maps environment names to their loaders. It is built once at
// startup; resolving a name that was never registered fails before any work runs.
type OverlayRegistry struct {
	loaders map[string]OverlayLoader
}

// NewOverlayRegistry returns an empty registry.
func NewOverlayRegistry() *OverlayRegistry {
	return &OverlayRegistry{loaders: make(map[string]OverlayLoader)}
}

// Register adds or replaces the loader for name.
func (r *OverlayRegistry) Register(name string, loader OverlayLoader) {
	r.loaders[name] = loader
}

// Names lists the registered environments in sorted order.
func (r *OverlayRegistry) Names() []string {
	return slices.Sorted(maps.Keys(r.loaders))
}

// Resolve runs the loader registered for name.
func (r *OverlayRegistry) Resolve(name string) (Overlay, error) {
	loader, ok := r.loaders[name]
	if !ok {
		return nil, ferrors.ConfigError(fmt.Sprintf("unknown environment %q (known: %s)", name, strings.Join(r.Names(), ", "))).
			WithContext("env", name).
			Build()
	}
	overlay, err := loader()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to load environment overlay").
			Fatal().
			WithContext("env", name).
			Build()
	}
	if overlay == nil {
		overlay = Overlay{}
	}
	return overlay, nil
}

// overlayExts are tried in order for <dir>/<env><ext>.
var overlayExts = []string{".json", ".yaml", ".yml"}

// ErrOverlayNotFound is returned when no overlay file exists for an environment.
var ErrOverlayNotFound = errors.New("overlay file not found")

// FileOverlayLoader reads <dir>/<name>.json (or .yaml/.yml). It fails when
// none of them exists.
func FileOverlayLoader(dir, name string) OverlayLoader {
	return func() (Overlay, error) {
		tried := make([]string, 0, len(overlayExts))
		for _, ext := range overlayExts {
			path := filepath.Join(dir, name+ext)
			data, err := os.ReadFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				tried = append(tried, path)
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			overlay := Overlay{}
			if err := decode([]byte(os.ExpandEnv(string(data))), ext, &overlay); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			return overlay, nil
		}
		return nil, fmt.Errorf("%w: tried %s", ErrOverlayNotFound, strings.Join(tried, ", "))
	}
}

// Overlays builds the registry of every environment named in the configuration,
// each backed by a file next to the configuration file.
func (c *Config) Overlays() *OverlayRegistry {
	reg := NewOverlayRegistry()
	for _, name := range c.Environments {
		reg.Register(name, FileOverlayLoader(c.Dir, name))
	}
	return reg
}
