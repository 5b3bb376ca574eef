package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
)

func TestOverlayRegistry_Resolve(t *testing.T) {
	reg := NewOverlayRegistry()
	reg.Register("production", func() (Overlay, error) {
		return Overlay{"baseUrl": "https://cdn.example.com/"}, nil
	})
	reg.Register("development", func() (Overlay, error) { return nil, nil })

	assert.Equal(t, []string{"development", "production"}, reg.Names())

	o, err := reg.Resolve("production")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/", o["baseUrl"])

	o, err = reg.Resolve("development")
	require.NoError(t, err)
	assert.NotNil(t, o)
}

func TestOverlayRegistry_UnknownEnvironment(t *testing.T) {
	reg := NewOverlayRegistry()
	reg.Register("development", func() (Overlay, error) { return Overlay{}, nil })

	_, err := reg.Resolve("qa")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.Contains(t, err.Error(), `"qa"`)
	assert.Contains(t, err.Error(), "development")
}

func TestOverlayRegistry_LoaderError(t *testing.T) {
	reg := NewOverlayRegistry()
	boom := errors.New("boom")
	reg.Register("staging", func() (Overlay, error) { return nil, boom })

	_, err := reg.Resolve("staging")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestFileOverlayLoader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "development.json"),
		[]byte(`{"baseUrl": "http://localhost:8081/", "tracking": {"enabled": false}}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "staging.yaml"),
		[]byte("baseUrl: https://staging.example.com/\n"), 0o600))

	o, err := FileOverlayLoader(dir, "development")()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8081/", o["baseUrl"])
	assert.Equal(t, map[string]any{"enabled": false}, o["tracking"])

	o, err = FileOverlayLoader(dir, "staging")()
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.com/", o["baseUrl"])

	_, err = FileOverlayLoader(dir, "production")()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOverlayNotFound)
	assert.Contains(t, err.Error(), filepath.Join(dir, "production.json"))
	assert.Contains(t, err.Error(), filepath.Join(dir, "production.yml"))
}

func TestConfig_OverlaysMissingFileFails(t *testing.T) {
	cfg := &Config{Dir: t.TempDir(), Environments: DefaultEnvironments}

	_, err := cfg.Overlays().Resolve("production")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.True(t, ferrors.HasSeverity(err, ferrors.SeverityFatal))
	assert.ErrorIs(t, err, ErrOverlayNotFound)
	assert.Contains(t, err.Error(), "production.json")
}

func TestConfig_Overlays(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "production.json"), []byte(`{"name": "prod"}`), 0o600))

	cfg := &Config{Dir: dir, Environments: []string{"production"}}
	reg := cfg.Overlays()

	o, err := reg.Resolve("production")
	require.NoError(t, err)
	assert.Equal(t, "prod", o["name"])

	_, err = reg.Resolve("development")
	assert.Error(t, err)
}
