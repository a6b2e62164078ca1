package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-viewengine/pkg/config"
)

const sample = `
logger:
  level: debug
  format: json
initializers:
  jinja:
    template_dir: views
    mode: watching
    preload: true
`

func TestParse(t *testing.T) {
	cfg, err := config.Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, map[string]any{
		"template_dir": "views",
		"mode":         "watching",
		"preload":      true,
	}, cfg.Initializer("jinja"))
	assert.Nil(t, cfg.Initializer("other"))
}

func TestParse_Invalid(t *testing.T) {
	_, err := config.Parse([]byte("initializers: [not, a, map]"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "views", cfg.Initializer("jinja")["template_dir"])

	missing, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Nil(t, missing.Initializer("jinja"))

	var nilCfg *config.Config
	assert.Nil(t, nilCfg.Initializer("jinja"))
}
