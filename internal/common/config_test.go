package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DOCVERIFY_CONFIG", "")
	t.Setenv("OCR_URL", "")
	t.Setenv("RASTER_DPI", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Raster.DPI)
	assert.Equal(t, 4, cfg.Raster.Workers)
	assert.Equal(t, 30*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "http://localhost:8001", cfg.OCR.URL)
	assert.Equal(t, "http://localhost:8002", cfg.LLM.URL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docverify.toml")
	body := `
[ocr]
url = "http://ocr.internal:9001"
timeout = "10s"

[raster]
workers = 8

[log]
format = "text"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("DOCVERIFY_CONFIG", path)
	t.Setenv("RASTER_WORKERS", "2")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://ocr.internal:9001", cfg.OCR.URL)
	assert.Equal(t, 10*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, 2, cfg.Raster.Workers, "env overrides file")
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 200, cfg.Raster.DPI, "untouched keys keep defaults")
}

func TestLoadConfigBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[llm]\ntimeout = \"soon\"\n"), 0o600))
	t.Setenv("DOCVERIFY_CONFIG", path)

	_, err := LoadConfig()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateRejectsNonPositiveWorkers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Raster.Workers = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)
}
