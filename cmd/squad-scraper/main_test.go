package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))
	return cfgPath
}

func TestLoadConfig_ValidFile(t *testing.T) {
	cfgPath := writeConfig(t, `
num_image_workers: 4
output_base_dir: "./out"
state_dir: "./state"
sites:
  premier_league:
    competition_url: "https://site.example.com/premier-league/startseite/wettbewerb/GB1"
    team_limit: 20
`)

	cfg, err := loadConfig(cfgPath)

	require.NoError(t, err)
	assert.Equal(t, 4, cfg.NumImageWorkers)
	assert.Contains(t, cfg.Sites, "premier_league")
	assert.Equal(t, 20, cfg.Sites["premier_league"].TeamLimit)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := loadConfig("/nonexistent/path/config.yaml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	cfgPath := writeConfig(t, "{{invalid yaml")

	_, err := loadConfig(cfgPath)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestDoValidate_AllSites(t *testing.T) {
	cfgPath := writeConfig(t, `
sites:
  league_a:
    competition_url: "https://a.example.com/liga-a/startseite/wettbewerb/A1"
  league_b:
    competition_url: "https://b.example.com/liga-b/startseite/wettbewerb/B1"
`)

	var stdout, stderr bytes.Buffer
	exitCode := doValidate(cfgPath, "", &stdout, &stderr)

	assert.Equal(t, 0, exitCode)
	assert.Contains(t, stdout.String(), "OK: [league_a]")
	assert.Contains(t, stdout.String(), "OK: [league_b]")
	assert.Contains(t, stdout.String(), "Configuration valid")
}

func TestDoValidate_SiteNotFound(t *testing.T) {
	cfgPath := writeConfig(t, `
sites:
  existing:
    competition_url: "https://site.example.com/liga/startseite/wettbewerb/L1"
`)

	var stdout, stderr bytes.Buffer
	exitCode := doValidate(cfgPath, "nonexistent", &stdout, &stderr)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "not found")
}

func TestDoValidate_InvalidSite(t *testing.T) {
	// skip_profiles without image_host cannot produce image URLs
	cfgPath := writeConfig(t, `
sites:
  broken:
    competition_url: "https://site.example.com/liga/startseite/wettbewerb/L1"
    skip_profiles: true
`)

	var stdout, stderr bytes.Buffer
	exitCode := doValidate(cfgPath, "", &stdout, &stderr)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "image_host")
}

func TestDoValidate_NoSites(t *testing.T) {
	cfgPath := writeConfig(t, `
output_base_dir: "./out"
`)

	var stdout, stderr bytes.Buffer
	exitCode := doValidate(cfgPath, "", &stdout, &stderr)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "no sites configured")
}
