package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fr4nk3nst1ner/applicantsleuth/internal/scraper"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(CookieEnv, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "applicantsleuth.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://www.linkedin.com", cfg.API.BaseURL)
	require.Equal(t, scraper.DefaultDecorationID, cfg.API.DecorationID)
	require.Equal(t, 30*time.Second, cfg.API.Timeout())
	require.Equal(t, 5*time.Second, cfg.Watch.Interval())
	require.Empty(t, cfg.Session.Cookie)
}

func TestLoadWithLocalOverride(t *testing.T) {
	t.Setenv(CookieEnv, "")
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "applicantsleuth.json5"), `{
		// shared settings
		api: {
			requests_per_second: 0.5,
			headers: { "x-li-track": "{\"clientVersion\":\"1.13.37745\"}" },
		},
		watch: { interval_seconds: 10 },
	}`)
	writeFile(t, filepath.Join(dir, "applicantsleuth.local.json5"), `{
		session: { cookie_file: "cookies.txt" },
		watch: { output: "annotated.html" },
	}`)

	cfg, err := Load(filepath.Join(dir, "applicantsleuth.json5"))
	require.NoError(t, err)
	require.Equal(t, 0.5, cfg.API.RequestsPerSecond)
	require.Equal(t, `{"clientVersion":"1.13.37745"}`, cfg.API.Headers["x-li-track"])
	require.Equal(t, 10*time.Second, cfg.Watch.Interval())
	require.Equal(t, "annotated.html", cfg.Watch.Output)
	require.Equal(t, "cookies.txt", cfg.Session.CookieFile)
	require.Equal(t, "https://www.linkedin.com", cfg.API.BaseURL)
}

func TestLoadCookieEnv(t *testing.T) {
	t.Setenv(CookieEnv, `JSESSIONID="ajax:env"`)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "c.json5"), `{ session: { cookie: "JSESSIONID=\"ajax:file\"" } }`)

	cfg, err := Load(filepath.Join(dir, "c.json5"))
	require.NoError(t, err)
	require.Equal(t, `JSESSIONID="ajax:env"`, cfg.Session.Cookie)
}

func TestReadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadConfig[Config](filepath.Join(dir, "missing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)

	writeFile(t, filepath.Join(dir, "broken.json5"), `{ api: `)
	_, err = Load(filepath.Join(dir, "broken.json5"))
	require.Error(t, err)
}
