package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fr4nk3nst1ner/applicantsleuth/internal/config"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/models"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/scraper"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/session"
)

type countingFetcher struct {
	mu     sync.Mutex
	counts map[string]int
	calls  int
}

func (f *countingFetcher) FetchApplicantCount(_ context.Context, jobID string) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	count, ok := f.counts[jobID]
	return count, ok
}

func TestJobIDs(t *testing.T) {
	ids := jobIDs([]string{
		"3912345678",
		"https://www.linkedin.com/jobs/view/3912345678/",
		"https://www.linkedin.com/jobs/search/?currentJobId=42",
		"https://www.linkedin.com/feed/",
	})
	require.Equal(t, []string{"3912345678", "42"}, ids)
}

func TestCountJobsKeepsOrder(t *testing.T) {
	fetcher := &countingFetcher{counts: map[string]int{"1": 10, "3": 30, "4": 40}}
	var progressOut bytes.Buffer

	results, progress := countJobs(context.Background(), fetcher, []string{"4", "2", "1", "3"}, &progressOut)

	require.Equal(t, 4, fetcher.calls)
	require.Equal(t, 4, progress.Done)
	require.Equal(t, 1, progress.Failed)
	require.Len(t, results, 3)
	require.Equal(t, "4", results[0].JobID)
	require.Equal(t, "1", results[1].JobID)
	require.Equal(t, 30, results[2].Applicants)
	require.Equal(t, "https://www.linkedin.com/jobs/view/3/", results[2].URL)
}

func TestApplyFlagsOverridesConfig(t *testing.T) {
	t.Cleanup(func() { proxyURL, cookieFile, cookie = "", "", "" })
	proxyURL = "http://127.0.0.1:8080"
	cookieFile = "cookies.txt"

	c := config.Default()
	c.Session.Cookie = `JSESSIONID="ajax:1"`
	applyFlags(&c)

	require.Equal(t, "http://127.0.0.1:8080", c.API.Proxy)
	require.Equal(t, "cookies.txt", c.Session.CookieFile)
	require.Equal(t, `JSESSIONID="ajax:1"`, c.Session.Cookie)
}

func TestCookieSourcePrefersFile(t *testing.T) {
	c := config.Default()
	c.Session.Cookie = "a=b"
	require.Equal(t, session.StaticCookies("a=b"), cookieSource(c))

	c.Session.CookieFile = "cookies.txt"
	require.Equal(t, session.CookieFile("cookies.txt"), cookieSource(c))
}

func TestWatchSource(t *testing.T) {
	t.Cleanup(func() { watchURL, watchFile, watchPageURL = "", "", "" })
	c := config.Default()

	_, err := watchSource(c, nil, nil)
	require.Error(t, err)

	watchURL = "https://www.linkedin.com/jobs/view/1/"
	src, err := watchSource(c, nil, session.StaticCookies(""))
	require.NoError(t, err)
	httpSource, ok := src.(scraper.HTTPPageSource)
	require.True(t, ok)
	require.Equal(t, c.API.Headers["user-agent"], httpSource.UserAgent)

	watchFile = filepath.Join(t.TempDir(), "page.html")
	watchPageURL = "https://www.linkedin.com/jobs/view/2/"
	src, err = watchSource(c, nil, nil)
	require.NoError(t, err)
	require.Equal(t, scraper.FilePageSource{Path: watchFile, URL: watchPageURL}, src)
}

func TestCountJSONOutputIsClean(t *testing.T) {
	t.Setenv(config.CookieEnv, "")
	t.Cleanup(func() {
		configPath, silence, countJSON = "applicantsleuth.json5", false, false
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"applies":42}}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "applicantsleuth.json5")
	contents := fmt.Sprintf(`{
		session: { cookie: "JSESSIONID=\"ajax:1\"" },
		api: { base_url: %q, requests_per_second: 1000 },
	}`, srv.URL)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"--config", path, "count", "1", "--json"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	var results []models.ApplicantResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &results), stdout.String())
	require.Equal(t, []models.ApplicantResult{{
		JobID:      "1",
		Applicants: 42,
		URL:        "https://www.linkedin.com/jobs/view/1/",
	}}, results)
	require.Contains(t, stderr.String(), "█")
}
