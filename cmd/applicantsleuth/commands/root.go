package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fr4nk3nst1ner/applicantsleuth/internal/client"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/config"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/scraper"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/session"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/telemetry"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/ui"
)

const serviceName = "applicantsleuth"

var (
	configPath string
	debug      bool
	silence    bool
	proxyURL   string
	cookieFile string
	cookie     string

	cfg config.Config
	tel telemetry.Telemetry
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "applicantsleuth.json5", "Path to the json5 config file")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&silence, "silence", false, "Don't print the banner")
	flags.StringVar(&proxyURL, "proxy", "", "Proxy URL for all requests (e.g. http://127.0.0.1:8080)")
	flags.StringVar(&cookieFile, "cookie-file", "", "File holding the logged-in Cookie header, re-read on every request")
	flags.StringVar(&cookie, "cookie", "", "Logged-in Cookie header value (prefer --cookie-file or "+config.CookieEnv+")")
}

var rootCmd = &cobra.Command{
	Use:           "applicantsleuth",
	Short:         "applicantsleuth shows the exact number of applicants on LinkedIn job postings.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(os.Stderr, debug)

		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		applyFlags(&loaded)
		cfg = loaded

		tel, err = telemetry.Setup(cmd.Context(), serviceName, cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("failed to set up telemetry: %w", err)
		}

		// stdout carries command output such as count --json
		ui.PrintBanner(cmd.ErrOrStderr(), silence)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return tel.Shutdown(ctx)
	},
}

// ExecuteContext runs the CLI and returns the process exit code
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("applicantsleuth failed", "err", err)
		return 1
	}
	return 0
}

func applyFlags(c *config.Config) {
	if proxyURL != "" {
		c.API.Proxy = proxyURL
	}
	if cookieFile != "" {
		c.Session.CookieFile = cookieFile
	}
	if cookie != "" {
		c.Session.Cookie = cookie
	}
}

func cookieSource(c config.Config) session.CookieSource {
	if c.Session.CookieFile != "" {
		return session.CookieFile(c.Session.CookieFile)
	}
	if c.Session.Cookie == "" {
		slog.Warn("no session cookie configured, counts will be unavailable", "env", config.CookieEnv)
	}
	return session.StaticCookies(c.Session.Cookie)
}

func newHTTPClient(c config.Config) (*http.Client, error) {
	httpClient, err := client.CreateProxyHTTPClient(c.API.Proxy, c.API.Timeout())
	if err != nil {
		return nil, err
	}
	if c.API.Proxy != "" {
		slog.Debug("using proxy", "proxy", c.API.Proxy)
	}
	return httpClient, nil
}

func newFetcher(c config.Config, httpClient *http.Client, cookies session.CookieSource) (*scraper.ApplicantFetcher, error) {
	return scraper.NewApplicantFetcher(httpClient, cookies, scraper.APIOptions{
		BaseURL:           c.API.BaseURL,
		DecorationID:      c.API.DecorationID,
		Language:          c.API.Language,
		Headers:           c.API.Headers,
		RequestsPerSecond: c.API.RequestsPerSecond,
	})
}

func userAgent(c config.Config) string {
	if ua := c.API.Headers["user-agent"]; ua != "" {
		return ua
	}
	return client.DefaultUserAgent
}
