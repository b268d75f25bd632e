package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/fr4nk3nst1ner/applicantsleuth/internal/config"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/pipeline"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/scraper"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/session"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/ui"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/watcher"
)

var (
	watchURL      string
	watchFile     string
	watchPageURL  string
	watchInterval time.Duration
	watchOut      string
)

func init() {
	flags := watchCmd.Flags()
	flags.StringVar(&watchURL, "url", "", "Job page URL to poll")
	flags.StringVar(&watchFile, "file", "", "Saved job page HTML to poll")
	flags.StringVar(&watchPageURL, "page-url", "", "URL the --file page was saved from")
	flags.DurationVar(&watchInterval, "interval", 0, "Polling interval (default from config, 5s)")
	flags.StringVar(&watchOut, "out", "", "Where to write the annotated HTML after every update")
	watchCmd.MarkFlagsMutuallyExclusive("url", "file")
	watchCmd.MarkFlagsOneRequired("url", "file")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch (--url <job-url> | --file <page.html> --page-url <url>)",
	Short: "Keeps the applicant count up to date while the watched page changes jobs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		httpClient, err := newHTTPClient(cfg)
		if err != nil {
			return err
		}
		cookies := cookieSource(cfg)
		fetcher, err := newFetcher(cfg, httpClient, cookies)
		if err != nil {
			return err
		}

		source, err := watchSource(cfg, httpClient, cookies)
		if err != nil {
			return err
		}
		page, err := source.Snapshot(ctx)
		if err != nil {
			return fmt.Errorf("failed to load page: %w", err)
		}

		interval := watchInterval
		if interval <= 0 {
			interval = cfg.Watch.Interval()
		}
		output := watchOut
		if output == "" {
			output = cfg.Watch.Output
		}

		w := watcher.New(source, interval)
		changes := w.Setup(ctx, page)
		defer w.Stop()
		slog.Info("watching for navigation", "target", w.Target(), "interval", interval)

		sess := pipeline.NewSession(fetcher, &ui.PageDisplay{Out: cmd.OutOrStdout(), OutputPath: output})
		sess.SetPage(page)
		err = sess.Run(ctx, changes)
		if errors.Is(err, context.Canceled) {
			slog.Info("stopped watching")
			return nil
		}
		return err
	},
}

func watchSource(c config.Config, httpClient *http.Client, cookies session.CookieSource) (watcher.Source, error) {
	if watchFile != "" {
		return scraper.FilePageSource{Path: watchFile, URL: watchPageURL}, nil
	}
	if watchURL == "" {
		return nil, fmt.Errorf("one of --url or --file is required")
	}
	return scraper.HTTPPageSource{
		Client:    httpClient,
		URL:       watchURL,
		Cookies:   cookies,
		UserAgent: userAgent(c),
	}, nil
}
