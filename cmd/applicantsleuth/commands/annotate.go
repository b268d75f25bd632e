package commands

import (
	"github.com/spf13/cobra"

	"github.com/fr4nk3nst1ner/applicantsleuth/internal/pipeline"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/resolver"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/scraper"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/ui"
)

var (
	annotateIn  string
	annotateURL string
	annotateOut string
)

func init() {
	annotateCmd.Flags().StringVar(&annotateIn, "in", "", "Saved job page HTML")
	annotateCmd.Flags().StringVar(&annotateURL, "url", "", "URL the page was saved from")
	annotateCmd.Flags().StringVar(&annotateOut, "out", "", "Where to write the annotated HTML")
	_ = annotateCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(annotateCmd)
}

var annotateCmd = &cobra.Command{
	Use:   "annotate --in <page.html> [--url <page-url>] [--out <out.html>]",
	Short: "Writes the exact applicant count into a saved job page.",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := scraper.FilePageSource{Path: annotateIn, URL: annotateURL}.Snapshot(cmd.Context())
		if err != nil {
			return err
		}

		httpClient, err := newHTTPClient(cfg)
		if err != nil {
			return err
		}
		fetcher, err := newFetcher(cfg, httpClient, cookieSource(cfg))
		if err != nil {
			return err
		}

		display := &ui.PageDisplay{Out: cmd.OutOrStdout(), OutputPath: annotateOut}
		sess := pipeline.NewSession(fetcher, display)
		sess.SetPage(page)
		sess.ProcessJobPage(cmd.Context(), resolver.Resolve(page))
		return nil
	},
}
