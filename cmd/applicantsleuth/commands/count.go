package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fr4nk3nst1ner/applicantsleuth/internal/models"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/pipeline"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/ui"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/utils"
)

const countConcurrency = 3

var (
	countJSON       bool
	countHyperlinks bool
)

func init() {
	countCmd.Flags().BoolVar(&countJSON, "json", false, "Print results as JSON instead of a table")
	countCmd.Flags().BoolVar(&countHyperlinks, "links", false, "Show job URLs as clickable terminal hyperlinks")
	rootCmd.AddCommand(countCmd)
}

var countCmd = &cobra.Command{
	Use:   "count <job-id|job-url>...",
	Short: "Looks up the exact applicant count for one or more jobs.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := jobIDs(args)
		if len(ids) == 0 {
			return fmt.Errorf("no job ids found in arguments")
		}

		httpClient, err := newHTTPClient(cfg)
		if err != nil {
			return err
		}
		fetcher, err := newFetcher(cfg, httpClient, cookieSource(cfg))
		if err != nil {
			return err
		}

		results, progress := countJobs(cmd.Context(), fetcher, ids, os.Stderr)
		if countJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		return ui.PrintResults(cmd.OutOrStdout(), results, progress, countHyperlinks)
	},
}

func jobIDs(args []string) []string {
	seen := map[string]bool{}
	var ids []string
	for _, arg := range args {
		id := utils.JobIDFromArg(arg)
		if id == "" {
			slog.Warn("no job id in argument, skipping", "arg", arg)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// countJobs fetches every id with bounded concurrency and returns results in argument order
func countJobs(ctx context.Context, fetcher pipeline.CountFetcher, ids []string, progressOut io.Writer) ([]models.ApplicantResult, models.BatchProgress) {
	bar := ui.NewProgressBar(len(ids), progressOut)
	defer bar.Finish()

	found := make([]*models.ApplicantResult, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(countConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			defer bar.Increment()
			count, ok := fetcher.FetchApplicantCount(ctx, id)
			if !ok {
				return nil
			}
			found[i] = &models.ApplicantResult{
				JobID:      id,
				Applicants: count,
				URL:        utils.JobViewURL(id),
			}
			return nil
		})
	}
	_ = g.Wait()

	progress := models.BatchProgress{Done: len(ids)}
	results := make([]models.ApplicantResult, 0, len(ids))
	for _, r := range found {
		if r == nil {
			progress.Failed++
			continue
		}
		results = append(results, *r)
	}
	return results, progress
}
