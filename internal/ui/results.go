package ui

import (
	"fmt"
	"io"
	"sort"

	"github.com/cheggaaa/pb/v3"
	"github.com/pterm/pterm"

	"github.com/fr4nk3nst1ner/applicantsleuth/internal/models"
)

// NewProgressBar starts a bar for a batch of total jobs, drawn on w
func NewProgressBar(total int, w io.Writer) *pb.ProgressBar {
	bar := pb.New(total)
	bar.SetWriter(w)
	bar.SetTemplate(pb.Simple)
	return bar.Start()
}

// ResultsTable lays out batch results with the most crowded postings first
func ResultsTable(results []models.ApplicantResult, hyperlinks bool) (string, error) {
	sorted := make([]models.ApplicantResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Applicants > sorted[j].Applicants
	})

	data := pterm.TableData{{"Job ID", "Applicants", "Site Shows", "Job URL"}}
	for _, r := range sorted {
		data = append(data, []string{
			r.JobID,
			ColorizeCount(r.Applicants),
			r.SiteText,
			FormatURL(r.URL, hyperlinks),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

// PrintResults writes the batch table followed by a summary line
func PrintResults(w io.Writer, results []models.ApplicantResult, progress models.BatchProgress, hyperlinks bool) error {
	if len(results) > 0 {
		table, err := ResultsTable(results, hyperlinks)
		if err != nil {
			return fmt.Errorf("failed to render results: %w", err)
		}
		fmt.Fprintln(w, table)
	}
	fmt.Fprintf(w, "\nFetched %d of %d jobs", len(results), progress.Done)
	if progress.Failed > 0 {
		fmt.Fprintf(w, " (%s without a count)", pterm.Red(progress.Failed))
	}
	fmt.Fprintln(w)
	return nil
}
