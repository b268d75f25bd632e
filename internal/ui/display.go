package ui

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	"github.com/fr4nk3nst1ner/applicantsleuth/internal/models"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/utils"
)

// PageDisplay prints every pipeline outcome and, when OutputPath is set, rewrites the
// annotated page there after each one.
type PageDisplay struct {
	Out        io.Writer
	OutputPath string
	Hyperlinks bool
}

func (d *PageDisplay) writer() io.Writer {
	if d.Out == nil {
		return os.Stdout
	}
	return d.Out
}

func (d *PageDisplay) Render(page *models.Page, result models.ApplicantResult) {
	line := fmt.Sprintf("Job %s: %s applicants", result.JobID, ColorizeCount(result.Applicants))
	if result.SiteText != "" {
		line += fmt.Sprintf(" (site shows %q", result.SiteText)
		if shown, ok := utils.ParseApplicantText(result.SiteText); ok && result.Applicants > shown {
			line += fmt.Sprintf(", %s more", humanize.Comma(int64(result.Applicants-shown)))
		}
		line += ")"
	}
	if result.Strategy == "" {
		line += " [no place on page to show it]"
	}
	if result.URL != "" {
		line += " " + FormatURL(result.URL, d.Hyperlinks)
	}
	fmt.Fprintln(d.writer(), line)
	d.save(page)
}

func (d *PageDisplay) Missing(page *models.Page, jobID string) {
	fmt.Fprintf(d.writer(), "Job %s: %s\n", jobID, pterm.Red("applicant count not available"))
	d.save(page)
}

func (d *PageDisplay) Cleared(page *models.Page) {
	fmt.Fprintln(d.writer(), "No job on page")
	d.save(page)
}

func (d *PageDisplay) save(page *models.Page) {
	if d.OutputPath == "" || page == nil {
		return
	}
	if err := WriteDocument(d.OutputPath, page.Document); err != nil {
		slog.Error("failed to write annotated page", "path", d.OutputPath, "err", err)
		return
	}
	slog.Debug("wrote annotated page", "path", d.OutputPath)
}

// WriteDocument renders doc as HTML into path, replacing the file
func WriteDocument(path string, doc *goquery.Document) error {
	if doc == nil {
		return fmt.Errorf("no document to write")
	}
	contents, err := doc.Html()
	if err != nil {
		return fmt.Errorf("failed to render document: %w", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
