// Package pipeline ties job resolution, the applicant fetch and the presenter together
// for one page at a time.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/fr4nk3nst1ner/applicantsleuth/internal/models"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/presenter"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/resolver"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/watcher"
)

// CountFetcher looks up the exact applicant count for a job
type CountFetcher interface {
	FetchApplicantCount(ctx context.Context, jobID string) (int, bool)
}

// Display is told about every outcome the session produces
type Display interface {
	Render(page *models.Page, result models.ApplicantResult)
	Missing(page *models.Page, jobID string)
	Cleared(page *models.Page)
}

// Session remembers the last job it handled so repeated notifications for the same job are free.
// It is not safe for concurrent use; Run owns it while running.
type Session struct {
	fetcher CountFetcher
	display Display

	page          *models.Page
	lastProcessed string
}

func NewSession(fetcher CountFetcher, display Display) *Session {
	return &Session{fetcher: fetcher, display: display}
}

// SetPage replaces the document the session works on
func (s *Session) SetPage(page *models.Page) {
	s.page = page
}

func (s *Session) Page() *models.Page {
	return s.page
}

func (s *Session) LastProcessed() string {
	return s.lastProcessed
}

// ProcessJobPage updates the current page for jobID. An empty jobID means the page no longer shows a job.
func (s *Session) ProcessJobPage(ctx context.Context, jobID string) {
	if jobID == s.lastProcessed {
		return
	}

	doc := s.document()
	if jobID == "" {
		presenter.Cleanup(doc)
		s.lastProcessed = ""
		slog.DebugContext(ctx, "no job on page, cleared count")
		if s.display != nil {
			s.display.Cleared(s.page)
		}
		return
	}

	s.lastProcessed = jobID
	siteText := presenter.SiteText(doc)
	presenter.Cleanup(doc)

	count, ok := s.fetcher.FetchApplicantCount(ctx, jobID)
	if !ok {
		slog.InfoContext(ctx, "no applicant count available", "job_id", jobID)
		if s.display != nil {
			s.display.Missing(s.page, jobID)
		}
		return
	}

	result := models.ApplicantResult{
		JobID:      jobID,
		Applicants: count,
		SiteText:   siteText,
	}
	if s.page != nil && s.page.Location != nil {
		result.URL = s.page.Location.String()
	}
	if strategy, injected := presenter.Inject(doc, count); injected {
		result.Strategy = strategy
	}

	slog.InfoContext(ctx, "applicant count", "job_id", jobID, "applicants", count, "strategy", result.Strategy)
	if s.display != nil {
		s.display.Render(s.page, result)
	}
}

// Run handles the current page and then every change until ctx ends or changes closes
func (s *Session) Run(ctx context.Context, changes <-chan watcher.Change) error {
	s.ProcessJobPage(ctx, resolver.Resolve(s.page))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			s.SetPage(change.Page)
			s.ProcessJobPage(ctx, resolver.Resolve(s.page))
		}
	}
}

func (s *Session) document() *goquery.Document {
	if s.page == nil {
		return nil
	}
	return s.page.Document
}
