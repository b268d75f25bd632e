package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/client"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/models"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/session"
)

// HTTPPageSource loads a job page from the site using the session cookies
type HTTPPageSource struct {
	Client    *http.Client
	URL       string
	Cookies   session.CookieSource
	UserAgent string
}

// Snapshot fetches the page and parses it
func (s HTTPPageSource) Snapshot(ctx context.Context) (*models.Page, error) {
	ctx, span := tracer.Start(ctx, "HTTPPageSource.Snapshot")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range client.GetPageHeaders(s.UserAgent, "") {
		req.Header[key] = values
	}
	if s.Cookies != nil {
		cookies, err := s.Cookies.Cookies()
		if err != nil {
			return nil, err
		}
		if cookies != "" {
			req.Header.Set("Cookie", cookies)
		}
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := client.ReadResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	slog.DebugContext(ctx, "fetched job page", "url", s.URL, "bytes", len(body))

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	// redirects (e.g. /jobs/view/<id> -> /jobs/view/<id>-<slug>/) decide the location
	return &models.Page{
		Location:  resp.Request.URL,
		Document:  doc,
		FetchedAt: time.Now(),
	}, nil
}

// FilePageSource loads a saved job page from disk. URL is the address the page was saved from.
type FilePageSource struct {
	Path string
	URL  string
}

// Snapshot reads and parses the file
func (s FilePageSource) Snapshot(ctx context.Context) (*models.Page, error) {
	var location *url.URL
	if s.URL != "" {
		var err error
		location, err = url.Parse(s.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid page url %q: %w", s.URL, err)
		}
	}

	contents, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(contents))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return &models.Page{
		Location:  location,
		Document:  doc,
		FetchedAt: time.Now(),
	}, nil
}
