package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"github.com/fr4nk3nst1ner/applicantsleuth/internal/session"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/telemetry"
)

const (
	linkedinBaseURL = "https://www.linkedin.com"
	jobPostingsPath = "/voyager/api/jobs/jobPostings/"

	// DefaultDecorationID is the full decoration the web client requests for a job posting
	DefaultDecorationID = "com.linkedin.voyager.deco.jobs.web.shared.WebFullJobPosting-65&topN=1&topNRequestedFlavors=List(TOP_APPLICANT,IN_NETWORK,COMPANY_RECRUIT,SCHOOL_RECRUIT,HIDDEN_GEM,ACTIVELY_HIRING_COMPANY)"

	normalizedJSONAccept = "application/vnd.linkedin.normalized+json+2.1"
	applicantsPath       = "data.applies"

	defaultRequestsPerSecond = 2
)

var (
	tracer = otel.Tracer("applicantsleuth/scraper")
	meter  = otel.Meter("applicantsleuth/scraper")
)

// APIOptions configures where and how the applicant count is requested
type APIOptions struct {
	BaseURL      string
	DecorationID string
	Language     string
	// extra headers copied from a real browser request (x-li-track, user-agent, ...)
	Headers           map[string]string
	RequestsPerSecond float64
}

// ApplicantFetcher requests the exact applicant count for a job posting using the session cookies
type ApplicantFetcher struct {
	http    *resty.Client
	opts    APIOptions
	cookies session.CookieSource
	limiter *rate.Limiter
	fetches metric.Int64Counter
}

// NewApplicantFetcher wraps httpClient in a resty client aimed at the jobs API
func NewApplicantFetcher(httpClient *http.Client, cookies session.CookieSource, opts APIOptions) (*ApplicantFetcher, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = linkedinBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if opts.DecorationID == "" {
		opts.DecorationID = DefaultDecorationID
	}
	if opts.Language == "" {
		opts.Language = "en_US"
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRequestsPerSecond
	}

	fetches, err := meter.Int64Counter(
		"applicantsleuth.fetches",
		metric.WithDescription("applicant count requests by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch counter: %w", err)
	}

	client := resty.NewWithClient(httpClient)
	telemetry.InstrumentResty(client, "applicantsleuth/scraper/http")

	return &ApplicantFetcher{
		http:    client,
		opts:    opts,
		cookies: cookies,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		fetches: fetches,
	}, nil
}

// PostingURL returns the API url for a job posting. The decoration is appended verbatim since
// it carries its own query parameters.
func (f *ApplicantFetcher) PostingURL(jobID string) string {
	return fmt.Sprintf("%s%s%s?decorationId=%s", f.opts.BaseURL, jobPostingsPath, url.PathEscape(jobID), f.opts.DecorationID)
}

func (f *ApplicantFetcher) record(ctx context.Context, outcome string) {
	f.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// FetchApplicantCount returns the applicant count for jobID. Every failure is logged and
// reported as false; nothing is retried.
func (f *ApplicantFetcher) FetchApplicantCount(ctx context.Context, jobID string) (int, bool) {
	ctx, span := tracer.Start(ctx, "FetchApplicantCount")
	defer span.End()
	span.SetAttributes(attribute.String("job_id", jobID))

	cookies, token, ok := session.Token(f.cookies)
	if !ok {
		slog.ErrorContext(ctx, "failed to get CSRF token, cannot make API request", "job_id", jobID)
		span.SetStatus(codes.Error, "missing csrf token")
		f.record(ctx, "no_token")
		return 0, false
	}

	if err := f.limiter.Wait(ctx); err != nil {
		slog.ErrorContext(ctx, "gave up waiting to request applicant count", "job_id", jobID, "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "rate limiter wait failed")
		f.record(ctx, "transport")
		return 0, false
	}

	headers := map[string]string{}
	for k, v := range f.opts.Headers {
		headers[k] = v
	}
	headers["Accept"] = normalizedJSONAccept
	headers["csrf-token"] = token
	headers["x-restli-protocol-version"] = "2.0.0"
	headers["x-li-lang"] = f.opts.Language
	headers["Referer"] = fmt.Sprintf("%s/jobs/view/%s/", f.opts.BaseURL, url.PathEscape(jobID))
	headers["Cookie"] = cookies

	res, err := f.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(f.PostingURL(jobID))
	if err != nil {
		slog.ErrorContext(ctx, "network error fetching applicant count", "job_id", jobID, "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		f.record(ctx, "transport")
		return 0, false
	}

	body := res.Body()
	if !res.IsSuccess() {
		logErrorBody(ctx, jobID, res.StatusCode(), res.Status(), body)
		span.SetStatus(codes.Error, fmt.Sprintf("http status %d", res.StatusCode()))
		f.record(ctx, "http_error")
		return 0, false
	}

	if !gjson.ValidBytes(body) {
		slog.ErrorContext(ctx, "failed to parse applicant count response", "job_id", jobID, "body", truncate(string(body), 512))
		span.SetStatus(codes.Error, "invalid json")
		f.record(ctx, "shape")
		return 0, false
	}
	slog.DebugContext(ctx, "raw api response", "job_id", jobID, "body", truncate(string(body), 2048))

	applies := gjson.GetBytes(body, applicantsPath)
	if !applies.Exists() || applies.Type != gjson.Number || applies.Int() < 0 {
		slog.WarnContext(ctx, "applicant count field not found in api response",
			"job_id", jobID,
			"field", applicantsPath,
			"body", truncate(string(body), 512),
		)
		span.SetStatus(codes.Error, "unexpected response shape")
		f.record(ctx, "shape")
		return 0, false
	}

	count := int(applies.Int())
	span.SetAttributes(attribute.Int("applicants", count))
	f.record(ctx, "ok")
	return count, true
}

func logErrorBody(ctx context.Context, jobID string, code int, status string, body []byte) {
	if gjson.ValidBytes(body) && len(body) > 0 {
		slog.ErrorContext(ctx, "error fetching applicant count",
			"job_id", jobID,
			"status", code,
			"details", compactJSON(body),
		)
		return
	}
	slog.ErrorContext(ctx, "error fetching applicant count",
		"job_id", jobID,
		"status", code,
		"status_text", status,
		"body", truncate(string(body), 512),
	)
}

func compactJSON(body []byte) string {
	var out bytes.Buffer
	if err := json.Compact(&out, body); err != nil {
		return truncate(string(body), 512)
	}
	return truncate(out.String(), 2048)
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
