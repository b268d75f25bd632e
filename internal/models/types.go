package models

import (
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Page is one snapshot of a job page: where it was loaded from and its parsed document
type Page struct {
	Location  *url.URL
	Document  *goquery.Document
	FetchedAt time.Time
}

// ApplicantResult represents the exact applicant count shown for a job posting
type ApplicantResult struct {
	JobID      string `json:"job_id"`
	Applicants int    `json:"applicants"`
	SiteText   string `json:"site_text,omitempty"`
	Strategy   string `json:"strategy,omitempty"`
	URL        string `json:"url,omitempty"`
}

// BatchProgress represents the progress of a multi-job count run
type BatchProgress struct {
	Done   int `json:"done"`
	Failed int `json:"failed"`
}
