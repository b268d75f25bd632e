package resolver

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/models"
)

const (
	JobIDQueryParam      = "currentJobId"
	DetailsPanelSelector = ".jobs-search__job-details--wrapper"
	ApplyButtonSelector  = ".jobs-apply-button"
	JobIDAttr            = "data-job-id"
)

var (
	jobsViewRegex   = regexp.MustCompile(`^/jobs/view/(\d+)`)
	leadingDigitRun = regexp.MustCompile(`^(\d+)`)
)

// FromURL extracts the job ID from the query string or a /view/ path
func FromURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	if id := u.Query().Get(JobIDQueryParam); id != "" {
		return id
	}

	if m := jobsViewRegex.FindStringSubmatch(u.Path); len(m) == 2 {
		return m[1]
	}

	// handles /<anything>/view/12345-some-title/
	if i := strings.Index(u.Path, "/view/"); i != -1 {
		after := u.Path[i+len("/view/"):]
		if m := leadingDigitRun.FindStringSubmatch(after); len(m) == 2 {
			return m[1]
		}
	}

	return ""
}

// FromDocument finds the active job ID on the apply button of the details panel
func FromDocument(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}

	panel := doc.Find(DetailsPanelSelector).First()
	if panel.Length() == 0 {
		return ""
	}
	id, _ := panel.Find(ApplyButtonSelector).First().Attr(JobIDAttr)
	return strings.TrimSpace(id)
}

// Resolve returns the job ID currently displayed on the page, or "" when none is found
func Resolve(page *models.Page) string {
	if page == nil {
		return ""
	}
	if id := FromURL(page.Location); id != "" {
		return id
	}
	return FromDocument(page.Document)
}
