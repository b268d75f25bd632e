package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/fr4nk3nst1ner/applicantsleuth/internal/resolver"
)

const jobViewURL = "https://www.linkedin.com/jobs/view/%s/"

var (
	digitsOnly     = regexp.MustCompile(`^\d+$`)
	applicantCount = regexp.MustCompile(`(\d[\d,]*)\s+applicants?`)
)

// ParseApplicantText pulls the number out of the host's own applicant text,
// e.g. "Over 100 applicants" or "Be among the first 25 applicants".
// The host rounds, so the result is only a bound on the exact count.
func ParseApplicantText(text string) (int, bool) {
	m := applicantCount.FindStringSubmatch(strings.ToLower(text))
	if len(m) != 2 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

// JobIDFromArg accepts either a bare job id or any job URL the resolver understands
func JobIDFromArg(arg string) string {
	arg = strings.TrimSpace(arg)
	if digitsOnly.MatchString(arg) {
		return arg
	}
	u, err := url.Parse(arg)
	if err != nil {
		return ""
	}
	return resolver.FromURL(u)
}

// JobViewURL returns the canonical posting URL for a job id
func JobViewURL(jobID string) string {
	return fmt.Sprintf(jobViewURL, jobID)
}
