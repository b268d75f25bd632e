// Package presenter writes the exact applicant count into a job page document.
//
// Everything it adds or rewrites is tagged with one of two marker classes, so
// Cleanup can always put the document back the way the host rendered it.
package presenter

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	MarkerClass   = "linkedin-exact-applicant-count"
	ReplacedClass = "linkedin-exact-applicant-count-replaced"
	OriginalAttr  = "data-applicantsleuth-original"

	InsightSelector        = ".jobs-unified-top-card__job-insight"
	ApplicantsTextSelector = ".jobs-unified-top-card__job-insight--multiple-applicants"
	JobTitleSelector       = ".job-details-jobs-unified-top-card__job-title"

	countColor = "#0073B1"
)

// anchors are the host elements a strategy may attach to, looked up once per injection
type anchors struct {
	insight        *goquery.Selection
	applicantsText *goquery.Selection
	title          *goquery.Selection
}

func findAnchors(doc *goquery.Document) anchors {
	insight := doc.Find(InsightSelector).First()
	return anchors{
		insight:        insight,
		applicantsText: insight.Find(ApplicantsTextSelector).First(),
		title:          doc.Find(JobTitleSelector).First(),
	}
}

// strategy is one way of showing the count, tried in order until one applies
type strategy struct {
	name    string
	applies func(a anchors) bool
	apply   func(a anchors, count int)
}

var strategies = []strategy{
	{
		name:    "replace",
		applies: func(a anchors) bool { return a.applicantsText.Length() > 0 },
		apply: func(a anchors, count int) {
			el := a.applicantsText
			if _, saved := el.Attr(OriginalAttr); !saved {
				contents, err := el.Html()
				if err != nil {
					contents = html.EscapeString(el.Text())
				}
				el.SetAttr(OriginalAttr, contents)
			}
			el.SetText(fmt.Sprintf("%d applicants", count))
			el.AddClass(ReplacedClass)
		},
	},
	{
		name:    "insight",
		applies: func(a anchors) bool { return a.insight.Length() > 0 },
		apply: func(a anchors, count int) {
			a.insight.AppendNodes(countNode(fmt.Sprintf(" (%d applicants)", count), "5px"))
		},
	},
	{
		name:    "title",
		applies: func(a anchors) bool { return a.title.Length() > 0 && a.title.Parent().Length() > 0 },
		apply: func(a anchors, count int) {
			a.title.Parent().AppendNodes(countNode(fmt.Sprintf("(%d applicants)", count), "10px"))
		},
	},
}

func countNode(text, marginLeft string) *html.Node {
	span := &html.Node{
		Type:     html.ElementNode,
		Data:     atom.Span.String(),
		DataAtom: atom.Span,
		Attr: []html.Attribute{
			{Key: "class", Val: MarkerClass},
			{Key: "style", Val: fmt.Sprintf("font-weight: bold; color: %s; margin-left: %s;", countColor, marginLeft)},
		},
	}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return span
}

// Cleanup removes every element injected by Inject and restores any host text it replaced.
// It returns the number of elements touched, so a second call returns 0.
func Cleanup(doc *goquery.Document) int {
	if doc == nil {
		return 0
	}

	injected := doc.Find("." + MarkerClass)
	touched := injected.Length()
	injected.Remove()

	return touched + Restore(doc.Selection)
}

// Restore puts back the host markup of every replaced element under sel and returns how many it restored
func Restore(sel *goquery.Selection) int {
	replaced := sel.Find("." + ReplacedClass).AddSelection(sel.Filter("." + ReplacedClass))
	replaced.Each(func(_ int, s *goquery.Selection) {
		if original, ok := s.Attr(OriginalAttr); ok {
			s.SetHtml(original)
			s.RemoveAttr(OriginalAttr)
		}
		s.RemoveClass(ReplacedClass)
	})
	return replaced.Length()
}

// Inject shows count on the page using the first strategy whose anchors exist.
// It returns the strategy name, or false when the page has nowhere to put it.
func Inject(doc *goquery.Document, count int) (string, bool) {
	if doc == nil {
		return "", false
	}
	Cleanup(doc)

	a := findAnchors(doc)
	for _, s := range strategies {
		if !s.applies(a) {
			continue
		}
		s.apply(a, count)
		slog.Debug("injected applicant count", "strategy", s.name, "applicants", count)
		return s.name, true
	}

	slog.Warn("could not find a suitable element to inject applicant count")
	return "", false
}

// Displayed returns the elements currently showing an injected count
func Displayed(doc *goquery.Document) *goquery.Selection {
	return doc.Find("." + MarkerClass + ", ." + ReplacedClass)
}

// SiteText returns the host's own applicant text ("Over 100 applicants"), if the page has one
func SiteText(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	el := findAnchors(doc).applicantsText
	if el.Length() == 0 {
		return ""
	}
	if original, ok := el.Attr(OriginalAttr); ok {
		frag, err := goquery.NewDocumentFromReader(strings.NewReader(original))
		if err != nil {
			return ""
		}
		return strings.TrimSpace(frag.Text())
	}
	return strings.TrimSpace(el.Text())
}
