package watcher

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/fr4nk3nst1ner/applicantsleuth/internal/models"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/presenter"
)

const tick = 5 * time.Millisecond

func newPage(t *testing.T, rawURL, body string) *models.Page {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + body + "</body></html>"))
	require.NoError(t, err)
	loc, err := url.Parse(rawURL)
	require.NoError(t, err)
	return &models.Page{Location: loc, Document: doc, FetchedAt: time.Now()}
}

// scriptedSource returns its pages in order, then keeps repeating the last one
type scriptedSource struct {
	mu    sync.Mutex
	pages []*models.Page
	errs  []error
	calls int
}

func (s *scriptedSource) Snapshot(context.Context) (*models.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i >= len(s.pages) {
		i = len(s.pages) - 1
	}
	return s.pages[i], nil
}

func receive(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		require.True(t, ok, "change channel closed")
		return c
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change")
	}
	return Change{}
}

func requireQuiet(t *testing.T, ch <-chan Change) {
	t.Helper()
	select {
	case c := <-ch:
		t.Fatalf("unexpected change for %v", c.Page.Location)
	case <-time.After(20 * tick):
	}
}

const panel = `<div class="jobs-search__job-details--wrapper"><div data-job-id="%s">job</div></div>`

func TestTargetSelector(t *testing.T) {
	withPanel := newPage(t, "https://www.linkedin.com/jobs/", `<div class="jobs-search__job-details--wrapper"></div>`)
	require.Equal(t, ".jobs-search__job-details--wrapper", TargetSelector(withPanel.Document))

	plain := newPage(t, "https://www.linkedin.com/feed/", `<main>feed</main>`)
	require.Equal(t, BodySelector, TargetSelector(plain.Document))
	require.Equal(t, BodySelector, TargetSelector(nil))
}

func TestFingerprintIgnoresInjectedElements(t *testing.T) {
	before := newPage(t, "https://www.linkedin.com/jobs/view/1/",
		`<div class="jobs-search__job-details--wrapper"><div class="jobs-unified-top-card__job-insight"><span>Full-time</span></div></div>`)
	after := newPage(t, "https://www.linkedin.com/jobs/view/1/",
		`<div class="jobs-search__job-details--wrapper"><div class="jobs-unified-top-card__job-insight"><span>Full-time</span></div></div>`)

	strategy, ok := presenter.Inject(after.Document, 1234)
	require.True(t, ok)
	require.Equal(t, "insight", strategy)

	target := TargetSelector(before.Document)
	require.Equal(t, Fingerprint(before, target), Fingerprint(after, target))

	moved := newPage(t, "https://www.linkedin.com/jobs/view/2/",
		`<div class="jobs-search__job-details--wrapper"><div class="jobs-unified-top-card__job-insight"><span>Full-time</span></div></div>`)
	require.NotEqual(t, Fingerprint(before, target), Fingerprint(moved, target))
}

func TestFingerprintFallsBackToBody(t *testing.T) {
	a := newPage(t, "https://www.linkedin.com/jobs/", `<p>one</p>`)
	b := newPage(t, "https://www.linkedin.com/jobs/", `<p>two</p>`)
	require.NotEqual(t,
		Fingerprint(a, ".jobs-search__job-details--wrapper"),
		Fingerprint(b, ".jobs-search__job-details--wrapper"))
	require.Empty(t, Fingerprint(nil, BodySelector))
}

func TestWatcherEmitsOnChange(t *testing.T) {
	first := newPage(t, "https://www.linkedin.com/jobs/search/?currentJobId=1", strings.ReplaceAll(panel, "%s", "1"))
	second := newPage(t, "https://www.linkedin.com/jobs/search/?currentJobId=2", strings.ReplaceAll(panel, "%s", "2"))
	source := &scriptedSource{pages: []*models.Page{first, first, second}}

	w := New(source, tick)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := w.Setup(ctx, first)
	require.Equal(t, Watching, w.State())
	require.Equal(t, ".jobs-search__job-details--wrapper", w.Target())

	c := receive(t, changes)
	require.Equal(t, "2", c.Page.Location.Query().Get("currentJobId"))
	requireQuiet(t, changes)

	w.Stop()
	require.Equal(t, Idle, w.State())
	_, ok := <-changes
	require.False(t, ok)
}

func TestWatcherSkipsSourceErrors(t *testing.T) {
	first := newPage(t, "https://www.linkedin.com/jobs/view/1/", strings.ReplaceAll(panel, "%s", "1"))
	second := newPage(t, "https://www.linkedin.com/jobs/view/2/", strings.ReplaceAll(panel, "%s", "2"))
	source := &scriptedSource{
		pages: []*models.Page{first, first, second},
		errs:  []error{errors.New("connection reset"), errors.New("connection reset")},
	}

	w := New(source, tick)
	defer w.Stop()
	changes := w.Setup(context.Background(), first)

	c := receive(t, changes)
	require.Equal(t, "/jobs/view/2/", c.Page.Location.Path)
}

func TestSetupReplacesObserver(t *testing.T) {
	page := newPage(t, "https://www.linkedin.com/jobs/view/1/", strings.ReplaceAll(panel, "%s", "1"))
	source := &scriptedSource{pages: []*models.Page{page}}

	w := New(source, tick)
	old := w.Setup(context.Background(), page)
	current := w.Setup(context.Background(), page)

	_, ok := <-old
	require.False(t, ok, "first observer should be detached")
	require.Equal(t, Watching, w.State())

	w.Stop()
	w.Stop()
	_, ok = <-current
	require.False(t, ok)
	require.Equal(t, Idle, w.State())
}

func TestWatcherStopsWithContext(t *testing.T) {
	page := newPage(t, "https://www.linkedin.com/jobs/view/1/", "")
	w := New(&scriptedSource{pages: []*models.Page{page}}, tick)

	ctx, cancel := context.WithCancel(context.Background())
	changes := w.Setup(ctx, page)
	cancel()

	select {
	case _, ok := <-changes:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("observer did not stop")
	}
	require.Eventually(t, func() bool { return w.State() == Idle }, time.Second, tick)
	w.Stop()
	require.Equal(t, Idle, w.State())
}

func TestFingerprintRestoresNestedMarkup(t *testing.T) {
	const body = `<div class="jobs-search__job-details--wrapper"><div class="jobs-unified-top-card__job-insight">` +
		`<span class="jobs-unified-top-card__job-insight--multiple-applicants"><span class="tvm__text">Over 100</span> applicants</span>` +
		`</div></div>`
	before := newPage(t, "https://www.linkedin.com/jobs/view/1/", body)
	after := newPage(t, "https://www.linkedin.com/jobs/view/1/", body)

	strategy, ok := presenter.Inject(after.Document, 187)
	require.True(t, ok)
	require.Equal(t, "replace", strategy)

	target := TargetSelector(before.Document)
	require.Equal(t, Fingerprint(before, target), Fingerprint(after, target))
}

func TestDeliverKeepsNewest(t *testing.T) {
	ch := make(chan Change, 1)
	a := &models.Page{}
	b := &models.Page{}
	deliver(context.Background(), ch, Change{Page: a})
	deliver(context.Background(), ch, Change{Page: b})
	require.Same(t, b, (<-ch).Page)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "idle", Idle.String())
	require.Equal(t, "watching", Watching.String())
}
