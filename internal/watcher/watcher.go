// Package watcher notices client-side navigation by polling a page source and
// comparing each snapshot's fingerprint with the last one seen.
package watcher

import (
	"context"
	"hash/fnv"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/fr4nk3nst1ner/applicantsleuth/internal/models"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/presenter"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/resolver"
)

const (
	BodySelector    = "body"
	DefaultInterval = 5 * time.Second
)

// State is whether an observer is attached
type State int

const (
	Idle State = iota
	Watching
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Watching:
		return "watching"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// Source produces the current snapshot of the watched page
type Source interface {
	Snapshot(ctx context.Context) (*models.Page, error)
}

// Change signals that the page looks different from the previous snapshot
type Change struct {
	Page *models.Page
}

type observer struct {
	cancel  context.CancelFunc
	done    chan struct{}
	changes chan Change
}

// Watcher owns at most one polling observer at a time
type Watcher struct {
	source   Source
	interval time.Duration

	mu     sync.Mutex
	active *observer
	target string
}

func New(source Source, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{source: source, interval: interval}
}

// TargetSelector picks the most specific known content wrapper present on the page, else body
func TargetSelector(doc *goquery.Document) string {
	if doc != nil && doc.Find(resolver.DetailsPanelSelector).Length() > 0 {
		return resolver.DetailsPanelSelector
	}
	return BodySelector
}

// Fingerprint summarises the watched part of a page. Elements the presenter injected don't count.
func Fingerprint(page *models.Page, selector string) string {
	if page == nil {
		return ""
	}
	h := fnv.New64a()
	if page.Location != nil {
		h.Write([]byte(page.Location.String()))
	}
	h.Write([]byte{0})

	if page.Document != nil {
		sel := page.Document.Find(selector).First()
		if sel.Length() == 0 {
			sel = page.Document.Find(BodySelector).First()
		}
		clone := sel.Clone()
		clone.Find("." + presenter.MarkerClass).Remove()
		presenter.Restore(clone)
		contents, err := goquery.OuterHtml(clone)
		if err == nil {
			h.Write([]byte(contents))
		}
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// Setup attaches an observer for page, detaching any existing one first.
// The returned channel closes when the observer is detached or ctx ends.
func (w *Watcher) Setup(ctx context.Context, page *models.Page) <-chan Change {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.detachLocked()

	target := BodySelector
	if page != nil {
		target = TargetSelector(page.Document)
	}
	w.target = target
	last := Fingerprint(page, target)

	ctx, cancel := context.WithCancel(ctx)
	obs := &observer{
		cancel:  cancel,
		done:    make(chan struct{}),
		changes: make(chan Change, 1),
	}
	w.active = obs
	go w.poll(ctx, obs, target, last)

	slog.Debug("watcher set up", "target", target, "interval", w.interval)
	return obs.changes
}

// Stop detaches the active observer, if any
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.detachLocked()
}

func (w *Watcher) detachLocked() {
	if w.active == nil {
		return
	}
	w.active.cancel()
	<-w.active.done
	w.active = nil
}

// State reports whether an observer is attached and still polling.
// An observer whose context ended is detached here.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active == nil {
		return Idle
	}
	select {
	case <-w.active.done:
		w.active = nil
		return Idle
	default:
		return Watching
	}
}

// Target returns the selector chosen by the last Setup
func (w *Watcher) Target() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.target
}

func (w *Watcher) poll(ctx context.Context, obs *observer, target, last string) {
	defer close(obs.done)
	defer close(obs.changes)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		page, err := w.source.Snapshot(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("failed to snapshot watched page", "err", err)
			continue
		}

		fingerprint := Fingerprint(page, target)
		if fingerprint == last {
			continue
		}
		last = fingerprint
		deliver(ctx, obs.changes, Change{Page: page})
	}
}

// deliver hands c to the consumer, replacing an older change it hasn't picked up yet
func deliver(ctx context.Context, ch chan Change, c Change) {
	select {
	case ch <- c:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- c:
	case <-ctx.Done():
	}
}
