// Package loader sequences a page load: classification, the loading console,
// fragment injection, preferences, and a single teardown.
package loader

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/shellfolio/internal/console"
	"github.com/verte-zerg/shellfolio/internal/model"
	"github.com/verte-zerg/shellfolio/internal/page"
	"github.com/verte-zerg/shellfolio/internal/prefs"
)

// Fragment names.
const (
	StateForm = "state-form"
	Header    = "header"
	Footer    = "footer"
)

// Defaults for the load timings.
const (
	DefaultMinVisible      = 2 * time.Second
	DefaultHold            = 5 * time.Second
	DefaultFragmentTimeout = 10 * time.Second
	DefaultSettleTimeout   = 10 * time.Second
)

// Fetcher retrieves fragment markup.
type Fetcher interface {
	Fetch(ctx context.Context, name string) (string, error)
	FetchPath(ctx context.Context, path string) (string, error)
}

// Tracker classifies the load and owns the navigation history.
type Tracker interface {
	ClassifyAndRecord(ctx context.Context, visit model.Visit) (model.Classification, error)
	AllEntries(ctx context.Context) (model.History, error)
}

// Preferences reads and applies user preferences.
type Preferences interface {
	Get(ctx context.Context, key model.PrefKey) string
	ApplyOverrides(ctx context.Context, query url.Values)
	ApplyToDocument(ctx context.Context, doc prefs.Document) model.Preferences
}

// Options configures a Loader.
type Options struct {
	Config model.LoadConfig
	Timing console.Timing
	Banner console.BannerFunc
	// Screen receives the console. Nil disables the animation.
	Screen console.Screen
	Rand   *rand.Rand
	Log    *zap.Logger
}

// Failure records a fragment that could not be loaded.
type Failure struct {
	Fragment string
	Err      error
}

// Result describes a finished load.
type Result struct {
	Class       model.Classification
	History     model.History
	Current     model.Entry
	Preferences model.Preferences
	Animated    bool
	Elapsed     time.Duration
	Failures    []Failure
}

// Loader runs page loads. A Loader keeps no state between runs.
type Loader struct {
	tracker Tracker
	prefs   Preferences
	fetcher Fetcher
	opts    Options
	log     *zap.Logger
}

// New returns a loader.
func New(tracker Tracker, preferences Preferences, fetcher Fetcher, opts Options) *Loader {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	cfg := &opts.Config
	if cfg.MinVisible <= 0 {
		cfg.MinVisible = DefaultMinVisible
	}
	if cfg.Hold <= 0 {
		cfg.Hold = DefaultHold
	}
	if cfg.FragmentTimeout <= 0 {
		cfg.FragmentTimeout = DefaultFragmentTimeout
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = DefaultSettleTimeout
	}
	return &Loader{tracker: tracker, prefs: preferences, fetcher: fetcher, opts: opts, log: opts.Log}
}

// run holds everything that belongs to a single load.
type run struct {
	start time.Time
	doc   *page.Document

	mu       sync.Mutex
	failures []Failure

	cancelAnim context.CancelFunc
	animDone   chan error
	settled    <-chan struct{}
	teardown   sync.Once
}

func (r *run) fail(fragment string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, Failure{Fragment: fragment, Err: err})
}

// Run loads doc for visit. Fragment failures degrade the page but never stop
// the sequence; the returned error is only set when ctx ends the load early.
func (l *Loader) Run(ctx context.Context, doc *page.Document, visit model.Visit) (Result, error) {
	r := &run{start: time.Now(), doc: doc}
	cfg := l.opts.Config

	class, err := l.tracker.ClassifyAndRecord(ctx, visit)
	if err != nil {
		l.log.Warn("failed to record navigation", zap.Error(err))
	}
	history, err := l.tracker.AllEntries(ctx)
	if err != nil {
		l.log.Warn("failed to read navigation history", zap.Error(err))
	}
	res := Result{Class: class, History: history, Current: history.Last()}

	if u, err := url.Parse(visit.URL); err == nil {
		l.prefs.ApplyOverrides(ctx, u.Query())
	}
	res.Animated = l.shouldAnimate(ctx, doc)

	doc.Prepare()
	if res.Animated {
		l.startAnimation(ctx, r, console.Plan{Class: class, History: history})
	}

	var g errgroup.Group
	g.Go(func() error {
		l.inject(ctx, r, StateForm, page.StateFormContainer)
		res.Preferences = l.prefs.ApplyToDocument(ctx, doc)
		return nil
	})
	g.Go(func() error {
		if l.inject(ctx, r, Header, page.HeaderContainer) {
			if err := doc.RenderBreadcrumb(res.Current, cfg.SiteName); err != nil {
				l.log.Warn("failed to render breadcrumb", zap.Error(err))
			}
		}
		return nil
	})
	g.Go(func() error {
		l.inject(ctx, r, Footer, page.FooterContainer)
		return nil
	})
	_ = g.Wait()
	l.injectSnippets(ctx, r)

	if res.Animated {
		l.awaitSettle(ctx, r)
		if elapsed := time.Since(r.start); elapsed < cfg.MinVisible {
			hold := cfg.Hold
			if hold < cfg.MinVisible {
				hold = cfg.MinVisible
			}
			l.log.Debug("holding load screen", zap.Duration("elapsed", elapsed), zap.Duration("until", hold))
			wait(ctx, hold-elapsed)
		}
	}
	l.teardown(r)

	res.Elapsed = time.Since(r.start)
	res.Failures = r.failures
	l.log.Info("page loaded",
		zap.String("entry", string(res.Current)),
		zap.String("class", res.Class.String()),
		zap.Bool("animated", res.Animated),
		zap.Int("failures", len(res.Failures)),
		zap.Duration("elapsed", res.Elapsed))
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("load interrupted: %w", err)
	}
	return res, nil
}

func (l *Loader) shouldAnimate(ctx context.Context, doc *page.Document) bool {
	if l.opts.Screen == nil {
		return false
	}
	if doc.IsPrintDocument() {
		return false
	}
	return l.prefs.Get(ctx, model.PrefAnimation) == model.AnimationAuto
}

func (l *Loader) startAnimation(ctx context.Context, r *run, plan console.Plan) {
	animCtx, cancel := context.WithCancel(ctx)
	engine := console.New(l.opts.Screen, console.Options{
		Timing: l.opts.Timing,
		Window: l.opts.Config.HistoryWindow,
		Banner: l.opts.Banner,
		Rand:   l.opts.Rand,
		Log:    l.log,
	})
	r.cancelAnim = cancel
	r.animDone = make(chan error, 1)
	go func() {
		r.animDone <- engine.Run(animCtx, plan)
	}()
	r.settled = engine.Settled()
}

func (l *Loader) awaitSettle(ctx context.Context, r *run) {
	timer := time.NewTimer(l.opts.Config.SettleTimeout)
	defer timer.Stop()
	select {
	case <-r.settled:
	case <-ctx.Done():
	case <-timer.C:
		l.log.Warn("console did not settle in time", zap.Duration("timeout", l.opts.Config.SettleTimeout))
	}
}

// inject fetches a fragment into its container and reports whether it was injected.
func (l *Loader) inject(ctx context.Context, r *run, name, selector string) bool {
	fetchCtx, cancel := context.WithTimeout(ctx, l.opts.Config.FragmentTimeout)
	defer cancel()

	markup, err := l.fetcher.Fetch(fetchCtx, name)
	if err != nil {
		l.log.Warn("failed to fetch fragment", zap.String("fragment", name), zap.Error(err))
		r.fail(name, err)
		return false
	}
	if err := r.doc.Inject(selector, markup); err != nil {
		l.log.Warn("failed to inject fragment", zap.String("fragment", name), zap.Error(err))
		r.fail(name, err)
		return false
	}
	return true
}

func (l *Loader) injectSnippets(ctx context.Context, r *run) {
	for _, snippet := range r.doc.Snippets() {
		fetchCtx, cancel := context.WithTimeout(ctx, l.opts.Config.FragmentTimeout)
		markup, err := l.fetcher.FetchPath(fetchCtx, snippet.Path)
		cancel()
		if err != nil {
			l.log.Warn("failed to fetch snippet", zap.String("path", snippet.Path), zap.Error(err))
			r.fail(snippet.Path, err)
			continue
		}
		if err := r.doc.InjectSnippet(snippet, markup); err != nil {
			l.log.Warn("failed to inject snippet", zap.String("path", snippet.Path), zap.Error(err))
			r.fail(snippet.Path, err)
		}
	}
}

// teardown stops the console and removes the overlay, once.
func (l *Loader) teardown(r *run) {
	r.teardown.Do(func() {
		if r.cancelAnim != nil {
			r.cancelAnim()
			if err := <-r.animDone; err != nil {
				l.log.Warn("console stopped with error", zap.Error(err))
			}
		}
		if err := r.doc.RemoveOverlay(); err != nil {
			l.log.Warn("failed to remove load screen", zap.Error(err))
		}
	})
}

func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
