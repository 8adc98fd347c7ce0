package loader

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/verte-zerg/shellfolio/internal/console"
	"github.com/verte-zerg/shellfolio/internal/model"
	"github.com/verte-zerg/shellfolio/internal/navigation"
	"github.com/verte-zerg/shellfolio/internal/page"
	"github.com/verte-zerg/shellfolio/internal/prefs"
	"github.com/verte-zerg/shellfolio/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const shell = `<!DOCTYPE html><html><head></head><body><main><h1>Projects</h1><div data-path="/snippets/intro.html"></div></main></body></html>`

const stateFormMarkup = `<form>
<input type="radio" name="language" id="en"><input type="radio" name="language" id="pt">
<input type="radio" name="theme" id="light"><input type="radio" name="theme" id="device"><input type="radio" name="theme" id="dark">
<input type="radio" name="animation" id="auto"><input type="radio" name="animation" id="none">
</form>`

type fakeFetcher struct {
	mu      sync.Mutex
	bodies  map[string]string
	delays  map[string]time.Duration
	fail    map[string]bool
	block   map[string]bool
	fetched []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		bodies: map[string]string{
			StateForm:              stateFormMarkup,
			Header:                 `<nav><span id="page-path"></span></nav>`,
			Footer:                 `<p>footer</p>`,
			"/snippets/intro.html": `<p>intro</p>`,
		},
		delays: map[string]time.Duration{},
		fail:   map[string]bool{},
		block:  map[string]bool{},
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, name string) (string, error) {
	return f.FetchPath(ctx, name)
}

func (f *fakeFetcher) FetchPath(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, name)
	delay, block, fail, body := f.delays[name], f.block[name], f.fail[name], f.bodies[name]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if fail {
		return "", errors.New("connection refused")
	}
	return body, nil
}

type fixture struct {
	store   *store.Store
	tracker *navigation.Tracker
	prefs   *prefs.Store
	fetcher *fakeFetcher
	screen  *console.Buffer
	logs    *observer.ObservedLogs
	log     *zap.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "loader.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	return &fixture{
		store:   st,
		tracker: navigation.NewTracker(st, "tab", navigation.Options{Origin: "https://example.com"}, log),
		prefs:   prefs.New(st, log),
		fetcher: newFakeFetcher(),
		screen:  console.NewBuffer(),
		logs:    logs,
		log:     log,
	}
}

func (f *fixture) loader(cfg model.LoadConfig) *Loader {
	if cfg.MinVisible == 0 {
		cfg.MinVisible = 20 * time.Millisecond
	}
	if cfg.Hold == 0 {
		cfg.Hold = 40 * time.Millisecond
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "saleca"
	}
	return New(f.tracker, f.prefs, f.fetcher, Options{
		Config: cfg,
		Timing: console.Timing{Cursor: time.Millisecond, Write: time.Millisecond, Jitter: time.Millisecond},
		Screen: f.screen,
		Rand:   rand.New(rand.NewSource(7)),
		Log:    f.log,
	})
}

func parse(t *testing.T) *page.Document {
	t.Helper()
	doc, err := page.Parse(shell)
	require.NoError(t, err)
	return doc
}

func visit(path, timing, referrer string) model.Visit {
	return model.Visit{URL: "https://example.com" + path, TimingType: timing, Referrer: referrer}
}

func TestRunInternalNavigation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.AppendHistory(ctx, "tab", `\`))

	doc := parse(t)
	res, err := f.loader(model.LoadConfig{}).Run(ctx, doc, visit("/projects/alpha", "navigate", "https://example.com/"))
	require.NoError(t, err)

	assert.Equal(t, model.InternalNavigation, res.Class)
	assert.Equal(t, model.History{model.Root, `projects\alpha`}, res.History)
	assert.True(t, res.Animated)
	assert.Empty(t, res.Failures)
	assert.GreaterOrEqual(t, res.Elapsed, 20*time.Millisecond)

	assert.False(t, doc.HasOverlay())
	assert.Equal(t, `saleca:\projects\alpha>`, doc.Text(page.BreadcrumbContainer))
	assert.Equal(t, "footer", doc.Text(page.FooterContainer))
	assert.Equal(t, []string{"en", "device", "auto"}, doc.Checked())
	main, err := doc.Section("main")
	require.NoError(t, err)
	assert.Contains(t, main, "<p>intro</p>")

	snap := f.screen.Snapshot()
	assert.True(t, strings.HasPrefix(snap.Prompt, `C:\>cd projects\alpha`), snap.Prompt)
}

func TestRunStateFormFailureStillTearsDown(t *testing.T) {
	f := newFixture(t)
	f.fetcher.fail[StateForm] = true
	doc := parse(t)

	res, err := f.loader(model.LoadConfig{}).Run(context.Background(), doc, visit("/", "navigate", ""))
	require.NoError(t, err)

	assert.Equal(t, model.ExternalEntry, res.Class)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, StateForm, res.Failures[0].Fragment)
	assert.Equal(t, "en", doc.Lang())
	assert.Equal(t, model.LangEnglish, res.Preferences.Language)
	assert.Equal(t, 3, f.logs.FilterMessage("failed to check preference control").Len())
	assert.False(t, doc.HasOverlay())
	assert.Less(t, res.Elapsed, 2*time.Second)
}

func TestRunAppliesPreferencesAfterSlowStateForm(t *testing.T) {
	f := newFixture(t)
	f.fetcher.delays[StateForm] = 30 * time.Millisecond
	require.NoError(t, f.prefs.Set(context.Background(), model.PrefTheme, model.ThemeDark))
	doc := parse(t)

	_, err := f.loader(model.LoadConfig{}).Run(context.Background(), doc, visit("/", "navigate", ""))
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "dark", "auto"}, doc.Checked())
	assert.Zero(t, f.logs.FilterMessage("failed to check preference control").Len())
}

func TestRunFragmentTimeout(t *testing.T) {
	f := newFixture(t)
	f.fetcher.block[Header] = true
	doc := parse(t)

	res, err := f.loader(model.LoadConfig{FragmentTimeout: 30 * time.Millisecond}).
		Run(context.Background(), doc, visit("/contact", "reload", ""))
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, Header, res.Failures[0].Fragment)
	assert.True(t, errors.Is(res.Failures[0].Err, context.DeadlineExceeded))
	assert.False(t, doc.HasOverlay())
	assert.Equal(t, 1, f.logs.FilterMessage("failed to fetch fragment").Len())
}

func TestRunAnimationDisabledByQuery(t *testing.T) {
	f := newFixture(t)
	doc := parse(t)

	res, err := f.loader(model.LoadConfig{MinVisible: time.Second, Hold: time.Second}).
		Run(context.Background(), doc, visit("/?anim=none", "navigate", ""))
	require.NoError(t, err)
	assert.False(t, res.Animated)
	assert.Less(t, res.Elapsed, time.Second)
	assert.Empty(t, f.screen.Snapshot().All())
	assert.Equal(t, model.AnimationNone, f.prefs.Get(context.Background(), model.PrefAnimation))
	assert.Equal(t, []string{"en", "device", "none"}, doc.Checked())
}

func TestRunPrintDocumentNeverAnimates(t *testing.T) {
	f := newFixture(t)
	doc, err := page.Parse(`<html><head><meta name="document" content="true"></head><body><main></main></body></html>`)
	require.NoError(t, err)

	res, err := f.loader(model.LoadConfig{}).Run(context.Background(), doc, visit("/cv", "navigate", ""))
	require.NoError(t, err)
	assert.False(t, res.Animated)
	assert.False(t, doc.HasOverlay())
}

func TestRunCanceledContext(t *testing.T) {
	f := newFixture(t)
	f.fetcher.block[Footer] = true
	doc := parse(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := f.loader(model.LoadConfig{FragmentTimeout: time.Minute}).Run(ctx, doc, visit("/", "navigate", ""))
	require.Error(t, err)
	assert.False(t, doc.HasOverlay())
}

func TestRunsDoNotShareState(t *testing.T) {
	f := newFixture(t)
	l := f.loader(model.LoadConfig{})

	first := parse(t)
	_, err := l.Run(context.Background(), first, visit("/", "navigate", ""))
	require.NoError(t, err)

	f.fetcher.fail[Footer] = true
	second := parse(t)
	res, err := l.Run(context.Background(), second, visit("/projects", "navigate", "https://example.com/"))
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, model.History{model.Root, "projects"}, res.History)
	assert.False(t, second.HasOverlay())
}

func TestRunHoldsFastLoadUntilHold(t *testing.T) {
	f := newFixture(t)
	doc := parse(t)

	res, err := f.loader(model.LoadConfig{MinVisible: 200 * time.Millisecond, Hold: 300 * time.Millisecond}).
		Run(context.Background(), doc, visit("/", "navigate", ""))
	require.NoError(t, err)
	assert.True(t, res.Animated)
	assert.GreaterOrEqual(t, res.Elapsed, 300*time.Millisecond)
	assert.Equal(t, 1, f.logs.FilterMessage("holding load screen").Len())
}

func TestRunSnippetsFillTheirOwnPlaceholders(t *testing.T) {
	f := newFixture(t)
	f.fetcher.bodies["/a.html"] = `<section><div data-path="/nested.html"></div></section>`
	f.fetcher.bodies["/b.html"] = `<p>bee</p>`
	doc, err := page.Parse(`<html><body><main><div id="one" data-path="/a.html"></div><div id="two" data-path="/b.html"></div></main></body></html>`)
	require.NoError(t, err)

	res, err := f.loader(model.LoadConfig{}).Run(context.Background(), doc, visit("/", "navigate", ""))
	require.NoError(t, err)
	assert.Empty(t, res.Failures)
	assert.Equal(t, "bee", doc.Text("#two"))
	assert.NotContains(t, doc.Text("#one"), "bee")

	f.fetcher.mu.Lock()
	defer f.fetcher.mu.Unlock()
	assert.NotContains(t, f.fetcher.fetched, "/nested.html")
}
