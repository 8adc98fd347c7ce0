// Package tui provides the Bubble Tea load screen.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/shellfolio/internal/console"
	"github.com/verte-zerg/shellfolio/internal/model"
	"github.com/verte-zerg/shellfolio/internal/page"
	"github.com/verte-zerg/shellfolio/internal/reveal"
)

const frameInterval = 30 * time.Millisecond

type phase int

const (
	phaseLoading phase = iota
	phaseFading
	phasePage
)

// Status summarizes a finished load for the footer.
type Status struct {
	Entry    model.Entry
	SiteName string
	Class    model.Classification
	Failures int
	Elapsed  time.Duration
}

// Loaded is the outcome of the load function.
type Loaded struct {
	Status   Status
	Theme    string
	Markdown string
	Err      error
}

// LoadFunc runs the page load. It must return once ctx is canceled.
type LoadFunc func(ctx context.Context) Loaded

// RenderFunc renders page Markdown for the given theme and width.
type RenderFunc func(md, theme string, width int) (string, error)

// Options configures the load screen.
type Options struct {
	Screen *console.Buffer
	Theme  string
	Load   LoadFunc
	Render RenderFunc
	Log    *zap.Logger
}

type frameMsg time.Time

type loadedMsg Loaded

type keyMap struct {
	Quit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

// Model implements the Bubble Tea load screen: the console while the page
// loads, a short fade, then the page itself.
type Model struct {
	screen *console.Buffer
	load   LoadFunc
	render RenderFunc
	log    *zap.Logger
	keys   keyMap

	ctx      context.Context
	cancel   context.CancelFunc
	loadDone chan struct{}

	theme  string
	styles styles
	phase  phase
	fade   int
	snap   console.Snapshot

	width  int
	height int

	viewport viewport.Model
	loaded   Loaded
	done     bool
	errMsg   string
}

// NewModel constructs a load screen model.
func NewModel(opts Options) *Model {
	if opts.Render == nil {
		opts.Render = reveal.Render
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Screen == nil {
		opts.Screen = console.NewBuffer()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		screen:   opts.Screen,
		load:     opts.Load,
		render:   opts.Render,
		log:      opts.Log,
		keys:     defaultKeyMap(),
		ctx:      ctx,
		cancel:   cancel,
		viewport: viewport.New(0, 0),
	}
	m.setTheme(opts.Theme)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{frame()}
	if m.load != nil && m.loadDone == nil {
		cmds = append(cmds, m.startLoad())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.cancel()
			return m, tea.Quit
		}
		if m.phase == phasePage {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil
	case loadedMsg:
		m.finish(Loaded(msg))
		return m, nil
	case frameMsg:
		return m, m.step()
	default:
		if m.phase == phasePage {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return strings.Join(m.consoleLines(0), "\n")
	}
	bodyHeight := m.height - 1
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	var body string
	if m.phase == phasePage {
		body = fitLines(m.viewport.View(), m.width, bodyHeight)
	} else {
		lines := m.consoleLines(m.width)
		if len(lines) > bodyHeight {
			lines = lines[len(lines)-bodyHeight:]
		}
		body = fitLines(strings.Join(lines, "\n"), m.width, bodyHeight)
	}
	footer := lipgloss.Place(m.width, 1, lipgloss.Left, lipgloss.Center, m.renderFooter())
	return body + "\n" + footer
}

// Result returns the load outcome once it is known.
func (m *Model) Result() (Loaded, bool) {
	return m.loaded, m.done
}

// Close cancels a load still in flight and waits for it to return.
func (m *Model) Close() {
	m.cancel()
	if m.loadDone != nil {
		<-m.loadDone
	}
}

// startLoad runs the load on its own goroutine. Close waits for that goroutine
// whether or not the program ever delivers the result.
func (m *Model) startLoad() tea.Cmd {
	result := make(chan Loaded, 1)
	done := make(chan struct{})
	m.loadDone = done
	load, ctx := m.load, m.ctx
	go func() {
		defer close(done)
		result <- load(ctx)
	}()
	return func() tea.Msg {
		return loadedMsg(<-result)
	}
}

func frame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// step advances one frame: the console is polled while loading and the fade
// moves on once the load is done.
func (m *Model) step() tea.Cmd {
	switch m.phase {
	case phaseLoading:
		m.snap = m.screen.Snapshot()
		return frame()
	case phaseFading:
		m.fade++
		if m.fade >= len(m.styles.fade) {
			m.phase = phasePage
			m.refreshContent()
			return nil
		}
		return frame()
	default:
		return nil
	}
}

func (m *Model) finish(res Loaded) {
	m.loaded = res
	m.done = true
	if res.Theme != "" && res.Theme != m.theme {
		m.setTheme(res.Theme)
	}
	if res.Err != nil {
		m.errMsg = res.Err.Error()
	}
	m.snap = m.screen.Snapshot()
	m.phase = phaseFading
	m.fade = 0
}

func (m *Model) setTheme(theme string) {
	if theme == "" {
		theme = model.ThemeDevice
	}
	m.theme = theme
	m.styles = newStyles(paletteFor(theme))
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.viewport.Width = m.width
	m.viewport.Height = maxInt(1, m.height-1)
	if m.phase == phasePage {
		m.refreshContent()
	}
}

func (m *Model) refreshContent() {
	if m.loaded.Markdown == "" {
		m.viewport.SetContent("")
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	out, err := m.render(m.loaded.Markdown, m.theme, width)
	if err != nil {
		m.log.Warn("failed to render page", zap.Error(err))
		m.errMsg = err.Error()
		m.viewport.SetContent(m.loaded.Markdown)
		return
	}
	m.viewport.SetContent(out)
}

func (m *Model) consoleLines(width int) []string {
	var lines []string
	if m.phase == phaseFading {
		style := m.styles.fade[minInt(m.fade, len(m.styles.fade)-1)]
		for _, line := range m.snap.All() {
			lines = append(lines, wrapStyledRunes(styleRunes(line, style), width)...)
		}
		return lines
	}
	for _, line := range m.snap.Lines {
		lines = append(lines, wrapStyledRunes(styleRunes(line, m.styles.history), width)...)
	}
	if m.snap.HasPrompt {
		lines = append(lines, wrapStyledRunes(buildPromptRunes(m.snap.Prompt, m.styles), width)...)
	}
	return lines
}

func (m *Model) renderFooter() string {
	help := m.keys.Quit.Help()
	quit := fmt.Sprintf("%s %s", help.Key, help.Desc)
	if m.phase != phasePage {
		return m.styles.footer.Render("loading  " + quit)
	}
	st := m.loaded.Status
	segments := []string{
		page.BreadcrumbText(st.Entry, st.SiteName),
		st.Class.String(),
		fmt.Sprintf("%dms", st.Elapsed.Milliseconds()),
	}
	if st.Failures > 0 {
		segments = append(segments, fmt.Sprintf("%d failed", st.Failures))
	}
	segments = append(segments, fmt.Sprintf("%d%%", int(m.viewport.ScrollPercent()*100)), quit)
	footer := m.styles.footer.Render(strings.Join(segments, "  "))
	if m.errMsg != "" {
		footer += "  " + m.styles.alert.Render(m.errMsg)
	}
	return footer
}
