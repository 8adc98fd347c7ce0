package console

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/verte-zerg/shellfolio/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fastOptions() Options {
	return Options{
		Timing: Timing{Cursor: time.Millisecond, Write: time.Millisecond, Jitter: time.Millisecond},
		Rand:   rand.New(rand.NewSource(1)),
		Banner: func(context.Context) string { return "Portfolio [Version 0.4] | test" },
	}
}

type recordingScreen struct {
	*Buffer
	mu      sync.Mutex
	prompts []string
}

func newRecordingScreen() *recordingScreen {
	return &recordingScreen{Buffer: NewBuffer()}
}

func (r *recordingScreen) SetPrompt(dir, input string) {
	r.mu.Lock()
	r.prompts = append(r.prompts, input)
	r.mu.Unlock()
	r.Buffer.SetPrompt(dir, input)
}

func (r *recordingScreen) inputs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.prompts...)
}

type session struct {
	engine *Engine
	cancel context.CancelFunc
	done   chan error
}

func start(t *testing.T, screen Screen, opts Options, plan Plan) *session {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	e := New(screen, opts)
	s := &session{engine: e, cancel: cancel, done: make(chan error, 1)}
	go func() { s.done <- e.Run(ctx, plan) }()
	t.Cleanup(func() {
		cancel()
		<-s.done
	})
	return s
}

func (s *session) waitSettled(t *testing.T) {
	t.Helper()
	select {
	case <-s.engine.Settled():
	case <-time.After(5 * time.Second):
		t.Fatalf("engine did not settle, phase %s", s.engine.Phase())
	}
}

func (s *session) stop(t *testing.T) {
	t.Helper()
	s.cancel()
	select {
	case err := <-s.done:
		require.NoError(t, err)
		s.done <- nil
	case <-time.After(time.Second):
		t.Fatalf("engine did not stop after cancel")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestTypingBranch(t *testing.T) {
	screen := newRecordingScreen()
	plan := Plan{Class: model.InternalNavigation, History: model.History{model.Root, "projects", `projects\alpha\beta`}}
	s := start(t, screen, fastOptions(), plan)
	s.waitSettled(t)
	assert.Equal(t, Blinking, s.engine.Phase())

	snap := screen.Snapshot()
	assert.Equal(t, []string{"Portfolio [Version 0.4] | test", `C:\>cd projects`}, snap.Lines)
	prompt := strings.TrimSuffix(strings.TrimSuffix(snap.Prompt, CursorGlyph), " ")
	assert.Equal(t, `C:\projects>cd alpha\beta`, prompt)

	s.stop(t)
	assert.Equal(t, Stopped, s.engine.Phase())

	for _, input := range screen.inputs() {
		trail := strings.HasSuffix(input, CursorGlyph) || strings.HasSuffix(input, " ")
		assert.True(t, trail, "input %q lacks trailing cursor", input)
		assert.LessOrEqual(t, strings.Count(input, CursorGlyph), 1, "input %q", input)
	}
}

func TestExternalSingleEntryThinks(t *testing.T) {
	screen := newRecordingScreen()
	plan := Plan{Class: model.ExternalEntry, History: model.History{"contact"}}
	assert.Equal(t, BranchDots, plan.Branch())

	s := start(t, screen, fastOptions(), plan)
	s.waitSettled(t)
	assert.Equal(t, ThinkingDots, s.engine.Phase())

	waitFor(t, func() bool {
		for _, input := range screen.inputs() {
			if strings.HasPrefix(input, "...") {
				return true
			}
		}
		return false
	})
	s.stop(t)

	for _, input := range screen.inputs() {
		assert.NotContains(t, input, "cd")
	}
	assert.Equal(t, []string{"Portfolio [Version 0.4] | test"}, screen.Snapshot().Lines)
	assert.True(t, strings.HasPrefix(screen.Snapshot().Prompt, `C:\contact>`))
}

func TestReloadSingleEntryRendersNoHistory(t *testing.T) {
	plan := Plan{Class: model.Reload, History: model.History{model.Root}}
	assert.Empty(t, plan.HistoryLines(0))

	opts := fastOptions()
	opts.Banner = nil
	screen := NewBuffer()
	s := start(t, screen, opts, plan)
	s.waitSettled(t)
	assert.Equal(t, ThinkingDots, s.engine.Phase())
	assert.Empty(t, screen.Snapshot().Lines)
	s.stop(t)
}

func TestHistoryLines(t *testing.T) {
	history := model.History{model.Root, "projects", `projects\alpha`, "contact"}

	reload := Plan{Class: model.Reload, History: history}
	assert.Equal(t, []string{
		`C:\>cd projects`,
		`C:\projects>cd alpha`,
		`C:\projects\alpha>cd \contact`,
	}, reload.HistoryLines(0))
	assert.Equal(t, []string{`C:\projects\alpha>cd \contact`}, reload.HistoryLines(1))

	internal := Plan{Class: model.InternalNavigation, History: history}
	assert.Equal(t, []string{`C:\>cd projects`, `C:\projects>cd alpha`}, internal.HistoryLines(0))
	dir, command := internal.Prompt()
	assert.Equal(t, `C:\projects\alpha`, dir)
	assert.Equal(t, `cd \contact`, command)
}

func TestBranchSelection(t *testing.T) {
	assert.Equal(t, BranchTyping, Plan{Class: model.InternalNavigation, History: model.History{"a", "b"}}.Branch())
	assert.Equal(t, BranchDots, Plan{Class: model.InternalNavigation, History: model.History{"a"}}.Branch())
	assert.Equal(t, BranchDots, Plan{Class: model.Reload, History: model.History{"a", "b"}}.Branch())
	assert.Equal(t, BranchDots, Plan{Class: model.ExternalEntry, History: model.History{"a"}}.Branch())
}

func TestCancelBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := New(NewBuffer(), fastOptions())
	require.NoError(t, e.Run(ctx, Plan{Class: model.InternalNavigation, History: model.History{"a", "b"}}))
	select {
	case <-e.Settled():
	default:
		t.Fatalf("expected settled after stop")
	}
	assert.Equal(t, Stopped, e.Phase())
	assert.ErrorIs(t, e.Run(ctx, Plan{}), ErrAlreadyRunning)
}

func TestCancelObservedWithinOneDelay(t *testing.T) {
	opts := fastOptions()
	opts.Timing = Timing{Cursor: 200 * time.Millisecond, Write: 200 * time.Millisecond}
	s := start(t, NewBuffer(), opts, Plan{Class: model.ExternalEntry, History: model.History{"a"}})
	s.waitSettled(t)

	began := time.Now()
	s.stop(t)
	assert.Less(t, time.Since(began), 400*time.Millisecond)
}

func TestBufferSnapshotAll(t *testing.T) {
	b := NewBuffer()
	b.AppendLine("one")
	assert.Equal(t, []string{"one"}, b.Snapshot().All())
	b.SetPrompt(`C:\`, "cd a"+CursorGlyph)
	assert.Equal(t, []string{"one", `C:\>cd a` + CursorGlyph}, b.Snapshot().All())
}
