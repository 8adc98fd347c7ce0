// Package console plays the loading console: past navigation as shell history,
// then the current navigation typed out, or a thinking ellipsis, until canceled.
package console

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CursorGlyph is the visible cursor. A space stands in for it while blinked off.
const CursorGlyph = "█"

// PathBreak is typed with a cursor blink instead of a random delay.
const PathBreak = '\\'

// ErrAlreadyRunning is returned when Run is called twice on one engine.
var ErrAlreadyRunning = errors.New("console engine already running")

// Phase is the state of an animation session.
type Phase int

// Phases in the order a session moves through them.
const (
	Idle Phase = iota
	RenderingHistory
	Typing
	CursorSettle
	Blinking
	ThinkingDots
	Stopped
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case RenderingHistory:
		return "rendering-history"
	case Typing:
		return "typing"
	case CursorSettle:
		return "cursor-settle"
	case Blinking:
		return "blinking"
	case ThinkingDots:
		return "thinking-dots"
	default:
		return "stopped"
	}
}

// Timing holds the animation delays.
type Timing struct {
	Cursor time.Duration
	Write  time.Duration
	Jitter time.Duration
}

// DefaultTiming returns the delays of the site's console.
func DefaultTiming() Timing {
	return Timing{
		Cursor: 400 * time.Millisecond,
		Write:  50 * time.Millisecond,
		Jitter: 150 * time.Millisecond,
	}
}

// BannerFunc produces the first console line.
type BannerFunc func(ctx context.Context) string

// Options configures an Engine.
type Options struct {
	Timing Timing
	// Window limits the number of history lines; 0 shows all.
	Window int
	Banner BannerFunc
	Rand   *rand.Rand
	Log    *zap.Logger
}

// Engine runs one animation session on a Screen.
type Engine struct {
	screen Screen
	timing Timing
	window int
	banner BannerFunc
	rnd    *rand.Rand
	log    *zap.Logger

	mu      sync.Mutex
	phase   Phase
	started bool

	settled    chan struct{}
	settleOnce sync.Once

	dir      string
	text     string
	cursorOn bool
}

// New returns an engine drawing on screen.
func New(screen Screen, opts Options) *Engine {
	if opts.Timing == (Timing{}) {
		opts.Timing = DefaultTiming()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Engine{
		screen:  screen,
		timing:  opts.Timing,
		window:  opts.Window,
		banner:  opts.Banner,
		rnd:     opts.Rand,
		log:     opts.Log,
		settled: make(chan struct{}),
	}
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Settled is closed once the session reaches its terminal loop, or stops.
func (e *Engine) Settled() <-chan struct{} {
	return e.settled
}

// Run plays plan until ctx is canceled. It returns within one delay of the
// cancellation and holds nothing but screen content, so there is no cleanup.
func (e *Engine) Run(ctx context.Context, plan Plan) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	e.started = true
	e.mu.Unlock()

	defer func() {
		e.setPhase(Stopped)
		e.settle()
	}()

	e.setPhase(RenderingHistory)
	if e.banner != nil {
		e.screen.AppendLine(e.banner(ctx))
	}
	for _, line := range plan.HistoryLines(e.window) {
		e.screen.AppendLine(line)
	}

	dir, command := plan.Prompt()
	e.dir = dir
	e.render()
	e.log.Debug("console started",
		zap.String("class", plan.Class.String()),
		zap.String("branch", plan.Branch().String()),
		zap.Int("history", len(plan.History)))

	var err error
	if plan.Branch() == BranchTyping {
		err = e.typeCommand(ctx, command)
	} else {
		err = e.thinkingDots(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func (e *Engine) typeCommand(ctx context.Context, command string) error {
	e.setPhase(Typing)
	if err := e.blinkCursor(ctx, 3); err != nil {
		return err
	}
	for _, r := range command {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.text += string(r)
		e.cursorOn = true
		e.render()
		if r == PathBreak {
			if err := e.blinkCursor(ctx, 1); err != nil {
				return err
			}
			continue
		}
		if err := sleep(ctx, e.writeDelay()); err != nil {
			return err
		}
	}

	e.setPhase(CursorSettle)
	if err := e.blinkCursor(ctx, 3); err != nil {
		return err
	}

	e.setPhase(Blinking)
	e.settle()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.blinkCursor(ctx, 1); err != nil {
			return err
		}
	}
}

func (e *Engine) thinkingDots(ctx context.Context) error {
	e.setPhase(ThinkingDots)
	e.settle()
	for frame := 0; ; frame = (frame + 1) % 4 {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch frame {
		case 0:
			err = e.blinkCursor(ctx, 3)
		case 1, 2:
			err = sleep(ctx, e.writeDelay())
		case 3:
			err = e.blinkCursor(ctx, 4)
		}
		if err != nil {
			return err
		}
		e.text = dotsFrame(frame)
		e.cursorOn = true
		e.render()
	}
}

func dotsFrame(frame int) string {
	switch frame {
	case 0:
		return "."
	case 1:
		return ".."
	case 2:
		return "..."
	default:
		return ""
	}
}

func (e *Engine) blinkCursor(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := sleep(ctx, e.timing.Cursor); err != nil {
			return err
		}
		e.cursorOn = !e.cursorOn
		e.render()
	}
	return nil
}

func (e *Engine) render() {
	trail := " "
	if e.cursorOn {
		trail = CursorGlyph
	}
	e.screen.SetPrompt(e.dir, e.text+trail)
}

func (e *Engine) writeDelay() time.Duration {
	d := e.timing.Write
	if e.timing.Jitter > 0 {
		d += time.Duration(e.rnd.Int63n(int64(e.timing.Jitter)))
	}
	return d
}

func (e *Engine) setPhase(p Phase) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.phase = p
}

func (e *Engine) settle() {
	e.settleOnce.Do(func() { close(e.settled) })
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
