package console

import (
	"sync"

	"github.com/verte-zerg/shellfolio/internal/pathfmt"
)

// Screen receives the console output. The engine only ever appends finished
// lines and rewrites the single prompt line at the bottom.
type Screen interface {
	AppendLine(text string)
	SetPrompt(dir, input string)
}

// Snapshot is a copy of a Buffer's content.
type Snapshot struct {
	Lines     []string
	Prompt    string
	HasPrompt bool
}

// All returns the finished lines followed by the prompt line, if any.
func (s Snapshot) All() []string {
	out := append([]string(nil), s.Lines...)
	if s.HasPrompt {
		out = append(out, s.Prompt)
	}
	return out
}

// Buffer is a Screen safe for one writer and concurrent readers.
type Buffer struct {
	mu        sync.Mutex
	lines     []string
	dir       string
	input     string
	hasPrompt bool
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// AppendLine implements Screen.
func (b *Buffer) AppendLine(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, text)
}

// SetPrompt implements Screen.
func (b *Buffer) SetPrompt(dir, input string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dir = dir
	b.input = input
	b.hasPrompt = true
}

// Snapshot returns a copy of the current content.
func (b *Buffer) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Lines:     append([]string(nil), b.lines...),
		Prompt:    b.dir + pathfmt.Prompt + b.input,
		HasPrompt: b.hasPrompt,
	}
}
