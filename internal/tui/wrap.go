package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/shellfolio/internal/console"
	"github.com/verte-zerg/shellfolio/internal/pathfmt"
)

type styledRune struct {
	s     string
	width int
	// breakAfter marks a rune a line may end on: a space or a path separator.
	breakAfter bool
}

func styleRunes(text string, style lipgloss.Style) []styledRune {
	out := make([]styledRune, 0, len(text))
	for _, r := range text {
		out = append(out, styledRune{
			s:          style.Render(string(r)),
			width:      runewidth.RuneWidth(r),
			breakAfter: r == ' ' || r == console.PathBreak,
		})
	}
	return out
}

// buildPromptRunes styles the prompt line: the directory with its prompt
// marker, the typed input, and a trailing cursor glyph if present.
func buildPromptRunes(prompt string, st styles) []styledRune {
	dir, input, ok := strings.Cut(prompt, pathfmt.Prompt)
	if !ok {
		return styleRunes(prompt, st.command)
	}
	out := styleRunes(dir+pathfmt.Prompt, st.dir)
	cursor := ""
	if strings.HasSuffix(input, console.CursorGlyph) {
		input = strings.TrimSuffix(input, console.CursorGlyph)
		cursor = console.CursorGlyph
	}
	out = append(out, styleRunes(input, st.command)...)
	if cursor != "" {
		out = append(out, styleRunes(cursor, st.cursor)...)
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes wraps runes to width, preferring to break after the last
// space or separator on the line.
func wrapStyledRunes(runes []styledRune, width int) []string {
	if width <= 0 {
		return []string{renderStyledRunes(runes)}
	}
	var out []string
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastBreakIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastBreakIdx >= 0 && lastBreakIdx < len(line)-1 {
				out = append(out, renderStyledRunes(line[:lastBreakIdx+1]))
				line = append([]styledRune{}, line[lastBreakIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastBreakIdx = lastBreakIndex(line)
			} else {
				out = append(out, renderStyledRunes(line))
				line = line[:0]
				lineWidth = 0
				lastBreakIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.breakAfter {
			lastBreakIdx = len(line) - 1
		}
		i++
	}
	return append(out, renderStyledRunes(line))
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastBreakIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].breakAfter {
			return i
		}
	}
	return -1
}
