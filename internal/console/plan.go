package console

import (
	"github.com/verte-zerg/shellfolio/internal/model"
	"github.com/verte-zerg/shellfolio/internal/navigation"
	"github.com/verte-zerg/shellfolio/internal/pathfmt"
)

// Branch is the terminal animation a session ends in.
type Branch int

const (
	// BranchDots shows a thinking ellipsis until canceled.
	BranchDots Branch = iota
	// BranchTyping types the navigation command, then blinks the cursor until canceled.
	BranchTyping
)

func (b Branch) String() string {
	if b == BranchTyping {
		return "typing"
	}
	return "dots"
}

// Plan is what one animation session renders.
type Plan struct {
	Class   model.Classification
	History model.History
}

// Branch selects typing only when there is a concrete internal transition to show.
func (p Plan) Branch() Branch {
	if p.Class == model.InternalNavigation && len(p.History) >= 2 {
		return BranchTyping
	}
	return BranchDots
}

// HistoryLines renders one line per consecutive pair of past transitions. A
// reload shows every transition; other loads leave out the current one, which
// is typed or shown as the prompt instead. window > 0 keeps only that many
// most recent lines.
func (p Plan) HistoryLines(window int) []string {
	if len(p.History) < 2 {
		return nil
	}
	entries := p.History
	if p.Class != model.Reload {
		entries = entries[:len(entries)-1]
	}
	if window > 0 {
		entries = navigation.Window(entries, window+1)
	}
	lines := make([]string, 0, len(entries))
	for i := 1; i < len(entries); i++ {
		lines = append(lines, pathfmt.ConsoleLine(entries[i-1], entries[i]))
	}
	return lines
}

// Prompt returns the directory shown on the prompt line and the command to
// type, which is empty for the dots branch.
func (p Plan) Prompt() (dir, command string) {
	if p.Branch() == BranchTyping {
		prev, _ := p.History.Previous()
		return pathfmt.FormatDirectory(prev), pathfmt.FormatCommand(prev, p.History.Last())
	}
	return pathfmt.FormatDirectory(p.History.Last()), ""
}
