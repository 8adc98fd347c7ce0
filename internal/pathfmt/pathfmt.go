// Package pathfmt renders navigation entries as shell-style console text.
package pathfmt

import (
	"strings"

	"github.com/verte-zerg/shellfolio/internal/model"
)

const (
	// DrivePrefix starts every rendered directory.
	DrivePrefix = `C:\`
	// Prompt separates the directory from the command.
	Prompt = ">"
	// ChangeDir is the command verb.
	ChangeDir = "cd "
	// Up is the token for one level of backward navigation.
	Up = ".."
)

// FormatDirectory renders entry as a drive-rooted directory.
func FormatDirectory(entry model.Entry) string {
	if entry.IsRoot() {
		return DrivePrefix
	}
	return DrivePrefix + string(entry)
}

// FormatCommand renders the command that moves from prev to cur.
func FormatCommand(prev, cur model.Entry) string {
	return ChangeDir + target(prev, cur)
}

// ConsoleLine renders a full history line for the transition prev -> cur.
func ConsoleLine(prev, cur model.Entry) string {
	return FormatDirectory(prev) + Prompt + FormatCommand(prev, cur)
}

func target(prev, cur model.Entry) string {
	switch {
	case cur.IsRoot():
		return model.Separator
	case isProperPrefix(cur, prev):
		rest := prev.Segments()[len(cur.Segments()):]
		ups := make([]string, len(rest))
		for i := range rest {
			ups[i] = Up
		}
		return strings.Join(ups, model.Separator)
	case isProperPrefix(prev, cur):
		rest := cur.Segments()[len(prev.Segments()):]
		return strings.Join(rest, model.Separator)
	case prev.IsRoot():
		return string(cur)
	default:
		return model.Separator + string(cur)
	}
}

// isProperPrefix reports whether the segments of head lead the segments of full
// and full has at least one more segment.
func isProperPrefix(head, full model.Entry) bool {
	h := head.Segments()
	f := full.Segments()
	if len(h) == 0 || len(h) >= len(f) {
		return false
	}
	for i := range h {
		if h[i] != f[i] {
			return false
		}
	}
	return true
}
