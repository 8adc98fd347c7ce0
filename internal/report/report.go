// Package report formats stored navigation state for the command line.
package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/shellfolio/internal/model"
	"github.com/verte-zerg/shellfolio/internal/pathfmt"
	"github.com/verte-zerg/shellfolio/internal/store"
)

// History lists a session's entries with the console line each transition
// renders as.
func History(history model.History) []string {
	t := newTable(right("#"), left("Entry"), left("Console"))
	for i, entry := range history {
		line := ""
		if i > 0 {
			line = pathfmt.ConsoleLine(history[i-1], entry)
		}
		t.add(strconv.Itoa(i+1), string(entry), line)
	}
	return t.lines()
}

// Sessions lists stored sessions. current is marked with an asterisk.
func Sessions(sessions []store.SessionSummary, current string, now time.Time) []string {
	t := newTable(left("Session"), right("Entries"), right("Last seen"))
	for _, s := range sessions {
		name := s.Session
		if name == current {
			name += " *"
		}
		t.add(name, strconv.Itoa(s.Entries), age(now.Sub(s.LastSeen)))
	}
	return t.lines()
}

// Preferences lists each preference with its value and the allowed set.
func Preferences(p model.Preferences) []string {
	values := map[model.PrefKey]string{
		model.PrefLanguage:  p.Language,
		model.PrefTheme:     p.Theme,
		model.PrefAnimation: p.Animation,
	}
	t := newTable(left("Key"), left("Value"), left("Allowed"))
	for _, key := range model.PrefKeys {
		t.add(string(key), values[key], strings.Join(model.AllowedValues(key), "|"))
	}
	return t.lines()
}

func age(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return strconv.Itoa(int(d/time.Minute)) + "m ago"
	case d < 48*time.Hour:
		return strconv.Itoa(int(d/time.Hour)) + "h ago"
	default:
		return strconv.Itoa(int(d/(24*time.Hour))) + "d ago"
	}
}
