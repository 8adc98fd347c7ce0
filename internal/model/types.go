// Package model defines shared data structures.
package model

import (
	"strings"
	"time"
)

// Separator is the path separator used by navigation entries.
const Separator = `\`

// Root is the entry of the site root.
const Root Entry = Separator

// Entry is a normalized, backslash-separated location identifier.
type Entry string

// IsRoot reports whether the entry is the root sentinel.
func (e Entry) IsRoot() bool {
	return e == Root
}

// Segments splits the entry into path segments. Root has none.
func (e Entry) Segments() []string {
	if e.IsRoot() || e == "" {
		return nil
	}
	return strings.Split(string(e), Separator)
}

// History is the ordered list of entries visited in the current session.
type History []Entry

// Last returns the most recent entry, or Root when the history is empty.
func (h History) Last() Entry {
	if len(h) == 0 {
		return Root
	}
	return h[len(h)-1]
}

// Previous returns the entry before the last one.
func (h History) Previous() (Entry, bool) {
	if len(h) < 2 {
		return "", false
	}
	return h[len(h)-2], true
}

// Classification categorizes a page load.
type Classification int

const (
	// ExternalEntry is a load from outside the origin, or one that cannot be classified.
	ExternalEntry Classification = iota
	// InternalNavigation is a same-origin navigation.
	InternalNavigation
	// Reload is a reload of the current page.
	Reload
)

func (c Classification) String() string {
	switch c {
	case Reload:
		return "reload"
	case InternalNavigation:
		return "internal"
	default:
		return "external"
	}
}

// Timing types reported by the navigation timing source.
const (
	TimingReload      = "reload"
	TimingNavigate    = "navigate"
	TimingBackForward = "back_forward"
)

// Visit holds the external inputs describing one page load.
type Visit struct {
	URL        string
	TimingType string
	Referrer   string
}

// PrefKey names a persisted user preference.
type PrefKey string

// Preference keys.
const (
	PrefLanguage  PrefKey = "language"
	PrefTheme     PrefKey = "theme"
	PrefAnimation PrefKey = "animation"
)

// Preference values.
const (
	LangEnglish    = "en"
	LangPortuguese = "pt"

	ThemeLight  = "light"
	ThemeDevice = "device"
	ThemeDark   = "dark"

	AnimationAuto = "auto"
	AnimationNone = "none"
)

// PrefKeys lists every preference in application order.
var PrefKeys = []PrefKey{PrefLanguage, PrefTheme, PrefAnimation}

// AllowedValues returns the enumerated values for a key. The first one is the default.
func AllowedValues(key PrefKey) []string {
	switch key {
	case PrefLanguage:
		return []string{LangEnglish, LangPortuguese}
	case PrefTheme:
		return []string{ThemeDevice, ThemeLight, ThemeDark}
	case PrefAnimation:
		return []string{AnimationAuto, AnimationNone}
	default:
		return nil
	}
}

// DefaultValue returns the value used when a key was never stored.
func DefaultValue(key PrefKey) string {
	values := AllowedValues(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// ValidValue reports whether value is a member of the enumerated set for key.
func ValidValue(key PrefKey, value string) bool {
	for _, v := range AllowedValues(key) {
		if v == value {
			return true
		}
	}
	return false
}

// Preferences is a snapshot of all user preferences.
type Preferences struct {
	Language  string
	Theme     string
	Animation string
}

// LoadConfig defines settings for one page load.
type LoadConfig struct {
	Origin          string
	Fragments       string
	BasePath        string
	SiteName        string
	Version         string
	Repo            string
	Session         string
	MinVisible      time.Duration
	Hold            time.Duration
	FragmentTimeout time.Duration
	SettleTimeout   time.Duration
	HistoryWindow   int
	SessionTTL      time.Duration
}
