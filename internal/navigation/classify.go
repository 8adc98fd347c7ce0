package navigation

import (
	"net/url"
	"strings"

	"github.com/verte-zerg/shellfolio/internal/model"
)

// Classify derives the load classification from the navigation timing type and
// the document referrer. Unknown or missing timing data counts as an external entry.
func Classify(timingType, referrer, origin string) model.Classification {
	switch strings.ToLower(strings.TrimSpace(timingType)) {
	case model.TimingReload:
		return model.Reload
	case model.TimingNavigate, model.TimingBackForward:
		if SameOrigin(referrer, origin) {
			return model.InternalNavigation
		}
		return model.ExternalEntry
	default:
		return model.ExternalEntry
	}
}

// SameOrigin reports whether referrer shares scheme and host with origin.
func SameOrigin(referrer, origin string) bool {
	if strings.TrimSpace(referrer) == "" || strings.TrimSpace(origin) == "" {
		return false
	}
	r, err := url.Parse(referrer)
	if err != nil || r.Host == "" {
		return false
	}
	o, err := url.Parse(origin)
	if err != nil || o.Host == "" {
		return false
	}
	return strings.EqualFold(r.Scheme, o.Scheme) && strings.EqualFold(r.Host, o.Host)
}

// OriginOf returns scheme://host of rawURL, or "" when it has no host.
func OriginOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
