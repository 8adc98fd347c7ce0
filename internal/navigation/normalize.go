// Package navigation classifies page loads and tracks the session's navigation history.
package navigation

import (
	"net/url"
	"strings"

	"github.com/verte-zerg/shellfolio/internal/model"
)

// Options configures how locations are normalized and classified.
type Options struct {
	// Origin is the site origin used for same-origin referrer checks.
	// When empty the origin of the visited URL is used.
	Origin string
	// BasePath is a leading path prefix stripped from every location.
	BasePath string
}

// Normalize turns a URL or path into an entry. Values already in entry form
// (backslash separated, no forward slash) only have their segments cleaned,
// so Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string, opts Options) model.Entry {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "/") {
		return join(strings.Split(raw, model.Separator))
	}

	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.ReplaceAll(p, model.Separator, "/")
	p = strings.Trim(p, "/")

	if base := strings.Trim(opts.BasePath, "/"); base != "" {
		if p == base {
			p = ""
		} else if strings.HasPrefix(p, base+"/") {
			p = p[len(base)+1:]
		}
	}
	p = strings.TrimSuffix(p, ".html")

	segments := strings.Split(p, "/")
	if n := len(segments); n > 0 && segments[n-1] == "index" {
		segments = segments[:n-1]
	}
	return join(segments)
}

func join(segments []string) model.Entry {
	kept := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		return model.Root
	}
	return model.Entry(strings.Join(kept, model.Separator))
}

// URLPath renders an entry back into the site-relative URL path it came from.
func URLPath(entry model.Entry) string {
	return "/" + strings.Join(entry.Segments(), "/")
}
