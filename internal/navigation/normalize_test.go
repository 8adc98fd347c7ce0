package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verte-zerg/shellfolio/internal/model"
)

func TestNormalize(t *testing.T) {
	opts := Options{BasePath: "/p/"}
	cases := []struct {
		raw  string
		want model.Entry
	}{
		{"https://example.com/", model.Root},
		{"https://example.com", model.Root},
		{"https://example.com/index.html", model.Root},
		{"https://example.com/p/projects.html?anim=none", "projects"},
		{"https://example.com/projects/alpha/", `projects\alpha`},
		{"https://example.com/projects/alpha/index.html#top", `projects\alpha`},
		{"/contact", "contact"},
		{"/p", model.Root},
		{`\`, model.Root},
		{"", model.Root},
		{`projects\alpha`, `projects\alpha`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.raw, opts), "raw=%q", tc.raw)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	opts := Options{BasePath: "p"}
	for _, raw := range []string{
		"https://example.com/p/p/deep/page.html",
		"https://example.com/",
		"/a/b/c",
		`a\\b`,
	} {
		once := Normalize(raw, opts)
		assert.Equal(t, once, Normalize(string(once), opts), "raw=%q", raw)
	}
}

func TestURLPath(t *testing.T) {
	assert.Equal(t, "/", URLPath(model.Root))
	assert.Equal(t, "/projects/alpha", URLPath(`projects\alpha`))
}

func TestClassify(t *testing.T) {
	origin := "https://example.com"
	cases := []struct {
		timing, referrer string
		want             model.Classification
	}{
		{"reload", "", model.Reload},
		{"reload", "https://other.org/", model.Reload},
		{"navigate", "https://example.com/projects", model.InternalNavigation},
		{"back_forward", "https://EXAMPLE.com/", model.InternalNavigation},
		{"navigate", "", model.ExternalEntry},
		{"navigate", "https://other.org/", model.ExternalEntry},
		{"navigate", "http://example.com/", model.ExternalEntry},
		{"prerender", "https://example.com/", model.ExternalEntry},
		{"", "https://example.com/", model.ExternalEntry},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.timing, tc.referrer, origin), "%s/%s", tc.timing, tc.referrer)
	}
}

func TestOriginOf(t *testing.T) {
	assert.Equal(t, "https://example.com", OriginOf("https://example.com/a?b=c"))
	assert.Equal(t, "", OriginOf("/relative"))
}
