package page

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/shellfolio/internal/model"
)

const shell = `<!DOCTYPE html><html><head><meta name="has-modal" content="true"></head>
<body><main><h1>Projects</h1><div data-path="/snippets/a.html"></div><div data-path="/snippets/b.html"></div></main></body></html>`

func prepared(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse(shell)
	require.NoError(t, err)
	doc.Prepare()
	return doc
}

func TestPrepareBuildsStructure(t *testing.T) {
	doc := prepared(t)
	out, err := doc.HTML()
	require.NoError(t, err)

	overlay := strings.Index(out, `id="load-screen"`)
	form := strings.Index(out, `id="state-form"`)
	header := strings.Index(out, `id="header"`)
	main := strings.Index(out, "<main>")
	footer := strings.Index(out, `id="footer"`)
	require.True(t, overlay >= 0 && form >= 0 && header >= 0 && main >= 0 && footer >= 0, out)
	assert.True(t, overlay < form && form < header && header < main && main < footer, out)
	assert.Equal(t, 1, strings.Count(out, "<main>"))
	assert.Contains(t, out, "overflow: hidden")

	doc.Prepare()
	again, err := doc.HTML()
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestInjectMissingTarget(t *testing.T) {
	doc, err := Parse(shell)
	require.NoError(t, err)
	err = doc.Inject(HeaderContainer, "<nav></nav>")
	assert.True(t, errors.Is(err, ErrMissingTarget))
}

func TestCheckSwitchesRadioGroup(t *testing.T) {
	doc := prepared(t)
	require.NoError(t, doc.Inject(StateFormContainer,
		`<input type="radio" name="theme" id="light" checked><input type="radio" name="theme" id="dark">`))
	require.NoError(t, doc.Check("dark"))
	assert.Equal(t, []string{"dark"}, doc.Checked())
	assert.Error(t, doc.Check("blue"))
}

func TestBreadcrumb(t *testing.T) {
	assert.Equal(t, `saleca:\&gt;`, Breadcrumb(model.Root, "saleca"))
	assert.Equal(t, `<a href="/">saleca</a>:\projects&gt;`, Breadcrumb("projects", "saleca"))
	assert.Equal(t,
		`<a href="/">saleca</a>:\<a href="/projects">projects</a>\<a href="/projects/alpha">alpha</a>\beta&gt;`,
		Breadcrumb(`projects\alpha\beta`, "saleca"))
}

func TestRenderBreadcrumbNeedsHeader(t *testing.T) {
	doc := prepared(t)
	assert.True(t, errors.Is(doc.RenderBreadcrumb("projects", "saleca"), ErrMissingTarget))

	require.NoError(t, doc.Inject(HeaderContainer, `<span id="page-path"></span>`))
	require.NoError(t, doc.RenderBreadcrumb("projects", "saleca"))
	assert.Equal(t, `saleca:\projects>`, doc.Text(BreadcrumbContainer))
}

func TestSnippets(t *testing.T) {
	doc := prepared(t)
	snippets := doc.Snippets()
	require.Len(t, snippets, 2)
	assert.Equal(t, "/snippets/a.html", snippets[0].Path)
	assert.Equal(t, "/snippets/b.html", snippets[1].Path)

	require.NoError(t, doc.InjectSnippet(snippets[1], "<p>second</p>"))
	section, err := doc.Section("main")
	require.NoError(t, err)
	assert.Contains(t, section, "<p>second</p>")
	assert.Error(t, doc.InjectSnippet(Snippet{Path: "/missing.html"}, "x"))
}

func TestSnippetsKeepTheirPlaceholders(t *testing.T) {
	doc, err := Parse(`<html><body><div id="one" data-path="/a.html"></div><div id="two" data-path="/b.html"></div></body></html>`)
	require.NoError(t, err)
	snippets := doc.Snippets()
	require.Len(t, snippets, 2)

	require.NoError(t, doc.InjectSnippet(snippets[0], `<section><div data-path="/nested.html"></div></section>`))
	require.NoError(t, doc.InjectSnippet(snippets[1], `<p>bee</p>`))

	two, err := doc.Section("#two")
	require.NoError(t, err)
	assert.Equal(t, "<p>bee</p>", two)
	one, err := doc.Section("#one")
	require.NoError(t, err)
	assert.NotContains(t, one, "bee")
}

func TestRemoveOverlay(t *testing.T) {
	doc := prepared(t)
	assert.True(t, doc.HasOverlay())
	require.NoError(t, doc.RemoveOverlay())
	assert.False(t, doc.HasOverlay())
	out, err := doc.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, "overflow: auto")
	assert.Error(t, doc.RemoveOverlay())
}

func TestIsPrintDocument(t *testing.T) {
	doc := prepared(t)
	assert.False(t, doc.IsPrintDocument())
	printable, err := Parse(`<html><head><meta name="document" content="true"></head><body></body></html>`)
	require.NoError(t, err)
	assert.True(t, printable.IsPrintDocument())
}

func TestBreadcrumbText(t *testing.T) {
	assert.Equal(t, `saleca:\>`, BreadcrumbText(model.Root, "saleca"))
	assert.Equal(t, `saleca:\projects\alpha>`, BreadcrumbText(`projects\alpha`, "saleca"))
}
