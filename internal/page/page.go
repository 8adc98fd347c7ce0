// Package page models the page shell the loader assembles.
package page

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/verte-zerg/shellfolio/internal/model"
	"github.com/verte-zerg/shellfolio/internal/navigation"
)

// Container selectors filled by the loader.
const (
	StateFormContainer  = "#state-form"
	HeaderContainer     = "#header"
	FooterContainer     = "#footer"
	BreadcrumbContainer = "#page-path"
	OverlayContainer    = "#load-screen"
)

// ErrMissingTarget is returned when an expected element is absent.
var ErrMissingTarget = errors.New("missing target element")

// Document is a page shell. Each container is written by one loader step, but
// steps run on separate goroutines, so every access takes the lock.
type Document struct {
	mu  sync.Mutex
	doc *goquery.Document
}

// Load parses a page shell from r.
func Load(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return &Document{doc: doc}, nil
}

// Parse parses a page shell from a string.
func Parse(markup string) (*Document, error) {
	return Load(strings.NewReader(markup))
}

// Prepare builds the loading structure: the overlay and hidden state form at
// the top of the body, then header, main and footer inside the page container.
// Scrolling stays locked until RemoveOverlay.
func (d *Document) Prepare() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.doc.Find("#page-container").Length() > 0 {
		return
	}
	body := d.doc.Find("body").First()
	body.PrependHtml(`<div id="load-screen"></div><div id="hidden-content"><div id="state-form"></div><hr/></div>`)
	body.AppendHtml(`<div id="page-container"><header id="header"></header></div>`)
	container := d.doc.Find("#page-container")
	if main := d.doc.Find("main").First(); main.Length() > 0 {
		container.AppendSelection(main)
	}
	container.AppendHtml(`<footer id="footer"></footer>`)
	body.SetAttr("style", "overflow: hidden")
}

// Inject replaces the content of the container matched by selector with markup.
func (d *Document) Inject(selector, markup string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	target := d.doc.Find(selector).First()
	if target.Length() == 0 {
		return fmt.Errorf("%w: %s", ErrMissingTarget, selector)
	}
	target.SetHtml(markup)
	return nil
}

// SetLang sets the document language attribute.
func (d *Document) SetLang(lang string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	root := d.doc.Find("html").First()
	if root.Length() == 0 {
		return fmt.Errorf("%w: html", ErrMissingTarget)
	}
	root.SetAttr("lang", lang)
	return nil
}

// Lang returns the document language attribute.
func (d *Document) Lang() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find("html").First().AttrOr("lang", "")
}

// Check checks the input with the given id and unchecks the rest of its radio group.
func (d *Document) Check(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	input := d.doc.Find(fmt.Sprintf(`input[id=%q]`, id)).First()
	if input.Length() == 0 {
		return fmt.Errorf("%w: input#%s", ErrMissingTarget, id)
	}
	if name := input.AttrOr("name", ""); name != "" {
		d.doc.Find(fmt.Sprintf(`input[name=%q]`, name)).RemoveAttr("checked")
	}
	input.SetAttr("checked", "checked")
	return nil
}

// Checked returns the ids of checked inputs in document order.
func (d *Document) Checked() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var ids []string
	d.doc.Find("input[checked]").Each(func(_ int, s *goquery.Selection) {
		ids = append(ids, s.AttrOr("id", ""))
	})
	return ids
}

// RenderBreadcrumb fills the breadcrumb control for entry. Every segment but
// the last links to its cumulative path.
func (d *Document) RenderBreadcrumb(entry model.Entry, siteName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	target := d.doc.Find(BreadcrumbContainer).First()
	if target.Length() == 0 {
		return fmt.Errorf("%w: %s", ErrMissingTarget, BreadcrumbContainer)
	}
	target.SetHtml(Breadcrumb(entry, siteName))
	return nil
}

// Breadcrumb renders the breadcrumb markup for entry.
func Breadcrumb(entry model.Entry, siteName string) string {
	var b strings.Builder
	site := html.EscapeString(siteName)
	if entry.IsRoot() {
		b.WriteString(site)
	} else {
		fmt.Fprintf(&b, `<a href="/">%s</a>`, site)
	}
	b.WriteString(`:\`)

	segments := entry.Segments()
	for i, segment := range segments {
		text := html.EscapeString(segment)
		if i == len(segments)-1 {
			b.WriteString(text)
			break
		}
		prefix := navigation.URLPath(model.Entry(strings.Join(segments[:i+1], model.Separator)))
		fmt.Fprintf(&b, `<a href="%s">%s</a>\`, html.EscapeString(prefix), text)
	}
	b.WriteString("&gt;")
	return b.String()
}

// BreadcrumbText renders the breadcrumb as plain text.
func BreadcrumbText(entry model.Entry, siteName string) string {
	if entry.IsRoot() || entry == "" {
		return siteName + `:\>`
	}
	return siteName + `:\` + string(entry) + ">"
}

// Snippet is a placeholder taken from the page before any snippet was injected.
type Snippet struct {
	Path string
	node *goquery.Selection
}

// Snippets returns every snippet placeholder in document order. Placeholders
// arriving later with injected markup are not part of the list.
func (d *Document) Snippets() []Snippet {
	d.mu.Lock()
	defer d.mu.Unlock()

	var snippets []Snippet
	d.doc.Find("[data-path]").Each(func(_ int, s *goquery.Selection) {
		snippets = append(snippets, Snippet{Path: s.AttrOr("data-path", ""), node: s})
	})
	return snippets
}

// InjectSnippet fills the placeholder of s.
func (d *Document) InjectSnippet(s Snippet, markup string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if s.node == nil || s.node.Length() == 0 {
		return fmt.Errorf("%w: snippet %s", ErrMissingTarget, s.Path)
	}
	s.node.SetHtml(markup)
	return nil
}

// IsPrintDocument reports whether the page is marked as a printable document,
// which is never animated.
func (d *Document) IsPrintDocument() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find(`meta[name="document"]`).Length() > 0
}

// HasOverlay reports whether the loading overlay is still in the page.
func (d *Document) HasOverlay() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find(OverlayContainer).Length() > 0
}

// RemoveOverlay removes the loading overlay and restores scrolling.
func (d *Document) RemoveOverlay() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	overlay := d.doc.Find(OverlayContainer)
	if overlay.Length() == 0 {
		return fmt.Errorf("%w: %s", ErrMissingTarget, OverlayContainer)
	}
	overlay.Remove()
	d.doc.Find("body").First().SetAttr("style", "overflow: auto")
	return nil
}

// Text returns the text content of the first element matched by selector.
func (d *Document) Text(selector string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.TrimSpace(d.doc.Find(selector).First().Text())
}

// Section returns the inner markup of the first element matched by selector.
func (d *Document) Section(selector string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingTarget, selector)
	}
	return sel.Html()
}

// HTML renders the whole document.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Html()
}
