// Package reveal turns a loaded page into terminal text.
package reveal

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/charmbracelet/glamour"

	"github.com/verte-zerg/shellfolio/internal/model"
	"github.com/verte-zerg/shellfolio/internal/page"
)

// ContentContainer holds everything a visitor sees once the load screen is gone.
const ContentContainer = "#page-container"

// MinWidth is the narrowest word wrap passed to the renderer.
const MinWidth = 20

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// Markdown converts HTML markup to Markdown.
func Markdown(markup string) (string, error) {
	md, err := mdConverter.ConvertString(markup)
	if err != nil {
		return "", fmt.Errorf("failed to convert page: %w", err)
	}
	return strings.TrimSpace(md), nil
}

// PageMarkdown converts the visible part of doc to Markdown. A document that
// was never prepared is converted whole.
func PageMarkdown(doc *page.Document) (string, error) {
	markup, err := doc.Section(ContentContainer)
	if err != nil {
		if markup, err = doc.Section("body"); err != nil {
			return "", err
		}
	}
	return Markdown(markup)
}

// Render renders Markdown for the terminal in the given theme.
func Render(md, theme string, width int) (string, error) {
	if width < MinWidth {
		width = MinWidth
	}
	r, err := glamour.NewTermRenderer(styleOption(theme), glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}
	return out, nil
}

func styleOption(theme string) glamour.TermRendererOption {
	switch theme {
	case model.ThemeLight:
		return glamour.WithStandardStyle("light")
	case model.ThemeDark:
		return glamour.WithStandardStyle("dark")
	default:
		return glamour.WithAutoStyle()
	}
}
