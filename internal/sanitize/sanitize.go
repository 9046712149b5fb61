// Package sanitize cleans inbound email HTML before it is stored or fed to
// the reply generator.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// allowedTags is the fixed allow-list of formatting tags retained in stored
// email bodies. Everything else (script/style blocks, event handlers, forms,
// iframes) is stripped.
var allowedTags = []string{
	"p", "br", "div", "span", "b", "i", "u", "em", "strong",
	"ul", "ol", "li", "blockquote", "pre", "code",
	"h1", "h2", "h3", "h4", "h5", "h6", "a", "table", "tr", "td", "th",
}

var (
	formatPolicy = newFormatPolicy()
	strictPolicy = bluemonday.StrictPolicy()

	whitespaceRe = regexp.MustCompile(`[ \t]+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

func newFormatPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(allowedTags...)
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	return p
}

// HTML sanitizes an HTML email body, retaining the formatting allow-list
func HTML(input string) string {
	return strings.TrimSpace(formatPolicy.Sanitize(input))
}

// Text flattens an email body to plain text for prompt building. HTML tags
// and entities are removed and whitespace is collapsed.
func Text(input string) string {
	out := strictPolicy.Sanitize(input)
	out = strings.ReplaceAll(out, "&nbsp;", " ")
	out = strings.ReplaceAll(out, "&amp;", "&")
	out = whitespaceRe.ReplaceAllString(out, " ")
	out = blankLinesRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
