package util

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// markupStart matches what may open an HTML construct: a comment, a doctype
// or a start or end tag name.
var markupStart = regexp.MustCompile(`^<(!--|![dD][oO][cC][tT][yY][pP][eE]|/?([a-zA-Z][a-zA-Z0-9]*))`)

// htmlElements lists the element names treated as markup. Anything else in
// angle brackets is kept as text.
var htmlElements = toSet(
	"a", "abbr", "address", "area", "article", "aside", "audio", "b", "base", "bdi", "bdo",
	"blockquote", "body", "br", "button", "canvas", "caption", "center", "cite", "code", "col",
	"colgroup", "data", "datalist", "dd", "del", "details", "dfn", "dialog", "div", "dl", "dt",
	"em", "embed", "fieldset", "figcaption", "figure", "font", "footer", "form", "frame",
	"frameset", "h1", "h2", "h3", "h4", "h5", "h6", "head", "header", "hr", "html", "i", "iframe",
	"img", "input", "ins", "kbd", "label", "legend", "li", "link", "main", "map", "mark", "math",
	"meta", "meter", "nav", "noscript", "object", "ol", "optgroup", "option", "output", "p",
	"param", "picture", "pre", "progress", "q", "rp", "rt", "ruby", "s", "samp", "script",
	"section", "select", "small", "source", "span", "strike", "strong", "style", "sub",
	"summary", "sup", "svg", "table", "tbody", "td", "template", "textarea", "tfoot", "th",
	"thead", "time", "title", "tr", "track", "tt", "u", "ul", "var", "video", "wbr",
)

func toSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// PlainText strips markup from user supplied free text and trims it. Only
// known HTML elements, comments and doctypes count as markup, so text such as
// "<abc123>" or "x < 5" survives. A known element name directly after "<" is
// still treated as a tag: "a<b and c>d" becomes "ad". Entities produced by the
// sanitizer are decoded back so lengths are counted on what the reader sees.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(escapeStrayBrackets(s))))
}

// escapeStrayBrackets entity-encodes every "<" that does not open markup.
func escapeStrayBrackets(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '<' || opensMarkup(s[i:]) {
			b.WriteByte(s[i])
			continue
		}
		b.WriteString("&lt;")
	}
	return b.String()
}

func opensMarkup(s string) bool {
	m := markupStart.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	if m[2] == "" {
		return true
	}
	end := len(m[0])
	if end < len(s) {
		switch s[end] {
		case '>', '/', ' ', '\t', '\n', '\r', '\f':
		default:
			return false
		}
	}
	_, ok := htmlElements[strings.ToLower(m[2])]
	return ok
}

// Preview shortens body to max characters, adding an ellipsis when truncated.
func Preview(body string, max int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= max {
		return string(runes)
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
