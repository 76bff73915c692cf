package route

import (
	"strings"

	"golang.org/x/net/html"
)

// blockTags separate words when markup is collapsed, so that
// `Turn left<div>Destination on the right</div>` does not fuse two words.
var blockTags = map[string]bool{
	"div": true,
	"br":  true,
	"p":   true,
	"li":  true,
}

// StripMarkup reduces a markup-annotated instruction to its text content,
// with runs of whitespace collapsed to single spaces.
func StripMarkup(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if blockTags[string(name)] {
				b.WriteByte(' ')
			}
		}
	}
}
