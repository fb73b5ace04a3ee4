package browser

import (
	"strings"

	"golang.org/x/net/html"
)

// skippedTextParents are elements whose text is never user-visible.
var skippedTextParents = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
	"svg":      true,
}

// TextFromHTML derives visible text from a serialized document. It is
// the fallback when the renderer cannot answer (innerText on a detached
// body, evaluation after a crash): tokenize, drop non-visible subtrees,
// collapse whitespace.
func TextFromHTML(rawHTML string) string {
	tok := html.NewTokenizer(strings.NewReader(rawHTML))
	var b strings.Builder
	var skipDepth int

	for {
		switch tok.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := tok.TagName()
			if skipDepth > 0 || skippedTextParents[string(name)] {
				skipDepth++
			}
		case html.EndTagToken:
			if skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(tok.Text())
				b.WriteByte(' ')
			}
		}
	}
}
