package records

import (
	"strings"

	"golang.org/x/net/html"
)

// allowedTags maps tag names that survive sanitization to the attributes
// kept on them.
var allowedTags = map[string][]string{
	"p":          nil,
	"blockquote": nil,
	"ol":         nil,
	"ul":         nil,
	"li":         nil,
	"dl":         nil,
	"dt":         nil,
	"dd":         nil,
	"a":          {"href"},
	"em":         nil,
	"strong":     nil,
	"q":          nil,
	"abbr":       {"title"},
	"code":       nil,
	"i":          nil,
	"sup":        nil,
	"sub":        nil,
	"bdi":        nil,
	"bdo":        {"dir"},
	"br":         nil,
	"wbr":        nil,
}

// droppedBlocks lists elements removed together with their content.
var droppedBlocks = map[string]bool{
	"script": true,
	"style":  true,
}

var voidTags = map[string]bool{
	"br":  true,
	"wbr": true,
}

// StripTags sanitizes an HTML fragment down to a small allow-list of
// formatting tags. Disallowed tags are removed but their text kept, except
// for script and style elements which are removed wholesale.
func StripTags(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	dropDepth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			if dropDepth == 0 {
				b.WriteString(html.EscapeString(string(z.Text())))
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if droppedBlocks[tok.Data] {
				if tok.Type == html.StartTagToken {
					dropDepth++
				}
				continue
			}
			if dropDepth > 0 {
				continue
			}
			writeTag(&b, tok)
		case html.EndTagToken:
			tok := z.Token()
			if droppedBlocks[tok.Data] {
				if dropDepth > 0 {
					dropDepth--
				}
				continue
			}
			if dropDepth > 0 {
				continue
			}
			if _, ok := allowedTags[tok.Data]; ok && !voidTags[tok.Data] {
				b.WriteString("</")
				b.WriteString(tok.Data)
				b.WriteString(">")
			}
		}
	}
}

func writeTag(b *strings.Builder, tok html.Token) {
	keep, ok := allowedTags[tok.Data]
	if !ok {
		return
	}
	b.WriteString("<")
	b.WriteString(tok.Data)
	for _, attr := range tok.Attr {
		for _, name := range keep {
			if attr.Key == name {
				b.WriteString(" ")
				b.WriteString(attr.Key)
				b.WriteString(`="`)
				b.WriteString(html.EscapeString(attr.Val))
				b.WriteString(`"`)
			}
		}
	}
	b.WriteString(">")
}
