package util

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// htmlTagPattern detects markup produced by the rich-text editor.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|u|strong|em|a|ul|ol|li|h[1-6]|blockquote|img|script|style|iframe)[\s>/]`)

// ContainsHTML reports whether s appears to contain HTML markup.
func ContainsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// droppedElements are removed together with their content.
var droppedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Iframe:   true,
	atom.Object:   true,
	atom.Embed:    true,
	atom.Form:     true,
	atom.Noscript: true,
}

// SanitizeHTML strips executable content from rich-text lesson bodies and
// comments: script-like elements, inline event handlers and javascript: URLs.
// Plain text is returned unchanged.
func SanitizeHTML(s string) string {
	if !ContainsHTML(s) {
		return s
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), body)
	if err != nil {
		return StripHTML(s)
	}

	var buf strings.Builder
	for _, n := range nodes {
		if n.Type == html.ElementNode && droppedElements[n.DataAtom] {
			continue
		}
		sanitizeNode(n)
		if err := html.Render(&buf, n); err != nil {
			return StripHTML(s)
		}
	}
	return buf.String()
}

func sanitizeNode(n *html.Node) {
	if n.Type == html.ElementNode {
		attrs := n.Attr[:0]
		for _, a := range n.Attr {
			key := strings.ToLower(a.Key)
			if strings.HasPrefix(key, "on") {
				continue
			}
			if (key == "href" || key == "src") &&
				strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Val)), "javascript:") {
				continue
			}
			attrs = append(attrs, a)
		}
		n.Attr = attrs
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && droppedElements[c.DataAtom] {
			n.RemoveChild(c)
		} else {
			sanitizeNode(c)
		}
		c = next
	}
}

// PlainText renders a lesson body as Markdown so the search index sees words
// rather than tags. Non-HTML input is returned trimmed.
func PlainText(s string) string {
	if !ContainsHTML(s) {
		return strings.TrimSpace(s)
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return StripHTML(s)
	}
	return strings.TrimSpace(markdown)
}

// StripHTML extracts the text nodes of s, collapsing whitespace.
func StripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && droppedElements[n.DataAtom] {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(buf.String()), " ")
}
