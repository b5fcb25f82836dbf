package loader

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "head": true,
	"template": true, "svg": true, "iframe": true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"header": true, "footer": true, "aside": true, "nav": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "table": true, "tr": true,
	"blockquote": true, "pre": true, "figure": true, "dl": true, "dt": true, "dd": true,
}

// extractHTML returns the visible body text with blank lines between
// block elements.
func extractHTML(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	walkHTML(doc, &b, false)

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n"), nil
}

func walkHTML(n *html.Node, b *strings.Builder, pre bool) {
	switch n.Type {
	case html.TextNode:
		if pre {
			b.WriteString(n.Data)
			return
		}
		text := strings.Join(strings.Fields(n.Data), " ")
		if text == "" {
			if n.Data != "" && !endsWithSpace(b) {
				b.WriteString(" ")
			}
			return
		}
		if startsWithSpace(n.Data) && !endsWithSpace(b) {
			b.WriteString(" ")
		}
		b.WriteString(text)
		if endsWithSpaceString(n.Data) {
			b.WriteString(" ")
		}
		return
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
		switch n.Data {
		case "br":
			b.WriteString("\n")
			return
		case "td", "th":
			defer b.WriteString("\t")
		case "pre":
			pre = true
		}
		if blockElements[n.Data] {
			b.WriteString("\n\n")
			defer b.WriteString("\n\n")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkHTML(c, b, pre)
	}
}

func endsWithSpace(b *strings.Builder) bool {
	s := b.String()
	return s == "" || endsWithSpaceString(s)
}

func startsWithSpace(s string) bool {
	return s != "" && strings.ContainsRune(" \t\n\r\f", rune(s[0]))
}

func endsWithSpaceString(s string) bool {
	return s != "" && strings.ContainsRune(" \t\n\r\f", rune(s[len(s)-1]))
}
