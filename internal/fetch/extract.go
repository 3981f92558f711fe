package fetch

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// droppedElements are subtrees excluded from extraction entirely.
var droppedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Iframe:   true,
	atom.Svg:      true,
	atom.Head:     true,
	atom.Nav:      true,
	atom.Footer:   true,
	atom.Header:   true,
	atom.Aside:    true,
	atom.Form:     true,
}

// extractHTML parses raw HTML and returns the page title and its
// visible text with block structure preserved as blank lines.
func extractHTML(raw string) (title, text string) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		// Parse failures are rare (the parser recovers from most
		// malformed markup); fall back to the tokenizer.
		return "", collapseWhitespace(tokenizeText(raw))
	}

	var b strings.Builder
	walk(doc, &b)
	return strings.TrimSpace(findTitle(doc)), collapseWhitespace(b.String())
}

// findTitle locates the <title> element, which lives inside <head> and
// is therefore invisible to the body walk.
func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func walk(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode {
		if droppedElements[n.DataAtom] {
			return
		}
		if blockLevel(n.DataAtom) && b.Len() > 0 {
			b.WriteString("\n\n")
		}
	}

	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			b.WriteString(t)
			b.WriteString(" ")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, b)
	}

	if n.Type == html.ElementNode && (n.DataAtom == atom.Br || n.DataAtom == atom.Li || n.DataAtom == atom.Tr) {
		b.WriteString("\n")
	}
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func blockLevel(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Main,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Blockquote, atom.Pre, atom.Ul, atom.Ol, atom.Table,
		atom.Dl, atom.Figure, atom.Figcaption, atom.Hr:
		return true
	}
	return false
}

// collapseWhitespace squeezes space runs within lines and consecutive
// blank lines down to one.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	cleaned := lines[:0]
	prevBlank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if prevBlank {
				continue
			}
			prevBlank = true
		} else {
			prevBlank = false
		}
		cleaned = append(cleaned, line)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

// tokenizeText is the fallback extraction path: concatenate every text
// token, ignoring structure.
func tokenizeText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.WriteString(z.Token().Data)
			b.WriteString(" ")
		}
	}
}
