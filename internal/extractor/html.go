package extractor

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/contractlens/docstruct/internal/docmodel"
)

// HTMLExtractor handles HTML files.
type HTMLExtractor struct{}

func (e *HTMLExtractor) Extract(r io.Reader, filename string) (*docmodel.ExtractedDocument, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var elements []docmodel.TextElement

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				if t := textContent(n); t != "" {
					elements = append(elements, docmodel.TextElement{
						Kind:    docmodel.KindHeader,
						Content: t,
						Level:   level,
					})
				}
				return
			}
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "p", "blockquote":
				if t := textContent(n); t != "" {
					elements = append(elements, docmodel.TextElement{
						Kind:    docmodel.KindParagraph,
						Content: t,
					})
				}
				return
			case "ul", "ol":
				if t := listContent(n); t != "" {
					elements = append(elements, docmodel.TextElement{
						Kind:    docmodel.KindList,
						Content: t,
					})
				}
				return
			case "table":
				if t := textContent(n); t != "" {
					elements = append(elements, docmodel.TextElement{
						Kind:    docmodel.KindTable,
						Content: t,
					})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return newDocument(filename, elements, 1), nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func listContent(n *html.Node) string {
	var items []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "li" {
			if t := textContent(c); t != "" {
				items = append(items, t)
			}
		}
	}
	return strings.Join(items, "\n")
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
