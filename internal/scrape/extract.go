package scrape

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"locaudit/internal/content"
	"locaudit/internal/language"
	"locaudit/internal/textutil"
)

// Extraction caps bound the stored JSON and the judgment prompt size.
const (
	maxExtractHeadings   = 50
	maxExtractParagraphs = 50
	maxExtractLinks      = 50
	maxExtractButtons    = 30
	maxExtractImages     = 30
	maxRawTextChars      = 15000
)

// Extract parses HTML into the structural content an audit compares.
func Extract(body []byte, pageURL string) (*content.Extraction, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	extraction := &content.Extraction{URL: pageURL}
	var rawText strings.Builder
	walk(root, extraction, &rawText)

	extraction.RawText = textutil.Truncate(textutil.CollapseWhitespace(rawText.String()), maxRawTextChars)
	if normalized, err := language.Normalize(extraction.DetectedLanguage); err == nil {
		extraction.DetectedLanguage = normalized
	} else {
		// Detection is best effort; an unparseable lang attribute is dropped.
		extraction.DetectedLanguage = ""
	}
	return extraction, nil
}

func walk(node *html.Node, extraction *content.Extraction, rawText *strings.Builder) {
	if node.Type == html.ElementNode {
		switch node.DataAtom {
		case atom.Html:
			if lang := attrValue(node, "lang"); lang != "" {
				extraction.DetectedLanguage = lang
			}
		case atom.Title:
			if extraction.Title == "" {
				extraction.Title = cleanText(nodeText(node))
			}
			return
		case atom.Meta:
			captureMeta(node, extraction)
			return
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			if text := cleanText(nodeText(node)); text != "" && len(extraction.Headings) < maxExtractHeadings {
				extraction.Headings = append(extraction.Headings, content.Heading{
					Level: headingLevel(node.DataAtom),
					Text:  text,
				})
			}
			appendRaw(rawText, nodeText(node))
			return
		case atom.P:
			if text := cleanText(nodeText(node)); text != "" && len(extraction.Paragraphs) < maxExtractParagraphs {
				extraction.Paragraphs = append(extraction.Paragraphs, text)
			}
			appendRaw(rawText, nodeText(node))
			return
		case atom.A:
			if text := cleanText(nodeText(node)); text != "" && len(extraction.Links) < maxExtractLinks {
				extraction.Links = append(extraction.Links, content.Link{
					Text: text,
					Href: attrValue(node, "href"),
				})
			}
			appendRaw(rawText, nodeText(node))
			return
		case atom.Button:
			if text := cleanText(nodeText(node)); text != "" && len(extraction.Buttons) < maxExtractButtons {
				extraction.Buttons = append(extraction.Buttons, text)
			}
			appendRaw(rawText, nodeText(node))
			return
		case atom.Input:
			inputType := strings.ToLower(attrValue(node, "type"))
			if inputType == "submit" || inputType == "button" {
				if value := cleanText(attrValue(node, "value")); value != "" && len(extraction.Buttons) < maxExtractButtons {
					extraction.Buttons = append(extraction.Buttons, value)
				}
			}
			return
		case atom.Img:
			alt := cleanText(attrValue(node, "alt"))
			src := strings.TrimSpace(attrValue(node, "src"))
			if (alt != "" || src != "") && len(extraction.Images) < maxExtractImages {
				extraction.Images = append(extraction.Images, content.Image{Alt: alt, Src: src})
			}
			return
		}
	}
	if node.Type == html.TextNode {
		appendRaw(rawText, node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walk(child, extraction, rawText)
	}
}

func captureMeta(node *html.Node, extraction *content.Extraction) {
	name := strings.ToLower(attrValue(node, "name"))
	property := strings.ToLower(attrValue(node, "property"))
	metaContent := cleanText(attrValue(node, "content"))
	if metaContent == "" {
		return
	}
	switch {
	case name == "description":
		extraction.MetaDescription = metaContent
	case name == "keywords":
		extraction.MetaKeywords = metaContent
	case property == "og:description" && extraction.MetaDescription == "":
		extraction.MetaDescription = metaContent
	}
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	default:
		return 6
	}
}

func nodeText(node *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(node)
	return sb.String()
}

func cleanText(text string) string {
	return textutil.CollapseWhitespace(textutil.StripControl(text))
}

func appendRaw(rawText *strings.Builder, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	if rawText.Len() > maxRawTextChars {
		return
	}
	rawText.WriteString(trimmed)
	rawText.WriteByte(' ')
}

func attrValue(node *html.Node, key string) string {
	for _, attr := range node.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val
		}
	}
	return ""
}
