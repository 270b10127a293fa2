package htmlutil

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// Text is selection.Text() with the trimming every caller was doing
// anyway.
func Text(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}

// NextSiblingText returns the trimmed text of the node immediately
// following the selection's first node. The portal loves putting
// meaningful values in bare text nodes after an element.
func NextSiblingText(s *goquery.Selection) string {
	if len(s.Nodes) == 0 {
		return ""
	}
	next := s.Nodes[0].NextSibling
	if next == nil {
		return ""
	}
	return strings.TrimSpace(GetText(next))
}
