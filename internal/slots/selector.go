package slots

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// SelectorFor builds a CSS selector that re-locates sel's first node on the
// live page. An element (or ancestor) with an id anchors the path; otherwise
// the path is a tag:nth-child chain rooted at body. The result is only valid
// against the DOM snapshot it was derived from.
func SelectorFor(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	if id, ok := sel.Attr("id"); ok && id != "" {
		return "#" + id
	}

	var parts []string
	for n := sel.Get(0); n != nil && n.Type == html.ElementNode; n = n.Parent {
		tag := strings.ToLower(n.Data)
		if tag == "html" || tag == "body" {
			parts = append([]string{tag}, parts...)
			break
		}
		if id := attrValue(n, "id"); id != "" {
			parts = append([]string{"#" + id}, parts...)
			break
		}
		parts = append([]string{fmt.Sprintf("%s:nth-child(%d)", tag, childIndex(n))}, parts...)
	}
	return strings.Join(parts, " > ")
}

// childIndex returns the 1-based position of n among its element siblings.
func childIndex(n *html.Node) int {
	idx := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			idx++
		}
	}
	return idx
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
