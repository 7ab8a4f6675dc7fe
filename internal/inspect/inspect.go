// Package inspect analyzes a page's structure so selectors can be derived
// for new or changed site layouts.
package inspect

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Input describes one input element on the page
type Input struct {
	Type        string `json:"type,omitempty"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Selector    string `json:"selector"`
}

// Button describes one button element on the page
type Button struct {
	Text     string `json:"text,omitempty"`
	ID       string `json:"id,omitempty"`
	Class    string `json:"class,omitempty"`
	Selector string `json:"selector"`
}

// Form describes one form element on the page
type Form struct {
	ID     string `json:"id,omitempty"`
	Action string `json:"action,omitempty"`
	Fields int    `json:"fields"`
}

// Report is the structural summary of one page
type Report struct {
	Title         string         `json:"title,omitempty"`
	ElementCounts map[string]int `json:"element_counts"`
	Inputs        []Input        `json:"inputs,omitempty"`
	Buttons       []Button       `json:"buttons,omitempty"`
	Forms         []Form         `json:"forms,omitempty"`
}

// countedElements are the tags worth tallying when sizing up a page.
var countedElements = []string{"form", "button", "a", "input", "select", "table", "tr", "div"}

// Analyze builds a structural report of the page HTML.
func Analyze(htmlContent string) (*Report, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	report := &Report{
		Title:         strings.TrimSpace(doc.Find("title").First().Text()),
		ElementCounts: make(map[string]int),
	}
	for _, tag := range countedElements {
		report.ElementCounts[tag] = doc.Find(tag).Length()
	}

	doc.Find("input").Each(func(_ int, el *goquery.Selection) {
		in := Input{
			Type:        el.AttrOr("type", ""),
			ID:          el.AttrOr("id", ""),
			Name:        el.AttrOr("name", ""),
			Placeholder: el.AttrOr("placeholder", ""),
		}
		in.Selector = selectorHint(el, "input")
		report.Inputs = append(report.Inputs, in)
	})

	doc.Find("button").Each(func(_ int, el *goquery.Selection) {
		btn := Button{
			Text:  strings.TrimSpace(el.Text()),
			ID:    el.AttrOr("id", ""),
			Class: el.AttrOr("class", ""),
		}
		btn.Selector = selectorHint(el, "button")
		report.Buttons = append(report.Buttons, btn)
	})

	doc.Find("form").Each(func(_ int, el *goquery.Selection) {
		report.Forms = append(report.Forms, Form{
			ID:     el.AttrOr("id", ""),
			Action: el.AttrOr("action", ""),
			Fields: el.Find("input, select, textarea").Length(),
		})
	})

	return report, nil
}

// selectorHint prefers an id, then a name attribute, then tag plus classes.
// Unlike the scanner's generated handles these are meant for humans reading
// the report, not for re-locating a node.
func selectorHint(el *goquery.Selection, tag string) string {
	if id := el.AttrOr("id", ""); id != "" {
		return "#" + id
	}
	if name := el.AttrOr("name", ""); name != "" {
		return fmt.Sprintf(`[name="%s"]`, name)
	}

	selector := tag
	if class := el.AttrOr("class", ""); class != "" {
		for _, c := range strings.Fields(class) {
			selector += "." + c
		}
	}
	return selector
}
