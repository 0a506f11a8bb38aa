// Package htmlx pulls the few values the portal embeds in its server-rendered
// pages: anti-forgery tokens and the electricity system list.
package htmlx

import (
	"bytes"
	"strings"

	"github.com/dmitrijs2005/tjuecard/internal/common"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// System is one entry of the electricity system list on the index page.
type System struct {
	ID   string
	Name string
}

// TargetSystems are the billing systems the portal exposes for dormitories.
var TargetSystems = []string{"北洋园电控", "卫津路空调电控", "卫津路宿舍电控"}

func parse(body []byte) (*html.Node, bool) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, false
	}
	return doc, true
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// find returns the first element in document order for which match is true.
func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// namedToken finds <tag name="_csrf" valueAttr="..."> and returns the value.
func namedToken(body []byte, tag atom.Atom, valueAttr string) (string, error) {
	doc, ok := parse(body)
	if !ok {
		return "", common.ErrTokenExtractionFailed
	}

	n := find(doc, func(n *html.Node) bool {
		if n.DataAtom != tag {
			return false
		}
		name, _ := attr(n, "name")
		return name == common.CSRFFieldName
	})
	if n == nil {
		return "", common.ErrTokenExtractionFailed
	}

	v, ok := attr(n, valueAttr)
	if !ok || strings.TrimSpace(v) == "" {
		return "", common.ErrTokenExtractionFailed
	}
	return v, nil
}

// MetaToken returns the content of <meta name="_csrf">, as rendered on the
// billing pages.
func MetaToken(body []byte) (string, error) {
	return namedToken(body, atom.Meta, "content")
}

// InputToken returns the value of <input name="_csrf">, as rendered on the
// login form.
func InputToken(body []byte) (string, error) {
	return namedToken(body, atom.Input, "value")
}

// ParseSystems lists <li class="my_link" onclick="...('<id>')...">name</li>
// entries whose name is one of targets, in page order. Entries without a
// quoted id in onclick are skipped. A nil targets slice keeps everything.
func ParseSystems(body []byte, targets []string) []System {
	doc, ok := parse(body)
	if !ok {
		return nil
	}

	keep := func(name string) bool {
		if targets == nil {
			return true
		}
		for _, t := range targets {
			if t == name {
				return true
			}
		}
		return false
	}

	var out []System
	walk(doc, func(n *html.Node) {
		if n.DataAtom != atom.Li || !hasClass(n, "my_link") {
			return
		}
		name := strings.TrimSpace(text(n))
		if !keep(name) {
			return
		}
		onclick, _ := attr(n, "onclick")
		id, ok := quotedArg(onclick)
		if !ok {
			return
		}
		out = append(out, System{ID: id, Name: name})
	})
	return out
}

func hasClass(n *html.Node, class string) bool {
	v, _ := attr(n, "class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func text(n *html.Node) string {
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return b.String()
}

// quotedArg returns the first single-quoted substring of s.
func quotedArg(s string) (string, bool) {
	_, rest, ok := strings.Cut(s, "'")
	if !ok {
		return "", false
	}
	id, _, ok := strings.Cut(rest, "'")
	if !ok {
		return "", false
	}
	return id, true
}
