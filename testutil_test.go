package ssr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func testLogger() *zap.Logger { return zap.NewNop() }

// parseFragment parses rendered markup as a body fragment.
func parseFragment(t *testing.T, markup string) []*html.Node {
	t.Helper()
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	require.NoError(t, err)
	return nodes
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// containerID returns the id of the first element in markup.
func containerID(t *testing.T, markup string) string {
	t.Helper()
	for _, n := range parseFragment(t, markup) {
		if n.Type == html.ElementNode {
			id, _ := attr(n, "id")
			return id
		}
	}
	t.Fatalf("no element in %q", markup)
	return ""
}

// findElement returns the first element named tag, searching depth-first.
func findElement(nodes []*html.Node, tag string) *html.Node {
	for _, n := range nodes {
		if n.Type == html.ElementNode && n.Data == tag {
			return n
		}
		var children []*html.Node
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			children = append(children, c)
		}
		if found := findElement(children, tag); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// containerText returns the text inside the element with the given id.
func containerText(t *testing.T, markup, id string) string {
	t.Helper()
	for _, n := range parseFragment(t, markup) {
		if n.Type != html.ElementNode {
			continue
		}
		if v, _ := attr(n, "id"); v == id {
			return textContent(n)
		}
	}
	t.Fatalf("no element #%s in %q", id, markup)
	return ""
}

func counterValue(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metrics:
		for _, metric := range f.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}
