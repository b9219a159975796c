// internal/browser/dom/xpath.go
package dom

import (
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/intake-cli/internal/browser"
)

const outerHTMLScript = `document.documentElement.outerHTML`

// GenerateUniqueXPath builds an absolute XPath for node, anchored on the
// nearest ancestor with an id when there is one.
func GenerateUniqueXPath(node *html.Node) string {
	if node == nil {
		return ""
	}

	var path []string
	for n := node; n != nil && n.Type != html.DocumentNode; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		tag := strings.ToLower(n.Data)
		if tag == "" {
			continue
		}

		if id := htmlquery.SelectAttr(n, "id"); id != "" {
			path = append(path, fmt.Sprintf(`//*[@id=%s]`, xpathLiteral(id)))
			break
		}

		// XPath positions are 1-based and count same-tag siblings only.
		index := 1
		for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
			if prev.Type == html.ElementNode && strings.ToLower(prev.Data) == tag {
				index++
			}
		}
		path = append(path, fmt.Sprintf("%s[%d]", tag, index))
	}

	if len(path) == 0 {
		return "/"
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	xpath := strings.Join(path, "/")
	if !strings.HasPrefix(xpath, "//*[@id=") {
		xpath = "/" + xpath
	}
	return xpath
}

// Snapshot parses the current page's markup.
func Snapshot(ctx context.Context, d browser.Driver) (*html.Node, error) {
	var markup string
	if err := d.Eval(ctx, outerHTMLScript, &markup); err != nil {
		return nil, fmt.Errorf("failed to read page markup: %w", err)
	}
	doc, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page markup: %w", err)
	}
	return doc, nil
}

// LabelTargets resolves the controls labelled text in doc and returns an
// XPath selector for each. Labels are matched case-insensitively with
// required-field asterisks ignored.
func LabelTargets(doc *html.Node, text string) []browser.Selector {
	want := normalizeLabel(text)
	var out []browser.Selector
	seen := make(map[string]bool)

	for _, label := range htmlquery.Find(doc, "//label | //mat-label") {
		if normalizeLabel(htmlquery.InnerText(label)) != want {
			continue
		}
		control := labelControl(doc, label)
		if control == nil {
			continue
		}
		xp := GenerateUniqueXPath(control)
		if !seen[xp] {
			seen[xp] = true
			out = append(out, browser.ByXPath(xp))
		}
	}
	return out
}

func labelControl(doc, label *html.Node) *html.Node {
	if id := htmlquery.SelectAttr(label, "for"); id != "" {
		if n := htmlquery.FindOne(doc, fmt.Sprintf(`//*[@id=%s]`, xpathLiteral(id))); n != nil {
			return n
		}
	}
	if n := htmlquery.FindOne(label, `.//input | .//textarea | .//select`); n != nil {
		return n
	}
	for p := label.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "mat-form-field" {
			return htmlquery.FindOne(p, `.//input | .//textarea | .//mat-select | .//select`)
		}
	}
	return htmlquery.FindOne(label, `following::*[self::input or self::textarea or self::select][1]`)
}

func normalizeLabel(s string) string {
	s = strings.ReplaceAll(s, "*", "")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
