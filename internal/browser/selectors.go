// File: internal/browser/selectors.go
package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
)

const (
	xpathUpper = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	xpathLower = "abcdefghijklmnopqrstuvwxyz"
)

// lowered wraps an XPath expression in a case-folding translate().
func lowered(expr string) string {
	return fmt.Sprintf("translate(%s, '%s', '%s')", expr, xpathUpper, xpathLower)
}

// ButtonTextXPath matches button elements (and anything with role="button")
// whose visible text contains the given label, case-insensitively.
func ButtonTextXPath(text string) string {
	needle := xpathQuote(strings.ToLower(strings.TrimSpace(text)))
	cond := fmt.Sprintf("contains(%s, %s)", lowered("normalize-space(.)"), needle)
	return fmt.Sprintf("//button[%[1]s] | //*[@role='button'][%[1]s] | //a[%[1]s] | //input[@type='submit'][contains(%[2]s, %[3]s)]",
		cond, lowered("@value"), needle)
}

// AnyTextXPath matches any element with a direct text node containing the
// given label, case-insensitively. Used as the fallback when no button-like
// element carries the label.
func AnyTextXPath(text string) string {
	needle := xpathQuote(strings.ToLower(strings.TrimSpace(text)))
	return fmt.Sprintf("//*[text()[contains(%s, %s)]]", lowered("."), needle)
}

// xpathQuote renders a string as an XPath literal. XPath 1.0 has no escape
// syntax, so strings containing both quote kinds go through concat().
func xpathQuote(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	var parts []string
	for i, chunk := range strings.Split(s, "'") {
		if i > 0 {
			parts = append(parts, `"'"`)
		}
		if chunk != "" {
			parts = append(parts, "'"+chunk+"'")
		}
	}
	return "concat(" + strings.Join(parts, ", ") + ")"
}

// attributeMap converts the flat attribute slice of a CDP node into a map.
// The attributes are stored as [key1, value1, key2, value2, ...].
func attributeMap(node *cdp.Node) map[string]string {
	attrs := make(map[string]string)
	if node == nil {
		return attrs
	}
	for i := 0; i+1 < len(node.Attributes); i += 2 {
		attrs[node.Attributes[i]] = node.Attributes[i+1]
	}
	return attrs
}

// isDisabled reports whether a node carries the disabled attribute, or
// readonly for text-entry elements.
func isDisabled(node *cdp.Node, attrs map[string]string) bool {
	if _, ok := attrs["disabled"]; ok {
		return true
	}
	nodeName := strings.ToUpper(node.NodeName)
	if nodeName == "INPUT" || nodeName == "TEXTAREA" {
		if _, ok := attrs["readonly"]; ok {
			return true
		}
	}
	return false
}

// nodeInnerText collects the direct and nested text content of a node, as far
// as the CDP snapshot populated its children.
func nodeInnerText(node *cdp.Node) string {
	if node == nil {
		return ""
	}
	if node.NodeType == cdp.NodeTypeText {
		return node.NodeValue
	}
	var sb strings.Builder
	for _, child := range node.Children {
		sb.WriteString(nodeInnerText(child))
	}
	return sb.String()
}
