package sanitizer

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Result 清理結果
type Result struct {
	Success bool
	HTML    string
	Error   string
}

// Sanitizer HTML 清理器
type Sanitizer interface {
	Clean(raw string) Result
}

// HTMLCleaner 預設清理器：移除樣式、嵌入框架、SVG、註解與非結構化資料的 script
type HTMLCleaner struct{}

// New 建立預設清理器
func New() *HTMLCleaner {
	return &HTMLCleaner{}
}

var droppedElements = map[atom.Atom]bool{
	atom.Style:    true,
	atom.Noscript: true,
	atom.Iframe:   true,
	atom.Svg:      true,
	atom.Link:     true,
	atom.Template: true,
	atom.Object:   true,
	atom.Embed:    true,
}

// Clean 清理原始 HTML
func (c *HTMLCleaner) Clean(raw string) Result {
	if strings.TrimSpace(raw) == "" {
		return Result{Error: "empty document"}
	}

	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return Result{Error: "failed to parse html: " + err.Error()}
	}

	prune(doc)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return Result{Error: "failed to render html: " + err.Error()}
	}

	return Result{Success: true, HTML: buf.String()}
}

func prune(n *html.Node) {
	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		if shouldDrop(child) {
			n.RemoveChild(child)
		} else {
			prune(child)
		}
		child = next
	}
}

func shouldDrop(n *html.Node) bool {
	switch n.Type {
	case html.CommentNode:
		return true
	case html.ElementNode:
		if n.DataAtom == atom.Script {
			return !isStructuredData(n)
		}
		return droppedElements[n.DataAtom] || n.Data == "svg"
	}
	return false
}

// isStructuredData JSON-LD 需要保留給結構化資料萃取
func isStructuredData(n *html.Node) bool {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, "type") {
			return strings.Contains(strings.ToLower(attr.Val), "ld+json")
		}
	}
	return false
}
