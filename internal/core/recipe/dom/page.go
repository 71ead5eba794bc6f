package dom

import (
	"strings"

	"recipe-parser/internal/pkg/common"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Page 清理後的頁面，原始字串與 DOM 只解析一次，各階段共用且不修改
type Page struct {
	HTML string
	Doc  *html.Node
}

// Parse 解析 HTML
func Parse(raw string) (*Page, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return &Page{HTML: raw, Doc: doc}, nil
}

// FindAll 依序（文件順序）回傳所有符合條件的元素
func FindAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// FindFirst 回傳第一個符合條件的元素
func FindFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && match(n) {
			found = n
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	if root != nil {
		walk(root)
	}
	return found
}

// ByTag 以標籤比對
func ByTag(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.DataAtom == a }
}

// Children 直接子元素中符合標籤者
func Children(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			out = append(out, c)
		}
	}
	return out
}

// Attr 取得屬性值
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// HasAttr 是否含有屬性
func HasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return true
		}
	}
	return false
}

// ClassContains class 屬性是否包含子字串（不分大小寫）
func ClassContains(n *html.Node, substr string) bool {
	return strings.Contains(strings.ToLower(Attr(n, "class")), strings.ToLower(substr))
}

// Text 元素內所有文字，已解碼並正規化空白
func Text(n *html.Node) string {
	var sb strings.Builder
	collectText(n, &sb, false)
	return common.NormalizeWhitespace(sb.String())
}

// BlockText 以換行分隔區塊元素的可見文字
func BlockText(n *html.Node) string {
	var sb strings.Builder
	collectText(n, &sb, true)
	return sb.String()
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Br: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Ul: true, atom.Ol: true, atom.Table: true, atom.Blockquote: true,
}

var invisibleElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Head: true, atom.Template: true,
}

func collectText(n *html.Node, sb *strings.Builder, blocks bool) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		if invisibleElements[n.DataAtom] {
			return
		}
	}

	isBlock := blocks && n.Type == html.ElementNode && blockElements[n.DataAtom]
	if isBlock {
		sb.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb, blocks)
		if !blocks && c.Type == html.ElementNode && blockElements[c.DataAtom] {
			sb.WriteString(" ")
		}
	}
	if isBlock {
		sb.WriteString("\n")
	}
}
