package heuristic

import (
	"regexp"
	"strings"

	"recipe-parser/internal/core/recipe/dom"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// 去除 "Recipe Name | Site Name" 的網站名稱
var siteSuffixPattern = regexp.MustCompile(`\s*\|[^|]*$`)

var recipeClassHints = []string{"recipe", "title", "entry", "headline"}

// ExtractTitle 依序嘗試 <title>、帶食譜 class 的 <h1>、<h1>、og:title
func ExtractTitle(page *dom.Page) string {
	if page == nil || page.Doc == nil {
		return ""
	}

	candidates := []func() string{
		func() string { return textOf(dom.FindFirst(page.Doc, dom.ByTag(atom.Title))) },
		func() string {
			return textOf(dom.FindFirst(page.Doc, func(n *html.Node) bool {
				return n.DataAtom == atom.H1 && hasAnyClass(n, recipeClassHints)
			}))
		},
		func() string { return textOf(dom.FindFirst(page.Doc, dom.ByTag(atom.H1))) },
		func() string { return metaContent(page, "og:title") },
	}

	for _, candidate := range candidates {
		if title := stripSiteSuffix(candidate()); title != "" {
			return title
		}
	}
	return ""
}

// ExtractImage 依序嘗試 og:image、twitter:image、帶食譜 class 的 <img>
func ExtractImage(page *dom.Page) string {
	if page == nil || page.Doc == nil {
		return ""
	}
	for _, key := range []string{"og:image", "og:image:url", "twitter:image"} {
		if v := metaContent(page, key); v != "" {
			return v
		}
	}

	img := dom.FindFirst(page.Doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Img && hasAnyClass(n, []string{"recipe", "hero", "featured", "wp-post-image"})
	})
	if img == nil {
		return ""
	}
	for _, key := range []string{"src", "data-src", "data-lazy-src"} {
		if v := strings.TrimSpace(dom.Attr(img, key)); v != "" && !strings.HasPrefix(v, "data:") {
			return v
		}
	}
	return ""
}

func stripSiteSuffix(title string) string {
	stripped := strings.TrimSpace(siteSuffixPattern.ReplaceAllString(title, ""))
	if stripped == "" {
		return strings.TrimSpace(title)
	}
	return stripped
}

func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	return dom.Text(n)
}

func hasAnyClass(n *html.Node, hints []string) bool {
	for _, h := range hints {
		if dom.ClassContains(n, h) {
			return true
		}
	}
	return false
}

func metaContent(page *dom.Page, key string) string {
	meta := dom.FindFirst(page.Doc, func(n *html.Node) bool {
		if n.DataAtom != atom.Meta {
			return false
		}
		return strings.EqualFold(dom.Attr(n, "property"), key) || strings.EqualFold(dom.Attr(n, "name"), key)
	})
	if meta == nil {
		return ""
	}
	return strings.TrimSpace(dom.Attr(meta, "content"))
}
