package structured

import (
	"strings"

	"recipe-parser/internal/core/recipe/dom"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// microdataRecipe 將 itemtype=schema.org/Recipe 的區塊轉成與 JSON-LD 相同形狀的 map
func microdataRecipe(page *dom.Page) map[string]interface{} {
	root := dom.FindFirst(page.Doc, func(n *html.Node) bool {
		return dom.HasAttr(n, "itemscope") && isRecipeType(dom.Attr(n, "itemtype"))
	})
	if root == nil {
		return nil
	}
	item := itemProps(root)
	item["@type"] = "Recipe"
	return item
}

// itemProps 收集 itemscope 內的 itemprop，巢狀 itemscope 轉為子 map
func itemProps(scope *html.Node) map[string]interface{} {
	props := make(map[string]interface{})
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			names := strings.Fields(dom.Attr(c, "itemprop"))
			if len(names) == 0 {
				walk(c)
				continue
			}

			var value interface{}
			if dom.HasAttr(c, "itemscope") {
				value = itemProps(c)
			} else {
				value = propValue(c)
				walk(c)
			}
			for _, name := range names {
				addProp(props, name, value)
			}
		}
	}
	walk(scope)
	return props
}

func addProp(props map[string]interface{}, name string, value interface{}) {
	if s, ok := value.(string); ok && s == "" {
		return
	}
	existing, ok := props[name]
	if !ok {
		props[name] = value
		return
	}
	if list, ok := existing.([]interface{}); ok {
		props[name] = append(list, value)
		return
	}
	props[name] = []interface{}{existing, value}
}

func propValue(n *html.Node) interface{} {
	for _, key := range []string{"content", "datetime"} {
		if v := dom.Attr(n, key); v != "" {
			return v
		}
	}
	switch n.DataAtom {
	case atom.Img, atom.Source:
		return dom.Attr(n, "src")
	case atom.A, atom.Link:
		if href := dom.Attr(n, "href"); href != "" {
			return href
		}
	}

	// 步驟容器內以 li / p 分段
	if strings.EqualFold(dom.Attr(n, "itemprop"), "recipeInstructions") {
		parts := dom.FindAll(n, func(c *html.Node) bool {
			return c != n && (c.DataAtom == atom.Li || c.DataAtom == atom.P)
		})
		if len(parts) > 1 {
			steps := make([]interface{}, 0, len(parts))
			for _, p := range parts {
				if text := dom.Text(p); text != "" {
					steps = append(steps, text)
				}
			}
			return steps
		}
	}
	return dom.Text(n)
}
