package structured

import (
	"strings"

	"recipe-parser/internal/core/recipe/dom"
	"recipe-parser/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// jsonLDBlocks 解析頁面中所有 ld+json script，無法解析的區塊略過
func jsonLDBlocks(page *dom.Page) []interface{} {
	scripts := dom.FindAll(page.Doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Script &&
			strings.Contains(strings.ToLower(dom.Attr(n, "type")), "ld+json")
	})

	blocks := make([]interface{}, 0, len(scripts))
	for _, s := range scripts {
		var raw strings.Builder
		for c := s.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				raw.WriteString(c.Data)
			}
		}
		text := strings.TrimSpace(raw.String())
		if text == "" {
			continue
		}

		var v interface{}
		if err := common.ParseJSON(text, &v); err != nil {
			// 常見的瑕疵：字串內含未跳脫的換行
			if err2 := common.ParseJSON(stripControlChars(text), &v); err2 != nil {
				common.LogDebug("略過無法解析的 JSON-LD 區塊", zap.Error(err))
				continue
			}
		}
		blocks = append(blocks, v)
	}
	return blocks
}

func stripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, s)
}

// findRecipe 在 JSON-LD 值中尋找第一個 Recipe 物件
// 依序檢查本身、陣列元素、@graph 容器與 mainEntity 指向
func findRecipe(v interface{}) map[string]interface{} {
	switch val := v.(type) {
	case []interface{}:
		for _, item := range val {
			if r := findRecipe(item); r != nil {
				return r
			}
		}
	case map[string]interface{}:
		if isRecipeType(val["@type"]) {
			return val
		}
		if graph, ok := val["@graph"]; ok {
			if r := findRecipe(graph); r != nil {
				return r
			}
		}
		for _, key := range []string{"mainEntity", "mainEntityOfPage", "itemListElement", "item"} {
			if nested, ok := val[key]; ok {
				if r := findRecipe(nested); r != nil {
					return r
				}
			}
		}
	}
	return nil
}

func isRecipeType(t interface{}) bool {
	switch val := t.(type) {
	case string:
		name := val
		if i := strings.LastIndexAny(name, "/:"); i >= 0 {
			name = name[i+1:]
		}
		return strings.EqualFold(name, "Recipe")
	case []interface{}:
		for _, item := range val {
			if isRecipeType(item) {
				return true
			}
		}
	}
	return false
}
