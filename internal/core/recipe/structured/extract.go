// Package structured 從頁面內嵌的 schema.org Recipe（JSON-LD 或 microdata）萃取食譜
package structured

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"recipe-parser/internal/core/recipe/dom"
	"recipe-parser/internal/core/recipe/lexicon"
	"recipe-parser/internal/core/recipe/normalize"
	"recipe-parser/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	minTitleLength       = 3
	minInstructionLength = 10
	maxAttributionWords  = 3
)

var servingsPattern = regexp.MustCompile(`\d+`)

// Extract 萃取頁面上的結構化食譜
// 找不到或不符合最低條件時回傳 false，不視為錯誤
func Extract(page *dom.Page) (*common.Draft, bool) {
	if page == nil || page.Doc == nil {
		return nil, false
	}

	source := "json-ld"
	var recipe map[string]interface{}
	for _, block := range jsonLDBlocks(page) {
		if recipe = findRecipe(block); recipe != nil {
			break
		}
	}
	if recipe == nil {
		source = "microdata"
		recipe = microdataRecipe(page)
	}
	if recipe == nil {
		return nil, false
	}

	draft := fromSchema(recipe)
	if len([]rune(draft.Title)) <= minTitleLength || draft.IngredientCount() == 0 || len(draft.Instructions) == 0 {
		common.LogDebug("結構化資料不完整",
			zap.String("source", source),
			zap.Int("title_length", len(draft.Title)),
			zap.Int("ingredients", draft.IngredientCount()),
			zap.Int("instructions", len(draft.Instructions)),
		)
		return nil, false
	}

	common.LogDebug("結構化資料萃取成功",
		zap.String("source", source),
		zap.Int("ingredients", draft.IngredientCount()),
		zap.Int("instructions", len(draft.Instructions)),
	)
	return draft, true
}

func fromSchema(r map[string]interface{}) *common.Draft {
	d := &common.Draft{
		Title:    firstString(r, "name", "headline"),
		Author:   author(r),
		ImageURL: imageURL(r["image"]),
		Summary:  common.StripTags(firstString(r, "description")),
		Servings: servings(r["recipeYield"]),
	}
	if d.Servings == 0 {
		d.Servings = servings(r["yield"])
	}
	d.PrepTimeMinutes = duration(r["prepTime"])
	d.CookTimeMinutes = duration(r["cookTime"])
	d.TotalTimeMinutes = duration(r["totalTime"])

	ingredients := make([]common.Ingredient, 0)
	raw := r["recipeIngredient"]
	if raw == nil {
		raw = r["ingredients"]
	}
	for _, s := range flattenStrings(raw) {
		if text := common.StripTags(s); text != "" {
			ingredients = append(ingredients, common.Ingredient{Name: text})
		}
	}
	d.Ingredients = []common.IngredientGroup{{Ingredients: ingredients}}

	for _, s := range instructionTexts(r["recipeInstructions"]) {
		text := common.StripTags(s)
		if len(text) <= minInstructionLength || isAttribution(text) {
			continue
		}
		d.Instructions = append(d.Instructions, common.StringStep(text))
	}
	return d
}

func firstString(r map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := r[k].(string); ok {
			if s = common.CleanText(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// author 依序取 author、publisher、creator；值可為字串、含 name 的物件或陣列
func author(r map[string]interface{}) string {
	for _, key := range []string{"author", "publisher", "creator"} {
		if name := personName(r[key]); name != "" {
			return name
		}
	}
	return ""
}

func personName(v interface{}) string {
	switch val := v.(type) {
	case string:
		return common.CleanText(val)
	case map[string]interface{}:
		return firstString(val, "name")
	case []interface{}:
		for _, item := range val {
			if name := personName(item); name != "" {
				return name
			}
		}
	}
	return ""
}

func imageURL(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case map[string]interface{}:
		if s, ok := val["url"].(string); ok {
			return strings.TrimSpace(s)
		}
		if s, ok := val["contentUrl"].(string); ok {
			return strings.TrimSpace(s)
		}
	case []interface{}:
		for _, item := range val {
			if u := imageURL(item); u != "" {
				return u
			}
		}
	}
	return ""
}

// servings 接受數字或 "4 servings"、"Serves 4-6" 等文字，取第一個正整數
func servings(v interface{}) int {
	switch val := v.(type) {
	case string:
		if m := servingsPattern.FindString(val); m != "" {
			if n, err := strconv.Atoi(m); err == nil && n > 0 {
				return n
			}
		}
	case []interface{}:
		for _, item := range val {
			if n := servings(item); n > 0 {
				return n
			}
		}
	default:
		if n, ok := normalize.PositiveInt(val); ok {
			return n
		}
	}
	return 0
}

func duration(v interface{}) int {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	if minutes, ok := common.ParseISODuration(s); ok && minutes > 0 {
		return minutes
	}
	return 0
}

func flattenStrings(v interface{}) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []interface{}:
		var out []string
		for _, item := range val {
			out = append(out, flattenStrings(item)...)
		}
		return out
	}
	return nil
}

// instructionTexts 將字串、HowToStep、HowToSection 等形式攤平成文字
func instructionTexts(v interface{}) []string {
	switch val := v.(type) {
	case string:
		var out []string
		for _, line := range strings.Split(val, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		return out
	case []interface{}:
		var out []string
		for _, item := range val {
			out = append(out, instructionTexts(item)...)
		}
		return out
	case map[string]interface{}:
		if items, ok := val["itemListElement"]; ok {
			return instructionTexts(items)
		}
		for _, key := range []string{"text", "description", "name"} {
			if s, ok := val[key].(string); ok && strings.TrimSpace(s) != "" {
				return []string{s}
			}
		}
	}
	return nil
}

// isAttribution 判斷步驟文字是否其實是作者署名
// 規則刻意寬鬆：可能誤刪 "Serve hot." 之類的短步驟，也可能放過與食物相關的人名
func isAttribution(text string) bool {
	if strings.HasPrefix(text, "By ") {
		return true
	}
	words := strings.Fields(text)
	if len(words) == 0 || len(words) > maxAttributionWords {
		return false
	}
	if lexicon.ContainsCookingVerb(text) {
		return false
	}
	for _, w := range words {
		if !isNameWord(w) {
			return false
		}
	}
	return true
}

func isNameWord(w string) bool {
	w = strings.TrimRight(w, ".,")
	runes := []rune(w)
	if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !unicode.IsLetter(r) && r != '\'' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}
