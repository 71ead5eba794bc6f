package heuristic

import (
	"regexp"
	"strings"

	"recipe-parser/internal/core/recipe/dom"
	"recipe-parser/internal/pkg/common"

	"go.uber.org/zap"
)

// Category 規則萃取的內容類別
type Category int

const (
	CategoryIngredient Category = iota
	CategoryInstruction
)

// Rule 一條選擇器樣式：Pattern 的第一個群組為元素內文
type Rule struct {
	Name     string
	Category Category
	Pattern  *regexp.Regexp
	// WPRM 食材以 amount/unit/name/notes 分欄
	Fields bool
}

const (
	minSelectorIngredients  = 3
	minSelectorInstructions = 2

	minIngredientChars  = 3
	maxIngredientChars  = 200
	minInstructionChars = 11
	maxInstructionChars = 1000
)

// element 組出「含指定屬性的開標籤 ... 對應結束標籤」的樣式
func element(tags, attr string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)<(?:` + tags + `)\b[^>]*` + attr + `[^>]*>(.*?)</(?:` + tags + `)>`)
}

func classHas(substr string) string {
	return `class\s*=\s*["'][^"']*` + substr + `[^"']*["']`
}

// DefaultRules 各大食譜網站常見的標記慣例，依可靠度排序
// 同一類別中第一條取得內容的規則勝出
var DefaultRules = []Rule{
	{Name: "allrecipes-testid", Category: CategoryIngredient, Pattern: element("li|div|span|p", `data-testid\s*=\s*["']ingredient-item["']`)},
	{Name: "dotdash-structured", Category: CategoryIngredient, Pattern: element("li", classHas(`mntl-structured-ingredients__list-item`))},
	{Name: "allrecipes-item-name", Category: CategoryIngredient, Pattern: element("span|li|div|p", classHas(`ingredients-item-name`))},
	{Name: "wprm", Category: CategoryIngredient, Pattern: element("li", `class\s*=\s*["'](?:[^"']*\s)?wprm-recipe-ingredient(?:\s[^"']*)?["']`), Fields: true},
	{Name: "tasty-recipes", Category: CategoryIngredient, Pattern: element("li", `data-tr-ingredient-checkbox`)},
	{Name: "mediavine-create", Category: CategoryIngredient, Pattern: element("li", classHas(`mv-create-ingredient`))},
	{Name: "ingredient-item", Category: CategoryIngredient, Pattern: element("li|div|span|p", classHas(`ingredient-item`))},
	{Name: "generic-ingredient-li", Category: CategoryIngredient, Pattern: element("li", classHas(`ingredient`))},
	{Name: "generic-ingredient", Category: CategoryIngredient, Pattern: element("span|div|p", classHas(`ingredient`))},

	{Name: "allrecipes-testid", Category: CategoryInstruction, Pattern: element("li|div|p", `data-testid\s*=\s*["']instruction-step["']`)},
	{Name: "allrecipes-section-item", Category: CategoryInstruction, Pattern: element("li|div", classHas(`instructions-section-item`))},
	{Name: "dotdash-steps", Category: CategoryInstruction, Pattern: element("li", classHas(`mntl-sc-block-group--LI`))},
	{Name: "wprm", Category: CategoryInstruction, Pattern: element("div|span|p", classHas(`wprm-recipe-instruction-text`))},
	{Name: "mediavine-create", Category: CategoryInstruction, Pattern: element("li", classHas(`mv-create-instruction`))},
	{Name: "generic-instruction-li", Category: CategoryInstruction, Pattern: element("li", classHas(`instruction`))},
	{Name: "generic-step", Category: CategoryInstruction, Pattern: element("li|p|div", classHas(`step`))},
	{Name: "generic-instruction", Category: CategoryInstruction, Pattern: element("div|p|span", classHas(`instruction`))},
}

var wprmFieldPattern = regexp.MustCompile(`(?is)<span\b[^>]*class\s*=\s*["'][^"']*wprm-recipe-ingredient-(amount|unit|name|notes)\b[^"']*["'][^>]*>(.*?)</span>`)

// SelectorStage 以宣告式規則表比對原始 HTML
type SelectorStage struct {
	rules []Rule
}

// NewSelectorStage 建立選擇器樣式階段
func NewSelectorStage(rules []Rule) *SelectorStage {
	return &SelectorStage{rules: rules}
}

// Name 階段名稱
func (s *SelectorStage) Name() string { return "selector-pattern" }

// Extract 至少 3 筆食材與 2 筆步驟才算成功
func (s *SelectorStage) Extract(page *dom.Page) (*common.Draft, bool) {
	var (
		ingredients     []common.Ingredient
		steps           []string
		ingRule, insRule string
	)

	for _, rule := range s.rules {
		switch rule.Category {
		case CategoryIngredient:
			if len(ingredients) > 0 {
				continue
			}
			if found := matchIngredients(page.HTML, rule); len(found) > 0 {
				ingredients, ingRule = found, rule.Name
			}
		case CategoryInstruction:
			if len(steps) > 0 {
				continue
			}
			if found := matchTexts(page.HTML, rule.Pattern, minInstructionChars, maxInstructionChars); len(found) > 0 {
				steps, insRule = found, rule.Name
			}
		}
	}

	common.LogDebug("選擇器樣式比對結果",
		zap.String("ingredient_rule", ingRule),
		zap.Int("ingredients", len(ingredients)),
		zap.String("instruction_rule", insRule),
		zap.Int("instructions", len(steps)),
	)

	if len(ingredients) < minSelectorIngredients || len(steps) < minSelectorInstructions {
		return nil, false
	}
	return newDraft(page, ingredients, steps), true
}

func matchIngredients(raw string, rule Rule) []common.Ingredient {
	if !rule.Fields {
		return rawIngredients(matchTexts(raw, rule.Pattern, minIngredientChars, maxIngredientChars))
	}

	var out []common.Ingredient
	for _, m := range rule.Pattern.FindAllStringSubmatch(raw, -1) {
		ing := wprmIngredient(m[1])
		if ing.Name == "" {
			continue
		}
		out = append(out, ing)
	}
	return out
}

// wprmIngredient 讀取分欄的 WPRM 食材，notes 作為說明
func wprmIngredient(inner string) common.Ingredient {
	var ing common.Ingredient
	for _, f := range wprmFieldPattern.FindAllStringSubmatch(inner, -1) {
		value := common.StripTags(f[2])
		switch strings.ToLower(f[1]) {
		case "amount":
			ing.Amount = value
		case "unit":
			ing.Units = value
		case "name":
			ing.Name = value
		case "notes":
			ing.Description = strings.Trim(value, " ()")
		}
	}
	if ing.Name == "" {
		// 未分欄時整段當名稱
		if text := common.StripTags(inner); len(text) >= minIngredientChars && len(text) < maxIngredientChars {
			ing.Name = text
		}
	}
	return ing
}

func matchTexts(raw string, pattern *regexp.Regexp, minLen, maxLen int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range pattern.FindAllStringSubmatch(raw, -1) {
		text := common.StripTags(m[1])
		if len(text) < minLen || len(text) > maxLen || seen[text] {
			continue
		}
		seen[text] = true
		out = append(out, text)
	}
	return out
}
