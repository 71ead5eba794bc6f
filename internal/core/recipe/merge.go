package recipe

import (
	"strings"

	"recipe-parser/internal/core/recipe/normalize"
	"recipe-parser/internal/pkg/common"
)

// mergeDrafts 以結構化資料為基準合併 AI 結果
// 份量與時間以結構化資料優先，料理類型、保存與擺盤只來自 AI
func mergeDrafts(structured, ai *common.Draft) *common.Draft {
	if ai == nil {
		return structured
	}
	merged := *structured

	merged.Title = firstNonEmpty(structured.Title, ai.Title)
	merged.Author = firstNonEmpty(structured.Author, ai.Author)
	merged.Summary = firstNonEmpty(structured.Summary, ai.Summary)
	merged.ImageURL = firstNonEmpty(structured.ImageURL, ai.ImageURL)

	merged.Servings = firstPositive(structured.Servings, ai.Servings)
	merged.PrepTimeMinutes = firstPositive(structured.PrepTimeMinutes, ai.PrepTimeMinutes)
	merged.CookTimeMinutes = firstPositive(structured.CookTimeMinutes, ai.CookTimeMinutes)
	merged.TotalTimeMinutes = firstPositive(structured.TotalTimeMinutes, ai.TotalTimeMinutes)

	if preferAIGroups(structured.Ingredients, ai.Ingredients) {
		merged.Ingredients = ai.Ingredients
	} else {
		merged.Ingredients = annotateIngredients(structured.Ingredients, ai.Ingredients)
	}
	merged.Instructions = alignSteps(structured.Instructions, ai.Instructions)

	merged.Cuisine = ai.Cuisine
	merged.StorageGuide = ai.StorageGuide
	merged.ShelfLife = ai.ShelfLife
	merged.PlatingNotes = ai.PlatingNotes
	merged.ServingVessel = ai.ServingVessel
	merged.ServingTemp = ai.ServingTemp
	return &merged
}

// preferAIGroups 結構化資料只有單一未命名分組，且 AI 提供更好的分組時才採用 AI
func preferAIGroups(structured, ai []common.IngredientGroup) bool {
	if len(structured) != 1 || !normalize.IsGenericGroupName(structured[0].GroupName) {
		return false
	}
	switch {
	case len(ai) > 1:
		return true
	case len(ai) == 1:
		return !normalize.IsGenericGroupName(ai[0].GroupName)
	}
	return false
}

// annotateIngredients 保留結構化食材，補上 AI 的說明與替代品
func annotateIngredients(groups, ai []common.IngredientGroup) []common.IngredientGroup {
	var known []common.Ingredient
	for _, g := range ai {
		for _, ing := range g.Ingredients {
			if ing.Description != "" || len(ing.Substitutions) > 0 {
				known = append(known, ing)
			}
		}
	}
	if len(known) == 0 {
		return groups
	}

	out := make([]common.IngredientGroup, len(groups))
	for i, g := range groups {
		out[i] = common.IngredientGroup{GroupName: g.GroupName, Ingredients: make([]common.Ingredient, len(g.Ingredients))}
		for j, ing := range g.Ingredients {
			if match, ok := matchIngredient(ing, known); ok {
				if ing.Description == "" {
					ing.Description = match.Description
				}
				if len(ing.Substitutions) == 0 {
					ing.Substitutions = match.Substitutions
				}
			}
			out[i].Ingredients[j] = ing
		}
	}
	return out
}

// matchIngredient 以名稱包含關係比對，取最長的名稱避免 "salt" 搶走 "sea salt flakes"
func matchIngredient(ing common.Ingredient, candidates []common.Ingredient) (common.Ingredient, bool) {
	text := strings.ToLower(ing.Name)
	var best common.Ingredient
	found := false
	for _, c := range candidates {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" || !strings.Contains(text, name) {
			continue
		}
		if !found || len(name) > len(best.Name) {
			best = c
			found = true
		}
	}
	return best, found
}

// alignSteps 保留結構化步驟內文；步驟數相同時套用 AI 的標題與附加欄位
func alignSteps(structured, ai []common.RawStep) []common.RawStep {
	if len(structured) == 0 {
		return ai
	}
	if len(ai) != len(structured) {
		return structured
	}
	out := make([]common.RawStep, len(structured))
	for i, s := range structured {
		out[i] = s
		if !ai[i].IsObject() || s.IsObject() {
			continue
		}
		fields := make(map[string]interface{}, len(ai[i].Fields)+1)
		for k, v := range ai[i].Fields {
			fields[k] = v
		}
		fields["detail"] = s.Text
		out[i] = common.ObjectStep(fields)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
