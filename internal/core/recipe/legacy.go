package recipe

import "recipe-parser/internal/pkg/common"

// LegacyRecipe 邊緣函式使用的扁平格式：食材與步驟皆為字串陣列
type LegacyRecipe struct {
	Title        string   `json:"title"`
	Author       string   `json:"author,omitempty"`
	SourceURL    string   `json:"sourceUrl,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	Servings     int      `json:"servings,omitempty"`
	PrepTime     int      `json:"prepTime,omitempty"`
	CookTime     int      `json:"cookTime,omitempty"`
	TotalTime    int      `json:"totalTime,omitempty"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	Cuisine      []string `json:"cuisine,omitempty"`
}

// ToLegacy 將分組食譜攤平成舊版格式
func ToLegacy(r *common.Recipe) LegacyRecipe {
	out := LegacyRecipe{
		Title:        r.Title,
		Author:       r.Author,
		SourceURL:    r.SourceURL,
		ImageURL:     r.ImageURL,
		Summary:      r.Summary,
		Servings:     r.Servings,
		PrepTime:     r.PrepTimeMinutes,
		CookTime:     r.CookTimeMinutes,
		TotalTime:    r.TotalTimeMinutes,
		Ingredients:  []string{},
		Instructions: []string{},
		Cuisine:      r.Cuisine,
	}
	for _, g := range r.Ingredients {
		for _, ing := range g.Ingredients {
			out.Ingredients = append(out.Ingredients, common.FormatIngredient(ing))
		}
	}
	for _, step := range r.Instructions {
		out.Instructions = append(out.Instructions, step.Detail)
	}
	return out
}
