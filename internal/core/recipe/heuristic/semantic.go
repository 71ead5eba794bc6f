package heuristic

import (
	"recipe-parser/internal/core/recipe/dom"
	"recipe-parser/internal/core/recipe/lexicon"
	"recipe-parser/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	ingredientListRatio  = 0.3
	instructionListRatio = 0.4

	minIngredientListItems  = 3
	minInstructionListItems = 2
)

// SemanticStage 依 <ul>/<ol> 的內容判斷食材清單與步驟清單
type SemanticStage struct{}

// NewSemanticStage 建立語意清單階段
func NewSemanticStage() *SemanticStage {
	return &SemanticStage{}
}

// Name 階段名稱
func (s *SemanticStage) Name() string { return "semantic-html" }

// Extract <ul> 中至少 30% 項目含度量單位視為食材清單，<ol> 中至少 40% 項目含烹飪動詞視為步驟清單
// 符合條件的清單項目全部保留，依文件順序合併
func (s *SemanticStage) Extract(page *dom.Page) (*common.Draft, bool) {
	var ingredients, steps []string
	matchedUL, matchedOL := 0, 0

	for _, list := range dom.FindAll(page.Doc, dom.ByTag(atom.Ul)) {
		items := listItems(list)
		if len(items) < minIngredientListItems || ratio(items, lexicon.ContainsUnit) < ingredientListRatio {
			continue
		}
		matchedUL++
		ingredients = append(ingredients, items...)
	}

	for _, list := range dom.FindAll(page.Doc, dom.ByTag(atom.Ol)) {
		items := listItems(list)
		if len(items) < minInstructionListItems || ratio(items, lexicon.ContainsCookingVerb) < instructionListRatio {
			continue
		}
		matchedOL++
		steps = append(steps, items...)
	}

	common.LogDebug("語意清單比對結果",
		zap.Int("ingredient_lists", matchedUL),
		zap.Int("ingredients", len(ingredients)),
		zap.Int("instruction_lists", matchedOL),
		zap.Int("instructions", len(steps)),
	)

	if len(ingredients) == 0 || len(steps) == 0 {
		return nil, false
	}
	return newDraft(page, rawIngredients(ingredients), steps), true
}

// listItems 清單的直接 <li> 子項目文字，略過空白項目
func listItems(list *html.Node) []string {
	var out []string
	for _, li := range dom.Children(list, atom.Li) {
		if text := dom.Text(li); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func ratio(items []string, match func(string) bool) float64 {
	if len(items) == 0 {
		return 0
	}
	hits := 0
	for _, item := range items {
		if match(item) {
			hits++
		}
	}
	return float64(hits) / float64(len(items))
}
