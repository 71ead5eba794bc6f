// Package heuristic 沒有結構化資料時使用的備援萃取：選擇器樣式、語意清單、內文啟發式
package heuristic

import (
	"recipe-parser/internal/core/recipe/dom"
	"recipe-parser/internal/pkg/common"

	"go.uber.org/zap"
)

// Stage 單一備援階段
// Extract 的 bool 代表是否達到該階段的最低門檻
type Stage interface {
	Name() string
	Extract(page *dom.Page) (*common.Draft, bool)
}

// Chain 依強度排序的備援階段
type Chain struct {
	stages []Stage
}

// NewChain 建立預設的三段式備援
func NewChain() *Chain {
	return NewChainWithStages(NewSelectorStage(DefaultRules), NewSemanticStage(), NewContentStage())
}

// NewChainWithStages 使用指定階段建立備援鏈
func NewChainWithStages(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// Run 依序執行各階段，回傳第一個達到門檻的結果與階段名稱
func (c *Chain) Run(page *dom.Page) (*common.Draft, string, bool) {
	if page == nil {
		return nil, "", false
	}
	for _, stage := range c.stages {
		draft, ok := stage.Extract(page)
		if ok && draft != nil && draft.IngredientCount() > 0 && len(draft.Instructions) > 0 {
			common.LogInfo("備援萃取成功",
				zap.String("stage", stage.Name()),
				zap.Int("ingredients", draft.IngredientCount()),
				zap.Int("instructions", len(draft.Instructions)),
			)
			return draft, stage.Name(), true
		}
		common.LogDebug("備援階段未達門檻", zap.String("stage", stage.Name()))
	}
	return nil, "", false
}

// newDraft 建立只有單一未命名分組的暫定食譜
func newDraft(page *dom.Page, ingredients []common.Ingredient, steps []string) *common.Draft {
	d := &common.Draft{
		Title:       ExtractTitle(page),
		ImageURL:    ExtractImage(page),
		Ingredients: []common.IngredientGroup{{Ingredients: ingredients}},
	}
	for _, s := range steps {
		d.Instructions = append(d.Instructions, common.StringStep(s))
	}
	return d
}

func rawIngredients(lines []string) []common.Ingredient {
	out := make([]common.Ingredient, 0, len(lines))
	for _, l := range lines {
		out = append(out, common.Ingredient{Name: l})
	}
	return out
}
