package heuristic

import (
	"strings"
	"unicode"

	"recipe-parser/internal/core/recipe/dom"
	"recipe-parser/internal/core/recipe/lexicon"
	"recipe-parser/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/net/html/atom"
)

const (
	// 內文無法辨識時的佔位文字
	NoIngredientsPlaceholder  = "No ingredients found"
	NoInstructionsPlaceholder = "No instructions found"

	maxContentIngredients  = 20
	maxContentInstructions = 15

	maxContentIngredientChars = 200
	minContentStepChars       = 20
	maxContentStepChars       = 500

	minContentIngredients  = 3
	minContentInstructions = 2
)

// ContentStage 最後手段：把可見文字切成句子再以關鍵字分類
type ContentStage struct{}

// NewContentStage 建立內文啟發式階段
func NewContentStage() *ContentStage {
	return &ContentStage{}
}

// Name 階段名稱
func (s *ContentStage) Name() string { return "content-heuristic" }

// Extract 一定回傳暫定食譜，類別為空時以佔位文字填入
// 只有在兩個類別都有足夠的真實候選時才回報達到門檻
func (s *ContentStage) Extract(page *dom.Page) (*common.Draft, bool) {
	root := dom.FindFirst(page.Doc, dom.ByTag(atom.Body))
	if root == nil {
		root = page.Doc
	}

	var ingredients, steps []string
	seen := make(map[string]bool)
	for _, sentence := range Sentences(dom.BlockText(root)) {
		if seen[sentence] {
			continue
		}
		seen[sentence] = true

		switch classify(sentence) {
		case CategoryIngredient:
			if len(ingredients) < maxContentIngredients {
				ingredients = append(ingredients, sentence)
			}
		case CategoryInstruction:
			if len(steps) < maxContentInstructions {
				steps = append(steps, sentence)
			}
		}
	}

	accepted := len(ingredients) >= minContentIngredients && len(steps) >= minContentInstructions
	common.LogDebug("內文啟發式結果",
		zap.Int("ingredients", len(ingredients)),
		zap.Int("instructions", len(steps)),
		zap.Bool("accepted", accepted),
	)

	if len(ingredients) == 0 {
		ingredients = []string{NoIngredientsPlaceholder}
	}
	if len(steps) == 0 {
		steps = []string{NoInstructionsPlaceholder}
	}
	return newDraft(page, rawIngredients(ingredients), steps), accepted
}

// classify 以祈使句開頭判斷步驟優先，其次看度量單位
func classify(sentence string) Category {
	n := len(sentence)
	isStep := n >= minContentStepChars && n <= maxContentStepChars && lexicon.ContainsCookingVerb(sentence)
	isIngredient := n < maxContentIngredientChars && lexicon.ContainsUnit(sentence)

	switch {
	case isStep && lexicon.StartsWithCookingVerb(sentence):
		return CategoryInstruction
	case isIngredient:
		return CategoryIngredient
	case isStep:
		return CategoryInstruction
	}
	return -1
}

// Sentences 以換行與句尾標點切分文字
func Sentences(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = common.NormalizeWhitespace(line)
		if line == "" {
			continue
		}
		start := 0
		runes := []rune(line)
		for i, r := range runes {
			if r != '.' && r != '!' && r != '?' {
				continue
			}
			// 小數點不切
			if r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
				continue
			}
			if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
				continue
			}
			if r == '.' && unitAbbreviation(runes, i) {
				continue
			}
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// unitAbbreviation "1 tsp. salt" 的句點屬於單位縮寫：前一個字是單位且下一個字不是大寫開頭
func unitAbbreviation(runes []rune, dot int) bool {
	start := dot
	for start > 0 && unicode.IsLetter(runes[start-1]) {
		start--
	}
	if start == dot {
		return false
	}
	if _, ok := lexicon.IsUnit(string(runes[start:dot])); !ok {
		return false
	}
	next := dot + 1
	for next < len(runes) && unicode.IsSpace(runes[next]) {
		next++
	}
	return next < len(runes) && !unicode.IsUpper(runes[next])
}
