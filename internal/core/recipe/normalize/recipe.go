// Package normalize 將各萃取階段的暫定結果整理成最終輸出的 Recipe
package normalize

import (
	"regexp"
	"strings"

	"recipe-parser/internal/pkg/common"
)

const maxSummaryChars = 200

// 句點後接空白或字串結尾才視為句子結尾，避免切斷 "1.5 cups"
var sentenceEnd = regexp.MustCompile(`[.!?。！？](?:\s+|$)`)

// Recipe 正規化暫定食譜
// Ingredients 與 Instructions 一律不為 nil
func Recipe(d *common.Draft) common.Recipe {
	if d == nil {
		return common.Recipe{
			Ingredients:  []common.IngredientGroup{},
			Instructions: []common.InstructionStep{},
		}
	}

	r := common.Recipe{
		Title:            common.CleanText(d.Title),
		Author:           common.CleanText(d.Author),
		SourceURL:        strings.TrimSpace(d.SourceURL),
		ImageURL:         strings.TrimSpace(d.ImageURL),
		Summary:          Summary(d.Summary),
		Servings:         positiveOrZero(d.Servings),
		PrepTimeMinutes:  positiveOrZero(d.PrepTimeMinutes),
		CookTimeMinutes:  positiveOrZero(d.CookTimeMinutes),
		TotalTimeMinutes: positiveOrZero(d.TotalTimeMinutes),
		Ingredients:      Groups(d.Ingredients),
		Instructions:     Instructions(d.Instructions),
		StorageGuide:     common.CleanText(d.StorageGuide),
		ShelfLife:        shelfLife(d.ShelfLife),
		PlatingNotes:     common.CleanText(d.PlatingNotes),
		ServingVessel:    common.CleanText(d.ServingVessel),
		ServingTemp:      common.CleanText(d.ServingTemp),
	}
	if len(d.Cuisine) > 0 {
		r.Cuisine = Cuisine(d.Cuisine)
	}
	return r
}

// Summary 只保留第一句，最多 200 字元
func Summary(s string) string {
	s = common.CleanText(s)
	if s == "" {
		return ""
	}
	if loc := sentenceEnd.FindStringIndex(s); loc != nil {
		s = strings.TrimSpace(s[:loc[0]+len(strings.TrimRightFunc(s[loc[0]:loc[1]], isSpace))])
	}
	return common.Truncate(s, maxSummaryChars)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func positiveOrZero(n int) int {
	if n > 0 {
		return n
	}
	return 0
}

func shelfLife(s *common.ShelfLife) *common.ShelfLife {
	if s == nil {
		return nil
	}
	out := &common.ShelfLife{Fridge: positiveOrZero(s.Fridge)}
	if s.Freezer != nil && *s.Freezer > 0 {
		days := *s.Freezer
		out.Freezer = &days
	}
	if out.Fridge == 0 && out.Freezer == nil {
		return nil
	}
	return out
}
