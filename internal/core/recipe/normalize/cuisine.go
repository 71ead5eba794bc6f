package normalize

import (
	"strings"
)

// MaxCuisines 單一食譜最多保留的料理標籤數
const MaxCuisines = 3

// Taxonomy 允許輸出的料理分類（封閉清單，輸出一律使用此處的大小寫）
var Taxonomy = []string{
	"American", "Southern", "Cajun", "Tex-Mex", "Mexican", "Caribbean", "Brazilian", "Peruvian", "Latin American",
	"British", "Irish", "French", "Italian", "Spanish", "Portuguese", "Greek", "German", "Scandinavian",
	"Eastern European", "Mediterranean", "Middle Eastern", "Turkish", "Lebanese", "Persian", "Moroccan",
	"North African", "Ethiopian", "West African", "Indian", "Pakistani", "Nepalese", "Thai", "Vietnamese",
	"Chinese", "Taiwanese", "Japanese", "Korean", "Filipino", "Indonesian", "Malaysian", "Hawaiian", "Fusion",
}

var taxonomyIndex = func() map[string]string {
	idx := make(map[string]string, len(Taxonomy))
	for _, c := range Taxonomy {
		idx[strings.ToLower(c)] = c
	}
	return idx
}()

// Cuisine 將字串或字串陣列比對分類清單
// 無任何符合時回傳 nil，而不是空陣列
func Cuisine(v interface{}) []string {
	var candidates []string
	switch val := v.(type) {
	case string:
		candidates = splitCuisine(val)
	case []string:
		for _, s := range val {
			candidates = append(candidates, splitCuisine(s)...)
		}
	case []interface{}:
		for _, item := range val {
			if s, ok := item.(string); ok {
				candidates = append(candidates, splitCuisine(s)...)
			}
		}
	default:
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		canonical, ok := taxonomyIndex[strings.ToLower(c)]
		if !ok || seen[canonical] {
			continue
		}
		seen[canonical] = true
		out = append(out, canonical)
		if len(out) == MaxCuisines {
			break
		}
	}
	return out
}

// IsCuisine 是否為分類清單內的值（不分大小寫）
func IsCuisine(s string) bool {
	_, ok := taxonomyIndex[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

func splitCuisine(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			out = append(out, p)
		}
	}
	return out
}
