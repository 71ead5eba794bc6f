package normalize

import (
	"regexp"
	"strings"

	"recipe-parser/internal/core/recipe/lexicon"
	"recipe-parser/internal/pkg/common"
)

const (
	maxDescriptionChars = 80
	maxSubstitutions    = 3

	// 有數量但沒有單位時使用的單位
	countUnit = "whole"
)

const fractionChars = "½⅓⅔¼¾⅕⅖⅗⅘⅙⅚⅛⅜⅝⅞"

var (
	// 1, 1.5, 1/2, 1 1/2, 1½, ½, 2-3, 2 to 3
	quantityPattern = regexp.MustCompile(`^(` +
		`\d+\s+\d+/\d+|\d+/\d+|\d+\s*[` + fractionChars + `]|[` + fractionChars + `]|` +
		`\d+(?:[.,]\d+)?(?:\s*(?:-|–|to)\s*\d+(?:[.,]\d+)?)?` +
		`)\s*(.*)$`)

	articleUnitPattern = regexp.MustCompile(`(?i)^(a|an|one)\s+(\S+)\s+(.*)$`)
	parenPattern       = regexp.MustCompile(`^\([^)]*\)\s*`)
	genericGroupNames  = map[string]bool{
		"": true, "ingredients": true, "ingredient": true, "main": true, "main ingredients": true,
		"all": true, "other": true, "recipe": true, "for the recipe": true,
	}
)

// IsGenericGroupName 分組名稱是否只是泛稱
func IsGenericGroupName(name string) bool {
	return genericGroupNames[strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(name), ":")))]
}

// ParseIngredientLine 將單行食材拆成數量、單位、名稱
// "2 cups flour" -> 2/cups/flour，"3 eggs" -> 3/whole/eggs，無數量者 -> as needed
func ParseIngredientLine(line string) common.Ingredient {
	text := common.TrimLeadingPunct(common.CleanText(line))
	if text == "" {
		return common.Ingredient{}
	}

	if m := quantityPattern.FindStringSubmatch(text); m != nil {
		amount := strings.Join(strings.Fields(m[1]), " ")
		rest := strings.TrimSpace(m[2])
		return splitUnit(amount, rest, text)
	}

	if m := articleUnitPattern.FindStringSubmatch(text); m != nil {
		if unit, ok := lexicon.IsUnit(m[2]); ok {
			return common.Ingredient{Amount: "1", Units: unit, Name: strings.TrimPrefix(strings.TrimSpace(m[3]), "of ")}
		}
	}

	return common.Ingredient{Amount: common.AsNeeded, Name: text}
}

func splitUnit(amount, rest, original string) common.Ingredient {
	// "2 (14 oz) cans tomatoes" 的括號說明併入名稱
	note := ""
	if loc := parenPattern.FindStringIndex(rest); loc != nil {
		note = strings.TrimSpace(rest[:loc[1]])
		rest = rest[loc[1]:]
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return common.Ingredient{Amount: common.AsNeeded, Name: original}
	}

	if unit, ok := lexicon.IsUnit(fields[0]); ok {
		name := strings.TrimSpace(strings.TrimPrefix(strings.Join(fields[1:], " "), "of "))
		if name == "" {
			return common.Ingredient{Amount: common.AsNeeded, Name: original}
		}
		if note != "" {
			name = note + " " + name
		}
		return common.Ingredient{Amount: amount, Units: unit, Name: name}
	}

	name := strings.Join(fields, " ")
	if note != "" {
		name = note + " " + name
	}
	return common.Ingredient{Amount: amount, Units: countUnit, Name: name}
}

// Ingredient 整理單一食材，名稱為空時回傳 false
func Ingredient(ing common.Ingredient) (common.Ingredient, bool) {
	out := common.Ingredient{
		Amount: common.CleanText(ing.Amount),
		Units:  common.CleanText(ing.Units),
		Name:   common.CleanText(ing.Name),
	}

	switch {
	case out.Amount == "" && out.Units == "":
		if out.Name == "" {
			return common.Ingredient{}, false
		}
		parsed := ParseIngredientLine(out.Name)
		out.Amount, out.Units, out.Name = parsed.Amount, parsed.Units, parsed.Name
	case out.Amount == "":
		out.Amount = common.AsNeeded
	case strings.EqualFold(out.Amount, common.AsNeeded):
		out.Amount = common.AsNeeded
	case out.Units == "":
		out.Units = countUnit
	}

	if out.Name == "" {
		return common.Ingredient{}, false
	}

	if d := common.CleanText(ing.Description); d != "" {
		out.Description = common.Truncate(d, maxDescriptionChars)
	}

	seen := make(map[string]bool)
	for _, s := range ing.Substitutions {
		s = common.CleanText(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out.Substitutions = append(out.Substitutions, s)
		if len(out.Substitutions) == maxSubstitutions {
			break
		}
	}
	return out, true
}

// Groups 整理食材分組，移除空分組並補上預設名稱
func Groups(groups []common.IngredientGroup) []common.IngredientGroup {
	out := make([]common.IngredientGroup, 0, len(groups))
	for _, g := range groups {
		items := make([]common.Ingredient, 0, len(g.Ingredients))
		for _, ing := range g.Ingredients {
			if cleaned, ok := Ingredient(ing); ok {
				items = append(items, cleaned)
			}
		}
		if len(items) == 0 {
			continue
		}
		name := common.CleanText(g.GroupName)
		if name == "" {
			name = DefaultGroupName
		}
		out = append(out, common.IngredientGroup{GroupName: name, Ingredients: items})
	}
	return out
}

// DefaultGroupName 未命名分組的輸出名稱
const DefaultGroupName = "Ingredients"
