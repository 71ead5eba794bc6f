// Package lexicon 食譜文字判斷用的共用字彙：度量單位與烹飪動詞
package lexicon

import (
	"regexp"
	"strings"
)

// Units 可辨識的度量單位（單數形）
var Units = []string{
	"cup", "tablespoon", "tbsp", "teaspoon", "tsp", "ounce", "oz", "pound", "lb",
	"gram", "kilogram", "kg", "milliliter", "millilitre", "ml", "liter", "litre",
	"pinch", "dash", "clove", "slice", "can", "package", "stick", "quart", "pint",
	"gallon", "bunch", "handful", "sprig", "piece", "head", "jar", "bottle", "bag",
}

// CookingVerbs 烹飪動作
var CookingVerbs = []string{
	"preheat", "heat", "bake", "boil", "simmer", "stir", "mix", "whisk", "combine",
	"add", "pour", "chop", "dice", "slice", "mince", "cook", "fry", "saute", "sauté",
	"roast", "grill", "blend", "season", "serve", "place", "remove", "cover", "drain",
	"knead", "fold", "beat", "spread", "sprinkle", "transfer", "bring", "reduce",
	"marinate", "toss", "melt", "cut", "peel", "garnish", "cool", "refrigerate",
	"broil", "steam", "flip", "rinse", "arrange", "strain", "grease", "line", "top",
	"let", "set", "allow", "bring", "prepare", "brush", "shape", "roll", "chill",
}

var (
	unitPattern = regexp.MustCompile(`(?i)\b(?:` + pluralAlternation(Units) + `)\b|\d\s*(?:g|kg|ml|l)\b`)

	// 含變化形：stir / stirs / stirred / stirring，bake / baking
	verbPattern        = regexp.MustCompile(`(?i)(?:^|[^\pL])(?:` + verbAlternation() + `)(?:[^\pL]|$)`)
	leadingVerbPattern = regexp.MustCompile(`(?i)^\W*(?:` + verbAlternation() + `)(?:[^\pL]|$)`)
)

func pluralAlternation(words []string) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		suffix := "s?"
		if strings.HasSuffix(w, "ch") || strings.HasSuffix(w, "sh") {
			suffix = "(?:es)?"
		}
		parts = append(parts, regexp.QuoteMeta(w)+suffix)
	}
	return strings.Join(parts, "|")
}

func verbAlternation() string {
	seen := make(map[string]bool)
	var parts []string
	for _, v := range CookingVerbs {
		for _, form := range Inflections(v) {
			if seen[form] {
				continue
			}
			seen[form] = true
			parts = append(parts, regexp.QuoteMeta(form))
		}
	}
	return strings.Join(parts, "|")
}

// Inflections 動詞的常見變化形
// 子音結尾的短動詞同時列出重複字尾的寫法（chop -> chopped, chopping）
func Inflections(verb string) []string {
	forms := []string{verb, verb + "s", verb + "es", verb + "d", verb + "ed", verb + "ing"}
	runes := []rune(verb)
	n := len(runes)
	if n == 0 {
		return nil
	}
	last := runes[n-1]
	switch {
	case last == 'e':
		stem := string(runes[:n-1])
		forms = append(forms, stem+"ing")
	case n >= 2 && isVowel(runes[n-2]) && !isVowel(last) && !strings.ContainsRune("wxy", last):
		doubled := verb + string(last)
		forms = append(forms, doubled+"ed", doubled+"ing")
	}
	return forms
}

func isVowel(r rune) bool {
	return strings.ContainsRune("aeiou", r)
}

// ContainsUnit 是否含有度量單位
func ContainsUnit(s string) bool {
	return unitPattern.MatchString(s)
}

// ContainsCookingVerb 是否含有烹飪動詞
func ContainsCookingVerb(s string) bool {
	return verbPattern.MatchString(s)
}

// StartsWithCookingVerb 是否以烹飪動詞開頭（祈使句）
func StartsWithCookingVerb(s string) bool {
	return leadingVerbPattern.MatchString(s)
}

// IsUnit 單一字詞是否為度量單位，回傳正規化後的寫法
func IsUnit(word string) (string, bool) {
	w := strings.ToLower(strings.Trim(word, ".,;:()"))
	if w == "g" || w == "l" {
		return w, true
	}
	for _, u := range Units {
		if w == u || w == u+"s" || w == u+"es" {
			return w, true
		}
	}
	return "", false
}
