package aiextract

import (
	"fmt"
	"strings"

	"recipe-parser/internal/core/recipe/normalize"
)

// NoRecipeSignal 模型判斷沒有食譜時回傳的標題
const NoRecipeSignal = "No recipe found"

const roleSection = `<ROLE>
You are a recipe extraction engine. You read recipe web pages or photographs of recipes and return one structured JSON object. You never add commentary.
</ROLE>`

const outputRulesSection = `<OUTPUT_RULES>
1. Return raw JSON only. No markdown fences, no prose before or after the object.
2. Every instruction is an object {"title": "...", "detail": "..."}. Never return an instruction as a bare string.
   - "title" is a short label for the step (2-5 words).
   - "detail" is the instruction text as written in the source.
3. Ingredients are grouped. When the recipe has 5 or more ingredients, return at least 2 meaningful groups
   (for example "Sauce", "Marinade", "Main", "Seasoning", "Garnish", "Base"). Infer groups from what each
   ingredient does when the source has no explicit grouping. Every group has a non-empty "groupName".
4. Every ingredient has string fields "amount", "units" and "name". Use "as needed" as the amount when no
   quantity is given, and leave "units" empty only in that case. "description" is optional (max 80 characters),
   "substitutions" is an optional list of at most 3 strings.
5. "summary" is exactly one sentence of at most 200 characters.
6. Times are whole minutes. Servings is a whole number. Omit a field rather than guessing zero.
</OUTPUT_RULES>`

const enrichmentSection = `<ENRICHMENT>
- "cuisine": an array of 0-3 values chosen ONLY from this list: %s.
  Infer it from title keywords, characteristic ingredients and technique. Use several values for fusion dishes.
- "storageGuide": how to store leftovers. "shelfLife": {"fridge": days, "freezer": days or null when freezing is not recommended}.
- "platingNotes": how to plate and present the dish, "servingVessel": the recommended dish or bowl,
  "servingTemp": the recommended serving temperature (for example "hot", "warm", "room temperature", "chilled").
</ENRICHMENT>`

const noRecipeSection = `<NO_RECIPE>
If the input does not contain a recipe, return {"title": "` + NoRecipeSignal + `", "ingredients": [], "instructions": []}.
</NO_RECIPE>`

const outputFormatSection = `<OUTPUT_FORMAT>
{
  "title": "Recipe title",
  "author": "Author name",
  "summary": "One sentence.",
  "servings": 4,
  "prepTimeMinutes": 15,
  "cookTimeMinutes": 30,
  "totalTimeMinutes": 45,
  "ingredients": [
    {"groupName": "Sauce", "ingredients": [
      {"amount": "2", "units": "tbsp", "name": "soy sauce", "description": "adds salt and depth", "substitutions": ["tamari"]}
    ]}
  ],
  "instructions": [
    {"title": "Make the sauce", "detail": "Whisk the soy sauce and honey together.", "timeMinutes": 2, "usedIngredients": ["soy sauce", "honey"], "tip": "Warm the honey first."}
  ],
  "cuisine": ["Japanese"],
  "storageGuide": "Refrigerate in an airtight container.",
  "shelfLife": {"fridge": 3, "freezer": 30},
  "platingNotes": "Serve over rice and garnish with scallions.",
  "servingVessel": "shallow bowl",
  "servingTemp": "hot"
}
</OUTPUT_FORMAT>`

// SystemPrompt 萃取合約
func SystemPrompt() string {
	return strings.Join([]string{
		roleSection,
		outputRulesSection,
		fmt.Sprintf(enrichmentSection, strings.Join(normalize.Taxonomy, ", ")),
		noRecipeSection,
		outputFormatSection,
	}, "\n\n")
}

// HTMLPrompt 網頁萃取請求，HTML 超過上限時截斷
func HTMLPrompt(cleanedHTML string, maxChars int) string {
	body := cleanedHTML
	if maxChars > 0 && len(body) > maxChars {
		body = strings.ToValidUTF8(body[:maxChars], "")
	}
	return "Extract the recipe from this web page HTML:\n\n" + body
}

// ImagePrompt 照片萃取請求
func ImagePrompt() string {
	return "Extract the recipe shown in this photo. Read every ingredient and step visible in the image."
}
