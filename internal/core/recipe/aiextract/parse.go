package aiextract

import (
	"fmt"
	"strings"

	"recipe-parser/internal/core/recipe/normalize"
	"recipe-parser/internal/pkg/common"
)

// FieldError 結構驗證失敗的欄位
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func fieldErr(field, format string, args ...interface{}) *FieldError {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ParseResponse 解析並驗證模型回應
// 回傳 NO_RECIPE_FOUND 或 SCHEMA_VIOLATION 類型的錯誤，不會回傳未驗證的資料
func ParseResponse(content string) (*common.Draft, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		return nil, common.NewSchemaViolationError("empty AI response", nil)
	}

	obj, ok := common.ExtractJSONObject(text)
	if !ok {
		if hasNoRecipeSignal(text) {
			return nil, common.NewNoRecipeError("AI reported no recipe in the input")
		}
		return nil, common.NewSchemaViolationError("AI response contains no JSON object", nil)
	}

	var payload map[string]interface{}
	if err := common.ParseJSON(obj, &payload); err != nil {
		// 部分模型會輸出未加引號的鍵
		if err2 := common.ParseJSON(common.QuoteJSONKeys(obj), &payload); err2 != nil {
			return nil, common.NewSchemaViolationError("AI response is not valid JSON", err)
		}
	}

	title, err := optionalString(payload, "title")
	if err != nil {
		return nil, common.NewSchemaViolationError("invalid AI recipe", err)
	}
	if hasNoRecipeSignal(title) {
		return nil, common.NewNoRecipeError("AI reported no recipe in the input")
	}

	draft, err := validate(payload)
	if err != nil {
		return nil, common.NewSchemaViolationError("invalid AI recipe", err)
	}
	return draft, nil
}

func hasNoRecipeSignal(s string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(NoRecipeSignal))
}

// validate 將鬆散的 map 轉為暫定食譜，每個欄位都檢查型別
func validate(p map[string]interface{}) (*common.Draft, error) {
	d := &common.Draft{}

	var err error
	if d.Title, err = optionalString(p, "title"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(d.Title) == "" {
		return nil, fieldErr("title", "missing")
	}

	for field, dst := range map[string]*string{
		"author":        &d.Author,
		"summary":       &d.Summary,
		"storageGuide":  &d.StorageGuide,
		"platingNotes":  &d.PlatingNotes,
		"servingVessel": &d.ServingVessel,
		"servingTemp":   &d.ServingTemp,
	} {
		if *dst, err = optionalString(p, field); err != nil {
			return nil, err
		}
	}

	for field, dst := range map[string]*int{
		"servings":         &d.Servings,
		"prepTimeMinutes":  &d.PrepTimeMinutes,
		"cookTimeMinutes":  &d.CookTimeMinutes,
		"totalTimeMinutes": &d.TotalTimeMinutes,
	} {
		if n, ok := normalize.PositiveInt(p[field]); ok {
			*dst = n
		}
	}

	if d.Ingredients, err = ingredientGroups(p["ingredients"]); err != nil {
		return nil, err
	}

	steps, err := rawSteps(p["instructions"])
	if err != nil {
		return nil, err
	}
	if len(normalize.Instructions(steps)) == 0 {
		return nil, fieldErr("instructions", "no usable steps")
	}
	d.Instructions = steps

	if c, ok := p["cuisine"]; ok && c != nil {
		d.Cuisine = normalize.Cuisine(c)
	}
	d.ShelfLife = shelfLife(p["shelfLife"])
	return d, nil
}

func optionalString(p map[string]interface{}, field string) (string, error) {
	v, ok := p[field]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fieldErr(field, "expected string, got %T", v)
	}
	return s, nil
}

func ingredientGroups(v interface{}) ([]common.IngredientGroup, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, fieldErr("ingredients", "expected array of groups")
	}
	if len(list) == 0 {
		return nil, fieldErr("ingredients", "empty")
	}

	groups := make([]common.IngredientGroup, 0, len(list))
	for i, item := range list {
		field := fmt.Sprintf("ingredients[%d]", i)
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fieldErr(field, "expected group object")
		}
		name, err := optionalString(obj, "groupName")
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(name) == "" {
			return nil, fieldErr(field+".groupName", "missing")
		}
		rawItems, ok := obj["ingredients"].([]interface{})
		if !ok || len(rawItems) == 0 {
			return nil, fieldErr(field+".ingredients", "expected non-empty array")
		}

		group := common.IngredientGroup{GroupName: name}
		for j, rawIng := range rawItems {
			ing, err := ingredient(rawIng, fmt.Sprintf("%s.ingredients[%d]", field, j))
			if err != nil {
				return nil, err
			}
			group.Ingredients = append(group.Ingredients, ing)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func ingredient(v interface{}, field string) (common.Ingredient, error) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return common.Ingredient{}, fieldErr(field, "expected ingredient object")
	}

	var ing common.Ingredient
	var err error
	if ing.Amount, err = optionalString(obj, "amount"); err != nil {
		return ing, err
	}
	if ing.Units, err = optionalString(obj, "units"); err != nil {
		return ing, err
	}
	if ing.Name, err = optionalString(obj, "name"); err != nil {
		return ing, err
	}
	if strings.TrimSpace(ing.Name) == "" {
		return ing, fieldErr(field+".name", "missing")
	}
	if ing.Description, err = optionalString(obj, "description"); err != nil {
		return ing, err
	}
	if subs, ok := obj["substitutions"].([]interface{}); ok {
		for _, s := range subs {
			if str, ok := s.(string); ok {
				ing.Substitutions = append(ing.Substitutions, str)
			}
		}
	}
	return ing, nil
}

// rawSteps 步驟在這裡轉為 StringStep / ObjectStep，之後只由 normalize 處理
func rawSteps(v interface{}) ([]common.RawStep, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, fieldErr("instructions", "expected array")
	}
	steps := make([]common.RawStep, 0, len(list))
	for i, item := range list {
		switch val := item.(type) {
		case string:
			steps = append(steps, common.StringStep(val))
		case map[string]interface{}:
			steps = append(steps, common.ObjectStep(val))
		default:
			return nil, fieldErr(fmt.Sprintf("instructions[%d]", i), "expected string or object, got %T", item)
		}
	}
	return steps, nil
}

func shelfLife(v interface{}) *common.ShelfLife {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	s := &common.ShelfLife{}
	if n, ok := normalize.PositiveInt(obj["fridge"]); ok {
		s.Fridge = n
	}
	if n, ok := normalize.PositiveInt(obj["freezer"]); ok {
		s.Freezer = &n
	}
	if s.Fridge == 0 && s.Freezer == nil {
		return nil
	}
	return s
}
