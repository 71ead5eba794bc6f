package common

import (
	"strings"
)

// AsNeeded 無法確定份量時使用的數量標記
const AsNeeded = "as needed"

// Ingredient 食材
type Ingredient struct {
	Amount        string   `json:"amount"`
	Units         string   `json:"units"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`   // 最多 80 字元
	Substitutions []string `json:"substitutions,omitempty"` // 最多 3 項
}

// IngredientGroup 食材分組
type IngredientGroup struct {
	GroupName   string       `json:"groupName"`
	Ingredients []Ingredient `json:"ingredients"`
}

// InstructionStep 步驟
type InstructionStep struct {
	Title           string   `json:"title"`
	Detail          string   `json:"detail"`
	TimeMinutes     int      `json:"timeMinutes,omitempty"`
	UsedIngredients []string `json:"usedIngredients,omitempty"`
	Tip             string   `json:"tip,omitempty"`
}

// ShelfLife 保存期限（天）
// Freezer 為 nil 代表不建議冷凍
type ShelfLife struct {
	Fridge  int  `json:"fridge,omitempty"`
	Freezer *int `json:"freezer"`
}

// Recipe 正規化後的食譜
// 數值欄位為 0 代表缺值
type Recipe struct {
	Title            string            `json:"title"`
	Author           string            `json:"author,omitempty"`
	SourceURL        string            `json:"sourceUrl,omitempty"`
	ImageURL         string            `json:"imageUrl,omitempty"`
	Summary          string            `json:"summary,omitempty"`
	Servings         int               `json:"servings,omitempty"`
	PrepTimeMinutes  int               `json:"prepTimeMinutes,omitempty"`
	CookTimeMinutes  int               `json:"cookTimeMinutes,omitempty"`
	TotalTimeMinutes int               `json:"totalTimeMinutes,omitempty"`
	Ingredients      []IngredientGroup `json:"ingredients"`
	Instructions     []InstructionStep `json:"instructions"`
	Cuisine          []string          `json:"cuisine,omitempty"`
	StorageGuide     string            `json:"storageGuide,omitempty"`
	ShelfLife        *ShelfLife        `json:"shelfLife,omitempty"`
	PlatingNotes     string            `json:"platingNotes,omitempty"`
	ServingVessel    string            `json:"servingVessel,omitempty"`
	ServingTemp      string            `json:"servingTemp,omitempty"`
}

// ExtractionMethod 萃取方式，只有以下四種值；備援啟發式屬於 structured-only，細節看 Stage
type ExtractionMethod string

const (
	MethodStructuredOnly ExtractionMethod = "structured-only"
	MethodAIOnly         ExtractionMethod = "ai-only"
	MethodStructuredAI   ExtractionMethod = "structured+ai"
	MethodNone           ExtractionMethod = "none"
)

// ParseOutcome 單次解析結果
// Success 為 true 時只有 Recipe，為 false 時只有 ErrorKind
type ParseOutcome struct {
	Success           bool             `json:"success"`
	Recipe            *Recipe          `json:"recipe,omitempty"`
	ErrorKind         string           `json:"errorKind,omitempty"`
	Error             string           `json:"error,omitempty"`
	ExtractionMethod  ExtractionMethod `json:"extractionMethod"`
	Stage             string           `json:"stage,omitempty"`
	RetryAfterEpochMs int64            `json:"retryAfterEpochMs,omitempty"`
	Timeout           bool             `json:"timeout,omitempty"`
	Warnings          []string         `json:"warnings,omitempty"`
}

// RawStep 輸入端的步驟，Text 與 Fields 二擇一
type RawStep struct {
	Text   string
	Fields map[string]interface{}
}

// StringStep 建立字串步驟
func StringStep(text string) RawStep {
	return RawStep{Text: text}
}

// ObjectStep 建立物件步驟
func ObjectStep(fields map[string]interface{}) RawStep {
	return RawStep{Fields: fields}
}

// IsObject 是否為物件步驟
func (s RawStep) IsObject() bool {
	return s.Fields != nil
}

// Draft 各階段產出的暫定食譜，尚未經過正規化
type Draft struct {
	Title            string
	Author           string
	SourceURL        string
	ImageURL         string
	Summary          string
	Servings         int
	PrepTimeMinutes  int
	CookTimeMinutes  int
	TotalTimeMinutes int
	Ingredients      []IngredientGroup
	Instructions     []RawStep
	Cuisine          []string
	StorageGuide     string
	ShelfLife        *ShelfLife
	PlatingNotes     string
	ServingVessel    string
	ServingTemp      string
}

// IngredientCount 所有分組的食材總數
func (d *Draft) IngredientCount() int {
	n := 0
	for _, g := range d.Ingredients {
		n += len(g.Ingredients)
	}
	return n
}

// FormatIngredient 將食材轉為單行文字
func FormatIngredient(ing Ingredient) string {
	if ing.Amount == "" || ing.Amount == AsNeeded {
		return ing.Name
	}
	parts := []string{ing.Amount}
	if ing.Units != "" && ing.Units != "whole" {
		parts = append(parts, ing.Units)
	}
	parts = append(parts, ing.Name)
	return strings.Join(parts, " ")
}
