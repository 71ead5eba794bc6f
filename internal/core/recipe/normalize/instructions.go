package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"recipe-parser/internal/pkg/common"
)

// 物件步驟中可能存放內文的欄位，依序取第一個非空者
var detailKeys = []string{"detail", "text", "description", "instruction", "content", "step", "directions"}

var (
	timeKeys = []string{"timeMinutes", "time_minutes", "time", "duration"}
	usedKeys = []string{"usedIngredients", "used_ingredients", "ingredients"}
	tipKeys  = []string{"tip", "tips", "note", "notes"}
)

// Instructions 將字串或物件步驟轉為統一的 InstructionStep
// 內文為空的步驟會被移除，編號依移除後的位置重新計算
func Instructions(raw []common.RawStep) []common.InstructionStep {
	steps := make([]common.InstructionStep, 0, len(raw))
	for _, r := range raw {
		var step common.InstructionStep
		if r.IsObject() {
			step = objectStep(r.Fields)
		} else {
			step.Detail = cleanDetail(r.Text)
		}
		if step.Detail == "" {
			continue
		}
		if step.Title == "" {
			step.Title = StepTitle(len(steps) + 1)
		}
		steps = append(steps, step)
	}
	return steps
}

// StepTitle 預設步驟標題
func StepTitle(n int) string {
	return fmt.Sprintf("Step %d", n)
}

func objectStep(fields map[string]interface{}) common.InstructionStep {
	var step common.InstructionStep
	for _, k := range detailKeys {
		if s, ok := fields[k].(string); ok {
			if d := cleanDetail(s); d != "" {
				step.Detail = d
				break
			}
		}
	}

	if s, ok := fields["title"].(string); ok {
		step.Title = common.CleanText(s)
	}
	// schema.org HowToStep 的 name 常與 text 相同，只有不同時才當作標題
	if step.Title == "" {
		if s, ok := fields["name"].(string); ok {
			if name := common.CleanText(s); name != "" && name != step.Detail {
				if step.Detail == "" {
					step.Detail = cleanDetail(name)
				} else {
					step.Title = name
				}
			}
		}
	}

	for _, k := range timeKeys {
		if n, ok := positiveInt(fields[k]); ok {
			step.TimeMinutes = n
			break
		}
	}
	for _, k := range usedKeys {
		if list := stringList(fields[k]); len(list) > 0 {
			step.UsedIngredients = list
			break
		}
	}
	for _, k := range tipKeys {
		if s, ok := fields[k].(string); ok {
			if tip := common.CleanText(s); tip != "" {
				step.Tip = tip
				break
			}
		}
	}
	return step
}

func cleanDetail(s string) string {
	return common.TrimLeadingPunct(common.CleanText(s))
}

// positiveInt 接受 json.Number、數字或數字字串，只回傳正整數
func positiveInt(v interface{}) (int, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(f)), int(math.Round(f)) > 0
}

// PositiveInt 同 positiveInt，供其他萃取階段使用
func PositiveInt(v interface{}) (int, bool) {
	return positiveInt(v)
}

func stringList(v interface{}) []string {
	var out []string
	switch val := v.(type) {
	case []string:
		for _, s := range val {
			if s = common.CleanText(s); s != "" {
				out = append(out, s)
			}
		}
	case []interface{}:
		for _, item := range val {
			if s, ok := item.(string); ok {
				if s = common.CleanText(s); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
