package common

import (
	"regexp"
	"strconv"
	"strings"
)

// 只支援時與分；含天或秒的格式視為無法解析
var isoDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?$`)

// ParseISODuration 將 ISO-8601 時間長度轉為分鐘
// "PT1H30M" -> 90；"PT30S"、"P1DT2H" 回傳 false
func ParseISODuration(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "PT" {
		return 0, false
	}
	m := isoDurationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	minutes := 0
	if m[1] != "" {
		h, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		minutes += h * 60
	}
	if m[2] != "" {
		mm, err := strconv.Atoi(m[2])
		if err != nil {
			return 0, false
		}
		minutes += mm
	}
	return minutes, true
}
