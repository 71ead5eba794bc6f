package common

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

var (
	tagPattern        = regexp.MustCompile(`(?s)<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// DecodeEntities 解碼 HTML 實體（&amp;、&#39;、&frac12; 等）
func DecodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return html.UnescapeString(s)
}

// NormalizeWhitespace 將連續空白（含 nbsp）合併為單一空格並去除前後空白
func NormalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// StripTags 移除 HTML 標籤並解碼實體
func StripTags(fragment string) string {
	text := tagPattern.ReplaceAllString(fragment, " ")
	return NormalizeWhitespace(DecodeEntities(text))
}

// CleanText 解碼實體並正規化空白
func CleanText(s string) string {
	return NormalizeWhitespace(DecodeEntities(s))
}

// TrimLeadingPunct 去除開頭的標點、符號與空白
func TrimLeadingPunct(s string) string {
	return strings.TrimLeftFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}

// Truncate 依字元數截斷，盡量在字詞邊界斷開
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	cut := string(runes[:max])
	if i := strings.LastIndex(cut, " "); i > max/2 {
		cut = cut[:i]
	}
	return strings.TrimRightFunc(cut, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';' || r == ':'
	})
}
