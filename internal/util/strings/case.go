package strings

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ToSnakeCase converts CamelCase to snake_case
// Handles acronyms properly (HTTPRequest -> http_request)
func ToSnakeCase(s string) string {
	var result strings.Builder
	runes := []rune(s)

	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				// Add underscore before uppercase letter if:
				// 1. Previous char is lowercase
				// 2. Next char is lowercase (for acronyms like HTTPRequest -> http_request)
				if unicode.IsLower(prev) {
					result.WriteRune('_')
				} else if i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
					result.WriteRune('_')
				}
			}
			result.WriteRune(unicode.ToLower(r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// LowerFirst lower cases the first rune (MyValue -> myValue)
func LowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// StartsUpper reports whether s begins with an upper case letter
func StartsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// Variants returns the field name spellings a getter suffix may map to, in
// lookup order: as written with a lower case first letter, capitalized, all
// lower case and snake_case, each followed by its underscore prefixed form.
// Duplicates are dropped.
func Variants(suffix string) []string {
	bases := []string{
		LowerFirst(suffix),
		suffix,
		strings.ToLower(suffix),
		ToSnakeCase(suffix),
	}
	seen := make(map[string]bool, len(bases)*2)
	out := make([]string, 0, len(bases)*2)
	for _, b := range bases {
		for _, v := range []string{b, "_" + b} {
			if b == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
