package render

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
)

// LowerCase lowercases s.
func LowerCase(s string) string { return strings.ToLower(s) }

// UpperCase uppercases s.
func UpperCase(s string) string { return strings.ToUpper(s) }

// CamelCase converts s to lower camel case ("my_foo" -> "myFoo",
// "HTMLParser" -> "htmlParser"). Characters other than letters, digits and
// the `_`, `-` and space separators are kept, so "*" stays "*".
func CamelCase(s string) string {
	var b strings.Builder
	for i, w := range words(s) {
		if i == 0 {
			b.WriteString(strings.ToLower(w))
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(strings.ToLower(w[size:]))
	}
	return b.String()
}

// KebabCase converts s to kebab case ("useButton" -> "use-button").
func KebabCase(s string) string { return strcase.ToKebab(s) }

// words splits s at `_`, `-` and spaces, and between a lowercase letter or
// digit and an uppercase letter, a letter and a digit, and the last two
// letters of an acronym followed by a lowercase letter ("XMLHttp" ->
// "XML", "Http"). Empty words are dropped.
func words(s string) []string {
	var out []string
	runes := []rune(s)
	start := 0

	flush := func(end int) {
		if end > start {
			out = append(out, string(runes[start:end]))
		}
		start = end
	}

	for i, r := range runes {
		if r == '_' || r == '-' || r == ' ' {
			flush(i)
			start = i + 1
			continue
		}
		if i == start {
			continue
		}

		prev := runes[i-1]
		switch {
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush(i)
		case unicode.IsDigit(r) && unicode.IsLetter(prev):
			flush(i)
		case unicode.IsLetter(r) && unicode.IsDigit(prev):
			flush(i)
		case unicode.IsLower(r) && unicode.IsUpper(prev) && i-1 > start && unicode.IsUpper(runes[i-2]):
			flush(i - 1)
		}
	}
	flush(len(runes))

	return out
}
