// Package textutil holds the small pure string helpers shared by the
// transforms: case conversion, line splitting, docblock stripping and story
// id sanitizing.
package textutil

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	pascalBoundary = regexp.MustCompile(`([a-z])([A-Z])`)
	kebabSegment   = regexp.MustCompile(`-([a-z])`)
	sanitizeChars  = regexp.MustCompile("[ ’–—―′¿'`~!@#$%^&*()_|+\\-=?;:'\",.<>{}\\[\\]\\\\/]")
	dashRun        = regexp.MustCompile(`-+`)
	nonIdentChar   = regexp.MustCompile(`[^0-9A-Za-z]`)
	identifier     = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
)

// PascalToKebab converts "AppModal" to "app-modal".
func PascalToKebab(s string) string {
	return strings.ToLower(pascalBoundary.ReplaceAllString(s, "$1-$2"))
}

// ToCamelCase converts "model-value" to "modelValue". Only a dash followed by
// a lower-case ASCII letter is folded.
func ToCamelCase(s string) string {
	return kebabSegment.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ToUpper(m[1:])
	})
}

// FindLastIndex returns the index of the last element for which pred returns
// true, or -1.
func FindLastIndex[T any](items []T, pred func(item T, index int) bool) int {
	for i := len(items) - 1; i >= 0; i-- {
		if pred(items[i], i) {
			return i
		}
	}
	return -1
}

// SplitLines splits a block on "\r\n" when present, otherwise on "\n". Lines
// are returned untrimmed.
func SplitLines(block string) []string {
	if strings.Contains(block, "\r\n") {
		return strings.Split(block, "\r\n")
	}
	return strings.Split(block, "\n")
}

// ToLines splits a block like SplitLines and trims every line.
func ToLines(block string) []string {
	lines := SplitLines(block)
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}

// DocblockLines strips comment markers from a raw comment block and returns
// its content lines, trimmed. Text that is not a block comment yields nil.
func DocblockLines(raw string) []string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "/*") && !strings.HasPrefix(text, "*") {
		return nil
	}
	text = strings.TrimPrefix(text, "/**")
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")

	lines := ToLines(text)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimPrefix(line, "*")
		out = append(out, strings.TrimSpace(line))
	}
	return out
}

// StripDocblock returns the content of a raw comment block with markers
// removed and lines joined with "\n".
func StripDocblock(raw string) string {
	return strings.TrimSpace(strings.Join(DocblockLines(raw), "\n"))
}

// Sanitize lower-cases s and folds punctuation and whitespace runs into
// single dashes, the way Storybook derives ids from titles.
func Sanitize(s string) string {
	s = strings.ToLower(s)
	s = sanitizeChars.ReplaceAllString(s, "-")
	s = dashRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// StoryID turns a story title into its exported identifier: the sanitized
// title with every non-alphanumeric character replaced by an underscore and
// the first character upper-cased. Identifiers that would start with a digit
// get a leading underscore. An empty result means the title has no usable
// characters.
func StoryID(title string) string {
	id := nonIdentChar.ReplaceAllString(Sanitize(title), "_")
	if id == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(id)
	if unicode.IsDigit(r) {
		return "_" + id
	}
	return string(unicode.ToUpper(r)) + id[size:]
}

// IsIdentifier reports whether s can be used as a bare JavaScript property
// name or binding.
func IsIdentifier(s string) bool {
	return identifier.MatchString(s)
}

// UpperFirst upper-cases the first rune of s.
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// JSString quotes s as a JavaScript string literal.
func JSString(s string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}
