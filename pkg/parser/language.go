package parser

import (
	"path/filepath"
	"strings"
)

// Language represents a grammar the parser manager can load.
type Language int

const (
	// LanguageTypeScript represents TypeScript (.ts, .tsx and lang="ts" script blocks)
	LanguageTypeScript Language = iota
	// LanguageJavaScript represents JavaScript (.js, .jsx and plain script blocks)
	LanguageJavaScript
	// LanguageHTML represents markup: whole .vue files and template fragments
	LanguageHTML
	// LanguageUnknown represents an unsupported language
	LanguageUnknown
)

// String returns the string representation of the language.
func (l Language) String() string {
	switch l {
	case LanguageTypeScript:
		return "typescript"
	case LanguageJavaScript:
		return "javascript"
	case LanguageHTML:
		return "html"
	default:
		return "unknown"
	}
}

// DetectLanguage detects the grammar from a file path. Query suffixes such
// as "?vue&type=stories" are ignored.
func DetectLanguage(filePath string) Language {
	if i := strings.IndexByte(filePath, '?'); i >= 0 {
		filePath = filePath[:i]
	}
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".ts", ".mts", ".cts", ".tsx":
		return LanguageTypeScript
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript
	case ".vue", ".html", ".htm":
		return LanguageHTML
	default:
		return LanguageUnknown
	}
}

// IsTSXFile checks if a file path represents a TSX file.
func IsTSXFile(filePath string) bool {
	return strings.ToLower(filepath.Ext(filePath)) == ".tsx"
}

// ScriptLanguage maps the lang attribute of a <script> block to a grammar.
// An empty lang means JavaScript.
func ScriptLanguage(lang string) (Language, bool) {
	switch strings.ToLower(lang) {
	case "", "js", "jsx", "javascript":
		return LanguageJavaScript, false
	case "ts", "typescript":
		return LanguageTypeScript, false
	case "tsx":
		return LanguageTypeScript, true
	default:
		return LanguageUnknown, false
	}
}

// ParseLanguageString converts a language string to a Language type.
func ParseLanguageString(lang string) Language {
	switch strings.ToLower(lang) {
	case "typescript", "ts":
		return LanguageTypeScript
	case "javascript", "js":
		return LanguageJavaScript
	case "html", "vue":
		return LanguageHTML
	default:
		return LanguageUnknown
	}
}

// SupportedLanguages returns a list of all supported languages.
func SupportedLanguages() []Language {
	return []Language{
		LanguageTypeScript,
		LanguageJavaScript,
		LanguageHTML,
	}
}
