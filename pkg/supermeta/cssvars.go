package supermeta

import (
	"strings"

	"github.com/gnana997/vuestories/pkg/docblock"
	"github.com/gnana997/vuestories/pkg/sfc"
	"github.com/gnana997/vuestories/pkg/textutil"
)

// CSSVarMeta documents one component custom property.
type CSSVarMeta struct {
	// Key is the property name with the default- marker removed.
	Key         string  `json:"key"`
	Value       string  `json:"value"`
	Type        *string `json:"type,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ExtractCSSVars reads the custom properties of the first <style> block
// that belong to componentName: those named --<kebab>-*. A /** */ comment
// ending on the line above a declaration documents it. Nil means the
// component has no style block.
func ExtractCSSVars(styles []*sfc.Block, componentName string) []CSSVarMeta {
	if len(styles) == 0 {
		return nil
	}
	kebab := textutil.PascalToKebab(componentName)
	prefix := "--" + kebab + "-"

	lines := textutil.SplitLines(styles[0].Content)
	vars := []CSSVarMeta{}
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, prefix) {
			continue
		}
		vars = append(vars, ParseCSSVar(trimmed, commentAbove(lines, i)))
	}
	return vars
}

// commentAbove returns the block comment ending on the line before index.
func commentAbove(lines []string, index int) string {
	if index == 0 || !strings.HasSuffix(strings.TrimSpace(lines[index-1]), "*/") {
		return ""
	}
	end := index - 1
	start := textutil.FindLastIndex(lines, func(line string, i int) bool {
		return i <= end && strings.HasPrefix(strings.TrimSpace(line), "/**")
	})
	if start < 0 {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines[start:end+1], "\n"))
}

// ParseCSSVar parses one declaration line. The key is split at the first
// colon; @syntax in the comment gives the type.
func ParseCSSVar(line, comment string) CSSVarMeta {
	key, value, _ := strings.Cut(line, ":")
	value = strings.TrimSuffix(strings.TrimSpace(value), ";")

	v := CSSVarMeta{
		Key:   strings.Replace(strings.TrimSpace(key), "default-", "", 1),
		Value: strings.TrimSpace(value),
	}
	if comment == "" {
		return v
	}
	doc := docblock.Extract(comment)
	v.Description = doc.Description
	if syntax, ok := doc.Tags.First("syntax"); ok {
		v.Type = &syntax
	}
	return v
}
