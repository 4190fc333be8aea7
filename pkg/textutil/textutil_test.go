package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPascalToKebab(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"AppComponent", "app-component"},
		{"Button", "button"},
		{"AppModalV2", "app-modal-v2"},
		{"already-kebab", "already-kebab"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, PascalToKebab(tt.in))
		})
	}
}

func TestToCamelCase(t *testing.T) {
	assert.Equal(t, "modelValue", ToCamelCase("model-value"))
	assert.Equal(t, "onUpdate:modelValue", ToCamelCase("onUpdate:modelValue"))
	assert.Equal(t, "ariaLabelledBy", ToCamelCase("aria-labelled-by"))
	assert.Equal(t, "x-1", ToCamelCase("x-1"))
}

func TestFindLastIndex(t *testing.T) {
	items := []string{"/**", "* a", "*/", "--x: 1;"}
	assert.Equal(t, 0, FindLastIndex(items, func(s string, _ int) bool { return s == "/**" }))
	assert.Equal(t, -1, FindLastIndex(items, func(s string, _ int) bool { return s == "nope" }))
	assert.Equal(t, 1, FindLastIndex(items, func(_ string, i int) bool { return i < 2 }))
}

func TestToLinesHandlesBothLineEndings(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ToLines("a\n  b \nc"))
	assert.Equal(t, []string{"a", "b", "c"}, ToLines("a\r\n  b \r\nc"))
}

func TestStripDocblock(t *testing.T) {
	inline := "/** Component color */"
	block := "\n     /**\n      * Component color\n      */\n      "
	crlf := "/**\r\n * Component color\r\n */"

	assert.Equal(t, "Component color", StripDocblock(inline))
	assert.Equal(t, "Component color", StripDocblock(block))
	assert.Equal(t, "Component color", StripDocblock(crlf))
	assert.Equal(t, "", StripDocblock("const color = '#000';"))
}

func TestStoryID(t *testing.T) {
	tests := []struct {
		title, want string
	}{
		{"Default", "Default"},
		{"Primary Button", "Primary_button"},
		{"With  -- dashes!", "With_dashes"},
		{"2 columns", "_2_columns"},
		{"Über", "_ber"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, StoryID(tt.title))
		})
	}
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "my-story-title", Sanitize("  My Story: Title! "))
	assert.Equal(t, "a-b", Sanitize("a___b"))
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("modelValue"))
	assert.True(t, IsIdentifier("$slots"))
	assert.False(t, IsIdentifier("onUpdate:modelValue"))
	assert.False(t, IsIdentifier("1abc"))
}
