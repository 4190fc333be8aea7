package parser

import (
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestParseEachGrammar(t *testing.T) {
	manager := NewParserManager(testLogger())
	defer manager.Close()

	tests := []struct {
		name     string
		source   string
		lang     Language
		isTSX    bool
		rootKind string
	}{
		{"typescript", "const x: number = 1;", LanguageTypeScript, false, "program"},
		{"tsx", "const el = <div>hi</div>;", LanguageTypeScript, true, "program"},
		{"javascript", "export function render(_ctx) { return 1 }", LanguageJavaScript, false, "program"},
		{"sfc", "<template><Stories title=\"A\"></Stories></template>", LanguageHTML, false, "document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := manager.Parse([]byte(tt.source), tt.lang, tt.isTSX)
			require.NoError(t, err)
			defer tree.Close()

			root := tree.RootNode()
			assert.Equal(t, tt.rootKind, root.Kind())
			assert.False(t, root.HasError())
		})
	}
}

func TestParseSFCBlocks(t *testing.T) {
	manager := NewParserManager(testLogger())
	defer manager.Close()

	src := []byte("<script setup lang=\"ts\">\nconst a = 1 < 2\n</script>\n<template><Story title=\"A\"/></template>\n<style>.a { --a-b: 1px; }</style>\n")
	tree, err := manager.Parse(src, LanguageHTML, false)
	require.NoError(t, err)
	defer tree.Close()

	root := tree.RootNode()
	var kinds []string
	for i := uint(0); i < root.NamedChildCount(); i++ {
		kinds = append(kinds, root.NamedChild(i).Kind())
	}
	assert.Equal(t, []string{"script_element", "element", "style_element"}, kinds)
}

func TestParseFileDetectsGrammar(t *testing.T) {
	manager := NewParserManager(testLogger())
	defer manager.Close()

	tree, err := manager.ParseFile([]byte("<template><div/></template>"), "src/Button.stories.vue?vue&type=stories")
	require.NoError(t, err)
	defer tree.Close()
	assert.Equal(t, "document", tree.RootNode().Kind())

	_, err = manager.ParseFile([]byte("x"), "README.md")
	assert.Error(t, err)
}

func TestParseUnknownLanguage(t *testing.T) {
	manager := NewParserManager(testLogger())
	defer manager.Close()

	_, err := manager.Parse([]byte("x"), LanguageUnknown, false)
	assert.Error(t, err)
}

func TestParseInvalidSyntaxReturnsPartialTree(t *testing.T) {
	manager := NewParserManager(testLogger())
	defer manager.Close()

	tree, err := manager.Parse([]byte("const = ;"), LanguageJavaScript, false)
	require.NoError(t, err)
	defer tree.Close()
	assert.True(t, tree.RootNode().HasError())
}

func TestConcurrentParsing(t *testing.T) {
	manager := NewParserManagerWithPoolSize(testLogger(), 4)
	defer manager.Close()

	const goroutines = 64
	var wg sync.WaitGroup
	errs := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lang := SupportedLanguages()[i%3]
			src := "const x = 1;"
			if lang == LanguageHTML {
				src = "<template><div/></template>"
			}
			tree, err := manager.Parse([]byte(src), lang, false)
			if err != nil {
				errs <- err
				return
			}
			tree.Close()
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("parse failed: %v", err)
	}

	stats := manager.GetStats()
	assert.Equal(t, goroutines, stats.ParsesCalled)
	assert.LessOrEqual(t, stats.ParsersCreated, 4*3)
}

func TestLanguageDetection(t *testing.T) {
	tests := map[string]Language{
		"a.ts":                                LanguageTypeScript,
		"a.tsx":                               LanguageTypeScript,
		"a.mjs":                               LanguageJavaScript,
		"Button.vue":                          LanguageHTML,
		"Button.stories.vue?vue&type=stories": LanguageHTML,
		"a.md":                                LanguageUnknown,
	}
	for path, want := range tests {
		assert.Equal(t, want, DetectLanguage(path), path)
	}
}

func TestScriptLanguage(t *testing.T) {
	lang, tsx := ScriptLanguage("")
	assert.Equal(t, LanguageJavaScript, lang)
	assert.False(t, tsx)

	lang, tsx = ScriptLanguage("tsx")
	assert.Equal(t, LanguageTypeScript, lang)
	assert.True(t, tsx)

	lang, _ = ScriptLanguage("coffee")
	assert.Equal(t, LanguageUnknown, lang)
}

func TestLanguageString(t *testing.T) {
	assert.Equal(t, "html", LanguageHTML.String())
	assert.Equal(t, LanguageHTML, ParseLanguageString("vue"))
	assert.Equal(t, LanguageUnknown, ParseLanguageString("go"))
}

func TestGrammarStats(t *testing.T) {
	manager := NewParserManagerWithPoolSize(testLogger(), 2)
	defer manager.Close()

	for _, tc := range []struct {
		src   string
		lang  Language
		isTSX bool
	}{
		{"<p/>", LanguageHTML, false},
		{"let a = <b/>", LanguageTypeScript, true},
		{"let a: number = 1", LanguageTypeScript, false},
		{"let a = 1", LanguageJavaScript, true}, // TSX flag ignored
	} {
		tree, err := manager.Parse([]byte(tc.src), tc.lang, tc.isTSX)
		require.NoError(t, err)
		tree.Close()
	}

	stats := manager.GetStats()
	assert.Equal(t, 4, stats.ParsesCalled)
	assert.Equal(t, 4, stats.ParsersCreated)
	assert.Equal(t, []GrammarStats{
		{Grammar: "html", Parsers: 1},
		{Grammar: "javascript", Parsers: 1},
		{Grammar: "tsx", Parsers: 1},
		{Grammar: "typescript", Parsers: 1},
	}, stats.Grammars)
}
