package plugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/vuestories/pkg/errs"
	"github.com/gnana997/vuestories/pkg/meta"
	"github.com/gnana997/vuestories/pkg/parser"
	"github.com/gnana997/vuestories/pkg/parser/queries"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolveOptions_Defaults(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.json"), `{}`)

	opts, err := ResolveOptions(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultInclude, opts.Include)
	assert.Equal(t, DefaultExclude, opts.Exclude)
	assert.Equal(t, EnforcePre, opts.Enforce)
	assert.Equal(t, filepath.Join(root, "tsconfig.json"), opts.TSConfigPath)
	assert.Nil(t, opts.Design)
}

func TestResolveOptions_TSConfigFallbackOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.json"), `{}`)
	writeFile(t, filepath.Join(root, "tsconfig.app.json"), `{}`)

	opts, err := ResolveOptions(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "tsconfig.app.json"), opts.TSConfigPath)

	writeFile(t, filepath.Join(root, "config", "tsconfig.lib.json"), `{}`)
	opts, err = ResolveOptions(root, Options{TSConfigPath: "config/tsconfig.lib.json"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "config", "tsconfig.lib.json"), opts.TSConfigPath)
}

func TestResolveOptions_MissingTSConfig(t *testing.T) {
	root := t.TempDir()

	_, err := ResolveOptions(root, Options{})
	var cfgErr *errs.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{
		filepath.Join(root, "tsconfig.app.json"),
		filepath.Join(root, "tsconfig.json"),
	}, cfgErr.Searched)

	_, err = ResolveOptions(root, Options{TSConfigPath: "missing.json"})
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{filepath.Join(root, "missing.json")}, cfgErr.Searched)
}

func TestResolveOptions_Validation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.json"), `{}`)

	tests := []struct {
		name string
		opts Options
	}{
		{"bad enforce", Options{Enforce: "early"}},
		{"bad glob", Options{Include: []string{"src/[a"}}},
		{"design without placeholder", Options{Design: &DesignOptions{Type: "figma", URLTemplate: "https://figma.test"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveOptions(root, tt.opts)
			var cfgErr *errs.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr))
		})
	}

	opts, err := ResolveOptions(root, Options{Enforce: "none"})
	require.NoError(t, err)
	assert.Equal(t, "", opts.Enforce)
}

func TestResolveOptions_Design(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.json"), `{}`)

	opts, err := ResolveOptions(root, Options{Design: &DesignOptions{
		Type:        "figma",
		URLTemplate: "https://www.figma.com/file/abc?node-id={id}",
	}})
	require.NoError(t, err)
	require.NotNil(t, opts.Design)
	assert.Equal(t, "figma", opts.Design.Type)
	assert.Equal(t, "https://www.figma.com/file/abc?node-id=12%3A34", opts.Design.URL("12:34"))
}

func newPlugin(t *testing.T, opts *ResolvedOptions, source meta.Source) *Plugin {
	t.Helper()
	pm := parser.NewParserManager(nil)
	qm := queries.NewQueryManager(pm, nil)
	p := New(qm, Config{Options: opts, Source: source})
	t.Cleanup(func() {
		_ = p.Close()
		_ = qm.Close()
		_ = pm.Close()
	})
	return p
}

func TestResolveID(t *testing.T) {
	p := newPlugin(t, nil, meta.Static{})
	ctx := context.Background()

	var skipped bool
	resolve := func(_ context.Context, source, importer string, skipSelf bool) (*Resolution, error) {
		skipped = skipSelf
		switch source {
		case "./Button.stories.vue":
			return &Resolution{ID: "/src/Button.stories.vue"}, nil
		case "ext/Remote.stories.vue":
			return &Resolution{ID: "ext/Remote.stories.vue", External: true}, nil
		}
		return nil, nil
	}

	res, err := p.ResolveID(ctx, "./Button.stories.vue", "/src/main.ts", resolve)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "/src/Button.stories.vue?vue&type=stories", res.ID)
	assert.True(t, skipped)

	res, err = p.ResolveID(ctx, "ext/Remote.stories.vue", "/src/main.ts", resolve)
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = p.ResolveID(ctx, "./Missing.stories.vue", "/src/main.ts", resolve)
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = p.ResolveID(ctx, "./Button.vue", "/src/main.ts", func(context.Context, string, string, bool) (*Resolution, error) {
		t.Fatal("resolver called for a plain component")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestTransformInclude(t *testing.T) {
	opts := &ResolvedOptions{
		Root:    "/repo",
		Include: DefaultInclude,
		Exclude: DefaultExclude,
		Enforce: EnforcePre,
	}
	p := newPlugin(t, opts, meta.Static{})

	assert.True(t, p.TransformInclude("/repo/src/Button.vue"))
	assert.True(t, p.TransformInclude("/repo/src/Button.stories.vue?vue&type=stories"))
	assert.False(t, p.TransformInclude("/repo/src/Button.stories.vue?vue&type=style"))
	assert.False(t, p.TransformInclude("/repo/src/main.ts"))
	assert.False(t, p.TransformInclude("/repo/node_modules/lib/Button.vue"))
}

func TestTransformDispatch(t *testing.T) {
	opts := &ResolvedOptions{Root: "/repo", Include: DefaultInclude, Exclude: DefaultExclude}
	p := newPlugin(t, opts, meta.Static{})
	ctx := context.Background()

	story := `<script setup>
import MyButton from './MyButton.vue'
</script>
<template>
  <Stories title="Button" :component="MyButton">
    <Story title="Default"><MyButton label="Hi" /></Story>
  </Stories>
</template>
`
	res, err := p.Transform(ctx, story, "/repo/src/Button.stories.vue"+StoriesInternalSuffix)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Contains(t, res.Code, "export const Default = { render: renderDefault(), args: { label: \"Hi\" } }")

	component := "<script setup>\n/** A button */\nconst a = 1\n</script>\n<template><button /></template>\n"
	res, err = p.Transform(ctx, component, "/repo/src/Button.vue")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, strings.Contains(res.Code, `"description":"A button"`))

	res, err = p.Transform(ctx, "export {}", "/repo/src/main.ts")
	require.NoError(t, err)
	assert.Nil(t, res)
}
