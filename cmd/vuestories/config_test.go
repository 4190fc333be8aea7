package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/vuestories/pkg/errs"
	"github.com/gnana997/vuestories/pkg/plugin"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

const sampleConfig = `include: ["src/**/*.vue"]
exclude: ["**/legacy/**"]
enforce: post
tsconfig: tsconfig.app.json
compiler: builtin
formatter: builtin
out_dir: storybook-out
design:
  type: figma
  url_template: "https://www.figma.com/file/abc?node-id={id}"
log_level: debug
log_format: json
`

func TestLoadProjectConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".vuestories", "config.yaml")

	cfg, err := loadProjectConfig(path)
	require.NoError(t, err)
	assert.Nil(t, cfg, "missing file is not an error")

	writeFile(t, path, sampleConfig)
	cfg, err = loadProjectConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, []string{"src/**/*.vue"}, cfg.Include)
	assert.Equal(t, "post", cfg.Enforce)
	assert.Equal(t, "tsconfig.app.json", cfg.TSConfig)
	assert.Equal(t, "storybook-out", cfg.OutDir)
	require.NotNil(t, cfg.Design)
	assert.Equal(t, "figma", cfg.Design.Type)
	assert.Equal(t, "json", cfg.LogFormat)

	writeFile(t, path, "include: [unclosed")
	_, err = loadProjectConfig(path)
	assert.Error(t, err)
}

func TestPick(t *testing.T) {
	assert.Equal(t, "flag", pick("flag", "config", "default"))
	assert.Equal(t, "config", pick("", "config", "default"))
	assert.Equal(t, "default", pick("", "", "default"))
	assert.Equal(t, "", pick())
}

func TestLoadConfig_ExplicitMissing(t *testing.T) {
	root := t.TempDir()
	_, _, err := loadConfig(globalOptions{root: root, config: filepath.Join(root, "nope.yaml")})

	var cfgErr *errs.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{filepath.Join(root, "nope.yaml")}, cfgErr.Searched)
}

func TestNewApp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.app.json"), `{"include": ["src/**/*"]}`)
	writeFile(t, filepath.Join(root, defaultConfigPath), sampleConfig)

	a, err := newApp(globalOptions{root: root})
	require.NoError(t, err)
	defer a.Close()

	opts := a.plugin.Options()
	assert.Equal(t, plugin.EnforcePost, opts.Enforce)
	assert.Equal(t, filepath.Join(root, "tsconfig.app.json"), opts.TSConfigPath)
	require.NotNil(t, opts.Design)
	assert.True(t, opts.Matches(filepath.Join(root, "src", "Button.vue")))
	assert.False(t, opts.Matches(filepath.Join(root, "src", "legacy", "Old.vue")))

	t.Run("out dir chain", func(t *testing.T) {
		assert.Equal(t, "storybook-out", a.buildOptions("", 0, true).OutDir)
		assert.Equal(t, "flag-out", a.buildOptions("flag-out", 0, true).OutDir)
	})
}

func TestNewApp_FlagsOverrideConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.json"), `{}`)
	writeFile(t, filepath.Join(root, "tsconfig.app.json"), `{}`)
	writeFile(t, filepath.Join(root, defaultConfigPath), sampleConfig)

	a, err := newApp(globalOptions{root: root, tsconfig: "tsconfig.json"})
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, filepath.Join(root, "tsconfig.json"), a.plugin.Options().TSConfigPath)
}

func TestNewApp_Errors(t *testing.T) {
	tests := []struct {
		name string
		g    func(root string) globalOptions
	}{
		{"unknown compiler", func(root string) globalOptions { return globalOptions{root: root, compiler: "babel"} }},
		{"unknown formatter", func(root string) globalOptions { return globalOptions{root: root, formatter: "dprint"} }},
		{"missing tsconfig", func(root string) globalOptions { return globalOptions{root: root, tsconfig: "nope.json"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, filepath.Join(root, "tsconfig.json"), `{}`)

			_, err := newApp(tt.g(root))
			var cfgErr *errs.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr), "got %v", err)
		})
	}
}
