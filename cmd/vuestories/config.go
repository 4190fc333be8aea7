package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gnana997/vuestories/pkg/build"
	"github.com/gnana997/vuestories/pkg/compiler"
	"github.com/gnana997/vuestories/pkg/errs"
	"github.com/gnana997/vuestories/pkg/format"
	"github.com/gnana997/vuestories/pkg/parser"
	"github.com/gnana997/vuestories/pkg/parser/queries"
	"github.com/gnana997/vuestories/pkg/plugin"
	"github.com/gnana997/vuestories/pkg/util"
)

const defaultConfigPath = ".vuestories/config.yaml"

// ProjectConfig holds the contents of .vuestories/config.yaml.
type ProjectConfig struct {
	Include   []string              `yaml:"include"`
	Exclude   []string              `yaml:"exclude"`
	Enforce   string                `yaml:"enforce"`
	TSConfig  string                `yaml:"tsconfig"`
	Compiler  string                `yaml:"compiler"`
	Formatter string                `yaml:"formatter"`
	OutDir    string                `yaml:"out_dir"`
	Design    *plugin.DesignOptions `yaml:"design"`
	LogLevel  string                `yaml:"log_level"`
	LogFormat string                `yaml:"log_format"`
}

// loadProjectConfig reads the config file at path.
// Returns nil (no error) if the file does not exist.
func loadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	root      string
	config    string
	tsconfig  string
	compiler  string
	formatter string
	logLevel  string
	logFormat string
}

// pick returns the first non-empty value, applying the fallback chain
// flag > config file > default.
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// app wires the plugin and its collaborators for one command run.
type app struct {
	root    string
	config  *ProjectConfig
	logger  *slog.Logger
	pm      *parser.ParserManager
	qm      *queries.QueryManager
	files   util.FileCache
	plugin  *plugin.Plugin
	closers []io.Closer
}

// newLogger builds the stderr logger from flags and the project config.
func newLogger(g globalOptions, cfg *ProjectConfig) *slog.Logger {
	return util.NewLogger(util.LoggerConfig{
		Level:  util.ParseLogLevel(pick(g.logLevel, cfg.LogLevel)),
		Format: util.LogFormat(pick(g.logFormat, cfg.LogFormat, string(util.FormatText))),
		Output: os.Stderr,
	})
}

// loadConfig resolves the project root and reads its config file.
func loadConfig(g globalOptions) (string, *ProjectConfig, error) {
	root, err := filepath.Abs(pick(g.root, "."))
	if err != nil {
		return "", nil, err
	}
	path := g.config
	if path == "" {
		path = filepath.Join(root, defaultConfigPath)
	}
	cfg, err := loadProjectConfig(path)
	if err != nil {
		return "", nil, err
	}
	if cfg == nil {
		if g.config != "" {
			return "", nil, &errs.ConfigurationError{Reason: "config file not found", Searched: []string{path}}
		}
		cfg = &ProjectConfig{}
	}
	return root, cfg, nil
}

func newApp(g globalOptions) (*app, error) {
	root, cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	logger := newLogger(g, cfg)

	opts, err := plugin.ResolveOptions(root, plugin.Options{
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
		Enforce:      cfg.Enforce,
		TSConfigPath: pick(g.tsconfig, cfg.TSConfig),
		Design:       cfg.Design,
	})
	if err != nil {
		return nil, err
	}

	fc := util.DefaultFileCacheConfig()
	fc.Logger = logger
	a := &app{
		root:   root,
		config: cfg,
		logger: logger,
		pm:     parser.NewParserManager(logger),
		files:  util.NewFileCache(fc),
	}
	a.qm = queries.NewQueryManager(a.pm, logger)

	pcfg := plugin.Config{Options: opts, Files: a.files, Logger: logger}
	switch c := pick(g.compiler, cfg.Compiler, "builtin"); c {
	case "builtin":
	case "node":
		nc, err := compiler.NewNode(root, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		pcfg.Compiler = nc
		a.closers = append(a.closers, nc)
	default:
		a.Close()
		return nil, &errs.ConfigurationError{Reason: fmt.Sprintf("unknown compiler %q", c)}
	}
	switch f := pick(g.formatter, cfg.Formatter, "builtin"); f {
	case "builtin":
	case "prettier":
		pf, err := format.NewPrettier(root, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		pcfg.Formatter = pf
		a.closers = append(a.closers, pf)
	default:
		a.Close()
		return nil, &errs.ConfigurationError{Reason: fmt.Sprintf("unknown formatter %q", f)}
	}

	a.plugin = plugin.New(a.qm, pcfg)
	return a, nil
}

// buildOptions merges the out dir chain into the build defaults.
func (a *app) buildOptions(outDir string, workers int, sourceMaps bool) build.Options {
	opts := build.DefaultOptions()
	opts.OutDir = pick(outDir, a.config.OutDir, opts.OutDir)
	opts.Workers = workers
	opts.SourceMaps = sourceMaps
	return opts
}

// Close releases everything newApp created, last first.
func (a *app) Close() error {
	var errList []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errList = append(errList, a.closers[i].Close())
	}
	if a.plugin != nil {
		errList = append(errList, a.plugin.Close())
	}
	if a.files != nil {
		errList = append(errList, a.files.Close())
	}
	if a.qm != nil {
		errList = append(errList, a.qm.Close())
	}
	if a.pm != nil {
		errList = append(errList, a.pm.Close())
	}
	return errors.Join(errList...)
}
