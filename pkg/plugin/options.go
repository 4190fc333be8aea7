package plugin

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gnana997/vuestories/pkg/errs"
	"github.com/gnana997/vuestories/pkg/supermeta"
)

// Default include and exclude globs.
var (
	DefaultInclude = []string{"**/*.vue", "**/*.stories.vue"}
	DefaultExclude = []string{"**/node_modules/**"}
)

// Enforce values accepted by the host.
const (
	EnforcePre  = "pre"
	EnforcePost = "post"
)

// DesignOptions configures design-tool links. URLTemplate contains an
// `{id}` placeholder replaced by the URL-escaped design id.
type DesignOptions struct {
	Type        string `yaml:"type"`
	URLTemplate string `yaml:"url_template"`
}

// Options is the user-facing plugin configuration. Zero fields take their
// defaults.
type Options struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	// Enforce is "pre", "post" or "none". Empty means "pre".
	Enforce      string         `yaml:"enforce"`
	TSConfigPath string         `yaml:"tsconfig"`
	Design       *DesignOptions `yaml:"design"`
}

// ResolvedOptions is Options with defaults applied and paths checked.
type ResolvedOptions struct {
	Root    string
	Include []string
	Exclude []string
	// Enforce is "pre", "post" or "".
	Enforce      string
	TSConfigPath string
	// Design is nil when design links are disabled.
	Design *supermeta.Design
}

// ResolveOptions applies defaults to opts. Relative paths resolve against
// root.
func ResolveOptions(root string, opts Options) (*ResolvedOptions, error) {
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	r := &ResolvedOptions{
		Root:    root,
		Include: opts.Include,
		Exclude: opts.Exclude,
	}
	if len(r.Include) == 0 {
		r.Include = DefaultInclude
	}
	if len(r.Exclude) == 0 {
		r.Exclude = DefaultExclude
	}
	for _, pattern := range append(append([]string{}, r.Include...), r.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, &errs.ConfigurationError{Reason: fmt.Sprintf("invalid glob pattern %q", pattern)}
		}
	}

	switch opts.Enforce {
	case "":
		r.Enforce = EnforcePre
	case EnforcePre, EnforcePost:
		r.Enforce = opts.Enforce
	case "none":
		r.Enforce = ""
	default:
		return nil, &errs.ConfigurationError{Reason: fmt.Sprintf("invalid enforce %q, want pre, post or none", opts.Enforce)}
	}

	r.TSConfigPath, err = findTSConfig(root, opts.TSConfigPath)
	if err != nil {
		return nil, err
	}

	if d := opts.Design; d != nil && d.Type != "" {
		if !strings.Contains(d.URLTemplate, "{id}") {
			return nil, &errs.ConfigurationError{Reason: fmt.Sprintf("design url_template %q has no {id} placeholder", d.URLTemplate)}
		}
		tmpl := d.URLTemplate
		r.Design = &supermeta.Design{
			Type: d.Type,
			GetURL: func(id string) string {
				return strings.ReplaceAll(tmpl, "{id}", url.QueryEscape(id))
			},
		}
	}
	return r, nil
}

// findTSConfig returns the explicit tsconfig when it exists, else the first
// of tsconfig.app.json and tsconfig.json found in root.
func findTSConfig(root, explicit string) (string, error) {
	var candidates []string
	if explicit != "" {
		if !filepath.IsAbs(explicit) {
			explicit = filepath.Join(root, explicit)
		}
		candidates = []string{explicit}
	} else {
		candidates = []string{
			filepath.Join(root, "tsconfig.app.json"),
			filepath.Join(root, "tsconfig.json"),
		}
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", &errs.ConfigurationError{Reason: "tsconfig not found", Searched: candidates}
}

// Matches reports whether path is included and not excluded. Paths under
// Root are matched relative to it.
func (r *ResolvedOptions) Matches(path string) bool {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	candidates := []string{filepath.ToSlash(path)}
	if filepath.IsAbs(path) {
		if rel, err := filepath.Rel(r.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
			candidates = append(candidates, filepath.ToSlash(rel))
		}
	}
	return matchAny(r.Include, candidates) && !matchAny(r.Exclude, candidates)
}

func matchAny(patterns, paths []string) bool {
	for _, pattern := range patterns {
		for _, p := range paths {
			if ok, _ := doublestar.Match(pattern, p); ok {
				return true
			}
		}
	}
	return false
}
