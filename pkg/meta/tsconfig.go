package meta

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tailscale/hujson"
)

type tsconfigFile struct {
	Files      []string `json:"files"`
	Include    []string `json:"include"`
	Exclude    []string `json:"exclude"`
	References []struct {
		Path string `json:"path"`
	} `json:"references"`
}

// scope is the file set of one tsconfig.
type scope struct {
	dir     string
	files   map[string]bool
	include []string
	exclude []string
}

// project is the union of a tsconfig and the configs it references.
type project struct {
	scopes []scope
}

// maxReferenceDepth bounds reference chains, cycles included.
const maxReferenceDepth = 8

// loadProject reads a tsconfig as JSONC and follows its references.
func loadProject(configPath string) (*project, error) {
	p := &project{}
	if err := p.load(configPath, 0, map[string]bool{}); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *project) load(configPath string, depth int, seen map[string]bool) error {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return err
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		abs = filepath.Join(abs, "tsconfig.json")
	}
	if seen[abs] || depth > maxReferenceDepth {
		return nil
	}
	seen[abs] = true

	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("failed to read tsconfig: %w", err)
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("failed to parse tsconfig %s: %w", abs, err)
	}
	var cfg tsconfigFile
	if err := json.Unmarshal(std, &cfg); err != nil {
		return fmt.Errorf("failed to decode tsconfig %s: %w", abs, err)
	}

	dir := filepath.Dir(abs)
	s := scope{dir: dir, files: make(map[string]bool)}
	for _, f := range cfg.Files {
		s.files[filepath.Clean(filepath.Join(dir, f))] = true
	}
	// An explicit files list without include narrows the project to it.
	if cfg.Include == nil && cfg.Files == nil {
		cfg.Include = []string{"**/*"}
	}
	for _, pattern := range cfg.Include {
		s.include = append(s.include, normalizePattern(pattern))
	}
	if cfg.Exclude == nil {
		cfg.Exclude = []string{"**/node_modules/**"}
	}
	for _, pattern := range cfg.Exclude {
		s.exclude = append(s.exclude, normalizePattern(pattern))
	}
	p.scopes = append(p.scopes, s)

	for _, ref := range cfg.References {
		if err := p.load(filepath.Join(dir, ref.Path), depth+1, seen); err != nil {
			return err
		}
	}
	return nil
}

// normalizePattern turns a directory entry into a recursive glob.
func normalizePattern(pattern string) string {
	pattern = path.Clean(strings.TrimPrefix(filepath.ToSlash(pattern), "./"))
	if !strings.ContainsAny(pattern, "*?[{") && path.Ext(pattern) == "" {
		return pattern + "/**/*"
	}
	return pattern
}

// Contains reports whether an absolute path belongs to the project.
func (p *project) Contains(file string) bool {
	for _, s := range p.scopes {
		if s.contains(file) {
			return true
		}
	}
	return false
}

func (s scope) contains(file string) bool {
	if s.files[file] {
		return true
	}
	rel, err := filepath.Rel(s.dir, file)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range s.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	for _, pattern := range s.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
