// Package nodeworker runs embedded JavaScript workers under node or bun.
//
// A worker receives one JSON document on stdin and writes one JSON document
// to stdout. It is used for the optional @vue/compiler-sfc compiler and the
// prettier formatter, both of which need the project's node_modules.
package nodeworker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FindRuntime searches for a JavaScript runtime on the PATH.
// Prefers bun over node for speed.
func FindRuntime() (string, bool) {
	for _, rt := range []string{"bun", "node"} {
		if p, err := exec.LookPath(rt); err == nil {
			return p, true
		}
	}
	return "", false
}

// FindUp searches for name starting at dir and walking up.
func FindUp(dir, name string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}

	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

// HasNodeModules checks if node_modules exists at or above dir.
func HasNodeModules(dir string) bool {
	p, ok := FindUp(dir, "node_modules")
	if !ok {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// Worker is an embedded script bound to a runtime and a working directory.
type Worker struct {
	name    string
	script  []byte
	runtime string
	dir     string
	logger  *slog.Logger

	once    sync.Once
	path    string
	initErr error
}

// New creates a worker. dir is the project root the script resolves its
// dependencies from.
func New(name string, script []byte, dir string, logger *slog.Logger) (*Worker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt, found := FindRuntime()
	if !found {
		return nil, fmt.Errorf("%s: no node or bun runtime found on PATH", name)
	}
	if !HasNodeModules(dir) {
		logger.Warn("no node_modules found; worker dependencies may not resolve", "worker", name, "dir", dir)
	}
	return &Worker{name: name, script: script, runtime: rt, dir: dir, logger: logger}, nil
}

// Runtime returns the runtime binary name ("node" or "bun").
func (w *Worker) Runtime() string {
	return filepath.Base(w.runtime)
}

func (w *Worker) scriptPath() (string, error) {
	w.once.Do(func() {
		// Write the embedded script to a temp file.
		tmpFile, err := os.CreateTemp("", "vuestories-"+w.name+"-*.mjs")
		if err != nil {
			w.initErr = fmt.Errorf("failed to create temp file: %w", err)
			return
		}
		if _, err := tmpFile.Write(w.script); err != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpFile.Name())
			w.initErr = fmt.Errorf("failed to write %s script: %w", w.name, err)
			return
		}
		_ = tmpFile.Close()
		w.path = tmpFile.Name()
	})
	return w.path, w.initErr
}

// Call runs the worker once with input marshaled to JSON and decodes its
// stdout into output.
func (w *Worker) Call(ctx context.Context, input, output any) error {
	script, err := w.scriptPath()
	if err != nil {
		return err
	}

	inputJSON, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	args := []string{script}
	if strings.Contains(filepath.Base(w.runtime), "node") {
		args = append([]string{"--max-old-space-size=2048"}, args...)
	}

	cmd := exec.CommandContext(ctx, w.runtime, args...)
	cmd.Stdin = bytes.NewReader(inputJSON)
	cmd.Dir = w.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		stderrStr := stderr.String()
		if stderrStr != "" {
			w.logger.Warn("worker stderr", "worker", w.name, "output", stderrStr)
		}
		return fmt.Errorf("%s worker failed: %w (stderr: %s)", w.name, err, stderrStr)
	}

	if err := json.Unmarshal(stdout.Bytes(), output); err != nil {
		return fmt.Errorf("failed to parse %s output: %w", w.name, err)
	}

	w.logger.Debug("worker call complete",
		"worker", w.name,
		"runtime", w.Runtime(),
		"ms", time.Since(start).Milliseconds())
	return nil
}

// Close removes the temp script.
func (w *Worker) Close() error {
	if w.path == "" {
		return nil
	}
	return os.Remove(w.path)
}
