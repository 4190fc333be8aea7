// Package build runs the plugin transforms over a directory tree and writes
// the generated modules, with source maps, to an output directory.
package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gnana997/vuestories/pkg/edit"
	"github.com/gnana997/vuestories/pkg/plugin"
	"github.com/gnana997/vuestories/pkg/util"
)

// Builder transforms the files of one root directory.
//
//	b := build.NewBuilder(root, p, files, build.DefaultOptions(), logger)
//	stats, err := b.Build(ctx, nil)
type Builder struct {
	root        string
	outDir      string
	transformer Transformer
	files       util.FileCache
	options     Options
	logger      *slog.Logger
}

// NewBuilder creates a Builder. A relative OutDir resolves against root.
func NewBuilder(root string, t Transformer, files util.FileCache, options Options, logger *slog.Logger) (*Builder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if options.OutDir == "" {
		return nil, errors.New("build output directory is required")
	}
	for _, pattern := range options.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}
	outDir := options.OutDir
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(root, outDir)
	}
	return &Builder{
		root:        root,
		outDir:      outDir,
		transformer: t,
		files:       files,
		options:     options,
		logger:      logger,
	}, nil
}

// Root returns the absolute root directory.
func (b *Builder) Root() string { return b.root }

// ID returns the transform id of a file: story files get the internal
// story suffix.
func ID(path string) string {
	if strings.HasSuffix(path, plugin.StoriesPublicSuffix) {
		return path + plugin.StoriesInternalSuffix
	}
	return path
}

// Includes reports whether path is a build input.
func (b *Builder) Includes(path string) bool {
	if b.Excludes(path) {
		return false
	}
	return b.transformer.TransformInclude(ID(path))
}

// Excludes reports whether path lies in the output directory or matches an
// exclude pattern.
func (b *Builder) Excludes(path string) bool {
	if path == b.outDir || strings.HasPrefix(path, b.outDir+string(filepath.Separator)) {
		return true
	}
	rel, err := filepath.Rel(b.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range b.options.Exclude {
		if matched, _ := doublestar.PathMatch(pattern, rel); matched {
			return true
		}
	}
	return false
}

// Discover walks the root and returns every build input.
func (b *Builder) Discover() ([]string, error) {
	var files []string
	err := filepath.WalkDir(b.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			b.logger.Warn("walk error", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if path != b.root && b.Excludes(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if b.Includes(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// OutputPath returns where the output of path goes: story files become
// .js modules, components keep their name.
func (b *Builder) OutputPath(path string) (string, error) {
	rel, err := filepath.Rel(b.root, path)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside %s", path, b.root)
	}
	if strings.HasSuffix(rel, plugin.StoriesPublicSuffix) {
		rel = strings.TrimSuffix(rel, ".vue") + ".js"
	}
	return filepath.Join(b.outDir, rel), nil
}

// BuildFile transforms one file and writes its output. It returns the
// output path, or "" when the transform left the file unchanged.
func (b *Builder) BuildFile(ctx context.Context, path string) (string, error) {
	code, err := b.files.ReadString(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	res, err := b.transformer.Transform(ctx, code, ID(path))
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", nil
	}
	out, err := b.OutputPath(path)
	if err != nil {
		return "", err
	}
	if err := b.write(out, res); err != nil {
		return "", err
	}
	return out, nil
}

func (b *Builder) write(out string, res *edit.Result) error {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	code := res.Code
	if b.options.SourceMaps && res.Map != nil {
		mapJSON, err := res.Map.JSON()
		if err != nil {
			return fmt.Errorf("failed to encode source map: %w", err)
		}
		if err := os.WriteFile(out+".map", []byte(mapJSON), 0o644); err != nil {
			return fmt.Errorf("failed to write source map: %w", err)
		}
		if strings.HasSuffix(out, ".js") {
			code = strings.TrimRight(code, "\n") + "\n//# sourceMappingURL=" + filepath.Base(out) + ".map\n"
		}
	}
	if err := os.WriteFile(out, []byte(code), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// RemoveFile deletes the outputs of a removed input.
func (b *Builder) RemoveFile(path string) error {
	out, err := b.OutputPath(path)
	if err != nil {
		return err
	}
	for _, p := range []string{out, out + ".map"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if b.files != nil {
		_ = b.files.Invalidate(path)
	}
	return nil
}

// Build transforms every input under the root. A failing file is recorded
// in the stats and does not stop the others.
func (b *Builder) Build(ctx context.Context, progress ProgressCallback) (*Stats, error) {
	startTime := time.Now()
	stats := &Stats{StartTime: startTime}

	b.logger.Info("starting build", "root", b.root, "out_dir", b.outDir)

	files, err := b.Discover()
	if err != nil {
		return nil, fmt.Errorf("file discovery failed: %w", err)
	}
	stats.FilesDiscovered = len(files)
	stats.DiscoveryTimeMs = time.Since(startTime).Milliseconds()

	if len(files) == 0 {
		b.logger.Warn("no files found matching criteria", "root", b.root)
	} else if err := b.processFiles(ctx, files, stats, progress); err != nil {
		return nil, err
	}

	stats.EndTime = time.Now()
	stats.TotalTimeMs = time.Since(startTime).Milliseconds()
	b.logger.Info("build complete",
		"written", stats.FilesWritten,
		"unchanged", stats.FilesUnchanged,
		"failed", stats.FilesFailed,
		"duration_ms", stats.TotalTimeMs)
	return stats, nil
}

func (b *Builder) processFiles(ctx context.Context, files []string, stats *Stats, progress ProgressCallback) error {
	total := len(files)
	pool := NewWorkerPool(ctx, b.options.Workers, func(ctx context.Context, job FileJob) (string, error) {
		return b.BuildFile(ctx, job.FilePath)
	}, b.logger)
	stats.WorkerCount = pool.numWorkers
	pool.Start()
	defer pool.Stop()

	var processed atomic.Int32
	done := make(chan struct{})

	// The collector must run before jobs are submitted, or a full queue
	// blocks submission forever.
	go func() {
		defer close(done)
		for int(processed.Load()) < total {
			select {
			case <-ctx.Done():
				stats.Cancelled = true
				return
			case res := <-pool.Results():
				if res.Output == "" {
					stats.FilesUnchanged++
				} else {
					stats.FilesWritten++
				}
				n := processed.Add(1)
				if progress != nil {
					progress(int(n), total, res.FilePath)
				}
			case fileErr := <-pool.Errors():
				stats.Errors = append(stats.Errors, fileErr)
				stats.FilesFailed++
				b.logger.Warn("transform failed", "file", fileErr.FilePath, "error", fileErr.Error)
				n := processed.Add(1)
				if progress != nil {
					progress(int(n), total, fileErr.FilePath)
				}
			}
		}
	}()

	for i, file := range files {
		if err := pool.Submit(FileJob{FilePath: file, JobID: i}); err != nil {
			if ctx.Err() != nil {
				break
			}
			return fmt.Errorf("failed to submit job for %s: %w", file, err)
		}
	}
	pool.FinishSubmitting()
	<-done
	return nil
}
