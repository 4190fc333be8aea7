// FileCache gives the metadata checker cheap repeated access to component
// sources using memory-mapped files.
//
// Entries are keyed by path and revalidated against the file's modification
// time on every Get, so a long-running watch or serve process picks up edits
// without an explicit flush. Files that cannot be mapped fall back to
// os.ReadFile.
package util

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/edsrzf/mmap-go"
)

// FileCache provides memory-mapped file access.
//
// Thread-safe: Multiple goroutines can call methods concurrently.
type FileCache interface {
	// Get returns the mapped file, loading or reloading it when the file on
	// disk changed since it was cached.
	Get(filePath string) (*MappedFile, error)

	// ReadString returns the file contents as a string.
	ReadString(filePath string) (string, error)

	// Invalidate drops a cached entry. Unknown paths are ignored.
	Invalidate(filePath string) error

	// Size returns number of currently cached files.
	Size() int

	// Stats returns current cache metrics.
	Stats() FileCacheStats

	// Close unmaps all files and releases resources.
	Close() error
}

// FileCacheConfig controls FileCache behavior.
type FileCacheConfig struct {
	// MaxFiles is the maximum number of files to keep mapped. Zero means
	// unlimited. When the limit is reached Get returns an error.
	MaxFiles int

	// Logger for warnings. If nil, uses slog.Default().
	Logger *slog.Logger
}

// DefaultFileCacheConfig returns defaults sized for a component library.
func DefaultFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{MaxFiles: 10000}
}

// MappedFile represents a memory-mapped file.
type MappedFile struct {
	Path string

	// Data is the mapped region, or a heap copy for fallback entries.
	// Nil for empty files.
	Data mmap.MMap

	// File is nil for fallback entries.
	File *os.File

	Size    int64
	ModTime time.Time

	mapped bool
}

// FileCacheStats tracks cache performance metrics.
type FileCacheStats struct {
	FilesLoaded  int64
	FilesCached  int
	CacheHits    int64
	CacheMisses  int64
	Reloads      int64
	MmapFailures int64
}

// NewFileCache creates a new FileCache with the given config.
//
// If config is nil, uses DefaultFileCacheConfig().
func NewFileCache(config *FileCacheConfig) FileCache {
	if config == nil {
		config = DefaultFileCacheConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &fileCacheImpl{
		config: config,
		cache:  make(map[string]*MappedFile),
		logger: logger,
	}
}

type fileCacheImpl struct {
	config *FileCacheConfig
	logger *slog.Logger

	cache map[string]*MappedFile
	mu    sync.RWMutex

	stats   FileCacheStats
	statsMu sync.Mutex
}

func (fc *fileCacheImpl) Get(filePath string) (*MappedFile, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		fc.record(func(s *FileCacheStats) { s.CacheMisses++ })
		return nil, fmt.Errorf("failed to stat file %q: %w", filePath, err)
	}

	// Fast path: cached and unchanged
	fc.mu.RLock()
	mf, ok := fc.cache[filePath]
	fc.mu.RUnlock()
	if ok && fresh(mf, stat) {
		fc.record(func(s *FileCacheStats) { s.CacheHits++ })
		return mf, nil
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	// Double-check: another goroutine might have reloaded it
	if mf, ok = fc.cache[filePath]; ok {
		if fresh(mf, stat) {
			fc.record(func(s *FileCacheStats) { s.CacheHits++ })
			return mf, nil
		}
		if err := release(mf); err != nil {
			fc.logger.Warn("failed to release stale mapping", "path", filePath, "error", err)
		}
		delete(fc.cache, filePath)
		fc.record(func(s *FileCacheStats) { s.Reloads++ })
	}

	if fc.config.MaxFiles > 0 && len(fc.cache) >= fc.config.MaxFiles {
		fc.record(func(s *FileCacheStats) { s.CacheMisses++ })
		return nil, fmt.Errorf("FileCache limit reached: %d files (limit: %d files)",
			len(fc.cache), fc.config.MaxFiles)
	}

	mf, err = fc.loadFile(filePath)
	if err != nil {
		fc.record(func(s *FileCacheStats) { s.CacheMisses++ })
		return nil, err
	}

	fc.cache[filePath] = mf
	fc.record(func(s *FileCacheStats) {
		s.CacheMisses++
		s.FilesLoaded++
	})
	return mf, nil
}

func fresh(mf *MappedFile, stat os.FileInfo) bool {
	return mf.Size == stat.Size() && mf.ModTime.Equal(stat.ModTime())
}

// loadFile maps a file, falling back to os.ReadFile if mmap fails.
//
// Must be called while holding mu.Lock.
func (fc *fileCacheImpl) loadFile(filePath string) (*MappedFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", filePath, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file %q: %w", filePath, err)
	}

	// Can't mmap zero bytes
	if stat.Size() == 0 {
		file.Close()
		return &MappedFile{Path: filePath, ModTime: stat.ModTime()}, nil
	}

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		fc.logger.Warn("mmap failed, using fallback",
			"file", filePath,
			"size", stat.Size(),
			"error", err)
		file.Close()

		raw, readErr := os.ReadFile(filePath)
		if readErr != nil {
			return nil, fmt.Errorf("mmap failed and fallback failed for %q: mmap error: %v, read error: %w",
				filePath, err, readErr)
		}
		fc.record(func(s *FileCacheStats) { s.MmapFailures++ })
		return &MappedFile{
			Path:    filePath,
			Data:    mmap.MMap(raw),
			Size:    int64(len(raw)),
			ModTime: stat.ModTime(),
		}, nil
	}

	return &MappedFile{
		Path:    filePath,
		Data:    data,
		File:    file,
		Size:    stat.Size(),
		ModTime: stat.ModTime(),
		mapped:  true,
	}, nil
}

func (fc *fileCacheImpl) ReadString(filePath string) (string, error) {
	mf, err := fc.Get(filePath)
	if err != nil {
		return "", err
	}
	return string(mf.Data), nil
}

func (fc *fileCacheImpl) Invalidate(filePath string) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	mf, ok := fc.cache[filePath]
	if !ok {
		return nil
	}
	delete(fc.cache, filePath)
	return release(mf)
}

func release(mf *MappedFile) error {
	var firstErr error
	if mf.mapped && mf.Data != nil {
		if err := mf.Data.Unmap(); err != nil {
			firstErr = fmt.Errorf("unmap %q: %w", mf.Path, err)
		}
	}
	if mf.File != nil {
		if err := mf.File.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %q: %w", mf.Path, err)
		}
	}
	return firstErr
}

func (fc *fileCacheImpl) Size() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return len(fc.cache)
}

func (fc *fileCacheImpl) Stats() FileCacheStats {
	fc.mu.RLock()
	cached := len(fc.cache)
	fc.mu.RUnlock()

	fc.statsMu.Lock()
	defer fc.statsMu.Unlock()

	stats := fc.stats
	stats.FilesCached = cached
	return stats
}

func (fc *fileCacheImpl) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var errs []error
	for path, mf := range fc.cache {
		if err := release(mf); err != nil {
			fc.logger.Warn("failed to release file", "path", path, "error", err)
			errs = append(errs, err)
		}
	}
	fc.cache = make(map[string]*MappedFile)

	fc.logger.Debug("FileCache closed",
		"files_loaded", fc.stats.FilesLoaded,
		"cache_hits", fc.stats.CacheHits,
		"reloads", fc.stats.Reloads)

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}

func (fc *fileCacheImpl) record(update func(*FileCacheStats)) {
	fc.statsMu.Lock()
	update(&fc.stats)
	fc.statsMu.Unlock()
}
