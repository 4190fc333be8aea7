package build

import (
	"context"
	"time"

	"github.com/gnana997/vuestories/pkg/edit"
)

// Transformer is the part of the plugin a build drives.
type Transformer interface {
	TransformInclude(id string) bool
	Transform(ctx context.Context, code, id string) (*edit.Result, error)
}

// Options configures a build.
type Options struct {
	// OutDir receives the outputs, mirroring the layout under the root.
	OutDir string

	// Exclude patterns (glob syntax, relative to the root) skipped during
	// discovery on top of the transformer's own filter.
	Exclude []string

	// Workers is the pool size. Zero means util.GetOptimalPoolSize().
	Workers int

	// SourceMaps writes a .map next to each output and links it.
	SourceMaps bool
}

// DefaultExclude lists directories never worth walking.
var DefaultExclude = []string{
	"**/node_modules/**",
	".git/**",
	"dist/**",
	"coverage/**",
	".vuestories/**",
}

// DefaultOptions returns recommended build options.
func DefaultOptions() Options {
	return Options{
		OutDir:     ".vuestories/out",
		Exclude:    DefaultExclude,
		SourceMaps: true,
	}
}

// Stats describes a finished build.
type Stats struct {
	// FilesDiscovered is the number of files the transformer accepted.
	FilesDiscovered int

	// FilesWritten is the number of outputs written.
	FilesWritten int

	// FilesUnchanged is the number of components with nothing to inject.
	FilesUnchanged int

	// FilesFailed is the number of files whose transform failed.
	FilesFailed int

	// Errors holds one entry per failed file.
	Errors []FileError

	WorkerCount     int
	DiscoveryTimeMs int64
	TotalTimeMs     int64

	// Cancelled is set when the context ended before every file ran.
	Cancelled bool

	StartTime time.Time
	EndTime   time.Time
}

// FileError is a transform failure of one file.
type FileError struct {
	FilePath string
	Error    error
}

// ProgressCallback is called after every processed file.
type ProgressCallback func(done, total int, currentFile string)
