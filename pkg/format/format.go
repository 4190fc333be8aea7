// Package format is the source formatter boundary.
//
// Builtin pretty-prints Vue template markup in-process and passes other
// languages through unchanged. Prettier delegates to the project's prettier
// installation through a node worker.
package format

import (
	"context"
)

// Options mirror the prettier options the transforms use.
type Options struct {
	// Parser is the prettier parser name: "vue", "babel" or "typescript".
	Parser     string `json:"parser"`
	PrintWidth int    `json:"printWidth"`
	TabWidth   int    `json:"tabWidth"`
	// BracketSameLine puts the > of a multi-line start tag on the last
	// attribute line.
	BracketSameLine bool `json:"bracketSameLine"`
}

// SourceOptions are the options used for story source previews.
func SourceOptions() Options {
	return Options{Parser: "vue", PrintWidth: 80, TabWidth: 2, BracketSameLine: true}
}

// Formatter formats source code. Implementations are safe for concurrent
// use.
type Formatter interface {
	Format(ctx context.Context, code string, opts Options) (string, error)
}

func (o Options) withDefaults() Options {
	if o.PrintWidth <= 0 {
		o.PrintWidth = 80
	}
	if o.TabWidth <= 0 {
		o.TabWidth = 2
	}
	return o
}
