package format

import (
	"context"
	"log/slog"

	_ "embed"

	"github.com/gnana997/vuestories/pkg/nodeworker"
)

//go:embed worker/prettier-worker.mjs
var prettierScript []byte

// Prettier formats through the project's prettier package.
type Prettier struct {
	worker *nodeworker.Worker
}

type prettierRequest struct {
	Code    string  `json:"code"`
	Options Options `json:"options"`
}

type prettierResponse struct {
	Code string `json:"code"`
}

// NewPrettier creates a Prettier formatter resolving prettier from rootDir.
func NewPrettier(rootDir string, logger *slog.Logger) (*Prettier, error) {
	w, err := nodeworker.New("prettier", prettierScript, rootDir, logger)
	if err != nil {
		return nil, err
	}
	return &Prettier{worker: w}, nil
}

// Format implements Formatter.
func (p *Prettier) Format(ctx context.Context, code string, opts Options) (string, error) {
	var resp prettierResponse
	if err := p.worker.Call(ctx, prettierRequest{Code: code, Options: opts.withDefaults()}, &resp); err != nil {
		return "", err
	}
	return resp.Code, nil
}

// Close removes the worker script.
func (p *Prettier) Close() error {
	return p.worker.Close()
}
