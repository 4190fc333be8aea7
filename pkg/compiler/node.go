package compiler

import (
	"context"
	"log/slog"

	_ "embed"

	"github.com/gnana997/vuestories/pkg/errs"
	"github.com/gnana997/vuestories/pkg/nodeworker"
	"github.com/gnana997/vuestories/pkg/sfc"
)

//go:embed worker/compiler-worker.mjs
var compilerScript []byte

// Node compiles through @vue/compiler-sfc resolved from the project's
// node_modules.
type Node struct {
	worker *nodeworker.Worker
	logger *slog.Logger
}

type nodeRequest struct {
	Op       string          `json:"op"`
	Filename string          `json:"filename"`
	Source   string          `json:"source"`
	Bindings BindingMetadata `json:"bindings,omitempty"`
}

type nodeScriptResponse struct {
	Empty    bool            `json:"empty"`
	Content  string          `json:"content"`
	Lang     string          `json:"lang"`
	Bindings BindingMetadata `json:"bindings"`
	Setup    bool            `json:"setup"`
}

type nodeTemplateResponse struct {
	Code string `json:"code"`
}

// NewNode creates a Node compiler rooted at rootDir.
func NewNode(rootDir string, logger *slog.Logger) (*Node, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := nodeworker.New("compiler", compilerScript, rootDir, logger)
	if err != nil {
		return nil, &errs.ConfigurationError{Reason: err.Error()}
	}
	logger.Info("using node compiler", "runtime", w.Runtime(), "root", rootDir)
	return &Node{worker: w, logger: logger}, nil
}

// CompileScript implements Compiler.
func (n *Node) CompileScript(ctx context.Context, desc *sfc.Descriptor) (*ScriptResult, error) {
	if desc.Script == nil && desc.ScriptSetup == nil {
		return nil, nil
	}
	var resp nodeScriptResponse
	req := nodeRequest{Op: "script", Filename: desc.Filename, Source: desc.Source}
	if err := n.worker.Call(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.Empty {
		return nil, nil
	}
	return &ScriptResult{Content: resp.Content, Lang: resp.Lang, Bindings: resp.Bindings, Setup: resp.Setup}, nil
}

// CompileTemplate implements Compiler.
func (n *Node) CompileTemplate(ctx context.Context, source string, opts TemplateOptions) (string, error) {
	var resp nodeTemplateResponse
	req := nodeRequest{Op: "template", Filename: opts.Filename, Source: source, Bindings: opts.Bindings}
	if err := n.worker.Call(ctx, req, &resp); err != nil {
		return "", err
	}
	return resp.Code, nil
}

// Close removes the worker script.
func (n *Node) Close() error {
	return n.worker.Close()
}
