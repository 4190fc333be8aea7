package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/vuestories/pkg/build"
	"github.com/gnana997/vuestories/pkg/edit"
	"github.com/gnana997/vuestories/pkg/meta"
	"github.com/gnana997/vuestories/pkg/preview"
)

type transformResponse struct {
	Code      string          `json:"code"`
	Unchanged bool            `json:"unchanged,omitempty"`
	Map       *edit.SourceMap `json:"map,omitempty"`
}

type componentMetaResponse struct {
	Path   string           `json:"path"`
	Props  []meta.PropMeta  `json:"props"`
	Events []meta.EventMeta `json:"events"`
	Models []meta.ModelMeta `json:"models"`
	Slots  []meta.SlotMeta  `json:"slots"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleTransformStory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename := req.GetString("filename", defaultStoryFile)
	if !strings.HasSuffix(filename, ".vue") {
		return mcp.NewToolResultError(fmt.Sprintf("filename %q is not a .vue file", filename)), nil
	}

	res, err := s.plugin.Transform(ctx, code, build.ID(filename))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if res == nil {
		return jsonResult(transformResponse{Code: code, Unchanged: true})
	}
	out := transformResponse{Code: res.Code}
	if req.GetBool("source_map", false) {
		out.Map = res.Map
	}
	return jsonResult(out)
}

func (s *Server) handleComponentMeta(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !strings.HasSuffix(path, ".vue") {
		return mcp.NewToolResultError(fmt.Sprintf("%s is not a .vue file", path)), nil
	}

	m, err := s.plugin.MetaSource().GetMeta(path, "default")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if m == nil {
		m = &meta.ComponentMeta{}
	}
	props, events, models := meta.ParseModels(m)
	return jsonResult(componentMetaResponse{
		Path:   path,
		Props:  nonNil(props),
		Events: nonNil(events),
		Models: nonNil(models),
		Slots:  nonNil(m.Slots),
	})
}

func (s *Server) handleStoryPreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename := req.GetString("filename", defaultStoryFile)

	res, err := preview.Transform(s.pm, code, filename)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(res.Code), nil
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
