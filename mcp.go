package kreuzberg

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP exposes the extraction engine as MCP tools on srv. cfg is
// the baseline configuration; nil means DefaultConfig.
func (r *Registries) RegisterMCP(srv *mcp.Server, cfg *ExtractionConfig) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	r.registerExtractFileTool(srv, cfg)
	r.registerExtractBytesTool(srv, cfg)
	r.registerBatchTool(srv, cfg)
	r.registerFormatsTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// registerTool adapts a typed handler to the MCP calling convention:
// decode failures and handler errors become tool errors, successful
// responses are serialized as a JSON text block.
func registerTool[Req any](srv *mcp.Server, tool *mcp.Tool, handler func(context.Context, *Req) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var typed Req
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &typed); err != nil {
				var res mcp.CallToolResult
				res.SetError(fmt.Errorf("invalid arguments: %w", err))
				return &res, nil
			}
		}
		resp, err := handler(ctx, &typed)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

type extractFileReq struct {
	Path     string `json:"path"`
	MimeType string `json:"mime_type"`
}

func (r *Registries) registerExtractFileTool(srv *mcp.Server, cfg *ExtractionConfig) {
	tool := &mcp.Tool{
		Name:        "kreuzberg_extract_file",
		Description: "Extract text content from a document file (pdf, docx, odt, html, md, txt, images).",
		InputSchema: inputSchema(map[string]any{
			"path":      map[string]any{"type": "string", "description": "File path to extract"},
			"mime_type": map[string]any{"type": "string", "description": "MIME type override; detected from the file when empty"},
		}, []string{"path"}),
	}
	registerTool(srv, tool, func(ctx context.Context, req *extractFileReq) (any, error) {
		return r.ExtractFile(ctx, req.Path, req.MimeType, cfg)
	})
}

type extractBytesReq struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
}

func (r *Registries) registerExtractBytesTool(srv *mcp.Server, cfg *ExtractionConfig) {
	tool := &mcp.Tool{
		Name:        "kreuzberg_extract",
		Description: "Extract text content from base64-encoded document bytes.",
		InputSchema: inputSchema(map[string]any{
			"data":      map[string]any{"type": "string", "description": "Base64-encoded document bytes"},
			"mime_type": map[string]any{"type": "string", "description": "MIME type of the document"},
		}, []string{"data", "mime_type"}),
	}
	registerTool(srv, tool, func(ctx context.Context, req *extractBytesReq) (any, error) {
		data, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			return nil, NewValidationError("decode base64 data: %v", err)
		}
		return r.Extract(ctx, data, req.MimeType, cfg)
	})
}

type batchReq struct {
	Paths []string `json:"paths"`
}

func (r *Registries) registerBatchTool(srv *mcp.Server, cfg *ExtractionConfig) {
	tool := &mcp.Tool{
		Name:        "kreuzberg_batch",
		Description: "Extract text content from multiple files concurrently. Results keep input order; per-file failures are embedded in the result metadata.",
		InputSchema: inputSchema(map[string]any{
			"paths": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "File paths to extract",
			},
		}, []string{"paths"}),
	}
	registerTool(srv, tool, func(ctx context.Context, req *batchReq) (any, error) {
		return r.BatchExtractFiles(ctx, req.Paths, cfg)
	})
}

type formatsReq struct{}

func (r *Registries) registerFormatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "kreuzberg_formats",
		Description: "List registered extractor plugins and the MIME types they claim.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	registerTool(srv, tool, func(_ context.Context, _ *formatsReq) (any, error) {
		formats := map[string][]string{}
		for _, e := range r.Extractors.All() {
			formats[e.Name()] = e.SupportedMimeTypes()
		}
		return map[string]any{"extractors": formats}, nil
	})
}
