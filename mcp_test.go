package kreuzberg

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "kreuzberg-test", Version: "0.1.0"}

func mcpSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	regs := NewRegistries()
	if err := regs.Extractors.Register(&stubExtractor{name: "stub-text", mimes: []string{"text/plain", "text/*"}}); err != nil {
		t.Fatal(err)
	}
	srv := mcp.NewServer(testMCPImpl, nil)
	regs.RegisterMCP(srv, nil)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

func TestMCPFormats(t *testing.T) {
	session := mcpSession(t)

	text := mcpCallTool(t, session, "kreuzberg_formats", map[string]any{})
	var resp struct {
		Extractors map[string][]string `json:"extractors"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	mimes, ok := resp.Extractors["stub-text"]
	if !ok {
		t.Fatalf("stub-text missing from formats: %v", resp.Extractors)
	}
	if len(mimes) != 2 || mimes[0] != "text/plain" {
		t.Errorf("mimes = %v", mimes)
	}
}

func TestMCPExtractFile(t *testing.T) {
	session := mcpSession(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(path, []byte("Hello World\nSecond line"), 0o644); err != nil {
		t.Fatal(err)
	}

	text := mcpCallTool(t, session, "kreuzberg_extract_file", map[string]any{"path": path})

	var res ExtractionResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !strings.Contains(res.Content, "Hello World") {
		t.Errorf("content = %q", res.Content)
	}
	if res.MimeType != "text/plain" {
		t.Errorf("mime = %q", res.MimeType)
	}
}

func TestMCPExtractBytes(t *testing.T) {
	session := mcpSession(t)

	data := base64.StdEncoding.EncodeToString([]byte("inline document body"))
	text := mcpCallTool(t, session, "kreuzberg_extract", map[string]any{
		"data":      data,
		"mime_type": "text/plain",
	})

	var res ExtractionResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !strings.Contains(res.Content, "inline document body") {
		t.Errorf("content = %q", res.Content)
	}
}

func TestMCPExtractBytesBadBase64(t *testing.T) {
	session := mcpSession(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "kreuzberg_extract",
		Arguments: map[string]any{"data": "%%% not base64 %%%", "mime_type": "text/plain"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if result.GetError() == nil {
		t.Fatal("expected tool error for invalid base64")
	}
}

func TestMCPBatch(t *testing.T) {
	session := mcpSession(t)

	dir := t.TempDir()
	paths := make([]string, 3)
	for i := range paths {
		paths[i] = filepath.Join(dir, "doc"+string(rune('a'+i))+".txt")
		if err := os.WriteFile(paths[i], []byte("file "+string(rune('a'+i))), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	text := mcpCallTool(t, session, "kreuzberg_batch", map[string]any{"paths": paths})

	var results []*ExtractionResult
	if err := json.Unmarshal([]byte(text), &results); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for i, res := range results {
		want := "file " + string(rune('a'+i))
		if !strings.Contains(res.Content, want) {
			t.Errorf("result %d content = %q, want %q", i, res.Content, want)
		}
	}
}

func TestMCPExtractUnsupported(t *testing.T) {
	session := mcpSession(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "kreuzberg_extract",
		Arguments: map[string]any{
			"data":      base64.StdEncoding.EncodeToString([]byte("x")),
			"mime_type": "application/x-unknown",
		},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if result.GetError() == nil {
		t.Fatal("expected tool error for unsupported mime type")
	}
}
