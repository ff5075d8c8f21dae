// Package mcpserver exposes body generation as an MCP tool so editors and
// agents can complete a single declaration without touching files.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/germanamz/aibindgen/pkg/params"
	"github.com/germanamz/aibindgen/pkg/transform"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolName is the name of the generation tool.
const ToolName = "generate_function"

var toolDescription = "Generate the body of a Go function declared without one. " +
	"The source may carry an //ai:gen directive with " + strings.Join(params.Names(), ", ") +
	" arguments. Returns the completed declaration."

var inputSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"source": {
			"type": "string",
			"description": "Go source of one function declaration without a body, optionally preceded by a package clause and an //ai:gen directive."
		}
	}
}`)

// Server serves the generation tool over the MCP protocol.
type Server struct {
	server *mcp.Server
	tr     *transform.Transformer
}

// New creates a Server that generates through tr.
func New(name, version string, tr *transform.Transformer) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    name,
			Version: version,
		}, nil),
		tr: tr,
	}

	s.server.AddTool(&mcp.Tool{
		Name:        ToolName,
		Description: toolDescription,
		InputSchema: inputSchema,
	}, s.generate)

	return s
}

// Serve reads requests from in and writes responses to out. It blocks until
// ctx is cancelled or the transport closes.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}

	return s.run(ctx, transport)
}

func (s *Server) run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

type generateInput struct {
	Source string `json:"source"`
}

func (s *Server) generate(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in generateInput

	args := req.Params.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	if err := json.Unmarshal(args, &in); err != nil {
		return errorResult(fmt.Errorf("mcpserver: invalid arguments: %w", err)), nil
	}

	if in.Source == "" {
		return errorResult(errors.New("mcpserver: source is required")), nil
	}

	out, err := s.tr.Declaration(ctx, in.Source)
	if err != nil {
		return errorResult(err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: out}},
	}, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}

// nopWriteCloser wraps an io.Writer as an io.WriteCloser with a no-op Close.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
