package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/germanamz/aibindgen/pkg/credentials"
	"github.com/germanamz/aibindgen/pkg/modeladapter"
	"github.com/germanamz/aibindgen/pkg/params"
	"github.com/germanamz/aibindgen/pkg/transform"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransformer(reply string, err error) *transform.Transformer {
	return &transform.Transformer{
		Resolver: credentials.Static{APIKey: "sk", DefaultModel: "m"},
		NewCompleter: func(credentials.Endpoint) modeladapter.Completer {
			return modeladapter.CompleterFunc(func(context.Context, modeladapter.Request) (modeladapter.Completion, error) {
				return modeladapter.Completion{Text: reply}, err
			})
		},
	}
}

// setupTestClient creates a Server, connects an SDK client via in-memory
// transports, and returns the client session. The server runs in a background
// goroutine tied to t.Cleanup.
func setupTestClient(t *testing.T, tr *transform.Transformer) *mcp.ClientSession {
	t.Helper()

	s := New("test-server", "1.0.0", tr)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- s.run(ctx, serverTransport)
	}()
	t.Cleanup(func() {
		cancel()
		<-serverDone
	})

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	return session
}

func callText(t *testing.T, session *mcp.ClientSession, args map[string]any) (string, bool) {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolName,
		Arguments: args,
	})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)

	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	return tc.Text, result.IsError
}

func TestListTools(t *testing.T) {
	session := setupTestClient(t, newTransformer("", nil))

	result, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, result.Tools, 1)
	assert.Equal(t, ToolName, result.Tools[0].Name)
	assert.Contains(t, result.Tools[0].Description, "//ai:gen")
	for _, name := range params.Names() {
		assert.Contains(t, result.Tools[0].Description, name)
	}
}

func TestGenerate(t *testing.T) {
	session := setupTestClient(t, newTransformer("return a + b", nil))

	text, isErr := callText(t, session, map[string]any{
		"source": "//ai:gen prompt = \"sum\"\nfunc Add(a, b int) int",
	})

	assert.False(t, isErr)
	assert.Equal(t, "func Add(a, b int) int {\n\treturn a + b\n}\n", text)
}

func TestGenerate_InvalidReplacement(t *testing.T) {
	session := setupTestClient(t, newTransformer("}\nfunc Evil() {", nil))

	text, isErr := callText(t, session, map[string]any{"source": "func Add(a, b int) int"})

	assert.True(t, isErr)
	assert.Equal(t, "declaration.go:1:1: generated text does not form valid replacement code", text)
}

func TestGenerate_ServiceError(t *testing.T) {
	session := setupTestClient(t, newTransformer("", modeladapter.ErrNoChoices))

	text, isErr := callText(t, session, map[string]any{"source": "func Add(a, b int) int"})

	assert.True(t, isErr)
	assert.True(t, strings.HasSuffix(text, "unable to generate replacement code"), text)
}

func TestGenerate_MissingSource(t *testing.T) {
	session := setupTestClient(t, newTransformer("", nil))

	text, isErr := callText(t, session, map[string]any{})

	assert.True(t, isErr)
	assert.Equal(t, "mcpserver: source is required", text)
}

func TestContextCancellation(t *testing.T) {
	s := New("srv", "1.0.0", newTransformer("", nil))
	serverTransport, _ := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.run(ctx, serverTransport)
	assert.ErrorIs(t, err, context.Canceled)
}
