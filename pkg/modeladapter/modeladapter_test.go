package modeladapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/germanamz/aibindgen/pkg/modeladapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check: CompleterFunc satisfies Completer.
var _ modeladapter.Completer = modeladapter.CompleterFunc(nil)

func TestCompleterFunc(t *testing.T) {
	var got modeladapter.Request

	c := modeladapter.CompleterFunc(func(_ context.Context, req modeladapter.Request) (modeladapter.Completion, error) {
		got = req
		return modeladapter.Completion{Text: "return a"}, nil
	})

	out, err := c.Complete(context.Background(), modeladapter.Request{Model: "m", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "return a", out.Text)
	assert.Equal(t, "m", got.Model)
	assert.Equal(t, "p", got.Prompt)
}

func TestTokenCount_Total(t *testing.T) {
	assert.Equal(t, 15, modeladapter.TokenCount{InputTokens: 10, OutputTokens: 5}.Total())
}

func TestNew_DefaultClient(t *testing.T) {
	a := modeladapter.New("https://api.example.com/v1/", modeladapter.Auth{}, nil)
	assert.Nil(t, a.Client)
}

func TestURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"https://api.example.com/v1/", "chat/completions", "https://api.example.com/v1/chat/completions"},
		{"https://api.example.com/v1", "chat/completions", "https://api.example.com/v1/chat/completions"},
		{"https://api.example.com/v1/", "/chat/completions", "https://api.example.com/v1/chat/completions"},
	}

	for _, tt := range tests {
		a := modeladapter.New(tt.base, modeladapter.Auth{}, nil)
		assert.Equal(t, tt.want, a.URL(tt.path))
	}
}

func TestNewRequest_BearerAuth(t *testing.T) {
	a := modeladapter.New("https://api.example.com/v1/", modeladapter.Auth{Key: "sk-test"}, nil)

	req, err := a.NewRequest(context.Background(), http.MethodGet, "chat", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v1/chat", req.URL.String())
	assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
}

func TestNewRequest_CustomHeader(t *testing.T) {
	auth := modeladapter.Auth{Key: "sk-test", Header: "api-key"}
	a := modeladapter.New("https://api.example.com/v1/", auth, nil)

	req, err := a.NewRequest(context.Background(), http.MethodGet, "chat", nil)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", req.Header.Get("api-key"))
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestNewRequest_CustomHeaderWithScheme(t *testing.T) {
	auth := modeladapter.Auth{Key: "sk-test", Header: "api-key", Scheme: "Token"}
	a := modeladapter.New("https://api.example.com/v1/", auth, nil)

	req, err := a.NewRequest(context.Background(), http.MethodGet, "chat", nil)
	require.NoError(t, err)
	assert.Equal(t, "Token sk-test", req.Header.Get("api-key"))
}

func TestNewRequest_NoAuth(t *testing.T) {
	a := modeladapter.New("https://api.example.com/v1/", modeladapter.Auth{}, nil)

	req, err := a.NewRequest(context.Background(), http.MethodGet, "chat", nil)
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestNewRequest_ExtraHeaders(t *testing.T) {
	a := modeladapter.New("https://api.example.com/v1/", modeladapter.Auth{}, nil)
	a.Headers = map[string]string{"OpenAI-Organization": "org-1"}

	req, err := a.NewRequest(context.Background(), http.MethodGet, "chat", nil)
	require.NoError(t, err)
	assert.Equal(t, "org-1", req.Header.Get("OpenAI-Organization"))
}

func TestPostJSON_Success(t *testing.T) {
	type reqBody struct {
		Model string `json:"model"`
	}
	type respBody struct {
		ID string `json:"id"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got reqBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "gpt-4", got.Model)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(respBody{ID: "chatcmpl-123"})
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL+"/v1/", modeladapter.Auth{Key: "sk-test"}, srv.Client())

	var dest respBody
	err := a.PostJSON(context.Background(), "chat", reqBody{Model: "gpt-4"}, &dest)
	require.NoError(t, err)
	assert.Equal(t, "chatcmpl-123", dest.ID)
}

func TestPostJSON_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL+"/", modeladapter.Auth{}, srv.Client())

	var dest map[string]string
	err := a.PostJSON(context.Background(), "chat", map[string]string{"model": "gpt-4"}, &dest)
	assert.ErrorContains(t, err, "unexpected status 401")

	var statusErr *modeladapter.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.NotErrorIs(t, err, modeladapter.ErrNoChoices)
}

func TestPostJSON_MarshalError(t *testing.T) {
	a := modeladapter.New("https://api.example.com/", modeladapter.Auth{}, nil)

	err := a.PostJSON(context.Background(), "chat", make(chan int), nil)
	assert.ErrorContains(t, err, "marshal payload")
}

func TestPostJSON_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL+"/", modeladapter.Auth{}, srv.Client())

	var dest map[string]string
	err := a.PostJSON(context.Background(), "chat", map[string]string{}, &dest)
	assert.ErrorContains(t, err, "decode response")
}

func TestPostJSON_NilDest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL+"/", modeladapter.Auth{}, srv.Client())

	err := a.PostJSON(context.Background(), "chat", map[string]string{"model": "gpt-4"}, nil)
	assert.NoError(t, err)
}
