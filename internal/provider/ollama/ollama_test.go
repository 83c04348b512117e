package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archan-project/archan/internal/config"
	"github.com/archan-project/archan/internal/provider"
)

func testConfig(host string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Provider.Host = host
	cfg.Provider.RetryAttempts = 2
	cfg.Provider.RequestTimeout = 5
	return cfg
}

func chatReply(content string) map[string]any {
	return map[string]any{
		"model":      "arch-chan",
		"created_at": "2024-01-01T00:00:00Z",
		"message":    map[string]string{"role": "assistant", "content": content},
		"done":       true,
	}
}

func TestChat_SendsModelMessagesAndOptions(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(chatReply("¡Hola!"))
	}))
	defer srv.Close()

	p, err := New(testConfig(srv.URL), nil)
	require.NoError(t, err)

	content, err := p.Chat(context.Background(), &provider.ChatRequest{
		Model: "arch-chan",
		Messages: []provider.Message{
			{Role: "user", Content: "hola"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "¡Hola!", content)
	assert.Equal(t, "arch-chan", got["model"])

	msgs := got["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])

	opts := got["options"].(map[string]any)
	assert.EqualValues(t, 4096, opts["num_ctx"])
	assert.InDelta(t, 0.7, opts["temperature"], 0.001)

	// No format constraint unless requested
	assert.Nil(t, got["format"])
}

func TestChat_ForceJSONSetsFormat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(chatReply(`{"tool":"search","query":"x"}`))
	}))
	defer srv.Close()

	p, err := New(testConfig(srv.URL), nil)
	require.NoError(t, err)

	_, err = p.Chat(context.Background(), &provider.ChatRequest{
		Model:     "arch-chan",
		Messages:  []provider.Message{{Role: "user", Content: "busca x"}},
		ForceJSON: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "json", got["format"])
}

func TestChat_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(chatReply("ok"))
	}))
	defer srv.Close()

	p, err := New(testConfig(srv.URL), nil)
	require.NoError(t, err)

	content, err := p.Chat(context.Background(), &provider.ChatRequest{
		Model:    "arch-chan",
		Messages: []provider.Message{{Role: "user", Content: "hola"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", content)
	assert.EqualValues(t, 2, calls.Load())
}

func TestChat_UnreachableEndpointIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	cfg := testConfig(srv.URL)
	cfg.Provider.RetryAttempts = 1
	p, err := New(cfg, nil)
	require.NoError(t, err)

	_, err = p.Chat(context.Background(), &provider.ChatRequest{
		Model:    "arch-chan",
		Messages: []provider.Message{{Role: "user", Content: "hola"}},
	})

	assert.ErrorIs(t, err, provider.ErrUnavailable)
}

func TestChat_CancellationIsNotUnavailability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	p, err := New(testConfig(srv.URL), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Chat(ctx, &provider.ChatRequest{
		Model:    "arch-chan",
		Messages: []provider.Message{{Role: "user", Content: "hola"}},
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestPingAndListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]any{
				{"name": "arch-chan"},
				{"name": "arch-chan-lite"},
			},
		})
	}))
	defer srv.Close()

	p, err := New(testConfig(srv.URL), nil)
	require.NoError(t, err)

	require.NoError(t, p.Ping(context.Background()))

	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"arch-chan", "arch-chan-lite"}, models)
}

func TestNew_InvalidHost(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider.Host = "://not-a-url"

	_, err := New(cfg, nil)

	assert.Error(t, err)
}
