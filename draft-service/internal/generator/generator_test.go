package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseTemplate(t *testing.T) {
	tmpl, err := ParseTemplate(DefaultTemplate)
	require.NoError(t, err)

	prompt, err := tmpl.Render("Invite the team to Friday lunch")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(prompt, "Write a clear, short, friendly email"))
	assert.Contains(t, prompt, "Description:\nInvite the team to Friday lunch\n\nEmail:\n")
}

func TestParseTemplateErrors(t *testing.T) {
	_, err := ParseTemplate("no placeholder here")
	assert.Error(t, err)

	_, err = ParseTemplate("{{.Description")
	assert.Error(t, err)

	assert.Panics(t, func() { MustParseTemplate("") })
}

func TestStripEcho(t *testing.T) {
	prompt := "Write an email.\n\nDescription:\nlunch\n\nEmail:\n"

	assert.Equal(t, "Hi team, lunch Friday?", StripEcho(prompt+"Hi team, lunch Friday?\n", prompt))
	assert.Equal(t, "Hi team", StripEcho("  Hi team  ", prompt))

	// the description recurring inside the body must survive
	body := "Hi all,\nlunch\nis on me."
	assert.Equal(t, body, StripEcho(prompt+body, prompt))
}

func TestDecodingValidate(t *testing.T) {
	assert.NoError(t, DefaultDecoding().Validate())
	assert.NoError(t, Decoding{MaxNewTokens: 200, Temperature: 0.7, TopP: 0.9, Mode: ModeSampled}.Validate())

	assert.Error(t, Decoding{MaxNewTokens: 0, Mode: ModeDeterministic}.Validate())
	assert.Error(t, Decoding{MaxNewTokens: 10, Temperature: 0, TopP: 0.9, Mode: ModeSampled}.Validate())
	assert.Error(t, Decoding{MaxNewTokens: 10, Temperature: 0.7, TopP: 1.5, Mode: ModeSampled}.Validate())
	assert.Error(t, Decoding{MaxNewTokens: 10, Mode: "beam"}.Validate())
}

func newChatServer(t *testing.T, content string, captured *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		body := map[string]any{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if captured != nil {
			*captured = body
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "tiny",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16},
		})
	}))
}

func TestOpenAIGeneratorDeterministic(t *testing.T) {
	var captured map[string]any
	srv := newChatServer(t, "Hi team,\nLunch on Friday?", &captured)
	defer srv.Close()

	g := NewOpenAIGenerator(OpenAIConfig{BaseURL: srv.URL + "/v1/", Model: "tiny"}, zap.NewNop())
	out, err := g.Generate(context.Background(), "PROMPT", DefaultDecoding())
	require.NoError(t, err)

	assert.Equal(t, "Hi team,\nLunch on Friday?", out)
	assert.Equal(t, "tiny", captured["model"])
	assert.EqualValues(t, 200, captured["max_tokens"])
	assert.EqualValues(t, 0, captured["temperature"])
	assert.NotContains(t, captured, "top_p")
	assert.Equal(t, "tiny", g.Model())
}

func TestOpenAIGeneratorSampled(t *testing.T) {
	var captured map[string]any
	srv := newChatServer(t, "Hello", &captured)
	defer srv.Close()

	g := NewOpenAIGenerator(OpenAIConfig{BaseURL: srv.URL + "/v1/", Model: "tiny"}, zap.NewNop())
	_, err := g.Generate(context.Background(), "PROMPT", Decoding{MaxNewTokens: 50, Temperature: 0.7, TopP: 0.9, Mode: ModeSampled})
	require.NoError(t, err)

	assert.InDelta(t, 0.7, captured["temperature"], 1e-9)
	assert.InDelta(t, 0.9, captured["top_p"], 1e-9)
}

func TestOpenAIGeneratorServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"model crashed"}}`))
	}))
	defer srv.Close()

	g := NewOpenAIGenerator(OpenAIConfig{BaseURL: srv.URL + "/v1/", Model: "tiny"}, zap.NewNop())
	_, err := g.Generate(context.Background(), "PROMPT", DefaultDecoding())
	assert.Error(t, err)
}
