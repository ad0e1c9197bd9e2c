package briefing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulverlogic/newsboard/internal/models"
)

var headline = models.Headline{Source: "NPR", Title: "Senate passes education bill", Subject: "The Legislative Branch"}

func fakeOpenAI(t *testing.T, status int, content string) (*httptest.Server, *[]string) {
	t.Helper()
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		for _, m := range req.Messages {
			prompts = append(prompts, m.Content)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &prompts
}

func TestBrief(t *testing.T) {
	srv, prompts := fakeOpenAI(t, http.StatusOK, "  Background and arguments.  ")
	c := New(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	require.True(t, c.Enabled())

	got := c.Brief(context.Background(), headline)
	assert.Equal(t, "Background and arguments.", got)
	require.Len(t, *prompts, 2)
	assert.Contains(t, (*prompts)[1], "Senate passes education bill")
	assert.Contains(t, (*prompts)[1], "The Legislative Branch")
}

func TestBrief_FailureIsPlaceholder(t *testing.T) {
	srv, _ := fakeOpenAI(t, http.StatusInternalServerError, "")
	c := New(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})

	assert.Equal(t, Unavailable, c.Brief(context.Background(), headline))
}

func TestBrief_Disabled(t *testing.T) {
	c := New(Config{})
	assert.Nil(t, c)
	assert.False(t, c.Enabled())
	assert.Equal(t, Unavailable, c.Brief(context.Background(), headline))
}

func TestQuestions(t *testing.T) {
	qs := Questions(headline)
	require.Len(t, qs, 4)
	assert.Contains(t, qs[0], "Senate passes education bill")
	assert.Equal(t, "What would it take for this to pass both chambers?", qs[3])

	general := Questions(models.Headline{Title: "Something happened!", Subject: "General"})
	assert.Len(t, general, 3)
	assert.Contains(t, general[2], `"Something happened"`)

	assert.Nil(t, Questions(models.Headline{}))
}
