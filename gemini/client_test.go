package gemini_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/chatter"
	"github.com/fwojciec/chatter/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertMessages(t *testing.T) {
	t.Parallel()
	msgs := []chatter.Message{
		{Role: chatter.RoleUser, Content: "Hello"},
		{Role: chatter.RoleResponder, Content: "How far?"},
		{Role: chatter.RoleUser, Content: "I dey"},
	}
	got := gemini.ConvertMessages(msgs)
	require.Len(t, got, 3)

	assert.Equal(t, "user", got[0].Role)
	require.Len(t, got[0].Parts, 1)
	assert.Equal(t, "Hello", got[0].Parts[0].Text)

	assert.Equal(t, "model", got[1].Role)
	assert.Equal(t, "How far?", got[1].Parts[0].Text)

	assert.Equal(t, "user", got[2].Role)
}

func TestConvertMessages_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, gemini.ConvertMessages(nil))
}

func TestConvertMessages_SkipsUnknownRoles(t *testing.T) {
	t.Parallel()
	got := gemini.ConvertMessages([]chatter.Message{{Role: "system", Content: "x"}})
	assert.Empty(t, got)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...gemini.Option) *gemini.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]gemini.Option{gemini.WithBaseURL(srv.URL)}, opts...)
	c, err := gemini.New(context.Background(), "test-key", opts...)
	require.NoError(t, err)
	return c
}

func TestClient_Send(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	var path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Omo, na so!"}]},"finishReason":"STOP"}]}`)
	}, gemini.WithModel("test-model"), gemini.WithSystemPrompt("Be funny."))

	reply, err := client.Send(context.Background(), chatter.Request{
		Text:    "Tell me a joke",
		History: []chatter.Message{{Role: chatter.RoleUser, Content: "hi"}, {Role: chatter.RoleResponder, Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Omo, na so!", reply)

	assert.True(t, strings.HasSuffix(path, "models/test-model:generateContent"), path)
	contents, ok := captured["contents"].([]any)
	require.True(t, ok)
	require.Len(t, contents, 3)
	last := contents[2].(map[string]any)
	assert.Equal(t, "user", last["role"])
	assert.Contains(t, captured, "systemInstruction")
}

func TestClient_SendFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"code":500,"message":"internal","status":"INTERNAL"}}`},
		{"no candidates", http.StatusOK, `{"candidates":[]}`},
		{"blocked prompt", http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := client.Send(context.Background(), chatter.Request{Text: "x"})
			assert.ErrorIs(t, err, chatter.ErrGateway)
		})
	}
}

func TestClient_BlankTextNeverHitsNetwork(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})
	_, err := client.Send(context.Background(), chatter.Request{Text: "   "})
	assert.ErrorIs(t, err, chatter.ErrValidation)
	assert.Zero(t, hits.Load())
}
