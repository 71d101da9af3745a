package endpoint_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/chatter"
	"github.com/fwojciec/chatter/endpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestClient_RequestFormat(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &captured)
		_, _ = io.WriteString(w, `{"response":"Omo, na so!"}`)
	}))
	defer srv.Close()

	client := endpoint.New(srv.URL + "/chat")
	reply, err := client.Send(context.Background(), chatter.Request{User: "robert", Text: "Tell me a joke"})
	require.NoError(t, err)

	assert.Equal(t, "Omo, na so!", reply)
	assert.Equal(t, map[string]any{"message": "Tell me a joke", "user": "robert"}, captured)
}

func TestClient_UserField(t *testing.T) {
	t.Parallel()

	t.Run("custom field name", func(t *testing.T) {
		t.Parallel()
		var captured map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, &captured)
			_, _ = io.WriteString(w, `{"response":"ok"}`)
		}))
		defer srv.Close()

		client := endpoint.New(srv.URL, endpoint.WithUserField("user_id"))
		_, err := client.Send(context.Background(), chatter.Request{User: "u1", Text: "hi"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"message": "hi", "user_id": "u1"}, captured)
	})

	t.Run("omitted when empty", func(t *testing.T) {
		t.Parallel()
		var captured map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, &captured)
			_, _ = io.WriteString(w, `{"response":"ok"}`)
		}))
		defer srv.Close()

		client := endpoint.New(srv.URL)
		_, err := client.Send(context.Background(), chatter.Request{Text: "hi"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"message": "hi"}, captured)
	})
}

func TestClient_Replies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"response field", `{"response":"hi"}`, "hi"},
		{"message field", `{"message":"hello there"}`, "hello there"},
		{"response wins", `{"response":"a","message":"b"}`, "a"},
		{"markdown preserved", `{"response":"**bold**\n- item"}`, "**bold**\n- item"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(respond(http.StatusOK, tt.body))
			defer srv.Close()

			reply, err := endpoint.New(srv.URL).Send(context.Background(), chatter.Request{Text: "x"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply)
		})
	}
}

func TestClient_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"server error", http.StatusInternalServerError, `Internal Server Error`, "HTTP 500: Internal Server Error"},
		{"bad gateway json", http.StatusBadGateway, `{"error":"upstream down"}`, "HTTP 502: upstream down"},
		{"validation detail", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"}]}`, "HTTP 422"},
		{"error with 200", http.StatusOK, `{"error":"{\"message\":\"invalid api key\"}"}`, "upstream error"},
		{"malformed body", http.StatusOK, `<html>oops</html>`, "malformed response"},
		{"no reply field", http.StatusOK, `{"status":"ok"}`, "response has no reply"},
		{"blank reply", http.StatusOK, `{"response":"   "}`, "empty reply"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(respond(tt.status, tt.body))
			defer srv.Close()

			_, err := endpoint.New(srv.URL).Send(context.Background(), chatter.Request{Text: "x"})
			require.ErrorIs(t, err, chatter.ErrGateway)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(respond(http.StatusOK, `{"response":"x"}`))
	url := srv.URL
	srv.Close()

	_, err := endpoint.New(url).Send(context.Background(), chatter.Request{Text: "x"})
	assert.ErrorIs(t, err, chatter.ErrGateway)
}

func TestClient_ContextDeadline(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := endpoint.New(srv.URL).Send(ctx, chatter.Request{Text: "x"})
	assert.ErrorIs(t, err, chatter.ErrGateway)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_BlankTextNeverHitsNetwork(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	_, err := endpoint.New(srv.URL).Send(context.Background(), chatter.Request{Text: " \n\t"})
	assert.ErrorIs(t, err, chatter.ErrValidation)
	assert.Zero(t, hits.Load())
}

func TestClient_RateLimit(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, `{"response":"ok"}`)
	}))
	defer srv.Close()

	client := endpoint.New(srv.URL, endpoint.WithRateLimit(rate.Every(time.Hour), 1))

	_, err := client.Send(context.Background(), chatter.Request{Text: "first"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Send(ctx, chatter.Request{Text: "second"})
	assert.ErrorIs(t, err, chatter.ErrGateway)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_WithHTTPClient(t *testing.T) {
	t.Parallel()

	var used atomic.Bool
	srv := httptest.NewServer(respond(http.StatusOK, `{"response":"ok"}`))
	defer srv.Close()

	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		used.Store(true)
		return http.DefaultTransport.RoundTrip(r)
	})}
	_, err := endpoint.New(srv.URL, endpoint.WithHTTPClient(hc)).Send(context.Background(), chatter.Request{Text: "x"})
	require.NoError(t, err)
	assert.True(t, used.Load())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
