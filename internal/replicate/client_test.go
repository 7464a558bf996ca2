package replicate

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/emoji-maker/internal/config"
)

func testClient(baseURL string, maxAttempts int) *Client {
	return NewClient(config.ReplicateConfig{
		APIToken:        "test-token",
		BaseURL:         baseURL,
		ModelVersion:    "test-version",
		PollInterval:    time.Millisecond,
		MaxPollAttempts: maxAttempts,
		RequestTimeout:  time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGenerateSuccess(t *testing.T) {
	polls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/predictions":
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

			var req struct {
				Version string         `json:"version"`
				Input   map[string]any `json:"input"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "test-version", req.Version)
			assert.Equal(t, "friendly emoji style: smiling cat", req.Input["prompt"])
			assert.Equal(t, false, req.Input["apply_watermark"])
			assert.Equal(t, negativePrompt, req.Input["negative_prompt"])

			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"id": "pred-1", "status": "starting"})

		case r.Method == http.MethodGet && r.URL.Path == "/v1/predictions/pred-1":
			polls++
			status := "processing"
			var output any
			if polls >= 2 {
				status = "succeeded"
				output = []string{"https://img/x.png"}
			}
			json.NewEncoder(w).Encode(map[string]any{"id": "pred-1", "status": status, "output": output})

		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	urls, err := testClient(srv.URL, 10).Generate(context.Background(), "friendly emoji style: smiling cat")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img/x.png"}, urls)
	assert.GreaterOrEqual(t, polls, 2)
}

func TestGenerateEmptyOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]any{"id": "pred-1", "status": "starting"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "pred-1", "status": "succeeded", "output": []string{}})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 5).Generate(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no output urls")
}

func TestGenerateFailedPrediction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]any{"id": "pred-1", "status": "starting"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "pred-1", "status": "failed", "error": "NSFW content detected"})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 5).Generate(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NSFW content detected")
}

func TestGenerateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 5).Generate(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")
}

func TestGeneratePollTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]any{"id": "pred-1", "status": "starting"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "pred-1", "status": "processing"})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 3).Generate(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestGenerateContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]any{"id": "pred-1", "status": "starting"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "pred-1", "status": "processing"})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL, 10).Generate(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeOutputSingleString(t *testing.T) {
	urls, err := decodeOutput(json.RawMessage(`"https://img/only.png"`))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img/only.png"}, urls)
}
