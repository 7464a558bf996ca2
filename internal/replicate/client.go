// Package replicate is a minimal client for the Replicate predictions API:
// it submits a generation request for a fixed model version and polls the
// prediction until output URLs are available.
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/illegalcall/emoji-maker/internal/config"
)

// negativePrompt is the static content filter applied to every generation.
const negativePrompt = "nsfw, offensive content, inappropriate, violent, gore, adult content"

type Client struct {
	apiToken     string
	baseURL      string
	modelVersion string
	pollInterval time.Duration
	maxAttempts  int
	httpClient   *http.Client
	log          *slog.Logger
}

func NewClient(cfg config.ReplicateConfig, log *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	maxAttempts := cfg.MaxPollAttempts
	if maxAttempts <= 0 {
		maxAttempts = 60
	}

	return &Client{
		apiToken:     cfg.APIToken,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		modelVersion: cfg.ModelVersion,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

// Generate submits prompt to the configured model version and waits for the
// prediction to finish, returning the result URLs. It fails if the upstream
// service errors or finishes with no output. The prediction is never retried.
func (c *Client) Generate(ctx context.Context, prompt string) ([]string, error) {
	input := map[string]any{
		"prompt":          prompt,
		"apply_watermark": false,
		"negative_prompt": negativePrompt,
	}

	pred, err := c.createPrediction(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("create prediction: %w", err)
	}

	return c.pollPrediction(ctx, pred.ID)
}

func (c *Client) createPrediction(ctx context.Context, input map[string]any) (*prediction, error) {
	body, err := json.Marshal(map[string]any{
		"version": c.modelVersion,
		"input":   input,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	fullURL := c.baseURL + "/v1/predictions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post prediction: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		c.log.Error("replicate create prediction failed", "status", resp.StatusCode, "body", truncateBody(rawBody))
		return nil, fmt.Errorf("replicate error: status=%d body=%s", resp.StatusCode, truncateBody(rawBody))
	}

	var pred prediction
	if err := json.Unmarshal(rawBody, &pred); err != nil {
		return nil, fmt.Errorf("decode prediction: %w (body=%s)", err, truncateBody(rawBody))
	}
	if pred.ID == "" {
		return nil, fmt.Errorf("empty prediction id in response")
	}

	c.log.Info("replicate prediction created", "prediction_id", pred.ID)
	return &pred, nil
}

func (c *Client) pollPrediction(ctx context.Context, predictionID string) ([]string, error) {
	fullURL := c.baseURL + "/v1/predictions/" + predictionID

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("get prediction: %w", err)
		}

		rawBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}

		if resp.StatusCode >= 300 {
			c.log.Error("replicate poll failed", "status", resp.StatusCode, "body", truncateBody(rawBody))
			return nil, fmt.Errorf("replicate error: status=%d body=%s", resp.StatusCode, truncateBody(rawBody))
		}

		var pred prediction
		if err := json.Unmarshal(rawBody, &pred); err != nil {
			return nil, fmt.Errorf("decode prediction: %w (body=%s)", err, truncateBody(rawBody))
		}

		switch pred.Status {
		case "succeeded":
			urls, err := decodeOutput(pred.Output)
			if err != nil {
				return nil, err
			}
			if len(urls) == 0 {
				return nil, fmt.Errorf("no output urls in prediction")
			}
			c.log.Info("replicate prediction completed", "prediction_id", predictionID, "attempt", attempt+1)
			return urls, nil

		case "failed", "canceled":
			errMsg := pred.Error
			if errMsg == "" {
				errMsg = "unknown error"
			}
			c.log.Error("replicate prediction failed", "prediction_id", predictionID, "status", pred.Status, "error", errMsg)
			return nil, fmt.Errorf("prediction %s: %s", pred.Status, errMsg)

		case "starting", "processing":
			if attempt < c.maxAttempts-1 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(c.pollInterval):
					continue
				}
			}

		default:
			return nil, fmt.Errorf("unknown prediction status: %s", pred.Status)
		}
	}

	return nil, fmt.Errorf("prediction timeout after %d attempts", c.maxAttempts)
}

// decodeOutput accepts both output shapes the API produces: an array of
// URLs or a single URL string.
func decodeOutput(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var urls []string
	if err := json.Unmarshal(raw, &urls); err == nil {
		return urls, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}
	return nil, fmt.Errorf("unexpected prediction output shape: %s", truncateBody(raw))
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
