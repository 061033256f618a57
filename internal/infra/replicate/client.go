package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"voice-chat/internal/infra"
)

const DefaultModel = "meta/llama-2-70b-chat"

// Client runs predictions against a hosted model on Replicate.
type Client struct {
	token        string
	httpClient   *http.Client
	baseURL      string
	model        string
	pollInterval time.Duration
	logger       *slog.Logger
}

func NewClient(token, model string, logger *slog.Logger) *Client {
	return NewClientWithURL(token, model, "https://api.replicate.com/v1", logger)
}

func NewClientWithURL(token, model, baseURL string, logger *slog.Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		token:        token,
		httpClient:   infra.NewHTTPClient(90 * time.Second),
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		model:        model,
		pollInterval: time.Second,
		logger:       logger,
	}
}

// SetPollInterval changes how often an unfinished prediction is checked.
func (c *Client) SetPollInterval(d time.Duration) {
	c.pollInterval = d
}

type predictionRequest struct {
	Input map[string]any `json:"input"`
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
}

func (p *prediction) terminal() bool {
	switch p.Status {
	case "succeeded", "failed", "canceled":
		return true
	}
	return false
}

// fragments decodes the prediction output. Language models return an array
// of token strings; a plain string is treated as a single fragment.
func (p *prediction) fragments() ([]string, error) {
	if len(p.Output) == 0 || string(p.Output) == "null" {
		return nil, nil
	}

	var parts []string
	if err := json.Unmarshal(p.Output, &parts); err == nil {
		return parts, nil
	}

	var single string
	if err := json.Unmarshal(p.Output, &single); err != nil {
		return nil, fmt.Errorf("decoding prediction output: %w", err)
	}
	return []string{single}, nil
}

// Complete creates a prediction for prompt and yields the output items in
// order once it has succeeded. Nothing is sent until the sequence is used.
func (c *Client) Complete(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		pred, err := c.run(ctx, prompt)
		if err != nil {
			yield("", err)
			return
		}

		parts, err := pred.fragments()
		if err != nil {
			yield("", err)
			return
		}

		for _, part := range parts {
			if !yield(part, nil) {
				return
			}
		}
	}
}

func (c *Client) run(ctx context.Context, prompt string) (*prediction, error) {
	pred, err := c.create(ctx, prompt)
	if err != nil {
		return nil, err
	}

	for !pred.terminal() {
		c.logger.Debug("waiting for prediction", "id", pred.ID, "status", pred.Status)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		pred, err = c.get(ctx, pred.ID)
		if err != nil {
			return nil, err
		}
	}

	if pred.Status != "succeeded" {
		if pred.Error != nil {
			return nil, fmt.Errorf("prediction %s %s: %v", pred.ID, pred.Status, pred.Error)
		}
		return nil, fmt.Errorf("prediction %s %s", pred.ID, pred.Status)
	}

	return pred, nil
}

func (c *Client) create(ctx context.Context, prompt string) (*prediction, error) {
	body, err := json.Marshal(predictionRequest{Input: map[string]any{"prompt": prompt}})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s/predictions", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "wait")

	return c.do(req)
}

func (c *Client) get(ctx context.Context, id string) (*prediction, error) {
	if id == "" {
		return nil, errors.New("prediction has no id")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/predictions/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*prediction, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if err := infra.CheckResponse("replicate", resp); err != nil {
		return nil, err
	}

	var pred prediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &pred, nil
}
