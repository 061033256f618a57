package openai

import (
	"strings"

	"github.com/sashabaranov/go-openai"
)

// newClient builds a go-openai client. An empty baseURL keeps the public
// API endpoint; anything else points at an OpenAI-compatible server.
func newClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	return openai.NewClientWithConfig(cfg)
}
