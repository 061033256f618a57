package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/sashabaranov/go-openai"
)

// ChatClient streams chat completions from OpenAI or any compatible server.
type ChatClient struct {
	client *openai.Client
	model  string
	system string
}

func NewChatClient(apiKey, model, system string) *ChatClient {
	return NewChatClientWithURL(apiKey, model, system, "")
}

func NewChatClientWithURL(apiKey, model, system, baseURL string) *ChatClient {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &ChatClient{
		client: newClient(apiKey, baseURL),
		model:  model,
		system: system,
	}
}

// Complete yields every non-empty content delta as it arrives.
func (c *ChatClient) Complete(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var messages []openai.ChatCompletionMessage
		if c.system != "" {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: c.system,
			})
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		})

		stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:    c.model,
			Messages: messages,
			Stream:   true,
		})
		if err != nil {
			yield("", fmt.Errorf("starting chat stream: %w", err))
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("receiving chat stream: %w", err))
				return
			}

			if len(resp.Choices) == 0 {
				continue
			}
			chunk := resp.Choices[0].Delta.Content
			if chunk == "" {
				continue
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}
