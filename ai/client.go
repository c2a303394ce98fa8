package ai

import (
	"context"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer is the single provider call the orchestrator depends on. Tests
// substitute canned implementations.
type Completer interface {
	Complete(ctx context.Context, system string, msgs []Message, maxTokens int, temperature float32) (string, error)
}

type Client struct {
	api   *openai.Client
	model string
}

func NewClient() *Client {
	key := os.Getenv("OPENAI_API_KEY")
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{api: openai.NewClient(key), model: model}
}

func (c *Client) Complete(ctx context.Context, system string, msgs []Message, maxTokens int, temperature float32) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range msgs {
		role := m.Role
		if role != openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
