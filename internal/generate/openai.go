package generate

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/docuchat/docuchat/internal/chat"
)

// OpenAI adapts an OpenAI-compatible chat-completion endpoint to the
// chat.Generator port. The selected system prompt becomes the system
// message and the conversation history is replayed ahead of the query.
//
// The endpoint returns no retrieval citations, so results carry an empty
// source list; a retrieval layer in front of the model would populate them.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates the adapter. baseURL may be empty for api.openai.com or
// point at any compatible endpoint (e.g. a local inference server).
func NewOpenAI(apiKey, baseURL, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Generate implements chat.Generator.
func (o *OpenAI) Generate(ctx context.Context, req *chat.GenerateRequest) (*chat.GenerateResult, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: req.Prompt.PromptText,
	})

	for _, msg := range req.History {
		if msg.Status != chat.StatusCompleted || msg.Content == "" {
			continue // failed placeholders never reach the model
		}
		role := openai.ChatMessageRoleUser
		if msg.Role == chat.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Query,
	})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	return &chat.GenerateResult{Content: resp.Choices[0].Message.Content}, nil
}
