package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/copilot/ai"
	"github.com/poiesic/copilot/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ChatModel implements ai.ChatModel using OpenAI-compatible chat APIs.
type ChatModel struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

// newChatModel is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newChatModel(config *ai.Config) (*ChatModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &ChatModel{
		client:      client,
		temperature: config.Temperature,
		logger:      slog.Default().With("component", "openai-chat"),
	}, nil
}

// NewChatModel creates a new chat model using the provided configuration.
//
// Returns ai.ChatModel interface to enforce abstraction.
func NewChatModel(config *ai.Config) (ai.ChatModel, error) {
	return newChatModel(config)
}

// Generate returns the complete response for messages.
func (c *ChatModel) Generate(ctx context.Context, messages []ai.Message) (string, error) {
	response, err := c.client.GenerateContent(ctx, toMessageContent(messages),
		llms.WithTemperature(c.temperature))
	if err != nil {
		c.logger.Error("failed to generate content", "messages", len(messages), "err", err)
		return "", classifyError(ctx, "chat", err)
	}

	if len(response.Choices) < 1 {
		return "", core.Upstream("chat", nil, "no choices returned from model")
	}
	return response.Choices[0].Content, nil
}

// Stream delivers the response to onChunk as it is produced and returns the
// full text.
func (c *ChatModel) Stream(ctx context.Context, messages []ai.Message, onChunk func(chunk string) error) (string, error) {
	var chunks int
	response, err := c.client.GenerateContent(ctx, toMessageContent(messages),
		llms.WithTemperature(c.temperature),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			chunks++
			return onChunk(string(chunk))
		}))
	if err != nil {
		c.logger.Error("failed to stream content", "chunks", chunks, "err", err)
		return "", classifyError(ctx, "chat", err)
	}

	if len(response.Choices) < 1 {
		return "", core.Upstream("chat", nil, "no choices returned from model")
	}
	c.logger.Debug("stream complete", "chunks", chunks)
	return response.Choices[0].Content, nil
}

func toMessageContent(messages []ai.Message) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(chatMessageType(m.Role), m.Content))
	}
	return content
}

func chatMessageType(role ai.Role) llms.ChatMessageType {
	switch role {
	case ai.RoleSystem:
		return llms.ChatMessageTypeSystem
	case ai.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
