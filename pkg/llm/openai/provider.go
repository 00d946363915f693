package openai

import (
	"context"
	"errors"
	"io"

	"ai-ghostwriter-be/pkg/llm"

	goopenai "github.com/sashabaranov/go-openai"
)

type OpenAIProvider struct {
	client    *goopenai.Client
	modelName string
}

var _ llm.LLMProvider = &OpenAIProvider{}

// NewOpenAIProvider talks to api.openai.com, or to any OpenAI-compatible router
// (e.g. Hugging Face) when baseURL is set.
func NewOpenAIProvider(apiKey, baseURL, modelName string) *OpenAIProvider {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client:    goopenai.NewClientWithConfig(cfg),
		modelName: modelName,
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return llm.Collect(ctx, p, history, opts...)
}

func (p *OpenAIProvider) Stream(ctx context.Context, history []llm.Message, onToken llm.TokenHandler, opts ...llm.Option) error {
	options := llm.NewOptions(llm.Options{Temperature: 0.7, Model: p.modelName}, opts...)

	messages := make([]goopenai.ChatCompletionMessage, len(history))
	for i, msg := range history {
		messages[i] = goopenai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content}
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, goopenai.ChatCompletionRequest{
		Model:       options.Model,
		Messages:    messages,
		Temperature: float32(options.Temperature),
		MaxTokens:   options.MaxTokens,
		Stream:      true,
	})
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		rsp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(rsp.Choices) == 0 || rsp.Choices[0].Delta.Content == "" {
			continue
		}
		if err := onToken(rsp.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
}
