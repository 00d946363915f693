package anthropic

import (
	"context"

	"ai-ghostwriter-be/pkg/llm"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens = 1024

type AnthropicProvider struct {
	client    *anthropicsdk.Client
	modelName string
}

var _ llm.LLMProvider = &AnthropicProvider{}

func NewAnthropicProvider(apiKey, modelName string) *AnthropicProvider {
	client := anthropicsdk.NewClient(
		anthropicopt.WithAPIKey(apiKey),
	)
	return &AnthropicProvider{
		client:    &client,
		modelName: modelName,
	}
}

func (p *AnthropicProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return llm.Collect(ctx, p, history, opts...)
}

func (p *AnthropicProvider) Stream(ctx context.Context, history []llm.Message, onToken llm.TokenHandler, opts ...llm.Option) error {
	options := llm.NewOptions(llm.Options{Temperature: 0.7, MaxTokens: defaultMaxTokens, Model: p.modelName}, opts...)
	if options.MaxTokens <= 0 {
		options.MaxTokens = defaultMaxTokens
	}

	system, conversation := llm.SplitSystem(history)

	messages := make([]anthropicsdk.MessageParam, 0, len(conversation))
	for _, msg := range conversation {
		block := anthropicsdk.NewTextBlock(msg.Content)
		if msg.Role == llm.RoleAssistant {
			messages = append(messages, anthropicsdk.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropicsdk.NewUserMessage(block))
		}
	}

	params := anthropicsdk.MessageNewParams{
		Model:       anthropicsdk.Model(options.Model),
		MaxTokens:   int64(options.MaxTokens),
		Messages:    messages,
		Temperature: anthropicsdk.Float(options.Temperature),
	}
	if system != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: system}}
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		event := stream.Current()
		delta, ok := event.AsAny().(anthropicsdk.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		text, ok := delta.Delta.AsAny().(anthropicsdk.TextDelta)
		if !ok || text.Text == "" {
			continue
		}
		if err := onToken(text.Text); err != nil {
			return err
		}
	}
	return stream.Err()
}
