package gemini

import (
	"context"
	"errors"
	"strings"
	"sync"

	"ai-ghostwriter-be/pkg/llm"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	genaiopt "google.golang.org/api/option"
)

type GeminiProvider struct {
	apiKey    string
	modelName string

	once      sync.Once
	client    *genai.Client
	clientErr error
}

var _ llm.LLMProvider = &GeminiProvider{}

func NewGeminiProvider(apiKey, modelName string) *GeminiProvider {
	return &GeminiProvider{
		apiKey:    apiKey,
		modelName: modelName,
	}
}

func (p *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.once.Do(func() {
		p.client, p.clientErr = genai.NewClient(context.WithoutCancel(ctx), genaiopt.WithAPIKey(p.apiKey))
	})
	return p.client, p.clientErr
}

func (p *GeminiProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return llm.Collect(ctx, p, history, opts...)
}

func (p *GeminiProvider) Stream(ctx context.Context, history []llm.Message, onToken llm.TokenHandler, opts ...llm.Option) error {
	options := llm.NewOptions(llm.Options{Temperature: 0.7, Model: p.modelName}, opts...)

	client, err := p.getClient(ctx)
	if err != nil {
		return err
	}

	system, conversation := llm.SplitSystem(history)
	if len(conversation) == 0 {
		return errors.New("gemini: empty conversation")
	}

	model := client.GenerativeModel(options.Model)
	model.SetTemperature(float32(options.Temperature))
	if options.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(options.MaxTokens))
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := model.StartChat()
	for _, msg := range conversation[:len(conversation)-1] {
		role := "user"
		if msg.Role == llm.RoleAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(msg.Content)}})
	}

	iter := cs.SendMessageStream(ctx, genai.Text(conversation[len(conversation)-1].Content))
	for {
		rsp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		text := candidateText(rsp)
		if text == "" {
			continue
		}
		if err := onToken(text); err != nil {
			return err
		}
	}
}

func candidateText(rsp *genai.GenerateContentResponse) string {
	if len(rsp.Candidates) == 0 || rsp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range rsp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
