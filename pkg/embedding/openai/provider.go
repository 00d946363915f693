package openai

import (
	"context"
	"errors"

	"ai-ghostwriter-be/pkg/embedding"

	goopenai "github.com/sashabaranov/go-openai"
)

type OpenAIProvider struct {
	client *goopenai.Client
	model  goopenai.EmbeddingModel
}

func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	if model == "" {
		model = string(goopenai.SmallEmbedding3)
	}
	return &OpenAIProvider{
		client: goopenai.NewClient(apiKey),
		model:  goopenai.EmbeddingModel(model),
	}
}

var _ embedding.EmbeddingProvider = (*OpenAIProvider)(nil)

func (p *OpenAIProvider) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	rsp, err := p.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input:      []string{text},
		Model:      p.model,
		Dimensions: 768,
	})
	if err != nil {
		return nil, err
	}

	if len(rsp.Data) == 0 || len(rsp.Data[0].Embedding) == 0 {
		return nil, errors.New("no embedding from OpenAI")
	}

	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{
			Values: rsp.Data[0].Embedding,
		},
	}, nil
}
