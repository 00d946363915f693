package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const geminiEmbeddingModel = "text-embedding-004"

type GeminiProvider struct {
	ApiKey string
	Client *http.Client
}

func NewGeminiProvider(apiKey string) EmbeddingProvider {
	return &GeminiProvider{
		ApiKey: apiKey,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *GeminiProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	geminiReq := EmbeddingRequest{
		Model: geminiEmbeddingModel,
		Content: EmbeddingRequestContent{
			Parts: []EmbeddingRequestContentPart{{Text: text}},
		},
		TaskType: taskType,
	}
	geminiReqJson, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1/models/%s:embedContent",
		geminiEmbeddingModel,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(geminiReqJson))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", p.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resByte, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error from gemini response, code %d, body %s", res.StatusCode, string(resByte))
	}

	var resEmbedding EmbeddingResponse
	if err := json.Unmarshal(resByte, &resEmbedding); err != nil {
		return nil, err
	}

	return &resEmbedding, nil
}
