package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// OllamaProvider implements EmbeddingProvider for local Ollama models (e.g., nomic-embed-text)
type OllamaProvider struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewOllamaProvider(baseURL string, model string) EmbeddingProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OllamaProvider{
		BaseURL: baseURL,
		Model:   model,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (p *OllamaProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	// nomic-embed-text has no task type parameter.
	jsonBody, err := json.Marshal(ollamaEmbeddingRequest{Model: p.Model, Prompt: text})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/embeddings", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embedding error: %s", string(bodyBytes))
	}

	var ollamaResp ollamaEmbeddingResponse
	if err := json.Unmarshal(bodyBytes, &ollamaResp); err != nil {
		return nil, err
	}

	values := make([]float32, len(ollamaResp.Embedding))
	for i, v := range ollamaResp.Embedding {
		values[i] = float32(v)
	}

	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{
			// pgvector cosine distance assumes unit vectors
			Values: NormalizeVector(values),
		},
	}, nil
}

// NormalizeVector scales vec to unit length. Zero vectors are returned unchanged.
func NormalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
