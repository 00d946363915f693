package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"ai-ghostwriter-be/pkg/llm"
)

type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

// Ensure OllamaProvider implements LLMProvider
var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaProvider{
		BaseURL:   baseURL,
		ModelName: modelName,
		// No client timeout: streams last as long as the model keeps producing.
		Client: &http.Client{},
	}
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return llm.Collect(ctx, o, history, opts...)
}

func (o *OllamaProvider) Stream(ctx context.Context, history []llm.Message, onToken llm.TokenHandler, opts ...llm.Option) error {
	options := llm.NewOptions(llm.Options{Temperature: 0.7}, opts...)

	ollamaMessages := make([]ollamaMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = llm.RoleAssistant
		}
		ollamaMessages[i] = ollamaMessage{Role: role, Content: msg.Content}
	}

	model := o.ModelName
	if options.Model != "" {
		model = options.Model
	}

	reqPayload := ollamaChatRequest{
		Model:    model,
		Messages: ollamaMessages,
		Stream:   true,
		Options: &ollamaOptions{
			Temperature: options.Temperature,
			NumPredict:  options.MaxTokens,
		},
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/api/chat", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	// One JSON object per line until done=true.
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var chunk ollamaChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return fmt.Errorf("unmarshal stream chunk: %w", err)
		}
		if chunk.Error != "" {
			return fmt.Errorf("ollama stream error: %s", chunk.Error)
		}
		if chunk.Message.Content != "" {
			if err := onToken(chunk.Message.Content); err != nil {
				return err
			}
		}
		if chunk.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return ctx.Err()
}
