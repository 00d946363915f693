package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Keys       APIKeys
	Ai         AIConfig
	Retrieval  RetrievalConfig
	Chunking   ChunkingConfig
	Completion CompletionConfig
	Ingestion  IngestionConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	WebsocketLogPath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
	OtelEndpoint       string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	OpenAI       string
	OpenAIBase   string
	Anthropic    string
	Jina         string
	JwtSecret    string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini", "ollama", "jina" or "openai"
	OllamaBaseURL     string
	OllamaModel       string // embedding model served by ollama
	LLMModel          string // default generation model, e.g. "llama3", "gpt-4o-mini"
	Temperature       float64
	CompletionTokens  int
	ModifyTokens      int
}

type RetrievalConfig struct {
	TopK              int
	FallbackThreshold float64
	MinScore          float64
}

type ChunkingConfig struct {
	Size    int
	Overlap int
}

type CompletionConfig struct {
	Debounce    time.Duration
	SessionIdle time.Duration
}

type IngestionConfig struct {
	Topic string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			WebsocketLogPath:   getEnv("WEBSOCKET_LOG_FILE_PATH", "logs/websocket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			OpenAIBase:   getEnv("OPENAI_BASE_URL", ""),
			Anthropic:    getEnv("ANTHROPIC_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			JwtSecret:    getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			Temperature:       getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			CompletionTokens:  getEnvAsInt("LLM_COMPLETION_MAX_TOKENS", 100),
			ModifyTokens:      getEnvAsInt("LLM_MODIFY_MAX_TOKENS", 1024),
		},
		Retrieval: RetrievalConfig{
			TopK:              getEnvAsInt("RETRIEVAL_TOP_K", 5),
			FallbackThreshold: getEnvAsFloat("RETRIEVAL_FALLBACK_THRESHOLD", 0.875),
			MinScore:          getEnvAsFloat("RETRIEVAL_MIN_SCORE", 0.8),
		},
		Chunking: ChunkingConfig{
			Size:    getEnvAsInt("CHUNK_SIZE", 1000),
			Overlap: getEnvAsInt("CHUNK_OVERLAP", 200),
		},
		Completion: CompletionConfig{
			Debounce:    getEnvAsDuration("COMPLETION_DEBOUNCE", 300*time.Millisecond),
			SessionIdle: getEnvAsDuration("EDITOR_SESSION_IDLE", 30*time.Minute),
		},
		Ingestion: IngestionConfig{
			Topic: getEnv("INGEST_SOURCE_TOPIC_NAME", "INGEST_SOURCE"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts "300ms"-style durations or a bare number of milliseconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if ms, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
