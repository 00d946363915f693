package bootstrap

import (
	"context"
	"log"

	"ai-ghostwriter-be/internal/config"
	"ai-ghostwriter-be/internal/controller"
	"ai-ghostwriter-be/internal/editor"
	"ai-ghostwriter-be/internal/pkg/logger"
	"ai-ghostwriter-be/internal/pkg/serverutils"
	"ai-ghostwriter-be/internal/repository/implementation"
	"ai-ghostwriter-be/internal/repository/memory"
	"ai-ghostwriter-be/internal/repository/unitofwork"
	"ai-ghostwriter-be/internal/service"
	"ai-ghostwriter-be/internal/websocket"
	"ai-ghostwriter-be/pkg/embedding"
	"ai-ghostwriter-be/pkg/embedding/jina"
	embeddingOpenAI "ai-ghostwriter-be/pkg/embedding/openai"
	"ai-ghostwriter-be/pkg/events"
	"ai-ghostwriter-be/pkg/llm/factory"
	"ai-ghostwriter-be/pkg/rag/retriever"
	"ai-ghostwriter-be/pkg/utils"

	pktNats "ai-ghostwriter-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SourceController controller.ISourceController
	EditorController controller.IEditorController

	// Background Services (Exposed for main.go to run)
	ConsumerService      service.IConsumerService
	SourceStatusNotifier *service.SourceStatusNotifier
	WebSocketHub         *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}
	c.closers = append(c.closers, func() { _ = sysLogger.Sync() })

	// 2. Job Queue
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermillLogger,
	)

	// 3. AI Providers
	embeddingProvider := NewEmbeddingProvider(cfg)
	llmRegistry := factory.NewLLMRegistry(factory.Config{
		DefaultModel:  cfg.Ai.LLMModel,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		OpenAIKey:     cfg.Keys.OpenAI,
		OpenAIBaseURL: cfg.Keys.OpenAIBase,
		AnthropicKey:  cfg.Keys.Anthropic,
		GeminiKey:     cfg.Keys.GoogleGemini,
	})
	log.Printf("[INFO] Default LLM model: %s", llmRegistry.DefaultModel())

	// 4. Retrieval
	vectorIndex := implementation.NewPgVectorIndex(db, embeddingProvider)
	ragRetriever := retriever.New(vectorIndex, retriever.Config{
		TopK:              cfg.Retrieval.TopK,
		FallbackThreshold: cfg.Retrieval.FallbackThreshold,
		MinScore:          cfg.Retrieval.MinScore,
	}, sysLogger)
	splitter := utils.NewRecursiveSplitter(
		utils.WithChunkSize(cfg.Chunking.Size),
		utils.WithOverlap(cfg.Chunking.Overlap),
	)

	// 5. Event Bus
	var eventPublisher events.Publisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		c.closers = append(c.closers, natsSub.Close)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	c.closers = append(c.closers, func() { _ = rdb.Close() })

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.WebsocketLogPath)
	wsHub := websocket.NewHub(rdb, wsLogger)
	c.WebSocketHub = wsHub

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Ingestion.Topic, pubSub)
	ingestionService := service.NewIngestionService(
		uowFactory,
		vectorIndex,
		splitter,
		publisherService,
		eventPublisher,
		sysLogger,
	)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Ingestion.Topic, ingestionService, sysLogger)
	sourceService := service.NewSourceService(uowFactory, ingestionService, vectorIndex, sysLogger)

	if natsSub != nil {
		c.SourceStatusNotifier = service.NewSourceStatusNotifier(natsSub, wsHub, wsLogger)
	}

	editorService := service.NewEditorService(
		memory.NewEditorSessionRepository(cfg.Completion.SessionIdle),
		editor.Config{
			Debounce:              cfg.Completion.Debounce,
			TopK:                  cfg.Retrieval.TopK,
			Temperature:           cfg.Ai.Temperature,
			CompletionMaxTokens:   cfg.Ai.CompletionTokens,
			ModificationMaxTokens: cfg.Ai.ModifyTokens,
		},
		ragRetriever,
		llmRegistry,
		func(sessionID string) editor.Sink { return websocket.NewSessionSink(wsHub, sessionID, wsLogger) },
		sysLogger,
	)

	// 7. Controllers
	auth := serverutils.NewJwtMiddleware(cfg.Keys.JwtSecret)
	c.SourceController = controller.NewSourceController(sourceService, auth)
	c.EditorController = controller.NewEditorController(
		editorService,
		wsHub,
		websocket.NewDispatcher(sourceService, wsLogger),
		auth,
		wsLogger,
	)

	return c
}

// Start runs the background workers until ctx is cancelled.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)

	if err := c.ConsumerService.Consume(ctx); err != nil {
		return err
	}

	if c.SourceStatusNotifier != nil {
		if err := c.SourceStatusNotifier.Start(ctx); err != nil {
			c.Logger.Warn("Container", "Source status updates disabled", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// NewEmbeddingProvider selects the provider named by EMBEDDING_PROVIDER.
func NewEmbeddingProvider(cfg *config.Config) embedding.EmbeddingProvider {
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
		return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	case "jina":
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
		return jina.NewJinaProvider(cfg.Keys.Jina)
	case "openai":
		log.Printf("[INFO] Using Embedding Provider: OPENAI")
		return embeddingOpenAI.NewOpenAIProvider(cfg.Keys.OpenAI, "")
	default:
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
		return embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}
}
