package bootstrap

import (
	"context"
	"log"
	"time"

	"commerce-assistant/internal/config"
	"commerce-assistant/internal/controller"
	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/internal/repository/implementation"
	"commerce-assistant/internal/repository/memory"
	redisrepo "commerce-assistant/internal/repository/redis"
	"commerce-assistant/internal/repository/unitofwork"
	"commerce-assistant/internal/service"
	"commerce-assistant/internal/websocket"
	"commerce-assistant/pkg/admin/analytics"
	"commerce-assistant/pkg/embedding"
	"commerce-assistant/pkg/llm/factory"
	pktNats "commerce-assistant/pkg/nats"
	"commerce-assistant/pkg/outbox"
	"commerce-assistant/pkg/rag/color"
	"commerce-assistant/pkg/rag/dispatcher"
	"commerce-assistant/pkg/rag/handler"
	"commerce-assistant/pkg/rag/intent"
	"commerce-assistant/pkg/rag/knowledge"
	"commerce-assistant/pkg/rag/prompt"
	"commerce-assistant/pkg/rag/response"
	"commerce-assistant/pkg/rag/search"
	"commerce-assistant/pkg/rag/session"
	"commerce-assistant/pkg/rerank"
	"commerce-assistant/pkg/resilience"
	"commerce-assistant/pkg/search/elastic"
	"commerce-assistant/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// relayMaxAttempts bounds redeliveries of one side effect.
const relayMaxAttempts = 3

type Container struct {
	ChatController    controller.IChatController
	ChatSocketHandler *websocket.ChatSocketHandler
	WebSocketHub      *websocket.Hub

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

// Close releases connections opened by NewContainer.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}
	tuning := cfg.Assistant

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c.Logger = sysLogger

	productRepo := implementation.NewProductRepository(db)
	userRepo := implementation.NewUserRepository(db)
	orderRepo := implementation.NewOrderRepository(db)

	// 2. Call policies
	llmPolicy := resilience.Policy{Name: "llm", Timeout: tuning.LLMTimeout, Retries: tuning.ExternalRetries, Backoff: 500 * time.Millisecond}
	vectorPolicy := resilience.Policy{Name: "vector", Timeout: tuning.VectorTimeout, Retries: tuning.ExternalRetries, Backoff: 200 * time.Millisecond}
	rerankPolicy := resilience.Policy{Name: "rerank", Timeout: tuning.RerankTimeout, Retries: tuning.ExternalRetries, Backoff: 200 * time.Millisecond}
	handlerPolicy := resilience.Policy{Name: "handler", Timeout: tuning.HandlerTimeout, Retries: tuning.ExternalRetries, Backoff: time.Second}

	// 3. AI providers
	embeddingProvider := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	sysLogger.Info("Bootstrap", "Using embedding provider", map[string]interface{}{"provider": cfg.Ai.EmbeddingProvider, "model": cfg.Ai.EmbeddingModel})

	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider:      cfg.Ai.LLMProvider,
		Model:         cfg.Ai.LLMModel,
		BaseURL:       cfg.Ai.LLMBaseURL,
		APIKey:        cfg.Ai.LLMApiKey,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	sysLogger.Info("Bootstrap", "Using LLM provider", map[string]interface{}{"provider": cfg.Ai.LLMProvider, "model": cfg.Ai.LLMModel})

	// 4. Entity resolution
	var textIndex search.TextIndex = search.NewRepositoryTextIndex(productRepo)
	if len(cfg.Elasticsearch.Addresses) > 0 {
		es, err := elastic.NewClient(elastic.Config{
			Addresses: cfg.Elasticsearch.Addresses,
			Username:  cfg.Elasticsearch.Username,
			Password:  cfg.Elasticsearch.Password,
		})
		if err != nil {
			sysLogger.Warn("Bootstrap", "Elasticsearch unavailable, using database name search", map[string]interface{}{"error": err.Error()})
		} else {
			idx := elastic.NewIndex(es, cfg.Elasticsearch.Index)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := idx.EnsureIndex(ctx); err != nil {
				sysLogger.Warn("Bootstrap", "Failed to ensure product index", map[string]interface{}{"error": err.Error()})
			}
			cancel()
			textIndex = idx
		}
	}
	vectorIndex := search.NewEmbeddingVectorIndex(embeddingProvider, productRepo, vectorPolicy)

	resolver := search.NewResolver(productRepo, userRepo, textIndex, vectorIndex, search.Config{
		ExactThreshold:  tuning.ExactThreshold,
		VectorThreshold: tuning.VectorThreshold,
		VectorTopK:      tuning.VectorTopK,
	}, sysLogger)

	colorMatcher := color.NewMatcher(color.NewCache(productRepo, tuning.ColorCacheTTL, nil, sysLogger))
	knowledgeService := knowledge.NewService(tuning.KnowledgeTTL)
	generator := response.NewGenerator(llmProvider, llmPolicy, sysLogger)
	reranker := rerank.NewClient(cfg.Rerank.ApiKey, cfg.Rerank.BaseURL, cfg.Rerank.Model, rerankPolicy, sysLogger)
	classifier := intent.NewClassifier(llmProvider, llmPolicy, sysLogger)

	// 5. Admin analytics
	exporter := analytics.NewExporter(cfg.Export.Dir, cfg.Export.PublicURL)
	analyticsService := analytics.NewService(
		uowFactory,
		analytics.NewClassifier(llmProvider, llmPolicy, sysLogger),
		analytics.NewAggregator(resolver, exporter, sysLogger),
		sysLogger,
	)

	// 6. Handlers
	advisor := handler.NewAdvisor(resolver, productRepo, colorMatcher, reranker, generator, handler.AdvisorConfig{
		VectorTopK: tuning.VectorTopK,
		RerankTopN: tuning.RerankTopN,
	}, sysLogger)

	dispatch := dispatcher.New(handlerPolicy, sysLogger)
	handlers := map[intent.Type]handler.Handler{
		intent.SizeRecommendation: handler.NewSizeAdvisor(productRepo, knowledgeService, generator, sysLogger),
		intent.ProductAdvice:      advisor,
		intent.StyleMatching:      handler.NewStylist(advisor),
		intent.OrderLookup:        handler.NewOrderLookup(orderRepo, generator, sysLogger),
		intent.AddToCart:          handler.NewCart(resolver, productRepo, colorMatcher, sysLogger),
		intent.PolicyFAQ:          handler.NewPolicy(handler.PolicyConfig{Hotline: tuning.Hotline}),
		intent.AdminAnalytics:     handler.NewAdmin(analyticsService),
		intent.General:            handler.NewGeneral(),
	}
	for t, h := range handlers {
		if err := dispatch.Register(t, h); err != nil {
			log.Fatalf("[FATAL] Failed to register handler %s: %v", t, err)
		}
	}
	if err := dispatch.Validate(); err != nil {
		log.Fatalf("[FATAL] Dispatcher is incomplete: %v", err)
	}

	// 7. Infrastructure
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		}
		cancel()
		c.closers = append(c.closers, func() { rdb.Close() })
	}

	var contexts store.ContextStore = memory.NewContextRepository(tuning.ContextTTL)
	if cfg.App.ContextBackend == "redis" {
		if rdb == nil {
			sysLogger.Warn("Bootstrap", "CONTEXT_BACKEND=redis without REDIS_URL, keeping contexts in memory", nil)
		} else {
			contexts = redisrepo.NewContextRepository(rdb, tuning.ContextTTL)
		}
	}
	sessions := session.NewManager(contexts, resolver, tuning.HistoryLimit, sysLogger)

	// 8. Side effects
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, watermillLogger)
	c.closers = append(c.closers, func() { pubSub.Close() })

	box := outbox.New(pubSub, outbox.DefaultTopic, sysLogger)
	relay := outbox.NewRelay(pubSub, outbox.DefaultTopic, relayMaxAttempts, sysLogger)

	var forwarder service.EventForwarder
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		} else {
			forwarder = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}
	c.ConsumerService = service.NewConsumerService(relay, uowFactory, contexts, forwarder, sysLogger)

	// 9. Chat
	chatService := service.NewChatService(
		uowFactory,
		sessions,
		classifier,
		prompt.NewCustomerContextBuilder(userRepo, orderRepo),
		dispatch,
		box,
		service.ChatServiceConfig{MaxMessageLength: tuning.MaxMessageLength},
		sysLogger,
	)

	// WebSocket Hub
	c.WebSocketHub = websocket.NewHub(rdb, sysLogger)
	c.ChatSocketHandler = websocket.NewChatSocketHandler(c.WebSocketHub, chatService, sysLogger)

	// 10. Controllers
	c.ChatController = controller.NewChatController(chatService, exporter)

	return c
}
