package bootstrap

import (
	"context"
	"fmt"
	"log"

	"voice-faq-be/internal/config"
	"voice-faq-be/internal/controller"
	"voice-faq-be/internal/handler"
	"voice-faq-be/internal/pkg/logger"
	"voice-faq-be/internal/repository/implementation"
	"voice-faq-be/internal/repository/memory"
	"voice-faq-be/internal/repository/redisstore"
	"voice-faq-be/internal/service"
	"voice-faq-be/internal/websocket"
	"voice-faq-be/pkg/database"
	"voice-faq-be/pkg/embedding"
	"voice-faq-be/pkg/embedding/jina"
	"voice-faq-be/pkg/events"
	"voice-faq-be/pkg/knowledge"
	pktNats "voice-faq-be/pkg/nats"

	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	SessionController      controller.ISessionController
	FunctionCallController controller.IFunctionCallController
	KPIController          controller.IKPIController

	// Background Services (Exposed for main.go to run)
	KPIService   service.IKPIService
	WebSocketHub *websocket.Hub

	MonitorHandler *handler.MonitorHandler

	Logger logger.ILogger

	closers []func()
}

func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c := &Container{Logger: sysLogger}

	// 2. Infrastructure
	rdb := newRedisClient(cfg.App.RedisURL)
	if rdb != nil {
		c.closers = append(c.closers, func() { rdb.Close() })
	}

	lookup, err := NewLookup(cfg, sysLogger, rdb)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Knowledge strategy: %s", lookup.Strategy())

	// 3. Event Bus
	bus := events.NewBus()
	c.closers = append(c.closers, func() { bus.Close() })
	publishers := events.MultiPublisher{bus}

	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			publishers = append(publishers, natsPub)
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// WebSocket Hub for live monitors
	wsLogger := logger.NewIsolatedLogger(cfg.App.MonitorLogFilePath)
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)
	c.MonitorHandler = handler.NewMonitorHandler(c.WebSocketHub, wsLogger)

	// 4. Services
	c.KPIService = service.NewKPIService(bus, sysLogger, c.WebSocketHub.Broadcast)
	functionCallService := service.NewFunctionCallService(service.FunctionCallConfig{
		Name:           cfg.Function.Name,
		Argument:       cfg.Function.Argument,
		FallbackAnswer: cfg.Function.FallbackAnswer,
	}, lookup, publishers, sysLogger)
	sessionService := service.NewSessionService(cfg.Provider, cfg.Function, sysLogger)

	// 5. Controllers
	c.SessionController = controller.NewSessionController(sessionService)
	c.FunctionCallController = controller.NewFunctionCallController(functionCallService)
	c.KPIController = controller.NewKPIController(c.KPIService)

	return c, nil
}

// Close releases infrastructure connections in reverse order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

// NewLookup builds the single knowledge lookup selected by KNOWLEDGE_STRATEGY,
// wrapped in an answer cache when ANSWER_CACHE_TTL is positive.
func NewLookup(cfg *config.Config, log logger.ILogger, rdb *redis.Client) (knowledge.Lookup, error) {
	var lookup knowledge.Lookup

	switch cfg.Knowledge.Strategy {
	case config.StrategyExact:
		table, err := knowledge.LoadTable(cfg.Knowledge.File)
		if err != nil {
			return nil, err
		}
		log.Info("Bootstrap", "Knowledge table loaded", map[string]interface{}{"file": cfg.Knowledge.File, "entries": table.Len()})
		lookup = knowledge.NewExactLookup(table)

	case config.StrategyProcess:
		lookup = knowledge.NewProcessLookup(
			cfg.Knowledge.SearchCommand,
			cfg.Knowledge.SearchArgs,
			cfg.Knowledge.SearchTimeout,
			cfg.Knowledge.SearchWorkers,
			log,
		)

	case config.StrategyVector:
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.App.Environment != "production")
		if err != nil {
			return nil, fmt.Errorf("unable to connect to GORM DB: %w", err)
		}
		embedder, err := NewEmbeddingProvider(cfg.Ai)
		if err != nil {
			return nil, err
		}
		lookup = knowledge.NewVectorLookup(
			embedder,
			implementation.NewFAQRepository(db),
			cfg.Knowledge.VectorThreshold,
			cfg.Knowledge.VectorTopK,
		)

	default:
		return nil, fmt.Errorf("unknown knowledge strategy %q", cfg.Knowledge.Strategy)
	}

	if cfg.Knowledge.AnswerCacheTTL <= 0 {
		return lookup, nil
	}
	if rdb != nil {
		return knowledge.NewCachedLookup(lookup, redisstore.NewAnswerCache(rdb, cfg.Knowledge.AnswerCacheTTL, log)), nil
	}
	return knowledge.NewCachedLookup(lookup, memory.NewAnswerCache(cfg.Knowledge.AnswerCacheTTL)), nil
}

// NewEmbeddingProvider selects the embedding backend named by EMBEDDING_PROVIDER.
func NewEmbeddingProvider(cfg config.AIConfig) (embedding.EmbeddingProvider, error) {
	switch cfg.EmbeddingProvider {
	case "ollama", "":
		return embedding.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel), nil
	case "gemini":
		if cfg.GoogleGemini == "" {
			return nil, fmt.Errorf("GOOGLE_GEMINI_API_KEY is required for the gemini embedding provider")
		}
		return embedding.NewGeminiProvider(cfg.GoogleGemini), nil
	case "jina":
		if cfg.Jina == "" {
			return nil, fmt.Errorf("JINA_API_KEY is required for the jina embedding provider")
		}
		return jina.NewJinaProvider(cfg.Jina), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

// newRedisClient returns nil when redis is not configured or unreachable.
func newRedisClient(url string) *redis.Client {
	if url == "" {
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v (running without shared cache)", err)
		rdb.Close()
		return nil
	}
	return rdb
}
