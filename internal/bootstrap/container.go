package bootstrap

import (
	"context"
	"log"

	"insightflow-be/internal/config"
	"insightflow-be/internal/controller"
	"insightflow-be/internal/handler"
	"insightflow-be/internal/pkg/logger"
	"insightflow-be/internal/service"
	"insightflow-be/internal/websocket"
	"insightflow-be/pkg/assembler"
	"insightflow-be/pkg/embedding"
	"insightflow-be/pkg/events"
	"insightflow-be/pkg/llm/factory"
	"insightflow-be/pkg/memory"
	"insightflow-be/pkg/pipeline"
	"insightflow-be/pkg/tenantindex"
	"insightflow-be/pkg/tools"

	pktNats "insightflow-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	QueryController    controller.IQueryController
	SessionController  controller.ISessionController
	DocumentController controller.IDocumentController
	AdminController    controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	Sessions *memory.Manager
}

// NewContainer wires the whole dependency graph explicitly. db may be
// nil; the container then falls back to the in-memory tenant index,
// which keeps development environments free of a Postgres requirement.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbedModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbedModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Tenant Index
	var index tenantindex.Index
	if db != nil {
		index = tenantindex.NewPgvectorIndex(db)
	} else {
		log.Printf("[WARN] No database configured, using in-memory tenant index")
		index = tenantindex.NewMemoryIndex()
	}

	// 5. Session Memory
	sessions := memory.NewManager(cfg.Ai.MaxSessionTurns, cfg.Ai.SessionTTL)

	// 6. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
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

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 7. Pipeline
	toolRegistry := tools.NewDefaultRegistry(cfg.Keys.GoogleCse, cfg.Keys.GoogleCseId)
	asm := assembler.New(assembler.Budget{
		TotalChars:         cfg.Ai.ContextBudgetChars,
		SnippetChars:       cfg.Ai.SnippetChars,
		HistoryAnswerChars: cfg.Ai.HistoryAnswerChars,
	})
	pool := pipeline.NewWorkerPool(cfg.Ai.WorkerPoolSize)

	pl := pipeline.New(
		index,
		sessions,
		llmProvider,
		embeddingProvider,
		toolRegistry,
		asm,
		pool,
		pipeline.Options{
			TopK:              cfg.Ai.RetrievalTopK,
			RetrievalTimeout:  cfg.Ai.RetrievalTimeout,
			GenerationTimeout: cfg.Ai.GenerationTimeout,
			AnswerStoreChars:  cfg.Ai.AnswerStoreChars,
			ToolsEnabled:      cfg.Ai.ToolsEnabled,
		},
		sysLogger,
	)
	if natsPub != nil {
		pl.OnPersist(func(orgID, conversationID string, turn memory.Turn) {
			evt := events.NewTurnCompleted(orgID, conversationID, turn.Route)
			if err := natsPub.Publish(context.Background(), evt); err != nil {
				sysLogger.Warn("Bootstrap", "Failed to publish turn.completed", map[string]interface{}{
					"org_id": orgID,
					"error":  err.Error(),
				})
			}
		})
	}

	// 8. Services
	publisherService := service.NewPublisherService(cfg.App.IngestTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.IngestTopic,
		index,
		embeddingProvider,
		natsPub,
		wsHub,
	)

	chatService := service.NewChatService(pl, sessions, sysLogger)
	documentService := service.NewDocumentService(index, publisherService, natsPub, sessions.ActiveSessions, sysLogger)
	adminService := service.NewAdminService(sysLogger)

	// 9. Notification System
	if natsSub != nil {
		notifService := service.NewNotificationService(natsSub, wsHub, wsLogger)
		go notifService.Start()
	}
	notifHandler := handler.NewNotificationHandler(wsHub, wsLogger)

	return &Container{
		QueryController:    controller.NewQueryController(chatService),
		SessionController:  controller.NewSessionController(chatService),
		DocumentController: controller.NewDocumentController(documentService),
		AdminController:    controller.NewAdminController(adminService),

		ConsumerService: consumerService,

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,

		Sessions: sessions,
	}
}
