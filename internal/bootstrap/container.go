package bootstrap

import (
	"log"
	"time"

	"ai-datachat-be/internal/config"
	"ai-datachat-be/internal/controller"
	"ai-datachat-be/internal/pkg/logger"
	"ai-datachat-be/internal/repository/memory"
	"ai-datachat-be/internal/service"
	"ai-datachat-be/pkg/ai/router"
	"ai-datachat-be/pkg/dataset"
	"ai-datachat-be/pkg/llm/factory"

	pktNats "ai-datachat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI and Data Plumbing
	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OpenAIBaseURL,
		cfg.Ai.OpenAIAPIKey,
		cfg.Ai.HuggingFaceAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// The dataset backs every data question. Boot must fail without it.
	ds, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		log.Fatalf("[FATAL] Failed to load dataset %s: %v", cfg.Dataset.Path, err)
	}
	log.Printf("[INFO] Dataset loaded: %s (%d rows, %d columns)", cfg.Dataset.Path, ds.RowCount(), len(ds.Columns()))

	// The routing policy is picked once at boot, never per request
	policy, err := router.NewPolicy(cfg.Chat.RoutingPolicy)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize routing policy: %v", err)
	}
	log.Printf("[INFO] Using Routing Policy: %s", policy.Name())

	// Initialize In-Memory Session Storage
	sessionRepo := memory.NewSessionRepository(cfg.Chat.HistoryWindow)

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Isolated logger for the QA audit trail (file only, keeps main logs clean)
	auditLogger := logger.NewIsolatedLogger("logs/qa_audit.log")

	publisherService := service.NewPublisherService(cfg.Chat.AuditTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Chat.AuditTopic,
		cfg.Chat.AuditPath,
		auditLogger,
	)

	chatService := service.NewChatService(
		sessionRepo,
		llmProvider, // Injected
		ds,          // Injected
		policy,      // Injected
		publisherService,
		natsPub,
		sysLogger,
		time.Duration(cfg.Ai.LLMTimeoutSeconds)*time.Second,
		time.Duration(cfg.Dataset.QueryTimeoutSeconds)*time.Second,
		cfg.Chat.HistoryWindow,
		cfg.Chat.ReformulationWindow,
	)

	// 4. Controllers
	// Note: We return the container with public fields for the server to register
	return &Container{
		ChatController: controller.NewChatController(chatService),

		ConsumerService: consumerService,
	}
}
