// @title           JurisAI API
// @version         1.0
// @description     Legal document management, search, summarization and agent task API for Nigerian legal professionals.

// @contact.name    JurisAI

// @host      localhost:8000
// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jurisai/jurisai/internal/agents"
	"github.com/jurisai/jurisai/internal/auth"
	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/data/postgres"
	"github.com/jurisai/jurisai/internal/data/redisStore"
	"github.com/jurisai/jurisai/internal/data/store"
	"github.com/jurisai/jurisai/internal/documents"
	"github.com/jurisai/jurisai/internal/domain/taskmodel"
	"github.com/jurisai/jurisai/internal/featureflags"
	"github.com/jurisai/jurisai/internal/handlers"
	"github.com/jurisai/jurisai/internal/middleware"
	"github.com/jurisai/jurisai/internal/rag"
	"github.com/jurisai/jurisai/internal/rag/embedding"
	"github.com/jurisai/jurisai/internal/rag/embedding/googleEmbedding"
	"github.com/jurisai/jurisai/internal/rag/llm"
	"github.com/jurisai/jurisai/internal/rag/llm/gemini"
	"github.com/jurisai/jurisai/internal/rag/llm/openaillm"
	"github.com/jurisai/jurisai/internal/rag/vectorDB"
	"github.com/jurisai/jurisai/internal/rag/vectorDB/qdrantDB"
	"github.com/jurisai/jurisai/internal/search"
	"github.com/jurisai/jurisai/internal/server"
	"github.com/jurisai/jurisai/internal/summarize"
	"github.com/jurisai/jurisai/internal/tasks"
	"github.com/jurisai/jurisai/internal/worker"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

var (
	listenAddr        string
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	flag.StringVar(&listenAddr, "listen-addr", cfg.ListenAddr, "server listen address")
	flag.Parse()

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//postgres is the system of record; no fallback
	migrateURL, err := cfg.MigrateURL()
	if err != nil {
		logger.Error("Invalid database URL", "error", err)
		os.Exit(1)
	}
	if err := postgres.Migrate(migrateURL); err != nil {
		logger.Error("Database migration failed", "error", err)
		os.Exit(1)
	}
	pool, err := postgres.Open(serviceContext, cfg.PostgresURL)
	if err != nil {
		logger.Error("Could not connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	userStore := postgres.NewUserStore(pool)
	rbacStore := postgres.NewRBACStore(pool)
	documentStore := postgres.NewDocumentStore(pool)
	taskArchive := postgres.NewTaskArchive(pool)
	flagStore := postgres.NewFeatureFlagStore(pool)

	//redis-backed stores degrade to in-memory / pass-through when offline
	redisStore.Configure(cfg.RedisAddr, cfg.RedisPassword)

	var statusStore taskmodel.StatusStore
	if redisTasks := store.GetRedisTaskStore(serviceContext); redisTasks != nil {
		statusStore = redisTasks
	} else {
		logger.Error("Redis task store is offline, using in-memory mirror")
		statusStore = store.InitInMemoryTaskStore()
	}
	responseCache := store.GetResponseCache(serviceContext)
	if responseCache == nil {
		logger.Error("Redis response cache is offline, caching disabled")
	}

	//the RAG stack; any nil disables semantic features, not the server
	qdrantDB.Configure(cfg.QdrantHost, cfg.QdrantPort)
	var vector vectorDB.DataProcessor
	if holder := qdrantDB.GetQdrantClient(serviceContext); holder != nil {
		vector = holder
	}
	var embedder embedding.Embedder = googleEmbedding.GetGoogleEmbeddingClient(serviceContext, cfg.EmbeddingModel, cfg.GeminiAPIKey)

	var provider llm.Provider
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		provider = openaillm.GetOpenAIClient(cfg.OpenAIModel, cfg.OpenAIAPIKey)
	default:
		provider = gemini.GetGeminiClient(serviceContext, cfg.GeminiModel, cfg.GeminiAPIKey)
	}
	if vector == nil || embedder == nil || provider == nil {
		logger.Warn("Degraded mode: semantic features disabled",
			"vectorDB", vector != nil, "embedder", embedder != nil, "llm", provider != nil)
	}
	ragService := rag.NewService(vector, provider, embedder, cfg.EmbeddingModel)

	//task queue
	taskChannel := make(chan taskmodel.Task, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	taskService := tasks.InitTaskService(tasks.ServiceConfig{
		TaskChannel:       taskChannel,
		DispatcherChannel: dispatcherChannel,
		StatusStore:       statusStore,
		Archive:           taskArchive,
	})

	//domain services
	flagService := featureflags.NewService(flagStore, responseCache)
	summarizer := summarize.NewSummarizer(ragService.Provider())
	documentService := documents.NewService(documentStore, taskService, ragService, responseCache, cfg.UploadDir)
	searchService := search.NewService(documentStore, ragService, responseCache)

	registry := agents.NewRegistry(
		agents.NewDocumentAnalyzer(documentStore, summarizer, flagService),
		agents.NewRAGIngest(ragService),
	)

	worker.InitServices(taskService, registry)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//http layer
	tokenIssuer := auth.NewTokenIssuer(cfg.JWTSecret)
	middleware.Init(tokenIssuer, userStore)

	probes := map[string]handlers.Probe{
		"postgres": pool.Ping,
		"redis": func(ctx context.Context) error {
			s := redisStore.GetRedisStore(ctx, config.RedisCache)
			if s == nil {
				return context.DeadlineExceeded
			}
			return s.Ping(ctx)
		},
		"qdrant": func(ctx context.Context) error {
			holder := qdrantDB.GetQdrantClient(ctx)
			if holder == nil {
				return context.DeadlineExceeded
			}
			_, err := holder.QObj.HealthCheck(ctx)
			return err
		},
	}

	allHandlers := server.Handlers{
		Auth:      handlers.NewAuthHandler(userStore, rbacStore, tokenIssuer, cfg.AdminSetupToken),
		RBAC:      handlers.NewRBACHandler(rbacStore),
		Documents: handlers.NewDocumentHandler(documentService, flagService),
		Search:    handlers.NewSearchHandler(searchService),
		Summarize: handlers.NewSummarizeHandler(summarizer, documentService),
		Agents:    handlers.NewAgentHandler(taskService, registry),
		Flags:     handlers.NewFlagHandler(flagService),
		System:    handlers.NewSystemHandler(probes, flagService),
	}

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr, allHandlers)

	<-stopExecution
	logger.Info("Server stopped")
}
