package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"dataexplorer/internal/agent/pipeline"
	"dataexplorer/internal/agent/react"
	"dataexplorer/internal/agent/summary"
	"dataexplorer/internal/config"
	"dataexplorer/internal/datasource"
	"dataexplorer/internal/handler"
	llmanthropic "dataexplorer/internal/llm/anthropic"
	"dataexplorer/internal/metadata"
	"dataexplorer/internal/middleware"
	"dataexplorer/internal/repository/postgres"
	"dataexplorer/internal/search"
	"dataexplorer/internal/warehouse"
)

const maxLogFiles = 10

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, maxLogFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	sessionRepo := postgres.NewSessionRepository(repoConfig)
	turnRepo := postgres.NewTurnRepository(repoConfig)

	// Data source descriptors and hierarchy mapping files
	registry, err := datasource.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load data source registry: %v", err)
	}
	mappings, err := datasource.MappingFiles()
	if err != nil {
		log.Fatalf("Failed to load mapping files: %v", err)
	}
	logger.Info("data source registry initialized", "sources", registry.Names())

	// Model client
	client, err := llmanthropic.NewClient(cfg.AnthropicAPIKey, cfg.DefaultModel)
	if err != nil {
		log.Fatalf("Failed to create model client: %v", err)
	}

	// Warehouse executor
	executor, err := warehouse.NewDatabricks(cfg.WarehouseHost, cfg.WarehouseHTTPPath, cfg.WarehouseToken, cfg.WarehouseCatalog)
	if err != nil {
		log.Fatalf("Failed to open warehouse connection: %v", err)
	}
	defer executor.Close()

	// Vector search
	qdrantPort, err := strconv.Atoi(cfg.QdrantPort)
	if err != nil {
		log.Fatalf("Invalid QDRANT_PORT %q: %v", cfg.QdrantPort, err)
	}
	qdrantClient, err := search.NewQdrantClient(cfg.QdrantHost, qdrantPort, cfg.QdrantAPIKey, cfg.QdrantUseTLS)
	if err != nil {
		log.Fatalf("Failed to create qdrant client: %v", err)
	}
	defer qdrantClient.Close()

	embedder := search.NewHTTPEmbedder(cfg.EmbeddingsURL, cfg.EmbeddingsAPIKey, cfg.EmbeddingsModel)
	index := search.NewQdrantIndex(qdrantClient, embedder)

	// Services
	metadataService := metadata.NewService(executor, registry, logger)
	pipelineService := pipeline.NewService(pipeline.Deps{
		Registry:  registry,
		Sessions:  sessionRepo,
		Turns:     turnRepo,
		Client:    client,
		Executor:  react.NewExecutor(client, logger),
		Validator: summary.NewValidator(client, logger),
		Index:     index,
		Warehouse: executor,
		Metadata:  metadataService,
		Mappings:  mappings,
		Logger:    logger,
	})

	// Handlers
	chatHandler := handler.NewChatHandler(pipelineService, logger)
	sessionHandler := handler.NewSessionHandler(sessionRepo, turnRepo, logger)
	metadataHandler := handler.NewMetadataHandler(metadataService, logger)
	flagsHandler := handler.NewFlagsHandler(turnRepo, sessionRepo, logger)

	logger.Info("services initialized")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.HandleHealth)
	mux.HandleFunc("POST /api/agent/v1", chatHandler.HandleAgent)
	mux.HandleFunc("GET /api/sessions/v1", sessionHandler.HandleList)
	mux.HandleFunc("GET /api/chathistory/v1", sessionHandler.HandleHistory)
	mux.HandleFunc("GET /api/metadata/v1", metadataHandler.HandleMetadata)
	mux.HandleFunc("POST /api/updateflags/v1", flagsHandler.HandleUpdateFlags)
	mux.HandleFunc("POST /api/sessionflags/v1", flagsHandler.HandleSessionFlags)

	// Apply middleware in reverse order (they wrap each other)
	var root http.Handler = mux
	root = middleware.Logging(logger)(root)
	root = middleware.Recovery(logger)(root)
	root = middleware.RequestID(root)

	// CORS handles OPTIONS pre-flight before anything else
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Last-Event-ID"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
