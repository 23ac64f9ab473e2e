package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/literag/internal/ai"
	"github.com/xxxsen/literag/internal/config"
	"github.com/xxxsen/literag/internal/db"
	"github.com/xxxsen/literag/internal/embedcache"
	"github.com/xxxsen/literag/internal/filestore"
	"github.com/xxxsen/literag/internal/handler"
	"github.com/xxxsen/literag/internal/ingest"
	"github.com/xxxsen/literag/internal/job"
	"github.com/xxxsen/literag/internal/middleware"
	"github.com/xxxsen/literag/internal/repo"
	"github.com/xxxsen/literag/internal/schedule"
	"github.com/xxxsen/literag/internal/service"
	"github.com/xxxsen/literag/internal/template"
	"github.com/xxxsen/literag/internal/vectordb"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "literag",
		Short: "literag rag server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run literag server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func buildGateway(cfg *config.Config) (*ai.Gateway, error) {
	generator, err := ai.NewProvider(cfg.AI.Generation.Provider, cfg.AI.Generation.Data)
	if err != nil {
		return nil, fmt.Errorf("init generation provider: %w", err)
	}
	embedder, err := ai.NewEmbedProvider(cfg.AI.Embedding.Provider, cfg.AI.Embedding.Data)
	if err != nil {
		return nil, fmt.Errorf("init embedding provider: %w", err)
	}
	if cfg.AI.EmbedCacheSize > 0 {
		embedder = embedcache.WrapLruCacheToEmbedProvider(embedder, cfg.AI.EmbedCacheSize, time.Hour)
	}
	return ai.NewGateway(generator, embedder, ai.GatewayConfig{
		GenerationModel: cfg.AI.Generation.Model,
		EmbeddingModel:  cfg.AI.Embedding.Model,
		EmbeddingDim:    cfg.AI.EmbeddingDim,
		MaxInputChars:   cfg.AI.MaxInputChars,
		MaxOutputTokens: cfg.AI.MaxOutputTokens,
		Temperature:     cfg.AI.Temperature,
		Timeout:         cfg.AI.TimeoutSeconds,
	}), nil
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("vectordb", cfg.VectorDB.Provider),
		zap.String("file_store", cfg.Files.Store.Type),
	)

	projectRepo := repo.NewProjectRepo(database)
	assetRepo := repo.NewAssetRepo(database)
	chunkRepo := repo.NewChunkRepo(database)

	store, err := filestore.New(cfg.Files.Store)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	vectorStore, err := vectordb.NewStore(cfg.VectorDB.Provider, &vectordb.FactoryArgs{
		Distance: cfg.VectorDB.Distance,
		Data:     cfg.VectorDB.Data,
	})
	if err != nil {
		return fmt.Errorf("init vector store: %w", err)
	}
	gateway, err := buildGateway(cfg)
	if err != nil {
		return err
	}
	templates := template.NewRegistry(cfg.Templates.PrimaryLocale, cfg.Templates.FallbackLocale)
	pipeline := ingest.NewPipeline(cfg.Files.DefaultChunkSize, cfg.Files.DefaultChunkOverlap)

	vectorService := service.NewVectorService(gateway, vectorStore, chunkRepo)
	projectService := service.NewProjectService(projectRepo, assetRepo, chunkRepo, vectorService, store)
	assetService := service.NewAssetService(cfg.Files, projectRepo, assetRepo, chunkRepo, store)
	documentService := service.NewDocumentService(projectRepo, assetRepo, chunkRepo, store, pipeline)
	ragService := service.NewRAGService(vectorService, gateway, templates)
	authService := service.NewAuthService(cfg.Auth)

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Projects:  handler.NewProjectHandler(projectService),
		Assets:    handler.NewAssetHandler(assetService),
		Documents: handler.NewDocumentHandler(documentService),
		Vectors:   handler.NewVectorHandler(projectService, vectorService),
		RAG:       handler.NewRAGHandler(projectService, ragService),
		JWTSecret: []byte(cfg.Auth.JWTSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(nil),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if cfg.Jobs.VectorGCSpec != "" {
		gcJob := job.NewVectorGCJob(projectRepo, vectorStore, cfg.AI.EmbeddingDim)
		if err := scheduler.AddJob(gcJob, cfg.Jobs.VectorGCSpec); err != nil {
			return fmt.Errorf("schedule vector gc: %w", err)
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
