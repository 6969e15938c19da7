package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"cvready/config"
	"cvready/embedding"
	"cvready/evaluator"
	"cvready/handlers"
	"cvready/interview"
	"cvready/judge"
	"cvready/matching"
	"cvready/orchestrator"
	"cvready/quality"
	"cvready/repository"
	"cvready/storage"
	"cvready/vectorstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := initPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize Postgres:", err)
	}
	defer db.Close()

	fileStorage, err := storage.NewStorage(storage.StorageConfig{
		Type:      storage.StorageType(cfg.StorageType),
		LocalPath: cfg.StorageDir,
		S3Bucket:  cfg.S3Bucket,
		S3Region:  cfg.S3Region,
	})
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Printf("Storage initialized (type=%s)", cfg.StorageType)

	redisClient := initRedis(cfg.RedisURL)

	// Repositories.
	cvRepo := repository.NewPostgresCvRepository(db)
	jdRepo := repository.NewPostgresJdRepository(db)
	ruleSetRepo := repository.NewPostgresRuleSetRepository(db)
	evalRepo := repository.NewPostgresEvaluationRepository(db)
	chunkStore := repository.NewPostgresChunkStore(db)
	documentRepo := repository.NewDocumentRepository(db)

	// Embedding adapter.
	embeddingClient := embedding.New(cfg.GeminiAPIKey, cfg.Embedding.Dimension)
	embeddingAdapter := embedding.NewAdapter(embeddingClient, chunkStore, cfg.Embedding.BatchSize)

	// Vector store + shared Semantic Evaluator.
	vecStore := vectorstore.NewPostgresStore(db)
	sharedEvaluator := evaluator.New(vecStore)

	// LLM judge adapter, optional Redis result cache.
	judgeClient := judge.NewClient(cfg.GeminiAPIKey)
	judgeAdapter := judge.NewAdapter(judgeClient, cfg.Judge.Enabled)
	if redisClient != nil {
		judgeAdapter.Cache = judge.NewRedisCache(redisClient, time.Duration(cfg.Judge.CacheTTLHours)*time.Hour)
	}

	matchCfg := cfg.Matching.ToMatchingConfig()

	// CV Quality Engine and JD Matching Engine share the same Semantic
	// Evaluator and matching-tuned evaluator.Config.
	qualityEngine := quality.New(sharedEvaluator, ruleSetRepo, cfg.RuleSetKey, matchCfg.Evaluator)
	matchingEngine := matching.New(sharedEvaluator, judgeAdapter)

	var interviewer orchestrator.InterviewQuestionGenerator
	if gen := interview.New(cfg.GeminiAPIKey); gen.Configured() {
		interviewer = gen
	}

	orch := orchestrator.New(
		cvRepo, jdRepo, evalRepo, embeddingAdapter, qualityEngine, matchingEngine, matchCfg,
		orchestrator.WithInterviewQuestionGenerator(interviewer),
	)

	evaluationHandler := handlers.NewEvaluationHandler(orch)
	documentHandler := handlers.NewDocumentHandler(documentRepo, fileStorage)

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/evaluations", evaluationHandler.RunEvaluation)
		api.GET("/evaluations", evaluationHandler.ListEvaluations)
		api.GET("/evaluations/:id", evaluationHandler.GetEvaluationSummary)
		api.DELETE("/evaluations/:id", evaluationHandler.DeleteEvaluation)

		api.POST("/documents/upload", documentHandler.Upload)
		api.GET("/documents/:id", documentHandler.GetDocument)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func initPostgres(cfg config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	ctx := context.Background()
	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		log.Printf("Warning: failed to create pgvector extension: %v", err)
		log.Println("This may be normal if the extension is already installed or requires superuser privileges")
	} else {
		log.Println("pgvector extension enabled")
	}

	log.Println("Postgres connection established with pgvector support")
	return pool, nil
}

// initRedis returns nil when RedisURL is unset, leaving the judge
// adapter's cache as a nil always-miss cache (§8's optional-cache design).
func initRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("Warning: invalid REDIS_URL, disabling judge cache: %v", err)
		return nil
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("Warning: could not reach Redis, disabling judge cache: %v", err)
		return nil
	}
	log.Println("Redis judge cache enabled")
	return client
}
