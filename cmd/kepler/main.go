package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/project-kepler/kepler/internal/agent"
	"github.com/project-kepler/kepler/internal/config"
	"github.com/project-kepler/kepler/internal/db"
	dbRedis "github.com/project-kepler/kepler/internal/db/redis"
	"github.com/project-kepler/kepler/internal/domain"
	"github.com/project-kepler/kepler/internal/embcache"
	"github.com/project-kepler/kepler/internal/index"
	logpkg "github.com/project-kepler/kepler/internal/logger"
	"github.com/project-kepler/kepler/internal/metrics"
	"github.com/project-kepler/kepler/internal/plot"
	"github.com/project-kepler/kepler/internal/retriever"
	chiTransport "github.com/project-kepler/kepler/internal/transport/chi"
	openaiTransport "github.com/project-kepler/kepler/internal/transport/openai"
	"github.com/project-kepler/kepler/internal/version"
)

func main() {
	config.LoadDotenv()
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting kepler API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterAgentMetrics()

	embedder := buildEmbedder(cfg, store, logger)
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	repo := index.NewRepository(store, cfg.Index.Name, cfg.Index.KeyPrefix,
		cfg.Embedding.Dimensions,
		index.HNSWParams{M: cfg.Index.HNSWM, EFConstruct: cfg.Index.HNSWEFConstruct},
		logger)
	if err := repo.Ensure(ctx); err != nil {
		logger.Fatal("Failed to ensure index", zap.Error(err))
	}

	// The embedding model and the index schema must agree on dimension D
	// before the first request, not in the middle of one.
	if err := verifyDimensions(ctx, embedder, repo); err != nil {
		logger.Fatal("Embedding dimension check failed", zap.Error(err))
	}

	retrSvc := retriever.New(embedder, repo, cfg.Embedding.Dimensions, retriever.Options{
		K:             cfg.Index.DefaultK,
		CandidatePool: cfg.Index.CandidatePool,
	}, logger)

	renderer, err := plot.NewRenderer(cfg.Artifacts.Dir, cfg.Artifacts.PublicPrefix)
	if err != nil {
		logger.Fatal("Failed to create plot renderer", zap.Error(err))
	}

	chatModel := openaiTransport.NewChatClient(&openaiTransport.ChatConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Logger:      logger,
	})

	orchestrator := agent.NewOrchestrator(chatModel, []agent.Tool{
		agent.NewSearchTool(retrSvc),
		agent.NewPlotTool(repo, renderer),
	}, cfg.LLM.MaxToolCalls, logger)

	server := chiTransport.NewServer(orchestrator, cfg.Artifacts.Dir, cfg.Artifacts.PublicPrefix)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys, cfg.Artifacts.PublicPrefix))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached.
func buildEmbedder(cfg config.Config, store db.Store, logger *zap.Logger) domain.Embedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	if !cfg.Embedding.CacheOn {
		return base
	}
	return embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
}

// verifyDimensions embeds a probe text and compares against the index
// schema dimension. A mismatch is a configuration error, fatal at startup.
func verifyDimensions(ctx context.Context, embedder domain.Embedder, repo *index.Repository) error {
	probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := embedder.Embed(probeCtx, "dimension probe")
	if err != nil {
		return fmt.Errorf("probe embedding: %w", err)
	}
	if len(res.Embedding) != repo.Dimensions() {
		return fmt.Errorf("%w: model returns %d, index expects %d",
			domain.ErrVectorDimMismatch, len(res.Embedding), repo.Dimensions())
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"error": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
