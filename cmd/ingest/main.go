package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/project-kepler/kepler/internal/config"
	dbRedis "github.com/project-kepler/kepler/internal/db/redis"
	"github.com/project-kepler/kepler/internal/index"
	"github.com/project-kepler/kepler/internal/ingest"
	logpkg "github.com/project-kepler/kepler/internal/logger"
	"github.com/project-kepler/kepler/internal/metrics"
	openaiTransport "github.com/project-kepler/kepler/internal/transport/openai"
	"github.com/project-kepler/kepler/internal/version"
)

var (
	inputPath string
	batchSize int
	chunkSize int
	maxDocs   int
	envName   string
	recreate  bool
)

func main() {
	root := &cobra.Command{
		Use:   "kepler-ingest",
		Short: "Bulk-ingest the combined exoplanet/star CSV into the planet index",
		Long: "Reads the combined planet/star CSV, batch-embeds paper abstracts and " +
			"streams bulk upserts into the search index. Partial failures are " +
			"reported per document; one bad record never aborts the run.",
		RunE: run,
	}

	root.Flags().StringVarP(&inputPath, "input", "i", "data/combined_planet_star_data.csv", "path to the combined CSV")
	root.Flags().IntVar(&batchSize, "batch-size", 0, "texts per embedding request (default from config)")
	root.Flags().IntVar(&chunkSize, "chunk-size", 0, "documents per bulk upsert (default from config)")
	root.Flags().IntVar(&maxDocs, "max-docs", 0, "cap on documents to ingest (0 = all)")
	root.Flags().StringVar(&envName, "env", "", "config environment (default from ENV)")
	root.Flags().BoolVar(&recreate, "recreate", false, "drop and recreate the index before ingesting")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	config.LoadDotenv()
	env := envName
	if env == "" {
		env = config.GetEnv()
	}

	cfg, err := config.Load(env)
	if err != nil {
		return err
	}
	if batchSize > 0 {
		cfg.Ingest.BatchSize = batchSize
	}
	if chunkSize > 0 {
		cfg.Ingest.ChunkSize = chunkSize
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ingestion",
		zap.String("version", version.Version),
		zap.String("input", inputPath),
		zap.Int("batch_size", cfg.Ingest.BatchSize),
		zap.Int("chunk_size", cfg.Ingest.ChunkSize),
	)

	// SIGINT flushes the outcome accumulated so far instead of dropping it.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return err
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterIngestMetrics()

	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	repo := index.NewRepository(store, cfg.Index.Name, cfg.Index.KeyPrefix,
		cfg.Embedding.Dimensions,
		index.HNSWParams{M: cfg.Index.HNSWM, EFConstruct: cfg.Index.HNSWEFConstruct},
		logger)
	if recreate {
		if err := repo.Reset(ctx); err != nil {
			return err
		}
	} else if err := repo.Ensure(ctx); err != nil {
		return err
	}

	docs, skipped, err := readDocuments(inputPath, maxDocs)
	if err != nil {
		return err
	}
	logger.Info("Read input",
		zap.Int("documents", len(docs)),
		zap.Int("skipped_no_abstract", skipped),
	)

	pipeline := ingest.New(embedder, repo, ingest.Options{
		BatchSize: cfg.Ingest.BatchSize,
		ChunkSize: cfg.Ingest.ChunkSize,
	}, logger)

	outcome, err := pipeline.Ingest(ctx, docs)
	if err != nil {
		return err
	}

	for _, f := range outcome.Failures {
		logger.Warn("document failed",
			zap.String("id", f.DocumentID),
			zap.String("reason", f.Reason),
		)
	}

	logger.Info("Ingestion outcome",
		zap.Int("attempted", outcome.Attempted),
		zap.Int("succeeded", outcome.Succeeded),
		zap.Int("failed", outcome.Failed),
	)
	return nil
}
