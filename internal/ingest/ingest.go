// Package ingest implements the bulk pipeline: embed documents in fixed
// batches, stream upserts in chunks, and tolerate partial failure
// without aborting the run.
package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/project-kepler/kepler/internal/domain"
	"github.com/project-kepler/kepler/internal/index"
	"github.com/project-kepler/kepler/internal/metrics"
)

const interruptedReason = "ingestion interrupted"

// upserter is the index slice the pipeline needs.
type upserter interface {
	BulkUpsert(ctx context.Context, docs []domain.Document) ([]index.UpsertAck, error)
}

// Options tune the pipeline. BatchSize bounds one embedding request;
// ChunkSize bounds one streamed upsert. The two are independent.
type Options struct {
	BatchSize int
	ChunkSize int
}

// Service is a stateless bulk-ingestion function over the batch embedder
// and the planet index.
type Service struct {
	embedder domain.BatchEmbedder
	index    upserter
	opts     Options
	logger   *zap.Logger
}

// New creates an ingestion pipeline.
func New(embedder domain.BatchEmbedder, idx upserter, opts Options, logger *zap.Logger) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 500
	}
	return &Service{
		embedder: embedder,
		index:    idx,
		opts:     opts,
		logger:   logger,
	}
}

// Ingest runs the full pipeline over docs. The outcome always accounts
// for every input document: Attempted equals len(docs) and every
// document lands in exactly one of Succeeded or Failed. Batches are
// processed sequentially; a failed batch never blocks the next one.
// Embedded documents accumulate in a pending queue that is flushed to
// the index whenever it reaches ChunkSize, so upsert chunks span
// embedding batches and the two sizes stay independent.
// Cancellation flushes the outcome accumulated so far, marking the
// unattempted remainder as failed.
func (s *Service) Ingest(ctx context.Context, docs []domain.IngestDocument) (domain.IngestOutcome, error) {
	outcome := domain.IngestOutcome{Attempted: len(docs)}
	pending := make([]domain.Document, 0, s.opts.ChunkSize)

	for start := 0; start < len(docs); start += s.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			// Already-embedded documents are written out; only the
			// never-attempted remainder is marked failed.
			s.upsertChunk(context.WithoutCancel(ctx), pending, &outcome)
			s.markInterrupted(&outcome, docs[start:])
			s.logger.Warn("ingestion interrupted",
				zap.Int("processed", start),
				zap.Int("remaining", len(docs)-start))
			return outcome, nil
		}

		end := min(start+s.opts.BatchSize, len(docs))
		pending = s.embedBatch(ctx, docs[start:end], pending, &outcome)

		for len(pending) >= s.opts.ChunkSize {
			s.upsertChunk(ctx, pending[:s.opts.ChunkSize], &outcome)
			pending = pending[s.opts.ChunkSize:]
		}
	}

	s.upsertChunk(ctx, pending, &outcome)

	s.logger.Info("ingestion finished",
		zap.Int("attempted", outcome.Attempted),
		zap.Int("succeeded", outcome.Succeeded),
		zap.Int("failed", outcome.Failed))

	return outcome, nil
}

// embedBatch embeds one batch and appends its documents to the pending
// upsert queue. Any batch-level embedding problem fails the whole batch:
// a misaligned embedding result is never zipped against documents.
func (s *Service) embedBatch(
	ctx context.Context, batch []domain.IngestDocument,
	pending []domain.Document, outcome *domain.IngestOutcome,
) []domain.Document {
	texts := make([]string, len(batch))
	for i, d := range batch {
		texts[i] = d.TextToEmbed
	}

	start := time.Now()
	res, err := s.embedder.BatchEmbed(ctx, texts)
	metrics.IngestBatchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.failBatch(outcome, batch, "embedding failed: "+err.Error())
		return pending
	}
	if len(res.Embeddings) != len(batch) {
		s.failBatch(outcome, batch, "embedding count mismatch")
		return pending
	}

	for i, d := range batch {
		pending = append(pending, domain.Document{
			ID:     d.ID,
			Fields: sanitizeFields(d.Fields),
			Vector: res.Embeddings[i],
		})
	}
	return pending
}

// upsertChunk streams one chunk and records per-document acks. One
// rejected document never stops the stream.
func (s *Service) upsertChunk(ctx context.Context, chunk []domain.Document, outcome *domain.IngestOutcome) {
	if len(chunk) == 0 {
		return
	}

	start := time.Now()
	acks, err := s.index.BulkUpsert(ctx, chunk)
	metrics.IngestChunkDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		for _, d := range chunk {
			s.recordFailure(outcome, d.ID, "upsert failed: "+err.Error())
		}
		return
	}

	for _, ack := range acks {
		if ack.Err != nil {
			s.recordFailure(outcome, ack.ID, ack.Err.Error())
			continue
		}
		outcome.Succeeded++
		metrics.IngestDocsTotal.WithLabelValues("succeeded").Inc()
	}
}

func (s *Service) failBatch(outcome *domain.IngestOutcome, batch []domain.IngestDocument, reason string) {
	s.logger.Warn("batch failed",
		zap.Int("size", len(batch)),
		zap.String("reason", reason))
	for _, d := range batch {
		s.recordFailure(outcome, d.ID, reason)
	}
}

func (s *Service) markInterrupted(outcome *domain.IngestOutcome, remaining []domain.IngestDocument) {
	for _, d := range remaining {
		s.recordFailure(outcome, d.ID, interruptedReason)
	}
}

func (s *Service) recordFailure(outcome *domain.IngestOutcome, id, reason string) {
	outcome.Failed++
	outcome.Failures = append(outcome.Failures, domain.Failure{DocumentID: id, Reason: reason})
	metrics.IngestDocsTotal.WithLabelValues("failed").Inc()
}
