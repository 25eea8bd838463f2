// Package retriever implements hybrid search: one embedding call per
// query combined with an optional exact keyword restriction.
package retriever

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/project-kepler/kepler/internal/db"
	"github.com/project-kepler/kepler/internal/domain"
)

// searcher is the index slice the retriever needs.
type searcher interface {
	HybridSearch(ctx context.Context, vector []float32, filters []db.TagFilter, k, candidatePool int) ([]domain.SearchHit, error)
}

// Options tune how many hits a search returns and how wide the ANN
// candidate pool is.
type Options struct {
	K             int
	CandidatePool int
}

// Service is a stateless hybrid-search function over the embedder and
// the planet index.
type Service struct {
	embedder domain.Embedder
	index    searcher
	dim      int
	opts     Options
	logger   *zap.Logger
}

// New creates a retriever. dim is the embedding dimensionality the index
// schema was built for.
func New(embedder domain.Embedder, index searcher, dim int, opts Options, logger *zap.Logger) *Service {
	if opts.K <= 0 {
		opts.K = 5
	}
	if opts.CandidatePool < opts.K {
		opts.CandidatePool = opts.K * 10
	}
	return &Service{
		embedder: embedder,
		index:    index,
		dim:      dim,
		opts:     opts,
		logger:   logger,
	}
}

// Search embeds the query text once and runs a KNN search, restricted to
// the exact keyword value when the query carries a filter. The filter is
// a hard AND: no matching documents means zero hits no matter how close
// the vectors are. Hits arrive ordered by descending similarity; the
// index order is kept as-is.
func (s *Service) Search(ctx context.Context, q domain.Query) ([]domain.SearchHit, error) {
	res, err := s.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(res.Embedding) != s.dim {
		return nil, fmt.Errorf("query vector has %d dimensions, index expects %d: %w",
			len(res.Embedding), s.dim, domain.ErrVectorDimMismatch)
	}

	var filters []db.TagFilter
	if q.HasFilter() {
		filters = []db.TagFilter{{Field: q.KeywordField, Values: []string{q.KeywordValue}}}
	}

	hits, err := s.index.HybridSearch(ctx, res.Embedding, filters, s.opts.K, s.opts.CandidatePool)
	if err != nil {
		s.logger.Warn("hybrid search failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchUnavailable, err)
	}

	s.logger.Debug("hybrid search done",
		zap.String("query", q.Text),
		zap.Bool("filtered", q.HasFilter()),
		zap.Int("hits", len(hits)))

	return hits, nil
}
