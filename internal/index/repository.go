package index

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/project-kepler/kepler/internal/db"
	"github.com/project-kepler/kepler/internal/domain"
)

// store is the slice of db.Store the repository needs.
type store interface {
	db.IndexManager
	db.Searcher
	db.HashStore
}

// Repository owns the planet index: schema lifecycle, hybrid search
// and bulk document upserts.
type Repository struct {
	store     store
	name      string
	keyPrefix string
	dim       int
	hnsw      HNSWParams
	logger    *zap.Logger
}

// NewRepository creates a planet index repository. dim is the embedding
// dimensionality the schema is built for.
func NewRepository(s store, name, keyPrefix string, dim int, hnsw HNSWParams, logger *zap.Logger) *Repository {
	return &Repository{
		store:     s,
		name:      name,
		keyPrefix: keyPrefix,
		dim:       dim,
		hnsw:      hnsw,
		logger:    logger,
	}
}

// Dimensions returns the vector dimensionality the index was built for.
func (r *Repository) Dimensions() int {
	return r.dim
}

// Ensure creates the planet index if it does not exist yet. An already
// existing index is not an error.
func (r *Repository) Ensure(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.name, err)
	}
	if exists {
		r.logger.Debug("index already exists", zap.String("index", r.name))
		return nil
	}

	def := PlanetIndexDefinition(r.name, r.keyPrefix, r.dim, r.hnsw)
	if err := r.store.CreateIndex(ctx, def); err != nil {
		// Lost the race against a concurrent creator.
		if errors.Is(err, db.ErrIndexExists) {
			r.logger.Debug("index already exists", zap.String("index", r.name))
			return nil
		}
		return fmt.Errorf("create index %s: %w", r.name, err)
	}
	r.logger.Info("index created",
		zap.String("index", r.name),
		zap.Int("dimensions", r.dim))
	return nil
}

// Reset drops the planet index and recreates it with the current
// schema. Documents keep their hashes; only the index definition is
// rebuilt. A missing index is not an error.
func (r *Repository) Reset(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", r.name, err)
	}

	def := PlanetIndexDefinition(r.name, r.keyPrefix, r.dim, r.hnsw)
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index %s: %w", r.name, err)
	}
	r.logger.Info("index recreated",
		zap.String("index", r.name),
		zap.Int("dimensions", r.dim))
	return nil
}

// HybridSearch runs a KNN query with optional tag pre-filters and maps
// the result to domain hits ordered by descending similarity.
func (r *Repository) HybridSearch(
	ctx context.Context, vector []float32, filters []db.TagFilter, k, candidatePool int,
) ([]domain.SearchHit, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:     r.name,
		VectorField:   VectorFieldName,
		Vector:        vector,
		K:             k,
		CandidatePool: candidatePool,
		Filters:       filters,
		ReturnFields:  returnFieldsWithScore(),
	})
	if err != nil {
		return nil, err
	}

	hits := make([]domain.SearchHit, 0, len(res.Entries))
	for _, e := range res.Entries {
		hits = append(hits, domain.SearchHit{
			ID:     r.trimKey(e.Key),
			Score:  e.Score,
			Source: e.Fields,
		})
	}
	return hits, nil
}

// FetchPlanets looks up planets by exact name, for tools that need
// scalar properties rather than similarity ranking.
func (r *Repository) FetchPlanets(ctx context.Context, names []string) ([]domain.SearchHit, error) {
	if len(names) == 0 {
		return nil, nil
	}
	res, err := r.store.SearchTags(ctx, r.name,
		[]db.TagFilter{{Field: "pl_name", Values: names}},
		len(names), sourceFields)
	if err != nil {
		return nil, err
	}

	hits := make([]domain.SearchHit, 0, len(res.Entries))
	for _, e := range res.Entries {
		hits = append(hits, domain.SearchHit{
			ID:     r.trimKey(e.Key),
			Source: e.Fields,
		})
	}
	return hits, nil
}

// UpsertAck is the per-document result of a bulk upsert.
type UpsertAck struct {
	ID  string
	Err error
}

// BulkUpsert writes documents as hashes under the index key prefix in a
// single pipeline and reports each document's outcome in input order.
// One rejected document never aborts the rest.
func (r *Repository) BulkUpsert(ctx context.Context, docs []domain.Document) ([]UpsertAck, error) {
	items := make([]db.HashSetItem, 0, len(docs))
	acks := make([]UpsertAck, len(docs))

	for i, doc := range docs {
		acks[i].ID = doc.ID
		fields, err := hashFields(doc, r.dim)
		if err != nil {
			acks[i].Err = err
			continue
		}
		items = append(items, db.HashSetItem{
			Key:    r.keyPrefix + doc.ID,
			Fields: fields,
		})
	}

	errs, err := r.store.HSetMulti(ctx, items)
	if err != nil {
		return acks, err
	}

	j := 0
	for i := range acks {
		if acks[i].Err != nil {
			continue
		}
		acks[i].Err = errs[j]
		j++
	}
	return acks, nil
}

func (r *Repository) trimKey(key string) string {
	if len(key) > len(r.keyPrefix) && key[:len(r.keyPrefix)] == r.keyPrefix {
		return key[len(r.keyPrefix):]
	}
	return key
}

func returnFieldsWithScore() []string {
	fields := make([]string, 0, len(sourceFields)+1)
	fields = append(fields, sourceFields...)
	fields = append(fields, "__vector_score")
	return fields
}

// hashFields flattens a document into redis hash fields. Scalars become
// strings; the vector becomes a little-endian FP32 blob.
func hashFields(doc domain.Document, dim int) (map[string]string, error) {
	if len(doc.Vector) != dim {
		return nil, fmt.Errorf("%w: got %d, index expects %d",
			domain.ErrVectorDimMismatch, len(doc.Vector), dim)
	}

	fields := make(map[string]string, len(doc.Fields)+1)
	for name, v := range doc.Fields {
		s, err := formatField(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		fields[name] = s
	}
	fields[VectorFieldName] = encodeVector(doc.Vector)
	return fields, nil
}

func formatField(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	default:
		return "", fmt.Errorf("unsupported field type %T", v)
	}
}

func encodeVector(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
