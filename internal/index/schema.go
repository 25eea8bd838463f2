package index

import "github.com/project-kepler/kepler/internal/db"

// VectorFieldName is the schema field holding the abstract embedding.
const VectorFieldName = "abstract_vector"

// sourceFields are the scalar fields returned to search consumers.
// The vector field is deliberately excluded.
var sourceFields = []string{
	"pl_name", "hostname", "arxiv_id", "title", "abstract",
	"pl_rade", "pl_masse", "pl_orbper", "sy_dist",
	"disc_year", "published_date",
}

// HNSWParams tunes the vector index build.
type HNSWParams struct {
	M           int
	EFConstruct int
}

// PlanetIndexDefinition builds the FT schema for the planet index.
// Keyword-filterable fields are TAG: exact whole-value match, and the
// default TAG indexing is case-insensitive, which the keyword-filter
// contract depends on.
func PlanetIndexDefinition(name, keyPrefix string, dim int, hnsw HNSWParams) *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:     name,
		Prefixes: []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: "pl_name", Type: db.IndexFieldTag},
			{Name: "hostname", Type: db.IndexFieldTag},
			{Name: "arxiv_id", Type: db.IndexFieldTag},
			{Name: "published_date", Type: db.IndexFieldTag},
			{Name: "title", Type: db.IndexFieldText},
			{Name: "abstract", Type: db.IndexFieldText},
			{Name: "pl_rade", Type: db.IndexFieldNumeric},
			{Name: "pl_masse", Type: db.IndexFieldNumeric},
			{Name: "pl_orbper", Type: db.IndexFieldNumeric},
			{Name: "sy_dist", Type: db.IndexFieldNumeric},
			{Name: "disc_year", Type: db.IndexFieldNumeric},
			{
				Name:              VectorFieldName,
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         dim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           hnsw.M,
				VectorEFConstruct: hnsw.EFConstruct,
			},
		},
	}
}
