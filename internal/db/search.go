package db

// TagFilter is an exact-match pre-filter on a TAG field. Multiple values
// form a disjunction (@field:{a|b}); multiple filters are conjoined.
type TagFilter struct {
	Field  string
	Values []string
}

// KNNQuery is the input for vector similarity search with optional
// tag pre-filters. CandidatePool bounds the ANN candidates examined
// before truncating to K (EF_RUNTIME); zero means index default.
type KNNQuery struct {
	IndexName     string
	VectorField   string
	Vector        []float32
	K             int
	CandidatePool int
	Filters       []TagFilter
	ReturnFields  []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
