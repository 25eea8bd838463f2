package domain

// Document is an indexed planet document. Fields hold scalar values
// (string, float64, int); absent values are simply missing keys, never
// NaN/Inf sentinels. The vector is not exposed to clients.
type Document struct {
	ID     string
	Fields map[string]any
	Vector []float32
}

// SearchHit is a single hit from a hybrid search, ordered by index score.
type SearchHit struct {
	ID     string
	Score  float64
	Source map[string]string
}

// Query is one retrieval request: natural-language text plus an optional
// exact keyword filter. Constructed once per retrieval call, immutable.
type Query struct {
	Text         string
	KeywordField string
	KeywordValue string
}

// HasFilter reports whether both filter halves are supplied.
func (q Query) HasFilter() bool {
	return q.KeywordField != "" && q.KeywordValue != ""
}
