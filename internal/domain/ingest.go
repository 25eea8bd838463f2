package domain

// IngestDocument is one document handed to the ingestion pipeline: the
// scalar fields to index plus the text to embed. The pipeline holds a
// transient copy and discards it once the upsert outcome is recorded.
type IngestDocument struct {
	ID          string
	Fields      map[string]any
	TextToEmbed string
}

// Failure records why a single document was not indexed.
type Failure struct {
	DocumentID string
	Reason     string
}

// IngestOutcome aggregates one ingestion run. Invariants:
// Attempted equals the input document count, Succeeded+Failed == Attempted,
// and a failed document is never counted as succeeded.
type IngestOutcome struct {
	Attempted int
	Succeeded int
	Failed    int
	Failures  []Failure
}
