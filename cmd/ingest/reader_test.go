package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "combined.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadDocuments(t *testing.T) {
	path := writeCSV(t, `# NASA Exoplanet Archive export
arxiv_id,pl_name,hostname,abstract,pl_rade,disc_year,pl_pubdate
1703.01424,TRAPPIST-1 e,TRAPPIST-1,Seven temperate planets around TRAPPIST-1.,0.92,2017,2017-02
1112.1640,Kepler-22 b,Kepler-22,A planet in the habitable zone.,2.4,2011,2011-12-02
`)

	docs, skipped, err := readDocuments(path, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skipped != 0 || len(docs) != 2 {
		t.Fatalf("got %d docs, %d skipped", len(docs), skipped)
	}

	d := docs[0]
	if d.ID != "1703.01424" {
		t.Errorf("id = %q, want arxiv id", d.ID)
	}
	if d.TextToEmbed != "Seven temperate planets around TRAPPIST-1." {
		t.Errorf("text to embed = %q", d.TextToEmbed)
	}
	if v, ok := d.Fields["pl_rade"].(float64); !ok || v != 0.92 {
		t.Errorf("pl_rade = %v (%T), want float64 0.92", d.Fields["pl_rade"], d.Fields["pl_rade"])
	}
	if v, ok := d.Fields["disc_year"].(int64); !ok || v != 2017 {
		t.Errorf("disc_year = %v (%T), want int64 2017", d.Fields["disc_year"], d.Fields["disc_year"])
	}
	if d.Fields["pl_pubdate"] != "2017-02-01" {
		t.Errorf("pl_pubdate = %v, want normalized date", d.Fields["pl_pubdate"])
	}
	if d.Fields["hostname"] != "TRAPPIST-1" {
		t.Errorf("hostname = %v", d.Fields["hostname"])
	}
}

func TestReadDocumentsSkipsRowsWithoutAbstract(t *testing.T) {
	path := writeCSV(t, `arxiv_id,abstract
a1,Some abstract.
a2,
`)

	docs, skipped, err := readDocuments(path, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || skipped != 1 {
		t.Errorf("got %d docs, %d skipped, want 1/1", len(docs), skipped)
	}
}

func TestReadDocumentsMalformedNumericDropped(t *testing.T) {
	path := writeCSV(t, `arxiv_id,abstract,pl_masse,disc_year
a1,Text.,not-a-number,also-bad
`)

	docs, _, err := readDocuments(path, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := docs[0].Fields["pl_masse"]; ok {
		t.Error("malformed numeric must be absent, not a string")
	}
	if _, ok := docs[0].Fields["disc_year"]; ok {
		t.Error("malformed integer must be absent")
	}
}

func TestReadDocumentsMaxDocs(t *testing.T) {
	path := writeCSV(t, `arxiv_id,abstract
a1,First.
a2,Second.
a3,Third.
`)

	docs, _, err := readDocuments(path, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("got %d docs, want cap of 2", len(docs))
	}
}

func TestReadDocumentsFallbackRowID(t *testing.T) {
	path := writeCSV(t, `pl_name,abstract
Planet X,An abstract.
`)

	docs, _, err := readDocuments(path, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs[0].ID != "row_1" {
		t.Errorf("id = %q, want row_1", docs[0].ID)
	}
}

func TestReadDocumentsMissingAbstractColumn(t *testing.T) {
	path := writeCSV(t, `pl_name
Planet X
`)

	if _, _, err := readDocuments(path, 0); err == nil {
		t.Error("expected error for missing abstract column")
	}
}
