package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/project-kepler/kepler/internal/domain"
)

// Typed columns of the combined planet/star CSV. Everything else is
// carried through as a string field.
var (
	numericCols = []string{
		"pl_orbper", "pl_masse", "pl_rade", "sy_dist",
		"star_plx_value", "star_rvz_radvel", "star_fe_h",
		"star_U", "star_B", "star_V", "star_R", "star_I",
		"star_J", "star_H", "star_K",
	}
	integerCols = []string{"disc_year"}
	dateCols    = []string{"pl_pubdate", "releasedate"}
)

// readDocuments parses the combined CSV into ingest documents. Rows
// without an abstract are skipped: there is nothing to embed. maxDocs
// caps the result when positive.
func readDocuments(path string, maxDocs int) ([]domain.IngestDocument, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	if _, ok := cols["abstract"]; !ok {
		return nil, 0, fmt.Errorf("input has no abstract column")
	}

	var (
		docs    []domain.IngestDocument
		skipped int
		rowNum  int
	)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read row %d: %w", rowNum+1, err)
		}
		rowNum++

		abstract := cell(record, cols, "abstract")
		if abstract == "" {
			skipped++
			continue
		}

		docs = append(docs, domain.IngestDocument{
			ID:          documentID(record, cols, rowNum),
			Fields:      rowFields(header, record),
			TextToEmbed: abstract,
		})

		if maxDocs > 0 && len(docs) >= maxDocs {
			break
		}
	}

	return docs, skipped, nil
}

// cell returns the named column's value from the record, or "" when the
// column is absent or the record is too short.
func cell(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

// documentID prefers the arxiv id, falling back to the row number.
func documentID(record []string, cols map[string]int, rowNum int) string {
	if id := cell(record, cols, "arxiv_id"); id != "" {
		return id
	}
	return fmt.Sprintf("row_%d", rowNum)
}

// rowFields coerces typed columns and passes the rest through as strings.
// Values that fail coercion are dropped, matching the absent-value
// convention of the pipeline.
func rowFields(header, record []string) map[string]any {
	fields := make(map[string]any, len(header))
	for i, name := range header {
		if i >= len(record) || record[i] == "" {
			continue
		}
		fields[name] = record[i]
	}

	for _, col := range numericCols {
		raw, ok := fields[col].(string)
		if !ok {
			continue
		}
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			fields[col] = v
		} else {
			delete(fields, col)
		}
	}

	for _, col := range integerCols {
		raw, ok := fields[col].(string)
		if !ok {
			continue
		}
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			fields[col] = v
		} else {
			delete(fields, col)
		}
	}

	for _, col := range dateCols {
		raw, ok := fields[col].(string)
		if !ok {
			continue
		}
		if t, err := parseDate(raw); err == nil {
			fields[col] = t.Format("2006-01-02")
		} else {
			delete(fields, col)
		}
	}

	return fields
}

var dateLayouts = []string{"2006-01-02", "2006-01", time.RFC3339}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
