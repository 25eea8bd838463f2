package redis

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/project-kepler/kepler/internal/db"
)

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name    string
		filters []db.TagFilter
		want    string
	}{
		{
			name:    "no filters",
			filters: nil,
			want:    "",
		},
		{
			name: "single field single value",
			filters: []db.TagFilter{
				{Field: "hostname", Values: []string{"Kepler-90"}},
			},
			want: "@hostname:{Kepler\\-90}",
		},
		{
			name: "single field multiple values",
			filters: []db.TagFilter{
				{Field: "disc_year", Values: []string{"2016", "2017"}},
			},
			want: "@disc_year:{2016|2017}",
		},
		{
			name: "multiple fields conjoined",
			filters: []db.TagFilter{
				{Field: "hostname", Values: []string{"TRAPPIST-1"}},
				{Field: "disc_year", Values: []string{"2017"}},
			},
			want: "@hostname:{TRAPPIST\\-1} @disc_year:{2017}",
		},
		{
			name: "value with spaces",
			filters: []db.TagFilter{
				{Field: "pl_name", Values: []string{"TRAPPIST-1 e"}},
			},
			want: "@pl_name:{TRAPPIST\\-1\\ e}",
		},
		{
			name: "empty field skipped",
			filters: []db.TagFilter{
				{Field: "", Values: []string{"x"}},
				{Field: "hostname", Values: []string{"Kepler-22"}},
			},
			want: "@hostname:{Kepler\\-22}",
		},
		{
			name: "empty values skipped",
			filters: []db.TagFilter{
				{Field: "hostname", Values: nil},
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildFilter(tt.filters)
			if got != tt.want {
				t.Errorf("buildFilter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVectorToBytes(t *testing.T) {
	v := []float32{1.0, -0.5, 0.0}
	got := vectorToBytes(v)

	if len(got) != 12 {
		t.Fatalf("expected 12 bytes, got %d", len(got))
	}

	for i, want := range v {
		bits := binary.LittleEndian.Uint32([]byte(got)[i*4:])
		if f := math.Float32frombits(bits); f != want {
			t.Errorf("element %d: got %f, want %f", i, f, want)
		}
	}
}

func TestVectorToBytesEmpty(t *testing.T) {
	if got := vectorToBytes(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
