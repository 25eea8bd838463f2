package ingest

import (
	"math"
	"testing"
)

func TestSanitizeFieldsDropsNonFinite(t *testing.T) {
	out := sanitizeFields(map[string]any{
		"pl_rade":   1.5,
		"pl_masse":  math.NaN(),
		"pl_orbper": math.Inf(1),
		"sy_dist":   math.Inf(-1),
	})

	if v, ok := out["pl_rade"]; !ok || v != 1.5 {
		t.Errorf("finite value lost: %v", out)
	}
	for _, name := range []string{"pl_masse", "pl_orbper", "sy_dist"} {
		if _, ok := out[name]; ok {
			t.Errorf("%s should be absent, not a sentinel: %v", name, out[name])
		}
	}
}

func TestSanitizeFieldsDropsEmptyAndNil(t *testing.T) {
	out := sanitizeFields(map[string]any{
		"pl_name":  "TRAPPIST-1 e",
		"hostname": "",
		"arxiv_id": nil,
	})

	if out["pl_name"] != "TRAPPIST-1 e" {
		t.Errorf("string value lost: %v", out)
	}
	if _, ok := out["hostname"]; ok {
		t.Error("empty string should be absent")
	}
	if _, ok := out["arxiv_id"]; ok {
		t.Error("nil should be absent")
	}
}

func TestSanitizeFieldsKeepsIntegers(t *testing.T) {
	out := sanitizeFields(map[string]any{"disc_year": 2017})
	if out["disc_year"] != 2017 {
		t.Errorf("integer value lost: %v", out)
	}
}
