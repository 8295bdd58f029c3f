package normalize

import (
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"

	"github.com/hupe1980/agentcrew/core"
)

// parseJSONRecord interprets JSON-shaped text as a record. Malformed JSON is
// repaired first. Only objects exposing a known text key qualify, so
// arbitrary JSON answers pass through untouched.
func parseJSONRecord(s string) (core.StructuredRecord, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}

	if !gjson.Valid(trimmed) {
		fixed, err := jsonrepair.JSONRepair(trimmed)
		if err != nil || !gjson.Valid(fixed) {
			return nil, false
		}

		trimmed = fixed
	}

	parsed := gjson.Parse(trimmed)
	if !parsed.IsObject() {
		return nil, false
	}

	found := false

	for _, key := range append(append([]string(nil), ContentKeys...), secondaryKeys...) {
		if parsed.Get(key).Exists() {
			found = true
			break
		}
	}

	if !found {
		return nil, false
	}

	rec, ok := parsed.Value().(map[string]any)
	if !ok {
		return nil, false
	}

	return core.StructuredRecord(rec), true
}
