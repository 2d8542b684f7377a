package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

// parseObject recovers a JSON object from raw model output. Parsing is
// all-or-nothing: either a complete object comes back or a *ParseError does —
// no best-effort partial result ever escapes this function.
//
// Recovery ladder:
//  1. strip markdown fences and parse directly;
//  2. extract the outermost {...} substring and parse that (models like to
//     wrap the object in prose despite instructions);
//  3. run json-repair over the stripped text and parse the repaired form.
func parseObject(raw string) (untrusted, error) {
	cleaned := stripFences(raw)

	if obj, err := decodeObject(cleaned); err == nil {
		return obj, nil
	}

	if inner, ok := braceSpan(cleaned); ok {
		if obj, err := decodeObject(inner); err == nil {
			return obj, nil
		}
	}

	repaired, err := jsonrepair.RepairJSON(cleaned)
	if err == nil {
		if obj, err := decodeObject(repaired); err == nil {
			return obj, nil
		}
	}

	return untrusted{}, &ParseError{Raw: raw, Err: fmt.Errorf("no JSON object recovered")}
}

// stripFences removes a leading/trailing markdown code fence if present.
func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}
	return cleaned
}

// braceSpan returns the substring from the first '{' to the last '}'.
func braceSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// decodeObject parses s into an untrusted object, requiring a top-level JSON
// object (not an array or scalar).
func decodeObject(s string) (untrusted, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(s), &fields); err != nil {
		return untrusted{}, err
	}
	return untrusted{fields: fields}, nil
}
